package grid

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var cellSplitRe = regexp.MustCompile(`\s{2,}`)

// PDFDecoder extracts quote text with the pdftotext CLI tool and
// rebuilds a best-effort grid from its column-preserving layout mode.
type PDFDecoder struct {
	binPath string
}

// NewPDFDecoder creates a decoder. If binPath is empty, "pdftotext" is used.
func NewPDFDecoder(binPath string) *PDFDecoder {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PDFDecoder{binPath: binPath}
}

// Decode runs pdftotext -layout over the PDF bytes. Each page becomes
// one table whose rows are the page's lines split on runs of two or
// more spaces, which is how -layout renders column gaps.
func (d *PDFDecoder) Decode(ctx context.Context, data []byte) ([]Table, string, error) {
	cmd := exec.CommandContext(ctx, d.binPath, "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, "", eris.Wrapf(err, "grid: pdftotext failed: %s", stderr.String())
	}

	text := stdout.String()
	tables := LayoutTables(text)
	if len(tables) == 0 {
		return nil, "", eris.New("grid: pdf produced no text")
	}
	return tables, text, nil
}

// LayoutTables converts pdftotext -layout output into tables, one per
// form-feed-separated page.
func LayoutTables(text string) []Table {
	var tables []Table
	for _, page := range strings.Split(text, "\f") {
		var t Table
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimRight(line, " \t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			cells := cellSplitRe.Split(strings.TrimLeft(line, " \t"), -1)
			t.Cells = append(t.Cells, cells)
		}
		if t.Rows() > 0 {
			tables = append(tables, t)
		}
	}
	return tables
}
