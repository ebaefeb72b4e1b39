package grid

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
)

var (
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
	pdfMagic = []byte("%PDF")
)

// Decoder turns raw document bytes into the uniform grid form.
type Decoder struct {
	pdf *PDFDecoder
}

// NewDecoder creates a Decoder. pdftotextPath overrides the pdftotext
// binary location; empty means $PATH lookup.
func NewDecoder(pdftotextPath string) *Decoder {
	return &Decoder{pdf: NewPDFDecoder(pdftotextPath)}
}

// Decode sniffs the document format and decodes it: PDFs by magic or
// extension, XLSX archives by zip magic, everything else as the HTML
// table markup that legacy ".xls" quote exports contain.
func (d *Decoder) Decode(ctx context.Context, name string, data []byte) (*Document, error) {
	var (
		tables []Table
		text   string
		err    error
	)
	switch {
	case bytes.HasPrefix(data, pdfMagic) || strings.EqualFold(filepath.Ext(name), ".pdf"):
		tables, text, err = d.pdf.Decode(ctx, data)
	case bytes.HasPrefix(data, zipMagic):
		tables, text, err = DecodeXLSX(data)
	default:
		tables, text, err = DecodeHTML(data)
	}
	if err != nil {
		return nil, err
	}
	return &Document{Name: filepath.Base(name), Tables: tables, Text: text}, nil
}
