package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/quote-audit/internal/grid"
)

var (
	horizSecondEntityRe = regexp.MustCompile(`^[A-Z][a-zA-Z\s]+(?:Ltd|Inc|Corp|LLC)[_\s]+[A-Z]+\s+[A-Z][a-zA-Z\s]+(?:Agreement|Agreem|Contract)`)
	horizNewSectionRe   = regexp.MustCompile(`^[A-Z][a-zA-Z\s]+\s+[A-Z][a-zA-Z\s]+$`)
)

// Cell phrases that end a multi-cell value run: the next field's label
// has started.
var horizontalStops = []string{
	"contract start date", "contract end date", "contract number",
	"payment terms", "incoterm", "quote from", "quote to", "end customer",
}

// looksLikeLabel reports whether a cell reads as a field label rather
// than a value. Bare yes/no cells anchor boolean labels and never start
// a text value.
func looksLikeLabel(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	return strings.HasSuffix(lowered, ":") || lowered == "yes" || lowered == "no"
}

// collectHorizontal gathers value cells to the right of a label. Single
// cell fields stop at the first non-blank cell; multi-cell fields skip
// blanks and join up to maxCells cells, stopping when a new label or
// section begins. Entity fields additionally stop before a second
// entity title.
func collectHorizontal(t grid.Table, row, col int, multiCell bool, maxCells int, entityField bool) string {
	var values []string
	cols := t.Cols()
	collected := 0
	for offset := 1; offset < cols-col; offset++ {
		if collected >= maxCells {
			break
		}
		candidate := grid.CleanText(t.Cell(row, col+offset))
		if candidate == "" {
			if multiCell {
				continue
			}
			break
		}

		if entityField && horizSecondEntityRe.MatchString(candidate) {
			break
		}
		if looksLikeLabel(candidate) && !multiCell {
			break
		}
		if multiCell && containsString(horizontalStops, strings.ToLower(candidate)) {
			break
		}
		if entityField && horizNewSectionRe.MatchString(candidate) && len(strings.Fields(candidate)) >= 2 {
			low := strings.ToLower(candidate)
			if strings.Contains(low, "ltd") || strings.Contains(low, "inc") ||
				strings.Contains(low, "corp") || strings.Contains(low, "llc") ||
				strings.Contains(low, "technology") || strings.Contains(low, "solutions") {
				break
			}
		}

		values = append(values, candidate)
		collected++
		if !multiCell {
			break
		}
	}
	return strings.TrimSpace(strings.Join(values, " "))
}

// collectVertical gathers value cells below a label: up to three rows
// for multi-cell fields, one otherwise.
func collectVertical(t grid.Table, row, col int, multiCell bool) string {
	var values []string
	rows := t.Rows()
	maxOffset := 1
	if multiCell {
		maxOffset = 3
	}
	for offset := 1; offset <= maxOffset; offset++ {
		if row+offset >= rows {
			break
		}
		candidate := grid.CleanText(t.Cell(row+offset, col))
		if candidate == "" {
			if multiCell {
				continue
			}
			break
		}
		if looksLikeLabel(candidate) && !multiCell {
			break
		}
		values = append(values, candidate)
		if !multiCell {
			break
		}
	}
	return strings.TrimSpace(strings.Join(values, " "))
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
