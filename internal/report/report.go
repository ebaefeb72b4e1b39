// Package report renders validation results for people: a console
// summary, an indented JSON artifact, and a styled XLSX workbook.
package report

import (
	"fmt"
	"strings"

	"github.com/sells-group/quote-audit/internal/model"
)

// sectionOrder fixes how sections appear in summaries and workbooks.
// Sections not listed here render after the known ones, first seen first.
var sectionOrder = []string{
	model.SectionHeader,
	model.SectionSummary,
	model.SectionLines,
	model.SectionLineTotals,
	model.SectionCalculations,
}

// sections returns the result's sections in render order.
func sections(res *model.ValidationResult) []string {
	present := make(map[string]bool, len(res.Details))
	for _, d := range res.Details {
		present[d.Section] = true
	}

	var out []string
	for _, s := range sectionOrder {
		if present[s] {
			out = append(out, s)
			delete(present, s)
		}
	}
	for _, d := range res.Details {
		if present[d.Section] {
			out = append(out, d.Section)
			delete(present, d.Section)
		}
	}
	return out
}

// Summary formats a validation result as plain text for CLI output.
func Summary(res *model.ValidationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Validation: %s\n", res.OverallStatus)
	if res.TransactionID != "" {
		fmt.Fprintf(&b, "Transaction: %s\n", res.TransactionID)
	}
	if res.DocumentName != "" {
		fmt.Fprintf(&b, "Document: %s\n", res.DocumentName)
	}
	fmt.Fprintf(&b, "Checks: %d total, %d matched, %d mismatched\n",
		res.TotalChecked, res.Matches, res.Mismatches)

	b.WriteString("\nResults by Section:\n")
	for _, section := range sections(res) {
		details := res.SectionResults(section)
		passed := 0
		for _, d := range details {
			if d.Match {
				passed++
			}
		}
		fmt.Fprintf(&b, "  %s: %d/%d passed\n", section, passed, len(details))
	}

	if res.Mismatches > 0 {
		b.WriteString("\nMismatches:\n")
		for _, d := range res.Details {
			if d.Match {
				continue
			}
			fmt.Fprintf(&b, "  ✗ %s/%s\n", d.Section, d.FieldName)
			fmt.Fprintf(&b, "      Expected: %v\n", d.Expected)
			fmt.Fprintf(&b, "      Found:    %v\n", d.Found)
			if d.Message != "" {
				fmt.Fprintf(&b, "      %s\n", d.Message)
			}
		}
	}

	return b.String()
}
