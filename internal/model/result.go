package model

// Overall validation outcomes. A run passes only when nothing mismatched.
const (
	StatusPassed = "PASSED"
	StatusFailed = "FAILED"
)

// Comparison sections group related checks in reports.
const (
	SectionHeader       = "Header"
	SectionSummary      = "Summary"
	SectionLines        = "Lines"
	SectionLineTotals   = "Line Totals"
	SectionCalculations = "Calculations"
)

// FieldResult is the outcome of comparing one attribute between the
// authoritative transaction and the document.
type FieldResult struct {
	FieldName string `json:"field_name"`
	Section   string `json:"section"`
	Expected  any    `json:"expected"`
	Found     any    `json:"found"`
	Match     bool   `json:"match"`
	Message   string `json:"message,omitempty"`
}

// ValidationResult aggregates every field comparison of a run.
type ValidationResult struct {
	OverallStatus string        `json:"overall_status"`
	TotalChecked  int           `json:"total_checked"`
	Matches       int           `json:"matches"`
	Mismatches    int           `json:"mismatches"`
	Details       []FieldResult `json:"details"`
	TransactionID string        `json:"transaction_id"`
	DocumentName  string        `json:"document_name"`
}

// Finalize recomputes the aggregate counters and overall status from
// Details. Call after the last FieldResult is appended.
func (v *ValidationResult) Finalize() {
	v.TotalChecked = len(v.Details)
	v.Matches = 0
	for _, d := range v.Details {
		if d.Match {
			v.Matches++
		}
	}
	v.Mismatches = v.TotalChecked - v.Matches
	if v.Mismatches == 0 {
		v.OverallStatus = StatusPassed
	} else {
		v.OverallStatus = StatusFailed
	}
}

// SectionResults returns the details belonging to the given section.
func (v *ValidationResult) SectionResults(section string) []FieldResult {
	var out []FieldResult
	for _, d := range v.Details {
		if d.Section == section {
			out = append(out, d)
		}
	}
	return out
}
