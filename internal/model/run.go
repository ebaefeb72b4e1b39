package model

import "time"

// RunStatus tracks a validation run through its lifecycle.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusError    RunStatus = "error"
)

// Run is one audit of a quote document against its CPQ transaction.
// Result is set once the run completes; Error records pipeline failures
// that prevented a verdict. Matches and Mismatches duplicate the result
// counters so run listings don't need the full payload.
type Run struct {
	ID            string            `json:"id"`
	TransactionID string            `json:"transaction_id"`
	DocumentName  string            `json:"document_name"`
	Status        RunStatus         `json:"status"`
	Matches       int               `json:"matches"`
	Mismatches    int               `json:"mismatches"`
	Result        *ValidationResult `json:"result,omitempty"`
	Error         string            `json:"error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
