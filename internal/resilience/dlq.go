package resilience

import "time"

// DLQEntry records one document that failed its audit, with enough
// context to rerun it once the cause clears.
type DLQEntry struct {
	TransactionID string    `json:"transaction_id"`
	Document      string    `json:"document"`
	Error         string    `json:"error"`
	ErrorType     string    `json:"error_type"` // "transient" or "permanent"
	FailedAt      time.Time `json:"failed_at"`
}

// NewDLQEntry builds an entry for a failed document audit.
func NewDLQEntry(transactionID, document string, err error) DLQEntry {
	return DLQEntry{
		TransactionID: transactionID,
		Document:      document,
		Error:         err.Error(),
		ErrorType:     ClassifyError(err),
		FailedAt:      time.Now().UTC(),
	}
}

// ClassifyError buckets an error for triage: transient failures are worth
// rerunning as-is, permanent ones need a fix first.
func ClassifyError(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
