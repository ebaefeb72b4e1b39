package cpq

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrAuth indicates the API rejected the configured credentials (401/403).
var ErrAuth = eris.New("cpq: authentication failed")

// ErrNotFound indicates the transaction ID does not exist (404).
var ErrNotFound = eris.New("cpq: transaction not found")

// ServerError indicates a 5xx response from the CPQ API. It is classified
// as transient, so requests that see one are retried before it surfaces.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cpq: server error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("cpq: server error: status %d: %s", e.StatusCode, e.Body)
}
