package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"
)

func TestIsTransient_Nil(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil should not be transient")
	}
}

func TestIsTransient_TransientError(t *testing.T) {
	err := NewTransientError(errors.New("service unavailable"), 503)
	if !IsTransient(err) {
		t.Error("TransientError should be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	inner := NewTransientError(errors.New("gateway timeout"), 504)
	wrapped := fmt.Errorf("fetch transaction: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("wrapped TransientError should be transient")
	}
}

func TestIsTransient_PermanentError(t *testing.T) {
	if IsTransient(errors.New("document has no tables")) {
		t.Error("plain error should not be transient")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient_NetTimeout(t *testing.T) {
	var err net.Error = timeoutErr{}
	if !IsTransient(err) {
		t.Error("net timeout should be transient")
	}
}

func TestIsTransient_Syscall(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED} {
		if !IsTransient(fmt.Errorf("dial: %w", errno)) {
			t.Errorf("%v should be transient", errno)
		}
	}
}

func TestIsTransient_MessagePatterns(t *testing.T) {
	cases := []string{
		"read tcp 10.0.0.1:443: connection reset by peer",
		"write: broken pipe",
		"lookup api.example.com: no such host",
		"net/http: TLS handshake timeout",
		"context deadline exceeded (Client.Timeout) i/o timeout",
	}
	for _, msg := range cases {
		if !IsTransient(errors.New(msg)) {
			t.Errorf("%q should be transient", msg)
		}
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	transient := []int{408, 429, 500, 502, 503, 504}
	for _, code := range transient {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("status %d should be transient", code)
		}
	}
	permanent := []int{200, 301, 400, 401, 403, 404, 422}
	for _, code := range permanent {
		if IsTransientHTTPStatus(code) {
			t.Errorf("status %d should not be transient", code)
		}
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	te := NewTransientError(inner, 500)
	if !errors.Is(te, inner) {
		t.Error("TransientError should unwrap to its cause")
	}
	if te.Error() != "boom" {
		t.Errorf("expected inner message, got %q", te.Error())
	}
	if te.StatusCode != 500 {
		t.Errorf("expected status 500, got %d", te.StatusCode)
	}
}

func TestFromRetryConfig(t *testing.T) {
	cfg := FromRetryConfig(5, 200)
	if cfg.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialBackoff != 200*time.Millisecond {
		t.Errorf("expected 200ms backoff, got %v", cfg.InitialBackoff)
	}
	// Unset values keep defaults.
	if cfg.Multiplier != 2.0 {
		t.Errorf("expected default multiplier, got %v", cfg.Multiplier)
	}

	zero := FromRetryConfig(0, 0)
	if zero.MaxAttempts != 3 || zero.InitialBackoff != 500*time.Millisecond {
		t.Errorf("zero inputs should keep defaults, got %+v", zero)
	}
}

func TestFromCircuitConfig(t *testing.T) {
	cfg := FromCircuitConfig(3, 10)
	if cfg.FailureThreshold != 3 {
		t.Errorf("expected threshold 3, got %d", cfg.FailureThreshold)
	}
	if cfg.ResetTimeout != 10*time.Second {
		t.Errorf("expected 10s reset, got %v", cfg.ResetTimeout)
	}

	zero := FromCircuitConfig(0, 0)
	if zero.FailureThreshold != 5 || zero.ResetTimeout != 30*time.Second {
		t.Errorf("zero inputs should keep defaults, got %+v", zero)
	}
}

func TestClassifyError(t *testing.T) {
	if got := ClassifyError(NewTransientError(errors.New("503"), 503)); got != "transient" {
		t.Errorf("expected transient, got %q", got)
	}
	if got := ClassifyError(errors.New("invalid input")); got != "permanent" {
		t.Errorf("expected permanent, got %q", got)
	}
	if got := ClassifyError(errors.New("connection reset by peer")); got != "transient" {
		t.Errorf("expected transient, got %q", got)
	}
}

func TestNewDLQEntry(t *testing.T) {
	e := NewDLQEntry("4842296", "quote_174044.xls", NewTransientError(errors.New("status 503"), 503))
	if e.TransactionID != "4842296" || e.Document != "quote_174044.xls" {
		t.Errorf("unexpected identity fields: %+v", e)
	}
	if e.ErrorType != "transient" {
		t.Errorf("expected transient, got %q", e.ErrorType)
	}
	if e.Error != "status 503" {
		t.Errorf("unexpected error message %q", e.Error)
	}
	if e.FailedAt.IsZero() {
		t.Error("FailedAt should be set")
	}
}

func TestDoValRespectsPreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	_, err := DoVal(ctx, fastConfig(), func(_ context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("fail"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected a single attempt under a cancelled context, got %d", calls)
	}
}
