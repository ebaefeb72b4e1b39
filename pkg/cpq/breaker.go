package cpq

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/quote-audit/internal/resilience"
)

// breakerClient routes every call through a circuit breaker so batch work
// against a dead API fails fast instead of burning a retry cycle per
// document.
type breakerClient struct {
	next Client
	cb   *resilience.CircuitBreaker
}

// WithBreaker wraps client behind cb. Transient failures open the circuit
// after the configured streak; auth and not-found answers never do.
func WithBreaker(client Client, cb *resilience.CircuitBreaker) Client {
	return &breakerClient{next: client, cb: cb}
}

// NewBreaker returns a circuit breaker tuned by cfg that logs state
// transitions. Intended for wrapping one Client via WithBreaker.
func NewBreaker(cfg resilience.CircuitBreakerConfig) *resilience.CircuitBreaker {
	cfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("cpq circuit state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return resilience.NewCircuitBreaker(cfg)
}

func (b *breakerClient) FetchTransaction(ctx context.Context, transactionID string) (map[string]any, error) {
	return resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) (map[string]any, error) {
		return b.next.FetchTransaction(ctx, transactionID)
	})
}

func (b *breakerClient) FetchTransactionLines(ctx context.Context, transactionID string) ([]map[string]any, error) {
	return resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) ([]map[string]any, error) {
		return b.next.FetchTransactionLines(ctx, transactionID)
	})
}
