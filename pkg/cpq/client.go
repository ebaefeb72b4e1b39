// Package cpq provides a client for the CPQ commerce transaction REST API.
package cpq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/quote-audit/internal/resilience"
)

// transactionPath is the v16 commerce-process transaction resource.
const transactionPath = "/commerceDocumentsUcpqStandardCommerceProcessTransaction"

// Client defines the CPQ API operations used by the validation pipeline.
type Client interface {
	// FetchTransaction returns the raw transaction payload for the given ID.
	FetchTransaction(ctx context.Context, transactionID string) (map[string]any, error)

	// FetchTransactionLines returns the transactionLine child collection.
	// A missing collection yields an empty slice, not an error.
	FetchTransactionLines(ctx context.Context, transactionID string) ([]map[string]any, error)
}

// Option configures the CPQ client.
type Option func(*httpClient)

// WithBearerToken authenticates requests with a bearer token. Takes
// precedence over basic auth when both are configured.
func WithBearerToken(token string) Option {
	return func(c *httpClient) {
		c.token = token
	}
}

// WithBasicAuth authenticates requests with username and password.
func WithBasicAuth(username, password string) Option {
	return func(c *httpClient) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the per-request timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit sets a per-second rate limit for CPQ API calls.
// A burst equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL  string
	token    string
	username string
	password string
	http     *http.Client
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
}

// NewClient creates a CPQ client for the given API base URL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: trimSlash(baseURL),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 500 * time.Millisecond,
			Multiplier:     2.0,
			JitterFraction: 0.25,
			OnRetry:        resilience.RetryLogger("cpq", "get"),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func (c *httpClient) FetchTransaction(ctx context.Context, transactionID string) (map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/%s", transactionPath, transactionID))
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("cpq: fetch transaction %s", transactionID))
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("cpq: decode transaction %s", transactionID))
	}
	return payload, nil
}

// linesEnvelope matches the collection shape the API returns, with the
// records under "items".
type linesEnvelope struct {
	Items []map[string]any `json:"items"`
}

func (c *httpClient) FetchTransactionLines(ctx context.Context, transactionID string) ([]map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/%s/transactionLine", transactionPath, transactionID))
	if err != nil {
		// Transactions without a line collection 404 here.
		if errors.Is(err, ErrNotFound) {
			return []map[string]any{}, nil
		}
		return nil, eris.Wrap(err, fmt.Sprintf("cpq: fetch transaction lines %s", transactionID))
	}

	var envelope linesEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Items != nil {
		return envelope.Items, nil
	}

	// Some deployments return a bare array.
	var bare []map[string]any
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	return nil, eris.Errorf("cpq: decode transaction lines %s: unrecognized payload", transactionID)
}

// get performs an authenticated GET relative to the base URL, retrying
// connection failures and retryable statuses (5xx, 408, 429).
func (c *httpClient) get(ctx context.Context, path string) ([]byte, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "cpq: rate limit")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, eris.Wrap(err, "cpq: create request")
		}
		c.applyAuth(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "cpq: request"), 0)
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "cpq: read response body")
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, eris.Wrap(ErrAuth, fmt.Sprintf("status %d", resp.StatusCode))
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode >= 500:
			srvErr := &ServerError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
			return nil, resilience.NewTransientError(srvErr, resp.StatusCode)
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			// 408 and 429 clear on their own; retry them like 5xx.
			return nil, resilience.NewTransientError(
				eris.Errorf("cpq: status %d: %s", resp.StatusCode, truncate(string(body), 200)), resp.StatusCode)
		default:
			return nil, eris.Errorf("cpq: unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
		}
	})
}

func (c *httpClient) applyAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", "application/json")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
