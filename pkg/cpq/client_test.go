package cpq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quote-audit/internal/resilience"
)

// fastRetry keeps retry behavior but drops the backoff so tests stay quick.
func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		Multiplier:     1.0,
		JitterFraction: 0,
	}
}

func TestFetchTransaction_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, transactionPath+"/TX-001", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"_id": "TX-001",
			"quoteNumber_t_c": {"value": "Q-2024-0042"},
			"quoteNetPrice_t_c": {"value": 1234.56, "displayValue": "$1,234.56"}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithBearerToken("tok-123"))
	got, err := client.FetchTransaction(context.Background(), "TX-001")

	require.NoError(t, err)
	assert.Equal(t, "TX-001", got["_id"])
	quote, ok := got["quoteNumber_t_c"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Q-2024-0042", quote["value"])
}

func TestFetchTransaction_BasicAuthFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "auditor", user)
		assert.Equal(t, "s3cret", pass)

		w.Write([]byte(`{"_id": "TX-002"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithBasicAuth("auditor", "s3cret"))
	got, err := client.FetchTransaction(context.Background(), "TX-002")

	require.NoError(t, err)
	assert.Equal(t, "TX-002", got["_id"])
}

func TestFetchTransaction_BearerTakesPrecedence(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _, basic := r.BasicAuth()
		assert.False(t, basic)

		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithBearerToken("tok-123"), WithBasicAuth("auditor", "s3cret"))
	_, err := client.FetchTransaction(context.Background(), "TX-003")
	require.NoError(t, err)
}

func TestFetchTransaction_AuthError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithBearerToken("bad-token"))
	_, err := client.FetchTransaction(context.Background(), "TX-001")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))
}

func TestFetchTransaction_Forbidden(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.FetchTransaction(context.Background(), "TX-001")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))
}

func TestFetchTransaction_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithBearerToken("tok"))
	_, err := client.FetchTransaction(context.Background(), "TX-MISSING")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFetchTransaction_ServerErrorRetriesThenFails(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream down`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRetryConfig(fastRetry()))
	_, err := client.FetchTransaction(context.Background(), "TX-001")

	require.Error(t, err)
	var srvErr *ServerError
	assert.True(t, errors.As(err, &srvErr))
	assert.Equal(t, http.StatusBadGateway, srvErr.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetchTransaction_ServerErrorRecovers(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"_id": "TX-001"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRetryConfig(fastRetry()))
	got, err := client.FetchTransaction(context.Background(), "TX-001")

	require.NoError(t, err)
	assert.Equal(t, "TX-001", got["_id"])
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetchTransaction_RateLimitedRetries(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"_id": "TX-001"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRetryConfig(fastRetry()))
	got, err := client.FetchTransaction(context.Background(), "TX-001")

	require.NoError(t, err)
	assert.Equal(t, "TX-001", got["_id"])
	assert.Equal(t, int32(2), attempts.Load())
}

func TestFetchTransaction_NoRetryOnAuthError(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRetryConfig(fastRetry()))
	_, err := client.FetchTransaction(context.Background(), "TX-001")

	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestFetchTransaction_ConnectionErrorRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	var attempts atomic.Int32
	cfg := fastRetry()
	cfg.OnRetry = func(int, error) { attempts.Add(1) }

	client := NewClient(srv.URL, WithRetryConfig(cfg))
	_, err := client.FetchTransaction(context.Background(), "TX-001")

	require.Error(t, err)
	assert.Equal(t, int32(2), attempts.Load()) // retried twice after the first failure
}

func TestFetchTransaction_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.FetchTransaction(context.Background(), "TX-001")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestFetchTransaction_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL)
	_, err := client.FetchTransaction(ctx, "TX-001")
	require.Error(t, err)
}

func TestFetchTransactionLines_Envelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, transactionPath+"/TX-001/transactionLine", r.URL.Path)

		w.Write([]byte(`{
			"items": [
				{"partNumber_l": "SG-100", "netPrice_l": {"value": 50.0}},
				{"partNumber_l": "CS-200", "netPrice_l": {"value": 75.5}}
			],
			"links": []
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithBearerToken("tok"))
	lines, err := client.FetchTransactionLines(context.Background(), "TX-001")

	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "SG-100", lines[0]["partNumber_l"])
	assert.Equal(t, "CS-200", lines[1]["partNumber_l"])
}

func TestFetchTransactionLines_BareArray(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"partNumber_l": "SG-100"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	lines, err := client.FetchTransactionLines(context.Background(), "TX-001")

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "SG-100", lines[0]["partNumber_l"])
}

func TestFetchTransactionLines_NotFoundMeansEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	lines, err := client.FetchTransactionLines(context.Background(), "TX-001")

	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFetchTransactionLines_AuthError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.FetchTransactionLines(context.Background(), "TX-001")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient("https://cpq.example.com/api/")
	hc := c.(*httpClient)
	assert.Equal(t, "https://cpq.example.com/api", hc.baseURL)
	assert.NotNil(t, hc.http)
	assert.Equal(t, 30*time.Second, hc.http.Timeout)
	assert.Equal(t, 3, hc.retry.MaxAttempts)
	assert.Nil(t, hc.limiter)
}

func TestWithRateLimit(t *testing.T) {
	t.Parallel()

	c := NewClient("https://cpq.example.com", WithRateLimit(2.5))
	hc := c.(*httpClient)
	require.NotNil(t, hc.limiter)
}

func TestServerError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cpq: server error: status 503", (&ServerError{StatusCode: 503}).Error())
	assert.Contains(t, (&ServerError{StatusCode: 502, Body: "upstream"}).Error(), "upstream")
}
