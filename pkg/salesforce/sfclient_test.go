package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSFClient creates an sfClient backed by an httptest server.
func newTestSFClient(t *testing.T, handler http.Handler) (Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	require.NotNil(t, sf)

	return NewClient(sf), ts
}

func quoteRecord(id, name, transactionID string, primary bool) map[string]any {
	rec := map[string]any{"attributes": map[string]any{"type": "BigMachines__Quote__c"}}
	rec["Id"] = id
	rec["Name"] = name
	rec["BigMachines__Transaction_Id__c"] = transactionID
	rec["BigMachines__Is_Primary__c"] = primary
	return rec
}

func TestSFClient_Query(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/query")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 1,
			"done":      true,
			"records": []map[string]any{
				quoteRecord("a0Bxx", "174044", "4842296", true),
			},
		})
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	var quotes []Quote
	err := client.Query(context.Background(), "SELECT Id, Name FROM BigMachines__Quote__c", &quotes)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "a0Bxx", quotes[0].ID)
	assert.Equal(t, "174044", quotes[0].Name)
	assert.Equal(t, "4842296", quotes[0].TransactionID)
	assert.True(t, quotes[0].IsPrimary)
}

func TestSFClient_Query_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"message": "invalid SOQL", "errorCode": "MALFORMED_QUERY"},
		})
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	var quotes []Quote
	err := client.Query(context.Background(), "INVALID SOQL", &quotes)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sf: query")
}

func TestSFClient_ResolveThroughWrapper(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		soql := r.URL.Query().Get("q")
		assert.Contains(t, soql, "Name = '174044'")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 1,
			"done":      true,
			"records": []map[string]any{
				quoteRecord("a0Bxx", "174044", "4842296", true),
			},
		})
	})

	client, ts := newTestSFClient(t, handler)
	defer ts.Close()

	id, err := ResolveTransactionID(context.Background(), client, "174044")
	require.NoError(t, err)
	assert.Equal(t, "4842296", id)
}
