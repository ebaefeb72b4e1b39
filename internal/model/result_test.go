package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResultFinalize(t *testing.T) {
	v := &ValidationResult{
		Details: []FieldResult{
			{FieldName: "quoteNumber_t_c", Match: true},
			{FieldName: "quoteNetPrice_t_c", Match: false},
			{FieldName: "currency_t", Match: true},
		},
	}
	v.Finalize()

	assert.Equal(t, 3, v.TotalChecked)
	assert.Equal(t, 2, v.Matches)
	assert.Equal(t, 1, v.Mismatches)
	assert.Equal(t, StatusFailed, v.OverallStatus)
}

func TestValidationResultFinalizeAllMatch(t *testing.T) {
	v := &ValidationResult{
		Details: []FieldResult{{FieldName: "currency_t", Match: true}},
	}
	v.Finalize()

	assert.Equal(t, StatusPassed, v.OverallStatus)
	assert.Zero(t, v.Mismatches)
}

func TestValidationResultFinalizeEmpty(t *testing.T) {
	v := &ValidationResult{}
	v.Finalize()

	// No checks means nothing mismatched.
	assert.Equal(t, StatusPassed, v.OverallStatus)
	assert.Zero(t, v.TotalChecked)
}

func TestDocumentRecordMarshalFlat(t *testing.T) {
	qty := 2
	rec := &DocumentRecord{
		Fields: map[string]any{
			"quoteNumber_t_c": "174044",
			"quoteNetPrice_t_c": 1234.56,
		},
		LineItems: []LineItem{{PartNumber: "SG5812A", Quantity: &qty}},
		Metadata:  ExtractionMetadata{FieldsFound: 2, FieldsMissing: []string{"status_t"}},
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(raw, &flat))

	assert.Equal(t, "174044", flat["quoteNumber_t_c"])
	assert.Contains(t, flat, "line_items")
	assert.Contains(t, flat, "_extraction_metadata")

	meta, ok := flat["_extraction_metadata"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, meta["fields_found"])
}

func TestLineItemEmpty(t *testing.T) {
	assert.True(t, LineItem{DiscountPercent: f64(10)}.Empty())

	qty := 1
	assert.False(t, LineItem{Quantity: &qty}.Empty())
	assert.False(t, LineItem{PartNumber: "CS-DEPLOY"}.Empty())
}

func f64(v float64) *float64 { return &v }
