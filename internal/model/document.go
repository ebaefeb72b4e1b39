package model

import "encoding/json"

// ExtractionEvent records where and how a single field value was found.
type ExtractionEvent struct {
	Field      string  `json:"field"`
	Method     string  `json:"method"`   // "label" or "pattern"
	Location   string  `json:"location"` // cell reference such as "T1!B3", or "pattern"
	Confidence float64 `json:"confidence"`
	RawValue   string  `json:"raw_value"`
}

// ExtractionMetadata summarizes an extraction pass over one document.
type ExtractionMetadata struct {
	FieldsFound      int                `json:"fields_found"`
	FieldsMissing    []string           `json:"fields_missing"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	Events           []ExtractionEvent  `json:"extraction_events"`
	Warnings         []string           `json:"warnings"`
}

// DocumentRecord is the structured result of extracting a quote document:
// header fields keyed by canonical name, the parsed line items, and the
// metadata describing how the extraction went.
type DocumentRecord struct {
	Fields    map[string]any
	LineItems []LineItem
	Metadata  ExtractionMetadata
}

// Field returns the extracted value for name, or nil.
func (d *DocumentRecord) Field(name string) any {
	if d.Fields == nil {
		return nil
	}
	return d.Fields[name]
}

// MarshalJSON flattens the record into a single object: header fields at
// the top level plus "line_items" and "_extraction_metadata" keys, the
// shape downstream report consumers read.
func (d *DocumentRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(d.Fields)+2)
	for k, v := range d.Fields {
		flat[k] = v
	}
	flat["line_items"] = d.LineItems
	flat["_extraction_metadata"] = d.Metadata
	return json.Marshal(flat)
}
