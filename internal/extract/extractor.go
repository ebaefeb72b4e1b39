// Package extract pulls structured quote data out of decoded documents. A
// field registry drives label location and pattern fallback; line items are
// read from whichever table carries a parts header.
package extract

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/quote-audit/internal/coerce"
	"github.com/sells-group/quote-audit/internal/grid"
	"github.com/sells-group/quote-audit/internal/model"
)

// Extractor pulls header fields and line items out of a decoded document.
type Extractor struct {
	reg *model.FieldRegistry
}

func New(reg *model.FieldRegistry) *Extractor {
	return &Extractor{reg: reg}
}

// Extract runs every field spec against the document, parses line items and
// reconciles computed totals. It always returns a record; fields that could
// not be located or coerced stay nil and are listed in the metadata.
func (e *Extractor) Extract(doc *grid.Document) *model.DocumentRecord {
	rec := &model.DocumentRecord{
		Fields: make(map[string]any, len(e.reg.Specs)),
		Metadata: model.ExtractionMetadata{
			ConfidenceScores: make(map[string]float64, len(e.reg.Specs)),
		},
	}
	for _, spec := range e.reg.Specs {
		rec.Fields[spec.Name] = nil
	}

	for _, spec := range e.reg.Specs {
		raw, ref, method, confidence := e.extractField(doc, spec)
		if raw == "" {
			rec.Metadata.FieldsMissing = append(rec.Metadata.FieldsMissing, spec.Name)
			rec.Metadata.ConfidenceScores[spec.Name] = 0
			continue
		}
		value := NormalizeValue(raw, spec.Kind)
		if value == nil {
			rec.Metadata.FieldsMissing = append(rec.Metadata.FieldsMissing, spec.Name)
			rec.Metadata.ConfidenceScores[spec.Name] = 0
			continue
		}
		if ref == "" {
			ref = "unknown"
		}
		rec.Fields[spec.Name] = value
		rec.Metadata.ConfidenceScores[spec.Name] = round3(confidence)
		rec.Metadata.Events = append(rec.Metadata.Events, model.ExtractionEvent{
			Field:      spec.Name,
			Method:     method,
			Location:   ref,
			Confidence: round3(confidence),
			RawValue:   raw,
		})
	}

	rec.LineItems = parseLineItems(doc)
	e.reconcile(rec)

	sort.Strings(rec.Metadata.FieldsMissing)
	rec.Metadata.FieldsMissing = dedupSorted(rec.Metadata.FieldsMissing)
	rec.Metadata.FieldsFound = countFound(rec.Fields)

	zap.L().Debug("extraction complete",
		zap.String("document", doc.Name),
		zap.Int("fields_found", rec.Metadata.FieldsFound),
		zap.Int("fields_missing", len(rec.Metadata.FieldsMissing)),
		zap.Int("line_items", len(rec.LineItems)))
	return rec
}

// extractField tries the label locator first, then the spec's regex
// patterns over the flattened document text.
func (e *Extractor) extractField(doc *grid.Document, spec model.FieldSpec) (string, string, string, float64) {
	if len(doc.Tables) > 0 && len(spec.Labels) > 0 {
		value, ref, score := locate(doc, spec)
		if value != "" {
			return value, ref, "label", score
		}
	}
	if doc.Text != "" {
		for _, re := range spec.Patterns {
			match := re.FindStringSubmatch(doc.Text)
			if match == nil {
				continue
			}
			value := match[0]
			if len(match) > 1 {
				value = match[1]
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			if spec.EntityOriented() {
				value = cleanEntityName(value)
			}
			return value, "pattern", "pattern", PatternConfidence
		}
	}
	return "", "", "not_found", 0
}

// reconcile fills extended prices computable from quantity and unit price,
// flags the ones that disagree, and infers missing header totals from the
// line sums.
func (e *Extractor) reconcile(rec *model.DocumentRecord) {
	const tolerance = 0.01
	meta := &rec.Metadata
	var listTotal, netTotal float64

	for i := range rec.LineItems {
		item := &rec.LineItems[i]
		if item.ExtendedListPrice == nil && item.Quantity != nil && item.UnitListPrice != nil {
			v := coerce.Round2(float64(*item.Quantity) * *item.UnitListPrice)
			item.ExtendedListPrice = &v
			meta.Warnings = append(meta.Warnings,
				fmt.Sprintf("Calculated extended list price for part %s", item.PartNumber))
		}
		if item.ExtendedNetPrice == nil && item.Quantity != nil && item.UnitNetPrice != nil {
			v := coerce.Round2(float64(*item.Quantity) * *item.UnitNetPrice)
			item.ExtendedNetPrice = &v
			meta.Warnings = append(meta.Warnings,
				fmt.Sprintf("Calculated extended net price for part %s", item.PartNumber))
		}

		if item.Quantity != nil && item.UnitListPrice != nil && item.ExtendedListPrice != nil {
			expected := coerce.Round2(float64(*item.Quantity) * *item.UnitListPrice)
			if math.Abs(expected-*item.ExtendedListPrice) > tolerance {
				meta.Warnings = append(meta.Warnings, fmt.Sprintf(
					"Extended list price mismatch for part %s: expected %.2f, found %v",
					item.PartNumber, expected, *item.ExtendedListPrice))
			}
		}
		if item.Quantity != nil && item.UnitNetPrice != nil && item.ExtendedNetPrice != nil {
			expected := coerce.Round2(float64(*item.Quantity) * *item.UnitNetPrice)
			if math.Abs(expected-*item.ExtendedNetPrice) > tolerance {
				meta.Warnings = append(meta.Warnings, fmt.Sprintf(
					"Extended net price mismatch for part %s: expected %.2f, found %v",
					item.PartNumber, expected, *item.ExtendedNetPrice))
			}
		}

		if item.ExtendedListPrice != nil {
			listTotal += *item.ExtendedListPrice
		}
		if item.ExtendedNetPrice != nil {
			netTotal += *item.ExtendedNetPrice
		}
	}

	if rec.Fields["quoteListPrice_t_c"] == nil && listTotal != 0 {
		rec.Fields["quoteListPrice_t_c"] = coerce.Round2(listTotal)
		meta.Warnings = append(meta.Warnings, "Inferred quoteListPrice_t_c from line item totals.")
	}
	if rec.Fields["quoteNetPrice_t_c"] == nil && netTotal != 0 {
		rec.Fields["quoteNetPrice_t_c"] = coerce.Round2(netTotal)
		meta.Warnings = append(meta.Warnings, "Inferred quoteNetPrice_t_c from line item totals.")
	}

	if header, ok := fieldFloat(rec.Fields["quoteListPrice_t_c"]); ok && header != 0 &&
		math.Abs(header-listTotal) > tolerance {
		meta.Warnings = append(meta.Warnings, fmt.Sprintf(
			"Line item list total %.2f differs from header list total %.2f", listTotal, header))
	}
	if header, ok := fieldFloat(rec.Fields["quoteNetPrice_t_c"]); ok && header != 0 &&
		math.Abs(header-netTotal) > tolerance {
		meta.Warnings = append(meta.Warnings, fmt.Sprintf(
			"Line item net total %.2f differs from header net total %.2f", netTotal, header))
	}
}

func fieldFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func countFound(fields map[string]any) int {
	n := 0
	for _, v := range fields {
		if v == nil || v == "" {
			continue
		}
		n++
	}
	return n
}

func dedupSorted(ss []string) []string {
	out := ss[:0]
	for i, s := range ss {
		if i > 0 && ss[i-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
