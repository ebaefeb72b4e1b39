package extract

import (
	"github.com/sells-group/quote-audit/internal/coerce"
	"github.com/sells-group/quote-audit/internal/grid"
	"github.com/sells-group/quote-audit/internal/model"
)

// NormalizeValue coerces located cell text into the typed value the field
// kind calls for. Coercion failure yields nil, never an error; a nil result
// records the field as missing. Dates stay textual here and are parsed at
// comparison time.
func NormalizeValue(raw string, kind model.FieldKind) any {
	text := grid.CleanText(raw)
	if text == "" {
		return nil
	}
	switch kind {
	case model.KindCurrency:
		if v, ok := coerce.Currency(text); ok {
			return v
		}
		return nil
	case model.KindNumeric:
		// Capacity and discount columns show up as "1,234.5", "45.2%" or a
		// bare count depending on the export, so try each shape in turn.
		if v, ok := coerce.Currency(text); ok {
			return v
		}
		if v, ok := coerce.Percent(text); ok {
			return v
		}
		if v, ok := coerce.Int(text); ok {
			return v
		}
		return nil
	case model.KindPercent:
		if v, ok := coerce.Percent(text); ok {
			return v
		}
		return nil
	case model.KindInt:
		if v, ok := coerce.Int(text); ok {
			return v
		}
		return nil
	case model.KindBool:
		if v, ok := coerce.Bool(text); ok {
			return v
		}
		return nil
	default:
		return text
	}
}
