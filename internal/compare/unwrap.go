package compare

import (
	"strconv"
	"strings"

	"github.com/sells-group/quote-audit/internal/coerce"
)

// Unwrap resolves the two value shapes CPQ payloads use: a bare scalar or
// a {"value": ..., "displayValue": ...} wrapper. Wrapped values prefer
// value, then displayValue; anything else passes through unchanged.
func Unwrap(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if inner, ok := m["value"]; ok && inner != nil {
		return inner
	}
	if inner, ok := m["displayValue"]; ok && inner != nil {
		return inner
	}
	return v
}

// firstAPI returns the first key whose unwrapped value is present.
func firstAPI(api map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := Unwrap(api[k]); v != nil {
			return v
		}
	}
	return nil
}

// apiAbsent reports whether an authoritative value is missing or blank.
// Optional attributes with no CPQ value are skipped, not scored.
func apiAbsent(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// toFloat reads any scalar rendering of an amount, including currency text
// with symbols and separators.
func toFloat(v any) (float64, bool) {
	switch n := Unwrap(v).(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		return coerce.Currency(n)
	}
	return 0, false
}

func toString(v any) (string, bool) {
	switch s := Unwrap(v).(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

func toBool(v any) (value, ok bool) {
	switch b := Unwrap(v).(type) {
	case bool:
		return b, true
	case string:
		return coerce.Bool(b)
	}
	return false, false
}

// docEmpty reports whether a document-side value counts as "no data".
// Such fields are omitted from results rather than scored; the sentinels
// are the no-value renderings seen in quote cells.
func docEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "n/a", "na", "-", "--":
		return true
	}
	return false
}
