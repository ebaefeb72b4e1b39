// Package coerce turns the loosely formatted text found in quote
// documents into typed values, and provides the tolerant comparisons
// used when auditing them against authoritative records.
package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	rsPrefixRe   = regexp.MustCompile(`(?i)\bRs\.?\s*`)
	currencyRe   = regexp.MustCompile(`(?i)[\s$€₹¥£]|USD|INR|CNY|EUR|GBP`)
	nonNumericRe = regexp.MustCompile(`[^\d.\-]`)
)

// DateLayouts are the date shapes seen across quote documents and CPQ
// payloads, in match-priority order (day-first before month-first).
var DateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2/1/2006",
	"1-2-2006",
	"1/2/2006",
	"2-Jan-2006",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04:05.999999",
}

// Currency parses an amount that may carry currency symbols, ISO codes,
// an "Rs." prefix, and thousands separators. Commas after the first
// decimal point are treated as noise, not separators.
func Currency(text string) (float64, bool) {
	t := rsPrefixRe.ReplaceAllString(text, "")
	t = currencyRe.ReplaceAllString(t, "")

	if i := strings.Index(t, "."); i >= 0 {
		t = strings.ReplaceAll(t[:i], ",", "") + t[i:]
	} else {
		t = strings.ReplaceAll(t, ",", "")
	}
	t = nonNumericRe.ReplaceAllString(t, "")

	if t == "" || t == "-" || t == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Percent parses "45.20%" style values into 45.20.
func Percent(text string) (float64, bool) {
	t := strings.TrimSpace(text)
	t = strings.ReplaceAll(t, "%", "")
	t = strings.ReplaceAll(t, ",", "")
	if t == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int parses a whole number with optional thousands separators. Decimal
// renderings such as "2.0" do not parse; quantities are whole by contract.
func Int(text string) (int, bool) {
	t := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if t == "" {
		return 0, false
	}
	v, err := strconv.Atoi(t)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bool maps the affirmative and negative markers seen in quote cells.
// Unrecognized text reports ok=false rather than defaulting.
func Bool(text string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "true", "y", "1", "✓":
		return true, true
	case "no", "false", "n", "0", "✗":
		return false, true
	}
	return false, false
}

// Date tries each layout in order. A nil layouts slice uses DateLayouts.
func Date(text string, layouts []string) (time.Time, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return time.Time{}, false
	}
	if layouts == nil {
		layouts = DateLayouts
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// NormalizeText collapses runs of whitespace, trims, and lowercases.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// OnlyDigits strips everything but decimal digits. Returns "" when the
// input carries no digits at all.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Round2 rounds to two decimal places, the resolution used for money.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FloatsMatch compares two optional amounts. Nil matches nil, and nil
// matches any value within tolerance of zero, so documents that omit a
// zero total are not penalized. Values are rounded to cents first; an
// absolute check runs before a relative fallback for large amounts.
func FloatsMatch(a, b *float64, tolerance float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil {
		return math.Abs(*b) <= tolerance
	}
	if b == nil {
		return math.Abs(*a) <= tolerance
	}
	x, y := Round2(*a), Round2(*b)
	if math.Abs(x-y) <= tolerance {
		return true
	}
	denom := math.Max(math.Abs(x), math.Max(math.Abs(y), 1.0))
	return math.Abs(x-y)/denom <= math.Max(tolerance, 1e-6)
}
