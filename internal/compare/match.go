package compare

import (
	"regexp"
	"strings"

	"github.com/sells-group/quote-audit/internal/coerce"
	"github.com/sells-group/quote-audit/internal/fuzzy"
)

var (
	digitRunRe = regexp.MustCompile(`\d+`)
	punctRe    = regexp.MustCompile(`[^\w\s]`)
)

var stopWords = map[string]struct{}{
	"the": {}, "for": {}, "and": {}, "with": {}, "from": {},
	"this": {}, "that": {}, "are": {}, "was": {}, "were": {},
}

// stringsMatch layers the checks used for free-text fields: normalized
// equality, containment, shared digit runs, shared vocabulary, then a
// similarity ratio against threshold. Names get rephrased and truncated
// between systems; any one signal suffices.
func stringsMatch(a, b string, threshold float64) bool {
	na, nb := coerce.NormalizeText(a), coerce.NormalizeText(b)
	if na == nb {
		return true
	}
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	if digitsIntersect(na, nb) {
		return true
	}
	if sharedKeyPhrases(na, nb) {
		return true
	}
	return fuzzy.Ratio(na, nb) >= threshold
}

// digitsIntersect reports whether the two strings share a digit run, the
// signal that ties "CPQ-174044" to "Quote 174044 for Acme".
func digitsIntersect(a, b string) bool {
	da := digitRunRe.FindAllString(a, -1)
	db := digitRunRe.FindAllString(b, -1)
	if len(da) == 0 || len(db) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(db))
	for _, d := range db {
		seen[d] = struct{}{}
	}
	for _, d := range da {
		if _, ok := seen[d]; ok {
			return true
		}
	}
	return false
}

// sharedKeyPhrases reports whether two strings share at least two
// meaningful words, or one two-word phrase.
func sharedKeyPhrases(a, b string) bool {
	wa := meaningfulWords(a)
	wb := meaningfulWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}

	seen := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		seen[w] = struct{}{}
	}
	shared := 0
	for _, w := range wa {
		if _, ok := seen[w]; ok {
			shared++
		}
	}
	if shared >= 2 {
		return true
	}

	for i := 0; i+1 < len(wa); i++ {
		pa := wa[i] + " " + wa[i+1]
		for j := 0; j+1 < len(wb); j++ {
			if pa == wb[j]+" "+wb[j+1] {
				return true
			}
		}
	}
	return false
}

// meaningfulWords returns the distinct words of length ≥3 that are not
// stop-words, in order of first appearance.
func meaningfulWords(s string) []string {
	cleaned := punctRe.ReplaceAllString(strings.ToLower(s), " ")
	var out []string
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(cleaned) {
		if len(w) < 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// datesMatch compares calendar dates parsed with layouts. Two values that
// both fail to parse compare equal; there is nothing to disagree on.
func datesMatch(a, b string, layouts []string) bool {
	ta, oka := coerce.Date(a, layouts)
	tb, okb := coerce.Date(b, layouts)
	if !oka && !okb {
		return true
	}
	if oka != okb {
		return false
	}
	ay, am, ad := ta.Date()
	by, bm, bd := tb.Date()
	return ay == by && am == bm && ad == bd
}
