// Package fuzzy matches the free-text values that drift between quoting
// systems and the documents generated from them: names get truncated,
// rephrased, decorated with identifiers, or reduced to fragments.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/quote-audit/internal/coerce"
)

var (
	punctRe  = regexp.MustCompile(`[^\w\s]`)
	digitsRe = regexp.MustCompile(`\d+`)
)

var stopWords = map[string]struct{}{
	"the": {}, "for": {}, "and": {}, "with": {}, "from": {},
	"this": {}, "that": {}, "are": {}, "was": {}, "were": {},
}

// Equal reports whether the two strings are identical after whitespace
// collapsing and lowercasing.
func Equal(a, b string) bool {
	return coerce.NormalizeText(a) == coerce.NormalizeText(b)
}

// Close reports whether the normalized strings are equal or similar to at
// least the given threshold. Empty strings never match non-empty ones.
func Close(a, b string, threshold float64) bool {
	na, nb := coerce.NormalizeText(a), coerce.NormalizeText(b)
	if na == nb {
		return true
	}
	if na == "" || nb == "" {
		return false
	}
	return Ratio(na, nb) >= threshold
}

// ShareKeyPhrases reports whether two strings share at least minShared
// meaningful words, or any two-word phrase. "Agreement for 11/21 Wells
// Fargo Bank-Opp-201981354" and "Wells Fargo Bank_Master Agreement"
// share "wells", "fargo", "bank", "agreement".
func ShareKeyPhrases(a, b string, minShared int) bool {
	wa := meaningfulWords(a)
	wb := meaningfulWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}

	inA := make(map[string]struct{}, len(wa))
	for _, w := range wa {
		inA[w] = struct{}{}
	}
	shared := make(map[string]struct{})
	for _, w := range wb {
		if _, ok := inA[w]; ok {
			shared[w] = struct{}{}
		}
	}
	if len(shared) >= minShared {
		return true
	}

	phrases := make(map[string]struct{}, len(wa))
	for i := 0; i+1 < len(wa); i++ {
		phrases[wa[i]+" "+wa[i+1]] = struct{}{}
	}
	for j := 0; j+1 < len(wb); j++ {
		if _, ok := phrases[wb[j]+" "+wb[j+1]]; ok {
			return true
		}
	}
	return false
}

// ContainMatch reports whether two identifiers refer to the same thing:
// exact match, one containing the other, shared key phrases, and (when
// extractNumbers is set) intersecting digit sequences. Covers cases like
// "174044" vs "Quote 174044 for Arrow Electronics Inc." and
// "CPQ-174044" vs "174044".
func ContainMatch(a, b string, extractNumbers bool) bool {
	na, nb := strings.TrimSpace(a), strings.TrimSpace(b)
	if na == "" || nb == "" {
		return false
	}

	la, lb := strings.ToLower(na), strings.ToLower(nb)
	if la == lb {
		return true
	}
	if strings.Contains(lb, la) || strings.Contains(la, lb) {
		return true
	}
	if ShareKeyPhrases(na, nb, 2) {
		return true
	}

	if extractNumbers {
		an := digitsRe.FindAllString(na, -1)
		bn := digitsRe.FindAllString(nb, -1)
		if len(an) > 0 && len(bn) > 0 {
			inB := make(map[string]struct{}, len(bn))
			for _, n := range bn {
				inB[n] = struct{}{}
			}
			for _, n := range an {
				if _, ok := inB[n]; ok {
					return true
				}
			}
			for _, n := range an {
				if strings.Contains(nb, n) {
					return true
				}
			}
			for _, n := range bn {
				if strings.Contains(na, n) {
					return true
				}
			}
		}
	}

	return false
}

// meaningfulWords lowercases, strips punctuation, and keeps the words of
// three or more characters that are not stop words, in text order with
// duplicates preserved so phrase pairs stay adjacent.
func meaningfulWords(s string) []string {
	normalized := punctRe.ReplaceAllString(strings.ToLower(s), " ")
	var out []string
	for _, w := range strings.Fields(normalized) {
		if utf8.RuneCountInString(w) < 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}
