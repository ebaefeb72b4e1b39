package extract

import (
	"regexp"
	"strings"
)

// Entity fields (contract and agreement names) are the hardest to anchor:
// the label cell often sits next to a salesperson's name while the real
// contract title lives cells away. These heuristics tell people apart
// from entities and trim the collected run of cells down to one title.

var entityKeywords = []string{
	"agreement", "contract", "ltd", "inc", "corp", "llc", "technology",
	"solutions", "distribution", "supplier", "master", "prc", "opp-",
}

var (
	companyUnderscoreHintRe = regexp.MustCompile(`[A-Z][a-zA-Z\s]+(?:Ltd|Inc|Corp|LLC)\s*_\s*[A-Z]+`)
	personNameRe            = regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}$`)

	// Shapes an entity title takes when it appears in a nearby cell.
	candidateEntityRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)[A-Z][a-zA-Z\s]+(?:Ltd|Inc|Corp|LLC)\s*_\s*[A-Z]+\s+[A-Z][a-zA-Z\s]+(?:Agreement|Agreem|Contract|Supplier|Distribution|Master)`),
		regexp.MustCompile(`(?i)[A-Z][a-zA-Z\s]+Technology\s+(?:Ltd|Inc|Corp|LLC)\s*_\s*[A-Z]+\s+[A-Z][a-zA-Z\s]+(?:Agreement|Agreem|Contract)`),
	}

	// A second entity title glued onto the first marks where to cut.
	secondEntityRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s+([A-Z][a-zA-Z\s]+Technology\s+(?:Ltd|Inc|Corp|LLC)\s*_\s*[A-Z]+\s+[A-Z][a-zA-Z\s]+(?:Agreement|Agreem|Contract|Supplier|Distribution))`),
		regexp.MustCompile(`(?i)\s+([A-Z][a-zA-Z\s]+(?:Ltd|Inc|Corp|LLC)\s*_\s*[A-Z]{2,}\s+[A-Z][a-zA-Z\s]+(?:Agreement|Agreem|Contract|Supplier|Distribution|Master))`),
		regexp.MustCompile(`(?i)\s+([A-Z][a-zA-Z\s]+(?:Ltd|Inc|Corp|LLC)\s+[A-Z]{2,}\s+[A-Z][a-zA-Z\s]+(?:Agreement|Agreem|Contract|Supplier|Distribution|Master))`),
	}
	companyUnderscoreRe = regexp.MustCompile(`(?i)([A-Z][a-zA-Z\s]+(?:Ltd|Inc|Corp|LLC)\s*_\s*[A-Z]{2,}\s+[A-Z][a-zA-Z\s]+(?:Agreement|Agreem|Contract|Supplier|Distribution))`)

	leadingPhraseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^quote\s+information\s+`),
		regexp.MustCompile(`(?i)^contract\s+name\s*[:\-]?\s*`),
		regexp.MustCompile(`(?i)^agreement\s+name\s*[:\-]?\s*`),
	}
)

var stopPhrases = []string{
	"contract start date",
	"contract end date",
	"contract number",
	"payment terms",
	"incoterm",
	"quote information",
	"quote from",
	"quote to",
	"end customer",
}

var trailingPhrases = []string{
	"contract start date",
	"contract end date",
	"contract number",
	"payment terms",
	"incoterm",
	"quote information",
}

// isLikelyPersonName reports whether a value reads as a person (1-4
// title-cased words, no entity vocabulary) rather than a company or
// contract title.
func isLikelyPersonName(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	if len(strings.Fields(v)) > 4 {
		return false
	}
	low := strings.ToLower(v)
	for _, kw := range entityKeywords {
		if strings.Contains(low, kw) {
			return false
		}
	}
	if companyUnderscoreHintRe.MatchString(v) {
		return false
	}
	return personNameRe.MatchString(v)
}

// cleanEntityName trims a collected entity title: strips decoration and
// leading section headers, cuts before a second glued-on title, and
// truncates at the first neighboring-field phrase.
func cleanEntityName(value string) string {
	if value == "" {
		return value
	}
	v := strings.TrimRight(value, "✓")
	for _, re := range leadingPhraseRes {
		v = strings.TrimSpace(re.ReplaceAllString(v, ""))
	}

	for _, re := range secondEntityRes {
		cut := -1
		for _, loc := range re.FindAllStringIndex(v, -1) {
			// The pattern can hit inside a lone title ("Lenovo NetApp
			// Technology Ltd_PRC ..."); cut only when a complete first
			// title precedes the match.
			if prefixHasEntityKeyword(v[:loc[0]]) {
				cut = loc[0]
				break
			}
		}
		if cut == -1 {
			continue
		}
		if cut > 0 && strings.ContainsAny(v[cut-1:cut], ".!?") {
			cut--
		}
		v = strings.TrimSpace(v[:cut])
		v = strings.TrimSpace(strings.TrimSuffix(v, "."))
		break
	}

	if m := companyUnderscoreRe.FindAllStringIndex(v, -1); len(m) >= 2 && m[1][0] > m[0][1] {
		between := strings.ToLower(strings.TrimSpace(v[m[0][1]:m[1][0]]))
		if len(between) < 20 || strings.Contains(between, ".") ||
			strings.Contains(between, "testing") || strings.Contains(between, "opp-") {
			v = strings.TrimSpace(v[:m[1][0]])
		}
	}

	low := strings.ToLower(v)
	earliest := len(v)
	for _, phrase := range stopPhrases {
		if idx := strings.Index(low, phrase); idx >= 0 && idx < earliest {
			earliest = idx
		}
	}
	if earliest < len(v) {
		v = strings.TrimSpace(v[:earliest])
	}

	for _, phrase := range trailingPhrases {
		if strings.HasSuffix(strings.ToLower(v), phrase) {
			v = strings.TrimSpace(v[:len(v)-len(phrase)])
		}
	}

	return strings.Join(strings.Fields(v), " ")
}

func prefixHasEntityKeyword(prefix string) bool {
	low := strings.ToLower(prefix)
	for _, kw := range entityKeywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}
