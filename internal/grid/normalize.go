package grid

import (
	"html"
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]+>`)

// CleanText prepares a raw cell for matching: embedded markup becomes
// spaces, entities are unescaped, non-breaking spaces and whitespace
// runs collapse, and spreadsheet null renderings ("nan", "none") become
// empty.
func CleanText(s string) string {
	t := StripHTML(s)
	switch strings.ToLower(t) {
	case "nan", "none":
		return ""
	}
	return t
}

// StripHTML reduces markup to plain text without treating any value as
// a null rendering.
func StripHTML(s string) string {
	t := tagRe.ReplaceAllString(s, " ")
	t = html.UnescapeString(t)
	t = strings.ReplaceAll(t, " ", " ")
	return strings.Join(strings.Fields(t), " ")
}
