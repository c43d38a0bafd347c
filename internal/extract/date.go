package extract

import (
	"regexp"
	"time"
)

// DefaultDateLayouts is the precedence order for date tokens: US month-first with a
// four-digit year, then two-digit years, then day-first.
var DefaultDateLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"1-2-06",
	"2/1/2006",
	"2-1-2006",
}

// Both separators in a token must match.
var reDateToken = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})|\d{1,2}-\d{1,2}-(?:\d{4}|\d{2}))\b`)

// DateTokens returns every date-like token in order of appearance.
func DateTokens(text string) []string {
	return reDateToken.FindAllString(text, -1)
}

// ExtractDate returns the first token that parses under any layout, trying layouts in
// order per token. The result is midnight UTC; nil when nothing parses.
func ExtractDate(text string, layouts []string) *time.Time {
	for _, tok := range DateTokens(text) {
		if d, ok := parseToken(tok, layouts); ok {
			return &d
		}
	}
	return nil
}

func parseToken(tok string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, tok, time.UTC)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
