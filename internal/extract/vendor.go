package extract

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// Lines splits text into trimmed, non-empty lines in their original order.
func Lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, ln := range raw {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// FirstLineVendor returns the first non-empty line.
func FirstLineVendor(text string) string {
	if lines := Lines(text); len(lines) > 0 {
		return lines[0]
	}
	return entity.UnknownVendor
}

// FirstNonNumericVendor returns the first non-empty line without any digit, skipping
// phone numbers, store numbers and totals printed above the business name.
func FirstNonNumericVendor(text string) string {
	for _, ln := range Lines(text) {
		if !strings.ContainsFunc(ln, unicode.IsDigit) {
			return ln
		}
	}
	return entity.UnknownVendor
}
