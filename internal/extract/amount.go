package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const moneyNumber = `(\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2})\b`

var (
	// "Amount" then up to a few punctuation or currency characters, then the figure.
	reLabeledAmount = regexp.MustCompile(`(?i)\bamount\b[^\w\n]{0,6}` + moneyNumber)
	reBareAmount    = regexp.MustCompile(`(?:\$\s?|\b)` + moneyNumber)
	reDollarAmount  = regexp.MustCompile(`\$\s?` + moneyNumber)
)

// LabeledMaxAmount returns the largest labeled amount. Without any labeled amount it
// falls back to the largest currency-shaped token. A labeled $0.00 still counts as a
// match and suppresses the fallback.
func LabeledMaxAmount(text string) decimal.NullDecimal {
	if best, ok := maxAmount(text, reLabeledAmount); ok {
		return best
	}
	if best, ok := maxAmount(text, reBareAmount); ok {
		return best
	}
	return decimal.NullDecimal{}
}

// FirstCurrencyAmount returns the first dollar-prefixed amount.
func FirstCurrencyAmount(text string) decimal.NullDecimal {
	for _, m := range reDollarAmount.FindAllStringSubmatchIndex(text, -1) {
		if !isolated(text, m[2], m[3]) {
			continue
		}
		if d, ok := parseMoney(text[m[2]:m[3]]); ok {
			return decimal.NewNullDecimal(d)
		}
	}
	return decimal.NullDecimal{}
}

func maxAmount(text string, re *regexp.Regexp) (decimal.NullDecimal, bool) {
	var best decimal.NullDecimal
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if !isolated(text, m[2], m[3]) {
			continue
		}
		d, ok := parseMoney(text[m[2]:m[3]])
		if !ok {
			continue
		}
		if !best.Valid || d.GreaterThan(best.Decimal) {
			best = decimal.NewNullDecimal(d)
		}
	}
	return best, best.Valid
}

// isolated rejects figures that are part of a longer dotted number such as 03.04.2024.
func isolated(text string, start, end int) bool {
	if end+1 < len(text) && text[end] == '.' && isDigit(text[end+1]) {
		return false
	}
	if start >= 2 && text[start-1] == '.' && isDigit(text[start-2]) {
		return false
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseMoney(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d.Round(2), true
}
