// Package normalize canonicalizes Brazilian-formatted amounts, dates and
// free text. Functions here never panic on bad input.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts strings like "1.234,56", "R$ 85,00" or "-6,00" into
// an unsigned decimal. Anything unparsable yields zero.
func ParseAmount(s string) decimal.Decimal {
	d, _ := ParseAmountStrict(s)
	return d
}

// ParseAmountStrict is ParseAmount with an ok flag so callers can tell a
// real zero from garbage.
//
// Only digits, '.' and ',' survive cleaning. With both separators present
// '.' groups thousands and ',' is the decimal point; a lone ',' is the
// decimal point; repeated '.' without ',' are thousands separators.
func ParseAmountStrict(s string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, false
	}

	hasComma := strings.Contains(cleaned, ",")
	switch {
	case hasComma && strings.Contains(cleaned, "."):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case strings.Count(cleaned, ".") > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
