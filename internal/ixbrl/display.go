package ixbrl

import (
	"strings"

	"github.com/shopspring/decimal"
)

var zeroDashes = map[string]bool{
	"-":   true,
	"--":  true,
	"---": true,
	"—":   true,
	"–":   true,
}

var displayCleaner = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	"¥", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
)

// ParseDisplayed parses the displayed text of a numeric fact. The format
// is the ix transformation name (for example "ixt:num-dot-decimal").
// Reports false when the text carries no number.
func ParseDisplayed(text, format string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(strings.Trim(text, "\u00a0"))
	f := strings.ToLower(format)
	if strings.Contains(f, "fixed-zero") || strings.Contains(f, "zerodash") {
		return decimal.Zero, true
	}
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	if zeroDashes[cleaned] {
		return decimal.Zero, true
	}

	neg := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		neg = true
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}

	cleaned = displayCleaner.Replace(cleaned)
	if strings.Contains(f, "comma-decimal") || strings.Contains(f, "numcommadecimal") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// TrueValue applies the sign and scale attributes to a displayed number:
// displayed × 10^scale × sign.
func TrueValue(displayed decimal.Decimal, scale, sign int) decimal.Decimal {
	v := displayed.Shift(int32(scale))
	if sign < 0 {
		v = v.Neg()
	}
	return v
}
