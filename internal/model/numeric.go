package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseNumeric converts a loosely typed value into a float64. Strings
// may carry currency symbols, thousands separators, and a parenthesized
// negative such as "($1,234)".
func ParseNumeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, finite(n)
	case float32:
		return float64(n), finite(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && finite(f)
	case string:
		return parseNumericString(n)
	}
	return 0, false
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// FormatNumber renders a float without a trailing ".0" for integers.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
