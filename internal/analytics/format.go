package analytics

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrency renders an amount as a currency-prefixed, thousands-grouped
// whole number, e.g. "₩1,234,568" for 1234567.8.
func FormatCurrency(amount float64, currency string) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	s := currency + groupDigits(int64(math.Round(amount)))
	if negative {
		return "-" + s
	}
	return s
}

// FormatCount renders a count with thousands grouping, e.g. "1,234".
func FormatCount(n int) string {
	if n < 0 {
		return "-" + groupDigits(int64(-n))
	}
	return groupDigits(int64(n))
}

// FormatPercent renders a percentage with one decimal, e.g. "12.3%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
