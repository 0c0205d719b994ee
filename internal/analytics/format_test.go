package analytics

import "testing"

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     string
	}{
		{0, "$", "$0"},
		{999, "$", "$999"},
		{1000, "$", "$1,000"},
		{1234567.8, "₩", "₩1,234,568"},
		{-45000, "$", "-$45,000"},
		{1234567.49, "$", "$1,234,567"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.amount, tc.currency); got != tc.want {
			t.Errorf("FormatCurrency(%v, %q) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{42, "42"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-9876, "-9,876"},
	}
	for _, tc := range cases {
		if got := FormatCount(tc.n); got != tc.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := []struct {
		v    float64
		want string
	}{
		{0, "0.0%"},
		{12.34, "12.3%"},
		{100, "100.0%"},
	}
	for _, tc := range cases {
		if got := FormatPercent(tc.v); got != tc.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}
