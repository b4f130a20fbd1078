// Package core holds the treasury domain types shared by every component.
//
// This file contains parsing and formatting of Rupiah amounts. Rupiah has
// no minor unit in day-to-day bookkeeping, so amounts are whole int64
// values and all sums are exact.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseRupiah converts a user-entered amount string to whole Rupiah.
//
// It tolerates an "Rp" prefix, spaces, and dot or comma thousand
// separators ("Rp 10.000", "10,000", "10000" all yield 10000). Signs are
// rejected; amounts are always positive in the ledger and direction comes
// from the transaction type.
func ParseRupiah(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Rp")
	s = strings.TrimPrefix(s, "rp")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == ',' || r == ' ':
			// thousand separator
		default:
			return 0, ErrInvalidAmount
		}
	}
	if b.Len() == 0 {
		return 0, ErrInvalidAmount
	}

	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatRupiah renders an amount as "Rp12.345" with dot thousand
// separators, the display convention used on receipts and reports.
func FormatRupiah(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}

	if neg {
		return "-Rp" + b.String()
	}
	return "Rp" + b.String()
}

// Format renders the money value for display.
func (m Money) Format() string {
	return FormatRupiah(m.Rupiah)
}
