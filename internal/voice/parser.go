// Package voice turns free-form Indonesian utterances into transaction
// drafts. Parsing is heuristic keyword matching: the result is a
// pre-filled form, never a committed transaction.
package voice

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"kasku/internal/core"
)

// Draft holds the fields recognised from one utterance. Zero Amount and
// empty Category mean "not detected"; Type always carries a value
// because expense is the fallback.
type Draft struct {
	Amount      int64
	Category    string
	Description string
	Type        core.TransactionType
}

var (
	amountRe   = regexp.MustCompile(`(\d+)\s*(ribu\b|juta\b|k\b)?`)
	incomeRe   = regexp.MustCompile(`terima|dapat|masuk|gajian|profit|untung|iuran|donasi`)
	categories = []struct {
		re   *regexp.Regexp
		name string
	}{
		{regexp.MustCompile(`makan|minum|snack|kopi|nasi|konsumsi|jajan|warteg|restoran`), "Konsumsi"},
		{regexp.MustCompile(`iuran|kas|sumbangan|tagihan`), "Iuran Anggota"},
		{regexp.MustCompile(`donasi|sedekah|infaq|zakat`), "Donasi"},
		{regexp.MustCompile(`listrik|air|wifi|internet|pulsa|bensin|transport|ojek|parkir`), "Operasional"},
		{regexp.MustCompile(`kertas|spidol|buku|kursi|meja|alat`), "Perlengkapan"},
	}
)

// Parse extracts a transaction draft from text. Amounts accept the
// colloquial multipliers ribu, juta and k ("20 ribu" is 20000) as well
// as literal digit groups ("10.000"). Income keywords flip the type to
// MASUK unless "bayar" appears anywhere, which keeps paying dues as an
// expense. Category falls back to empty when no keyword group matches.
func Parse(text string) Draft {
	lower := strings.ToLower(text)

	d := Draft{
		Type:        core.TypeExpense,
		Description: capitalize(strings.TrimSpace(text)),
		Amount:      parseAmount(lower),
	}

	if incomeRe.MatchString(lower) && !strings.Contains(lower, "bayar") {
		d.Type = core.TypeIncome
	}

	for _, c := range categories {
		if c.re.MatchString(lower) {
			d.Category = c.name
			break
		}
	}
	return d
}

func parseAmount(lower string) int64 {
	// Digit separators first, so "10.000" reads as one number.
	cleaned := strings.NewReplacer(".", "", ",", "").Replace(lower)
	m := amountRe.FindStringSubmatch(cleaned)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "ribu", "k":
		n *= 1_000
	case "juta":
		n *= 1_000_000
	}
	return n
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
