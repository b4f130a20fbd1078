// Package insight turns ledger aggregates into a human-readable status
// line, advice, and a bounded health score. It is a fixed rule table over
// thresholds — deterministic, no randomness, no external calls.
package insight

import (
	"fmt"
	"time"

	"kasku/internal/core"
	"kasku/internal/report"
)

type Trend string

const (
	TrendUp     Trend = "UP"
	TrendDown   Trend = "DOWN"
	TrendStable Trend = "STABLE"
)

// Analysis is the complete heuristic result. TopCategory is empty when no
// expense was recorded in the current month; Score is always in 1..100.
type Analysis struct {
	Summary           string
	Trend             Trend
	Insight           string
	Advice            string
	Score             int
	TopCategory       string
	TopCategoryAmount core.Money
}

// Analyze evaluates the ledger snapshot against the rule table. The
// reference time is injected; only its calendar month matters.
//
// A rising expense with a zero last-month baseline stays STABLE: no
// percentage can be stated without a baseline, so "no prior data" and "no
// change" are deliberately conflated.
func Analyze(txs []core.Transaction, now time.Time) Analysis {
	if len(txs) == 0 {
		return Analysis{
			Summary: "Belum ada data cukup untuk analisis.",
			Trend:   TrendStable,
			Insight: "Mulai catat transaksi untuk mendapatkan insight kecerdasan buatan.",
			Advice:  "Catat setiap pengeluaran kecil untuk akurasi data.",
			Score:   50,
		}
	}

	stats := report.Compute(txs, now)
	income := stats.CurrentMonthIncome.Rupiah
	expense := stats.CurrentMonthExpense.Rupiah
	lastExpense := stats.LastMonthExpense.Rupiah

	a := Analysis{
		Trend:   TrendStable,
		Summary: "Pengeluaran Anda stabil.",
		Insight: "Pola pengeluaran Anda terlihat wajar.",
		Advice:  "Pertahankan kebiasaan mencatat transaksi.",
		Score:   80,
	}

	if expense > lastExpense && lastExpense > 0 {
		percent := float64(expense-lastExpense) / float64(lastExpense) * 100
		a.Trend = TrendUp
		a.Summary = fmt.Sprintf("Pengeluaran bulan ini naik %.0f%% dibanding bulan lalu.", percent)
	} else if expense < lastExpense {
		percent := float64(lastExpense-expense) / float64(lastExpense) * 100
		a.Trend = TrendDown
		a.Summary = fmt.Sprintf("Hebat! Pengeluaran turun %.0f%% bulan ini.", percent)
	}

	byCategory := report.ExpenseByCategoryMonth(txs, now.Year(), now.Month())
	if top, ok := report.TopCategory(byCategory); ok {
		a.TopCategory = top.Category
		a.TopCategoryAmount = top.Total
		a.Insight = fmt.Sprintf("Fokus utama pengeluaran bulan ini ada pada %s (%s).",
			top.Category, top.Total.Format())
	}

	// With no income the ratio is treated as 100%, so a spending-only
	// month falls through to the warning rules below.
	ratio := 100.0
	if income > 0 {
		ratio = float64(expense) / float64(income) * 100
	}

	switch {
	case income == 0 && expense > 0:
		a.Advice = "Peringatan: Ada pengeluaran namun belum ada pemasukan bulan ini."
		a.Score = 40
	case ratio > 90:
		a.Advice = "Hati-hati, pengeluaran Anda hampir melebihi pemasukan bulan ini!"
		a.Score = 50
	case ratio > 70:
		a.Advice = "Coba kurangi pengeluaran sekunder untuk menabung lebih banyak."
		a.Score = 70
	case ratio < 50:
		a.Advice = "Kondisi keuangan sangat sehat! Pertahankan rasio tabungan ini."
		a.Score = 95
	}

	return a
}
