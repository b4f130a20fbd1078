// Package report computes derived aggregates over a ledger snapshot.
// Every function is a pure, single-pass transformation; nothing here
// caches or mutates the snapshot it is given.
package report

import (
	"math"
	"time"

	"kasku/internal/core"
)

// Stats is the dashboard aggregate: all-time balance plus the income and
// expense sums for the calendar month of "now" and the month before it.
type Stats struct {
	TotalBalance        core.Money
	CurrentMonthIncome  core.Money
	CurrentMonthExpense core.Money
	LastMonthIncome     core.Money
	LastMonthExpense    core.Money
}

// Compute derives Stats from the full transaction snapshot. The reference
// time is injected so month windows are testable; only its calendar month
// matters. January rolls over to December of the prior year.
func Compute(txs []core.Transaction, now time.Time) Stats {
	curYear, curMonth := now.Year(), now.Month()
	lastYear, lastMonth := previousMonth(curYear, curMonth)

	var s Stats
	for _, t := range txs {
		s.TotalBalance.Rupiah += t.Signed()

		switch {
		case t.Date.SameMonth(curYear, curMonth):
			if t.Type == core.TypeIncome {
				s.CurrentMonthIncome.Rupiah += t.Amount.Rupiah
			} else {
				s.CurrentMonthExpense.Rupiah += t.Amount.Rupiah
			}
		case t.Date.SameMonth(lastYear, lastMonth):
			if t.Type == core.TypeIncome {
				s.LastMonthIncome.Rupiah += t.Amount.Rupiah
			} else {
				s.LastMonthExpense.Rupiah += t.Amount.Rupiah
			}
		}
	}
	return s
}

// TrendPercent is the month-over-month change in percent, rounded to the
// nearest integer. A zero (or negative) baseline yields 0: no trend claim
// is made without a prior-month baseline, and the result is never NaN or
// infinite.
func TrendPercent(current, last core.Money) int {
	if last.Rupiah <= 0 {
		return 0
	}
	return int(math.Round(float64(current.Rupiah-last.Rupiah) / float64(last.Rupiah) * 100))
}

func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
