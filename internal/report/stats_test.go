package report

import (
	"testing"
	"time"

	"kasku/internal/core"
)

func tx(typ core.TransactionType, amount int64, year, month, day int) core.Transaction {
	return core.Transaction{
		Type:   typ,
		Amount: core.Money{Rupiah: amount},
		Date:   core.NewDate(year, month, day),
	}
}

func TestComputeStats(t *testing.T) {
	txs := []core.Transaction{
		tx(core.TypeIncome, 100000, 2024, 1, 5),
		tx(core.TypeExpense, 40000, 2024, 1, 10),
		tx(core.TypeExpense, 30000, 2024, 2, 1),
	}
	now := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	s := Compute(txs, now)

	if s.TotalBalance.Rupiah != 30000 {
		t.Errorf("TotalBalance = %d, want 30000", s.TotalBalance.Rupiah)
	}
	if s.CurrentMonthExpense.Rupiah != 30000 {
		t.Errorf("CurrentMonthExpense = %d, want 30000", s.CurrentMonthExpense.Rupiah)
	}
	if s.CurrentMonthIncome.Rupiah != 0 {
		t.Errorf("CurrentMonthIncome = %d, want 0", s.CurrentMonthIncome.Rupiah)
	}
	if s.LastMonthExpense.Rupiah != 40000 {
		t.Errorf("LastMonthExpense = %d, want 40000", s.LastMonthExpense.Rupiah)
	}
	if s.LastMonthIncome.Rupiah != 100000 {
		t.Errorf("LastMonthIncome = %d, want 100000", s.LastMonthIncome.Rupiah)
	}

	if got := TrendPercent(s.CurrentMonthExpense, s.LastMonthExpense); got != -25 {
		t.Errorf("expense trend = %d, want -25", got)
	}
}

func TestComputeStatsJanuaryRollover(t *testing.T) {
	txs := []core.Transaction{
		tx(core.TypeExpense, 50000, 2023, 12, 28),
		tx(core.TypeExpense, 25000, 2024, 1, 3),
	}
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	s := Compute(txs, now)

	if s.CurrentMonthExpense.Rupiah != 25000 {
		t.Errorf("CurrentMonthExpense = %d, want 25000", s.CurrentMonthExpense.Rupiah)
	}
	if s.LastMonthExpense.Rupiah != 50000 {
		t.Errorf("LastMonthExpense = %d, want 50000 (December of prior year)", s.LastMonthExpense.Rupiah)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	s := Compute(nil, time.Now())
	if s != (Stats{}) {
		t.Errorf("empty ledger should yield zero stats, got %+v", s)
	}
}

func TestTotalBalanceMatchesIndependentSums(t *testing.T) {
	txs := []core.Transaction{
		tx(core.TypeIncome, 100000, 2024, 1, 1),
		tx(core.TypeIncome, 75000, 2024, 3, 9),
		tx(core.TypeExpense, 40000, 2024, 2, 2),
		tx(core.TypeExpense, 20000, 2023, 11, 30),
		tx(core.TypeExpense, 5000, 2024, 3, 10),
	}

	var income, expense int64
	for _, t := range txs {
		if t.Type == core.TypeIncome {
			income += t.Amount.Rupiah
		} else {
			expense += t.Amount.Rupiah
		}
	}

	s := Compute(txs, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if s.TotalBalance.Rupiah != income-expense {
		t.Errorf("TotalBalance = %d, want %d", s.TotalBalance.Rupiah, income-expense)
	}
}

func TestTrendPercent(t *testing.T) {
	cases := []struct {
		name          string
		current, last int64
		want          int
	}{
		{"no baseline", 30000, 0, 0},
		{"no baseline with growth", 999999, 0, 0},
		{"drop", 30000, 40000, -25},
		{"rise", 60000, 40000, 50},
		{"flat", 40000, 40000, 0},
		{"rounding", 100, 300, -67},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TrendPercent(core.Money{Rupiah: tc.current}, core.Money{Rupiah: tc.last})
			if got != tc.want {
				t.Errorf("TrendPercent(%d, %d) = %d, want %d", tc.current, tc.last, got, tc.want)
			}
		})
	}
}
