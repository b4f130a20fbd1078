package report

import (
	"sort"
	"time"

	"kasku/internal/core"
)

// MonthlySummary is the income/expense pair for one (year, month) bucket.
type MonthlySummary struct {
	Year    int
	Month   int // 1-12
	Income  core.Money
	Expense core.Money
}

// Key renders the bucket key as "YYYY-MM", the label used on reports.
func (m MonthlySummary) Key() string {
	return core.NewDate(m.Year, m.Month, 1).Format("2006-01")
}

// CategoryTotal is the summed expense for one category label.
type CategoryTotal struct {
	Category string
	Total    core.Money
}

// MonthlySeries groups every transaction into exactly one (year, month)
// bucket and sums income and expense per bucket, ascending by key. The
// buckets always sum back to the ungrouped totals.
func MonthlySeries(txs []core.Transaction) []MonthlySummary {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthlySummary)
	for _, t := range txs {
		k := key{t.Date.Year(), t.Date.Time.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthlySummary{Year: k.year, Month: int(k.month)}
			buckets[k] = b
		}
		if t.Type == core.TypeIncome {
			b.Income.Rupiah += t.Amount.Rupiah
		} else {
			b.Expense.Rupiah += t.Amount.Rupiah
		}
	}

	out := make([]MonthlySummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// ExpenseByCategory sums expense transactions per category label over the
// whole snapshot. Categories appear in first-encounter order; consumers
// sort as they need.
func ExpenseByCategory(txs []core.Transaction) []CategoryTotal {
	return expenseByCategory(txs, func(core.Transaction) bool { return true })
}

// ExpenseByCategoryMonth is ExpenseByCategory restricted to one calendar
// month.
func ExpenseByCategoryMonth(txs []core.Transaction, year int, month time.Month) []CategoryTotal {
	return expenseByCategory(txs, func(t core.Transaction) bool {
		return t.Date.SameMonth(year, month)
	})
}

func expenseByCategory(txs []core.Transaction, include func(core.Transaction) bool) []CategoryTotal {
	idx := make(map[string]int)
	var out []CategoryTotal
	for _, t := range txs {
		if t.Type != core.TypeExpense || !include(t) {
			continue
		}
		i, ok := idx[t.Category]
		if !ok {
			i = len(out)
			idx[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category})
		}
		out[i].Total.Rupiah += t.Amount.Rupiah
	}
	return out
}

// TopCategory returns the category with the largest total, or false when
// the slice is empty. A tie keeps the earlier entry; with first-encounter
// ordering that makes the winner the first category reaching the maximum
// in the snapshot.
func TopCategory(totals []CategoryTotal) (CategoryTotal, bool) {
	if len(totals) == 0 {
		return CategoryTotal{}, false
	}
	top := totals[0]
	for _, ct := range totals[1:] {
		if ct.Total.Rupiah > top.Total.Rupiah {
			top = ct
		}
	}
	return top, true
}
