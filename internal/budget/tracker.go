// Package budget classifies event spending against the event's budget
// ceiling. The budget is a target, not a hard cap: transactions past it
// are surfaced as OVER_BUDGET, never rejected.
package budget

import "kasku/internal/core"

type Status string

const (
	StatusSafe       Status = "SAFE"
	StatusCritical   Status = "CRITICAL"    // within 10% of the ceiling
	StatusOverBudget Status = "OVER_BUDGET" // expense exceeds the ceiling
)

// Summary is the spent-vs-budget picture for one event.
type Summary struct {
	EventID         string
	Income          core.Money
	Expense         core.Money
	RemainingBudget core.Money
	Status          Status
}

// Track computes the Summary for ev from the transaction snapshot. Only
// transactions referencing ev.ID count; a pure function of its inputs
// with no clock dependency.
func Track(ev core.Event, txs []core.Transaction) Summary {
	s := Summary{EventID: ev.ID}
	for _, t := range txs {
		if t.EventID != ev.ID {
			continue
		}
		if t.Type == core.TypeIncome {
			s.Income.Rupiah += t.Amount.Rupiah
		} else {
			s.Expense.Rupiah += t.Amount.Rupiah
		}
	}
	s.RemainingBudget.Rupiah = ev.Budget.Rupiah - s.Expense.Rupiah
	s.Status = classify(s.Expense.Rupiah, ev.Budget.Rupiah)
	return s
}

// classify keeps the 0.9 threshold in integer arithmetic: expense is
// critical when expense > 0.9*budget, i.e. 10*expense > 9*budget.
func classify(expense, budget int64) Status {
	switch {
	case expense > budget:
		return StatusOverBudget
	case expense*10 > budget*9:
		return StatusCritical
	default:
		return StatusSafe
	}
}
