package http

import (
	"net/http"
	"time"

	"kasku/internal/insight"
	"kasku/internal/report"
)

type statsJSON struct {
	TotalBalance        int64 `json:"totalBalance"`
	CurrentMonthIncome  int64 `json:"currentMonthIncome"`
	CurrentMonthExpense int64 `json:"currentMonthExpense"`
	LastMonthIncome     int64 `json:"lastMonthIncome"`
	LastMonthExpense    int64 `json:"lastMonthExpense"`
	IncomeTrend         int   `json:"incomeTrend"`
	ExpenseTrend        int   `json:"expenseTrend"`
}

type monthlyJSON struct {
	Month   string `json:"month"` // YYYY-MM
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

type categoryJSON struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
}

type insightJSON struct {
	Summary           string `json:"summary"`
	Trend             string `json:"trend"`
	Insight           string `json:"insight"`
	Advice            string `json:"advice"`
	Score             int    `json:"score"`
	TopCategory       string `json:"topCategory,omitempty"`
	TopCategoryAmount int64  `json:"topCategoryAmount,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := report.Compute(s.ledger.Transactions(), s.now())
	writeJSON(w, http.StatusOK, statsJSON{
		TotalBalance:        st.TotalBalance.Rupiah,
		CurrentMonthIncome:  st.CurrentMonthIncome.Rupiah,
		CurrentMonthExpense: st.CurrentMonthExpense.Rupiah,
		LastMonthIncome:     st.LastMonthIncome.Rupiah,
		LastMonthExpense:    st.LastMonthExpense.Rupiah,
		IncomeTrend:         report.TrendPercent(st.CurrentMonthIncome, st.LastMonthIncome),
		ExpenseTrend:        report.TrendPercent(st.CurrentMonthExpense, st.LastMonthExpense),
	})
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	series := report.MonthlySeries(s.ledger.Transactions())
	rows := make([]monthlyJSON, 0, len(series))
	for _, m := range series {
		rows = append(rows, monthlyJSON{Month: m.Key(), Income: m.Income.Rupiah, Expense: m.Expense.Rupiah})
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleCategoryReport sums expenses per category; ?month=YYYY-MM narrows
// the window to one calendar month.
func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	txs := s.ledger.Transactions()

	var totals []report.CategoryTotal
	if month := r.URL.Query().Get("month"); month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		totals = report.ExpenseByCategoryMonth(txs, t.Year(), t.Month())
	} else {
		totals = report.ExpenseByCategory(txs)
	}

	rows := make([]categoryJSON, 0, len(totals))
	for _, c := range totals {
		rows = append(rows, categoryJSON{Category: c.Category, Total: c.Total.Rupiah})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	a := insight.Analyze(s.ledger.Transactions(), s.now())
	writeJSON(w, http.StatusOK, insightJSON{
		Summary:           a.Summary,
		Trend:             string(a.Trend),
		Insight:           a.Insight,
		Advice:            a.Advice,
		Score:             a.Score,
		TopCategory:       a.TopCategory,
		TopCategoryAmount: a.TopCategoryAmount.Rupiah,
	})
}
