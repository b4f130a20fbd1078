package sheets

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"kasku/internal/core"
)

// Transaction rows: id, date, type, amount, category, description, treasurer, event_id.
// Event rows: id, name, description, date, budget, status.

func transactionRow(t core.Transaction) []any {
	return []any{
		t.ID, t.Date.String(), string(t.Type), strconv.FormatInt(t.Amount.Rupiah, 10),
		t.Category, t.Description, t.Treasurer, t.EventID,
	}
}

func eventRow(e core.Event) []any {
	return []any{
		e.ID, e.Name, e.Description, e.Date.String(),
		strconv.FormatInt(e.Budget.Rupiah, 10), string(e.Status),
	}
}

func parseTransactionRow(row []any) (core.Transaction, error) {
	cols := toStrings(row)
	if len(cols) < 7 {
		return core.Transaction{}, fmt.Errorf("expected at least 7 columns, got %d", len(cols))
	}

	date, err := core.ParseDate(cols[1])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date: %w", err)
	}
	amount, err := parseRupiahCell(cols[3])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}

	t := core.Transaction{
		ID:          cols[0],
		Date:        date,
		Type:        core.TransactionType(cols[2]),
		Amount:      core.Money{Rupiah: amount},
		Category:    cols[4],
		Description: cols[5],
		Treasurer:   cols[6],
	}
	if len(cols) >= 8 {
		t.EventID = cols[7]
	}
	return t, nil
}

func parseEventRow(row []any) (core.Event, error) {
	cols := toStrings(row)
	if len(cols) < 6 {
		return core.Event{}, fmt.Errorf("expected 6 columns, got %d", len(cols))
	}

	date, err := core.ParseDate(cols[3])
	if err != nil {
		return core.Event{}, fmt.Errorf("date: %w", err)
	}
	budget, err := parseRupiahCell(cols[4])
	if err != nil {
		return core.Event{}, fmt.Errorf("budget: %w", err)
	}

	return core.Event{
		ID:          cols[0],
		Name:        cols[1],
		Description: cols[2],
		Date:        date,
		Budget:      core.Money{Rupiah: budget},
		Status:      core.EventStatus(cols[5]),
	}, nil
}

// parseRupiahCell reads an amount cell. Sheets may return the value the
// user typed, so grouping dots and a decimal tail ("50000.00") are
// tolerated.
func parseRupiahCell(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	sep := strings.LastIndexAny(s, ".,")
	if sep < 0 {
		return strconv.ParseInt(s, 10, 64)
	}
	strip := strings.NewReplacer(".", "", ",", "")
	// A three-digit final group is thousands grouping ("50.000");
	// anything shorter is a decimal tail ("50000.00") to drop.
	if tail := s[sep+1:]; len(tail) == 3 {
		return strconv.ParseInt(strip.Replace(s), 10, 64)
	} else if _, err := strconv.ParseUint(tail, 10, 64); err != nil {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	return strconv.ParseInt(strip.Replace(s[:sep]), 10, 64)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func sortTransactions(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Time.After(txs[j].Date.Time)
	})
}

func sortEvents(events []core.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Time.After(events[j].Date.Time)
	})
}
