// Package sqlite backs the remote store ports with a local SQLite file.
// It serves self-hosted deployments that do not want a hosted API, and
// doubles as the mirror target for the sync worker.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kasku/internal/core"
	"kasku/internal/remote"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at dbPath and brings
// the schema up to date.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, type, amount, category, description, treasurer, COALESCE(event_id, '')
		FROM transactions
		ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			t       core.Transaction
			rawDate string
		)
		if err := rows.Scan(&t.ID, &rawDate, &t.Type, &t.Amount.Rupiah,
			&t.Category, &t.Description, &t.Treasurer, &t.EventID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(rawDate); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, date, type, amount, category, description, treasurer, event_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.String(), string(t.Type), t.Amount.Rupiah,
		t.Category, t.Description, t.Treasurer, nullable(t.EventID))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Date != nil {
		set("date", p.Date.String())
	}
	if p.Type != nil {
		set("type", string(*p.Type))
	}
	if p.Amount != nil {
		set("amount", p.Amount.Rupiah)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Treasurer != nil {
		set("treasurer", *p.Treasurer)
	}
	if p.EventID != nil {
		set("event_id", nullable(*p.EventID))
	}
	if len(sets) == 0 {
		return s.exists(ctx, "transactions", id)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return affected(res)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affected(res)
}

func (s *Store) ListEvents(ctx context.Context) ([]core.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, date, budget, status
		FROM events
		ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		var (
			e       core.Event
			rawDate string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &rawDate,
			&e.Budget.Rupiah, &e.Status); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.Date, err = core.ParseDate(rawDate); err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) InsertEvent(ctx context.Context, e core.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, name, description, date, budget, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Description, e.Date.String(), e.Budget.Rupiah, string(e.Status))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, p core.EventPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Date != nil {
		set("date", p.Date.String())
	}
	if p.Budget != nil {
		set("budget", p.Budget.Rupiah)
	}
	if p.Status != nil {
		set("status", string(*p.Status))
	}
	if len(sets) == 0 {
		return s.exists(ctx, "events", id)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE events SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return affected(res)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return affected(res)
}

func (s *Store) exists(ctx context.Context, table, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return remote.ErrNotFound
	}
	return err
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return remote.ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
