// Package ledger owns the canonical transaction and event collections.
//
// Mutations apply to the local snapshot first and then propagate to the
// remote store. For add and update the propagation is best-effort: on
// failure the local copy is kept and the error is surfaced wrapped in
// ErrRemoteSync so callers can report it without losing the write. A
// failed remove restores the removed record instead, so the local view
// never drops a row that still exists remotely.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"kasku/internal/core"
	"kasku/internal/remote"
)

var (
	ErrNotFound = errors.New("ledger: record not found")

	// ErrRemoteSync wraps a tolerated propagation failure: the local
	// mutation stuck, only the remote copy is stale.
	ErrRemoteSync = errors.New("ledger: remote sync failed")
)

type Store struct {
	mu           sync.RWMutex
	transactions []core.Transaction // newest-first
	events       []core.Event       // newest-first

	remote remote.Store
	now    func() time.Time
	newID  func() string
}

type Option func(*Store)

// WithClock injects the time source used for date defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc injects the id generator. IDs must stay unique even for
// rapid successive calls within the same process.
func WithIDFunc(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func New(r remote.Store, opts ...Option) *Store {
	s := &Store{
		remote: r,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the local snapshot with the remote state. Called once at
// startup; afterwards the local snapshot is authoritative for reads.
func (s *Store) Load(ctx context.Context) error {
	txs, err := s.remote.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	evs, err := s.remote.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	s.mu.Lock()
	s.transactions = txs
	s.events = evs
	s.mu.Unlock()

	slog.InfoContext(ctx, "Ledger loaded from remote store",
		"transactions", len(txs),
		"events", len(evs))
	return nil
}

// AddTransaction assigns an id (and today's date when none is given),
// prepends the record, and propagates it. A propagation failure returns
// the stored record together with an ErrRemoteSync-wrapped error.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.Date.IsZero() {
		t.Date = core.DateOf(s.now())
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	s.transactions = append([]core.Transaction{t}, s.transactions...)
	s.mu.Unlock()

	if err := s.remote.InsertTransaction(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to propagate transaction insert",
			"transaction_id", t.ID,
			"error", err)
		return t, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}
	return t, nil
}

// UpdateTransaction merges the patch into the record matching id. The id
// itself is never altered. The merged record must still validate; an
// invalid patch is rejected before any local or remote state changes.
func (s *Store) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	idx := s.txIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Transaction{}, ErrNotFound
	}
	merged := s.transactions[idx]
	p.Apply(&merged)
	if err := merged.Validate(); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.transactions[idx] = merged
	updated := merged
	s.mu.Unlock()

	if err := s.remote.UpdateTransaction(ctx, id, p); err != nil {
		slog.ErrorContext(ctx, "Failed to propagate transaction update",
			"transaction_id", id,
			"error", err)
		return updated, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}
	return updated, nil
}

// RemoveTransaction deletes the record and awaits remote confirmation.
// When the remote delete fails the record is restored at its previous
// position and the error is returned. A remote "not found" counts as
// confirmed: the row is already gone.
func (s *Store) RemoveTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.txIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	removed := s.transactions[idx]
	s.transactions = append(s.transactions[:idx], s.transactions[idx+1:]...)
	s.mu.Unlock()

	err := s.remote.DeleteTransaction(ctx, id)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		s.mu.Lock()
		s.transactions = insertTxAt(s.transactions, idx, removed)
		s.mu.Unlock()
		slog.ErrorContext(ctx, "Remote delete failed, transaction restored locally",
			"transaction_id", id,
			"error", err)
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// Transactions returns a copy of the snapshot, newest-first.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Store) TransactionByID(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.txIndex(id); idx >= 0 {
		return s.transactions[idx], true
	}
	return core.Transaction{}, false
}

// AddEvent behaves like AddTransaction: optimistic local prepend,
// best-effort propagation.
func (s *Store) AddEvent(ctx context.Context, e core.Event) (core.Event, error) {
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.Date.IsZero() {
		e.Date = core.DateOf(s.now())
	}
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}

	s.mu.Lock()
	s.events = append([]core.Event{e}, s.events...)
	s.mu.Unlock()

	if err := s.remote.InsertEvent(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to propagate event insert",
			"event_id", e.ID,
			"error", err)
		return e, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}
	return e, nil
}

// UpdateEvent follows the same merge-validate-commit contract as
// UpdateTransaction.
func (s *Store) UpdateEvent(ctx context.Context, id string, p core.EventPatch) (core.Event, error) {
	s.mu.Lock()
	idx := s.eventIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Event{}, ErrNotFound
	}
	merged := s.events[idx]
	p.Apply(&merged)
	if err := merged.Validate(); err != nil {
		s.mu.Unlock()
		return core.Event{}, err
	}
	s.events[idx] = merged
	updated := merged
	s.mu.Unlock()

	if err := s.remote.UpdateEvent(ctx, id, p); err != nil {
		slog.ErrorContext(ctx, "Failed to propagate event update",
			"event_id", id,
			"error", err)
		return updated, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}
	return updated, nil
}

// RemoveEvent follows the same confirm-or-restore contract as
// RemoveTransaction. Transactions referencing the event keep their
// eventId; a dangling reference is a tolerated, detectable state.
func (s *Store) RemoveEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.eventIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	removed := s.events[idx]
	s.events = append(s.events[:idx], s.events[idx+1:]...)
	s.mu.Unlock()

	err := s.remote.DeleteEvent(ctx, id)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		s.mu.Lock()
		s.events = insertEventAt(s.events, idx, removed)
		s.mu.Unlock()
		slog.ErrorContext(ctx, "Remote delete failed, event restored locally",
			"event_id", id,
			"error", err)
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *Store) Events() []core.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Event(nil), s.events...)
}

func (s *Store) EventByID(id string) (core.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.eventIndex(id); idx >= 0 {
		return s.events[idx], true
	}
	return core.Event{}, false
}

// txIndex and eventIndex require s.mu held.
func (s *Store) txIndex(id string) int {
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) eventIndex(id string) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

func insertTxAt(txs []core.Transaction, idx int, t core.Transaction) []core.Transaction {
	if idx > len(txs) {
		idx = len(txs)
	}
	txs = append(txs, core.Transaction{})
	copy(txs[idx+1:], txs[idx:])
	txs[idx] = t
	return txs
}

func insertEventAt(evs []core.Event, idx int, e core.Event) []core.Event {
	if idx > len(evs) {
		idx = len(evs)
	}
	evs = append(evs, core.Event{})
	copy(evs[idx+1:], evs[idx:])
	evs[idx] = e
	return evs
}
