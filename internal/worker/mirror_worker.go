// Package worker keeps a mirror backend in step with the primary remote
// store by applying ledger change messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kasku/internal/amqp"
	"kasku/internal/core"
	"kasku/internal/remote"
)

// MirrorWorker applies change notifications to the mirror. Messages
// carry only identities; the worker re-reads the record from the
// primary so that the mirror always converges on the latest state.
type MirrorWorker struct {
	primary remote.Store
	mirror  remote.Store
}

func NewMirrorWorker(primary, mirror remote.Store) *MirrorWorker {
	return &MirrorWorker{primary: primary, mirror: mirror}
}

// HandleChange processes one ledger change message. Returned errors
// signal the broker to requeue the delivery.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"kind", msg.Kind,
		"op", msg.Op,
		"id", msg.ID)

	switch {
	case msg.Kind == amqp.KindTransaction && msg.Op == amqp.OpUpsert:
		return w.upsertTransaction(ctx, msg.ID)
	case msg.Kind == amqp.KindTransaction && msg.Op == amqp.OpDelete:
		return w.deleteTransaction(ctx, msg.ID)
	case msg.Kind == amqp.KindEvent && msg.Op == amqp.OpUpsert:
		return w.upsertEvent(ctx, msg.ID)
	case msg.Kind == amqp.KindEvent && msg.Op == amqp.OpDelete:
		return w.deleteEvent(ctx, msg.ID)
	}
	return fmt.Errorf("unsupported change %s/%s", msg.Kind, msg.Op)
}

// Resync replays the full primary state into the mirror. Called on
// worker startup to recover from missed messages or downtime.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	txs, err := w.primary.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list primary transactions: %w", err)
	}
	events, err := w.primary.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("list primary events: %w", err)
	}

	synced, failed := 0, 0
	for _, e := range events {
		if err := w.applyEvent(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror event", "id", e.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	for _, t := range txs {
		if err := w.applyTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction", "id", t.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Mirror resync completed",
		"transactions", len(txs),
		"events", len(events),
		"synced", synced,
		"errors", failed)

	if failed > 0 {
		return fmt.Errorf("resync: %d records failed", failed)
	}
	return nil
}

func (w *MirrorWorker) upsertTransaction(ctx context.Context, id string) error {
	t, ok, err := findTransaction(ctx, w.primary, id)
	if err != nil {
		return fmt.Errorf("read primary transaction: %w", err)
	}
	if !ok {
		// Deleted on the primary before we got here; a delete message
		// follows or already passed.
		slog.WarnContext(ctx, "Transaction vanished from primary, skipping", "id", id)
		return nil
	}
	return w.applyTransaction(ctx, t)
}

func (w *MirrorWorker) applyTransaction(ctx context.Context, t core.Transaction) error {
	p := fullTransactionPatch(t)
	err := w.mirror.UpdateTransaction(ctx, t.ID, p)
	if errors.Is(err, remote.ErrNotFound) {
		return w.mirror.InsertTransaction(ctx, t)
	}
	return err
}

func (w *MirrorWorker) deleteTransaction(ctx context.Context, id string) error {
	err := w.mirror.DeleteTransaction(ctx, id)
	if errors.Is(err, remote.ErrNotFound) {
		return nil
	}
	return err
}

func (w *MirrorWorker) upsertEvent(ctx context.Context, id string) error {
	e, ok, err := findEvent(ctx, w.primary, id)
	if err != nil {
		return fmt.Errorf("read primary event: %w", err)
	}
	if !ok {
		slog.WarnContext(ctx, "Event vanished from primary, skipping", "id", id)
		return nil
	}
	return w.applyEvent(ctx, e)
}

func (w *MirrorWorker) applyEvent(ctx context.Context, e core.Event) error {
	p := fullEventPatch(e)
	err := w.mirror.UpdateEvent(ctx, e.ID, p)
	if errors.Is(err, remote.ErrNotFound) {
		return w.mirror.InsertEvent(ctx, e)
	}
	return err
}

func (w *MirrorWorker) deleteEvent(ctx context.Context, id string) error {
	err := w.mirror.DeleteEvent(ctx, id)
	if errors.Is(err, remote.ErrNotFound) {
		return nil
	}
	return err
}

func findTransaction(ctx context.Context, s remote.TransactionStore, id string) (core.Transaction, bool, error) {
	txs, err := s.ListTransactions(ctx)
	if err != nil {
		return core.Transaction{}, false, err
	}
	for _, t := range txs {
		if t.ID == id {
			return t, true, nil
		}
	}
	return core.Transaction{}, false, nil
}

func findEvent(ctx context.Context, s remote.EventStore, id string) (core.Event, bool, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return core.Event{}, false, err
	}
	for _, e := range events {
		if e.ID == id {
			return e, true, nil
		}
	}
	return core.Event{}, false, nil
}

func fullTransactionPatch(t core.Transaction) core.TransactionPatch {
	return core.TransactionPatch{
		Date:        &t.Date,
		Type:        &t.Type,
		Amount:      &t.Amount,
		Category:    &t.Category,
		Description: &t.Description,
		Treasurer:   &t.Treasurer,
		EventID:     &t.EventID,
	}
}

func fullEventPatch(e core.Event) core.EventPatch {
	return core.EventPatch{
		Name:        &e.Name,
		Description: &e.Description,
		Date:        &e.Date,
		Budget:      &e.Budget,
		Status:      &e.Status,
	}
}
