// Package services orchestrates ledger operations with the messaging
// side effects the API process owes the rest of the system.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kasku/internal/amqp"
	"kasku/internal/core"
	"kasku/internal/ledger"
)

// ChangePublisher is the slice of the AMQP client the service needs.
type ChangePublisher interface {
	PublishLedgerChange(ctx context.Context, kind, op, id string) error
}

// LedgerService wraps the ledger store and notifies the mirror worker
// after each accepted change. Publishing is best-effort: a broker
// outage never fails a request that the ledger already accepted.
type LedgerService struct {
	store     *ledger.Store
	publisher ChangePublisher
}

func NewLedgerService(store *ledger.Store, publisher ChangePublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

func (s *LedgerService) Load(ctx context.Context) error {
	return s.store.Load(ctx)
}

func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	added, err := s.store.AddTransaction(ctx, t)
	if err != nil && !errors.Is(err, ledger.ErrRemoteSync) {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.KindTransaction, amqp.OpUpsert, added.ID)
	return added, err
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	updated, err := s.store.UpdateTransaction(ctx, id, p)
	if err != nil && !errors.Is(err, ledger.ErrRemoteSync) {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.KindTransaction, amqp.OpUpsert, id)
	return updated, err
}

func (s *LedgerService) RemoveTransaction(ctx context.Context, id string) error {
	if err := s.store.RemoveTransaction(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.KindTransaction, amqp.OpDelete, id)
	return nil
}

func (s *LedgerService) AddEvent(ctx context.Context, e core.Event) (core.Event, error) {
	added, err := s.store.AddEvent(ctx, e)
	if err != nil && !errors.Is(err, ledger.ErrRemoteSync) {
		return core.Event{}, err
	}
	s.publish(ctx, amqp.KindEvent, amqp.OpUpsert, added.ID)
	return added, err
}

func (s *LedgerService) UpdateEvent(ctx context.Context, id string, p core.EventPatch) (core.Event, error) {
	updated, err := s.store.UpdateEvent(ctx, id, p)
	if err != nil && !errors.Is(err, ledger.ErrRemoteSync) {
		return core.Event{}, err
	}
	s.publish(ctx, amqp.KindEvent, amqp.OpUpsert, id)
	return updated, err
}

func (s *LedgerService) RemoveEvent(ctx context.Context, id string) error {
	if err := s.store.RemoveEvent(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.KindEvent, amqp.OpDelete, id)
	return nil
}

func (s *LedgerService) Transactions() []core.Transaction {
	return s.store.Transactions()
}

func (s *LedgerService) TransactionByID(id string) (core.Transaction, bool) {
	return s.store.TransactionByID(id)
}

func (s *LedgerService) Events() []core.Event {
	return s.store.Events()
}

func (s *LedgerService) EventByID(id string) (core.Event, bool) {
	return s.store.EventByID(id)
}

func (s *LedgerService) publish(ctx context.Context, kind, op, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChange(ctx, kind, op, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"kind", kind, "op", op, "id", id, "error", err)
	}
}

// Close releases the publisher connection when one is attached.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
