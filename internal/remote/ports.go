// Package remote defines the ports for the hosted persistence
// collaborator. The ledger treats whichever implementation it is given as
// a simple remote row store; consistency with local state is best-effort.
package remote

import (
	"context"
	"errors"

	"kasku/internal/core"
)

// ErrNotFound signals an absent row. Implementations return it from
// Update/Delete when the id does not resolve remotely.
var ErrNotFound = errors.New("remote: record not found")

type (
	TransactionStore interface {
		// ListTransactions returns all rows, newest-first by date.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		InsertTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	EventStore interface {
		ListEvents(ctx context.Context) ([]core.Event, error)
		InsertEvent(ctx context.Context, e core.Event) error
		UpdateEvent(ctx context.Context, id string, p core.EventPatch) error
		DeleteEvent(ctx context.Context, id string) error
	}

	// Store is the full collaborator surface used by the ledger.
	Store interface {
		TransactionStore
		EventStore
	}
)
