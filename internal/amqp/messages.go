package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record kinds and operations carried by ledger change messages.
const (
	KindTransaction = "transaction"
	KindEvent       = "event"

	OpUpsert = "upsert"
	OpDelete = "delete"
)

// LedgerChangeMessage notifies the mirror worker that a record changed.
// It carries only the identity; the worker re-reads the record from the
// primary backend, so a burst of changes to one record collapses into
// the latest state.
type LedgerChangeMessage struct {
	Kind      string    `json:"kind"`
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangeMessage(kind, op, id string) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		Kind:      kind,
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangeMessage) Validate() error {
	if m.Kind != KindTransaction && m.Kind != KindEvent {
		return fmt.Errorf("unknown kind %q", m.Kind)
	}
	if m.Op != OpUpsert && m.Op != OpDelete {
		return fmt.Errorf("unknown op %q", m.Op)
	}
	if m.ID == "" {
		return fmt.Errorf("missing id")
	}
	return nil
}

func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
