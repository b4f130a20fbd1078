package services

import (
	"context"
	"errors"
	"testing"

	"kasku/internal/core"
	"kasku/internal/ledger"
	"kasku/internal/remote/memory"
)

type published struct {
	kind, op, id string
}

type recordingPublisher struct {
	messages []published
	fail     bool
}

func (p *recordingPublisher) PublishLedgerChange(_ context.Context, kind, op, id string) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, published{kind, op, id})
	return nil
}

func newService(t *testing.T, pub ChangePublisher) *LedgerService {
	t.Helper()
	store := ledger.New(memory.New())
	return NewLedgerService(store, pub)
}

func validTx() core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2024, 2, 15),
		Type:        core.TypeExpense,
		Amount:      core.Money{Rupiah: 50000},
		Category:    "Konsumsi",
		Description: "Snack rapat",
		Treasurer:   "Siti",
	}
}

func TestAddTransactionPublishesUpsert(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)

	added, err := svc.AddTransaction(context.Background(), validTx())
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	got := pub.messages[0]
	if got.kind != "transaction" || got.op != "upsert" || got.id != added.ID {
		t.Errorf("published %+v", got)
	}
}

func TestAddTransactionInvalidPublishesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)

	tx := validTx()
	tx.Description = "ab"
	if _, err := svc.AddTransaction(context.Background(), tx); err == nil {
		t.Fatal("expected validation error")
	}
	if len(pub.messages) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.messages))
	}
}

func TestRemoveTransactionPublishesDelete(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)
	ctx := context.Background()

	added, err := svc.AddTransaction(ctx, validTx())
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if err := svc.RemoveTransaction(ctx, added.ID); err != nil {
		t.Fatalf("RemoveTransaction: %v", err)
	}

	last := pub.messages[len(pub.messages)-1]
	if last.op != "delete" || last.id != added.ID {
		t.Errorf("last message = %+v, want delete of %s", last, added.ID)
	}
}

func TestPublisherFailureDoesNotFailRequest(t *testing.T) {
	svc := newService(t, &recordingPublisher{fail: true})

	if _, err := svc.AddTransaction(context.Background(), validTx()); err != nil {
		t.Errorf("broker outage surfaced to caller: %v", err)
	}
}

func TestNilPublisher(t *testing.T) {
	svc := newService(t, nil)
	if _, err := svc.AddTransaction(context.Background(), validTx()); err != nil {
		t.Errorf("AddTransaction with nil publisher: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestEventLifecyclePublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)
	ctx := context.Background()

	ev, err := svc.AddEvent(ctx, core.Event{
		Name:   "Bakti Sosial",
		Date:   core.NewDate(2024, 3, 10),
		Budget: core.Money{Rupiah: 500000},
		Status: core.EventPlanned,
	})
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	status := core.EventActive
	if _, err := svc.UpdateEvent(ctx, ev.ID, core.EventPatch{Status: &status}); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if err := svc.RemoveEvent(ctx, ev.ID); err != nil {
		t.Fatalf("RemoveEvent: %v", err)
	}

	var ops []string
	for _, m := range pub.messages {
		if m.kind == "event" {
			ops = append(ops, m.op)
		}
	}
	want := []string{"upsert", "upsert", "delete"}
	if len(ops) != len(want) {
		t.Fatalf("event ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("event ops = %v, want %v", ops, want)
		}
	}
}
