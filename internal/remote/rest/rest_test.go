package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"kasku/internal/core"
	"kasku/internal/remote"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   []byte
}

func newTestClient(t *testing.T, status int, response string) (*Client, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.body, _ = io.ReadAll(r.Body)
		if r.Header.Get("apikey") == "" {
			t.Error("missing apikey header")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret"), rec
}

func TestListTransactions(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `[
		{"id":"tx-1","date":"2024-02-01","type":"KELUAR","amount":30000,
		 "category":"Konsumsi","description":"Snack rapat","treasurer":"Budi"}
	]`)

	txs, err := c.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.path != "/rest/v1/transactions" || rec.query != "order=date.desc" {
		t.Errorf("request = %s?%s", rec.path, rec.query)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions", len(txs))
	}
	got := txs[0]
	if got.ID != "tx-1" || got.Type != core.TypeExpense || got.Amount.Rupiah != 30000 {
		t.Errorf("decoded transaction = %+v", got)
	}
	if got.Date.String() != "2024-02-01" {
		t.Errorf("date = %s", got.Date)
	}
}

func TestInsertTransaction(t *testing.T) {
	c, rec := newTestClient(t, http.StatusCreated, "")

	err := c.InsertTransaction(context.Background(), core.Transaction{
		ID:          "tx-1",
		Date:        core.NewDate(2024, 2, 1),
		Type:        core.TypeIncome,
		Amount:      core.Money{Rupiah: 100000},
		Category:    "Iuran Anggota",
		Description: "Iuran Februari",
		Treasurer:   "Budi",
		EventID:     "ev-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.method != http.MethodPost || rec.path != "/rest/v1/transactions" {
		t.Errorf("request = %s %s", rec.method, rec.path)
	}

	var row map[string]any
	if err := json.Unmarshal(rec.body, &row); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if row["type"] != "MASUK" || row["amount"] != float64(100000) || row["eventId"] != "ev-1" {
		t.Errorf("encoded row = %v", row)
	}
}

func TestUpdateTransactionSendsOnlyPatchedColumns(t *testing.T) {
	c, rec := newTestClient(t, http.StatusNoContent, "")

	amount := core.Money{Rupiah: 45000}
	err := c.UpdateTransaction(context.Background(), "tx-1", core.TransactionPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.method != http.MethodPatch || rec.query != "id=eq.tx-1" {
		t.Errorf("request = %s %s?%s", rec.method, rec.path, rec.query)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.body, &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(body) != 1 || body["amount"] != float64(45000) {
		t.Errorf("patch body = %v", body)
	}
}

func TestDeleteTransactionNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.StatusNotFound, "")

	err := c.DeleteTransaction(context.Background(), "missing")
	if err != remote.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	c, _ := newTestClient(t, http.StatusInternalServerError, "boom")

	if err := c.InsertEvent(context.Background(), core.Event{
		ID:     "ev-1",
		Name:   "Bukber",
		Date:   core.NewDate(2024, 3, 20),
		Budget: core.Money{Rupiah: 500000},
		Status: core.EventPlanned,
	}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestListEvents(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `[
		{"id":"ev-1","name":"Bukber Alumni","description":"","date":"2024-03-20",
		 "budget":500000,"status":"ACTIVE"}
	]`)

	evs, err := c.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evs) != 1 || evs[0].Status != core.EventActive || evs[0].Budget.Rupiah != 500000 {
		t.Errorf("decoded events = %+v", evs)
	}
}
