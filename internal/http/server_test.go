package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kasku/internal/core"
	"kasku/internal/ledger"
	"kasku/internal/receipt"
	"kasku/internal/remote/memory"
	"kasku/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	fixed := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	seq := 0
	store := ledger.New(memory.New(),
		ledger.WithClock(func() time.Time { return fixed }),
		ledger.WithIDFunc(func() string {
			seq++
			return fmt.Sprintf("id-%04d", seq)
		}),
	)
	svc := services.NewLedgerService(store, nil)

	gen := receipt.NewGenerator("http://kasku.test",
		receipt.WithClock(func() time.Time { return fixed }),
		receipt.WithIDFunc(func() string { return "rcpt-1" }),
	)

	return NewServer(":0", svc, gen, receipt.NewPDFRenderer("Kas RT 05"), Options{
		Treasurers: []string{"Budi", "Siti"},
		Now:        func() time.Time { return fixed },
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func createTransaction(t *testing.T, h http.Handler, req transactionRequest) transactionJSON {
	t.Helper()

	rr := doJSON(t, h, http.MethodPost, "/api/transactions", req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction: got %d, body %s", rr.Code, rr.Body.String())
	}
	var resp mutationResponse
	decodeBody(t, rr, &resp)
	if resp.Transaction == nil {
		t.Fatal("create transaction: response has no transaction")
	}
	return *resp.Transaction
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv.Handler, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("expected body ok, got %q", rr.Body.String())
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	created := createTransaction(t, srv.Handler, transactionRequest{
		Date:        "2024-03-10",
		Type:        "KELUAR",
		Amount:      50000,
		Category:    "Konsumsi",
		Description: "Snack rapat warga",
		Treasurer:   "Budi",
	})
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Type != "KELUAR" || created.Amount != 50000 {
		t.Fatalf("unexpected row: %+v", created)
	}

	rr := doJSON(t, srv.Handler, http.MethodGet, "/api/transactions", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: got %d", rr.Code)
	}
	var rows []transactionJSON
	decodeBody(t, rr, &rows)
	if len(rows) != 1 || rows[0].ID != created.ID {
		t.Fatalf("list: expected the created row, got %+v", rows)
	}

	newAmount := int64(75000)
	rr = doJSON(t, srv.Handler, http.MethodPatch, "/api/transactions/"+created.ID, map[string]any{"amount": newAmount})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: got %d, body %s", rr.Code, rr.Body.String())
	}
	var patched mutationResponse
	decodeBody(t, rr, &patched)
	if patched.Transaction.Amount != newAmount {
		t.Fatalf("patch: expected amount %d, got %d", newAmount, patched.Transaction.Amount)
	}
	if patched.Transaction.Description != "Snack rapat warga" {
		t.Fatal("patch: untouched field changed")
	}

	rr = doJSON(t, srv.Handler, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rr.Code)
	}

	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/transactions", nil)
	decodeBody(t, rr, &rows)
	if len(rows) != 0 {
		t.Fatalf("expected empty ledger after delete, got %+v", rows)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		req  transactionRequest
	}{
		{"bad type", transactionRequest{Date: "2024-03-10", Type: "TRANSFER", Amount: 1000, Category: "Konsumsi", Description: "abc", Treasurer: "Budi"}},
		{"zero amount", transactionRequest{Date: "2024-03-10", Type: "MASUK", Amount: 0, Category: "Konsumsi", Description: "abc", Treasurer: "Budi"}},
		{"empty category", transactionRequest{Date: "2024-03-10", Type: "MASUK", Amount: 1000, Description: "abc", Treasurer: "Budi"}},
		{"short description", transactionRequest{Date: "2024-03-10", Type: "MASUK", Amount: 1000, Category: "Konsumsi", Description: "ab", Treasurer: "Budi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, srv.Handler, http.MethodPost, "/api/transactions", tc.req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d, body %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestCreateTransactionBadDate(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv.Handler, http.MethodPost, "/api/transactions", transactionRequest{
		Date: "10-03-2024", Type: "MASUK", Amount: 1000,
		Category: "Konsumsi", Description: "abc", Treasurer: "Budi",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestPatchTransactionRejectsInvalidFields(t *testing.T) {
	srv := newTestServer(t)

	created := createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-03-10", Type: "KELUAR", Amount: 500_000,
		Category: "Operasional", Description: "Sewa aula", Treasurer: "Budi",
	})

	rr := doJSON(t, srv.Handler, http.MethodPatch, "/api/transactions/"+created.ID,
		map[string]any{"amount": -500_000, "type": "HACK"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid patch, got %d, body %s", rr.Code, rr.Body.String())
	}

	// The stored record and every derived aggregate must be untouched.
	var rows []transactionJSON
	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/transactions", nil)
	decodeBody(t, rr, &rows)
	if len(rows) != 1 || rows[0].Type != "KELUAR" || rows[0].Amount != 500_000 {
		t.Fatalf("record corrupted by rejected patch: %+v", rows)
	}

	var st statsJSON
	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/stats", nil)
	decodeBody(t, rr, &st)
	if st.TotalBalance != -500_000 || st.CurrentMonthExpense != 500_000 {
		t.Fatalf("aggregates corrupted by rejected patch: %+v", st)
	}
}

func TestPatchEventRejectsInvalidFields(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv.Handler, http.MethodPost, "/api/events", eventRequest{
		Name: "Agustusan", Date: "2024-08-17", Budget: 1_000_000,
	})
	var resp mutationResponse
	decodeBody(t, rr, &resp)
	evID := resp.Event.ID

	for name, patch := range map[string]map[string]any{
		"negative budget": {"budget": -1},
		"unknown status":  {"status": "CANCELLED"},
	} {
		rr = doJSON(t, srv.Handler, http.MethodPatch, "/api/events/"+evID, patch)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d, body %s", name, rr.Code, rr.Body.String())
		}
	}

	var rows []eventJSON
	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/events", nil)
	decodeBody(t, rr, &rows)
	if len(rows) != 1 || rows[0].Budget != 1_000_000 || rows[0].Status != "PLANNED" {
		t.Fatalf("event corrupted by rejected patch: %+v", rows)
	}
}

func TestPatchMissingTransaction(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv.Handler, http.MethodPatch, "/api/transactions/nope", map[string]any{"amount": 1})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestEventLifecycleAndBudget(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv.Handler, http.MethodPost, "/api/events", eventRequest{
		Name:   "Agustusan",
		Date:   "2024-08-17",
		Budget: 1_000_000,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create event: got %d, body %s", rr.Code, rr.Body.String())
	}
	var resp mutationResponse
	decodeBody(t, rr, &resp)
	if resp.Event == nil {
		t.Fatal("create event: response has no event")
	}
	if resp.Event.Status != string(core.EventPlanned) {
		t.Fatalf("expected default status PLANNED, got %s", resp.Event.Status)
	}
	evID := resp.Event.ID

	createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-08-10", Type: "KELUAR", Amount: 950_000,
		Category: "Konsumsi", Description: "Konsumsi lomba", Treasurer: "Siti",
		EventID: evID,
	})

	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/events/"+evID+"/budget", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("budget: got %d", rr.Code)
	}
	var b budgetJSON
	decodeBody(t, rr, &b)
	if b.Expense != 950_000 || b.RemainingBudget != 50_000 {
		t.Fatalf("unexpected budget summary: %+v", b)
	}
	if b.Status != "CRITICAL" {
		t.Fatalf("expected CRITICAL at 95%% spend, got %s", b.Status)
	}

	rr = doJSON(t, srv.Handler, http.MethodPatch, "/api/events/"+evID, map[string]any{"status": "ACTIVE"})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch event: got %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv.Handler, http.MethodDelete, "/api/events/"+evID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete event: got %d", rr.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// Reference time is fixed to March 2024 in newTestServer.
	createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-03-01", Type: "MASUK", Amount: 500_000,
		Category: "Iuran Anggota", Description: "Iuran bulanan", Treasurer: "Budi",
	})
	createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-03-05", Type: "KELUAR", Amount: 200_000,
		Category: "Operasional", Description: "Bayar listrik", Treasurer: "Budi",
	})
	createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-02-20", Type: "KELUAR", Amount: 100_000,
		Category: "Konsumsi", Description: "Snack rapat", Treasurer: "Siti",
	})

	rr := doJSON(t, srv.Handler, http.MethodGet, "/api/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("stats: got %d", rr.Code)
	}
	var st statsJSON
	decodeBody(t, rr, &st)
	if st.TotalBalance != 200_000 {
		t.Fatalf("expected balance 200000, got %d", st.TotalBalance)
	}
	if st.CurrentMonthIncome != 500_000 || st.CurrentMonthExpense != 200_000 {
		t.Fatalf("unexpected current month: %+v", st)
	}
	if st.LastMonthExpense != 100_000 {
		t.Fatalf("expected last month expense 100000, got %d", st.LastMonthExpense)
	}
	if st.ExpenseTrend != 100 {
		t.Fatalf("expected expense trend +100%%, got %d", st.ExpenseTrend)
	}
}

func TestMonthlyAndCategoryReports(t *testing.T) {
	srv := newTestServer(t)

	createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-01-10", Type: "MASUK", Amount: 300_000,
		Category: "Donasi", Description: "Donasi warga", Treasurer: "Budi",
	})
	createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-02-05", Type: "KELUAR", Amount: 50_000,
		Category: "Konsumsi", Description: "Kopi rapat", Treasurer: "Budi",
	})
	createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-02-07", Type: "KELUAR", Amount: 80_000,
		Category: "Operasional", Description: "Pulsa admin", Treasurer: "Siti",
	})

	rr := doJSON(t, srv.Handler, http.MethodGet, "/api/reports/monthly", nil)
	var months []monthlyJSON
	decodeBody(t, rr, &months)
	if len(months) != 2 {
		t.Fatalf("expected 2 month buckets, got %+v", months)
	}
	if months[0].Month != "2024-01" || months[1].Month != "2024-02" {
		t.Fatalf("expected ascending month keys, got %+v", months)
	}
	if months[1].Expense != 130_000 {
		t.Fatalf("expected February expense 130000, got %d", months[1].Expense)
	}

	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/reports/categories", nil)
	var cats []categoryJSON
	decodeBody(t, rr, &cats)
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %+v", cats)
	}

	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/reports/categories?month=2024-02", nil)
	decodeBody(t, rr, &cats)
	total := int64(0)
	for _, c := range cats {
		total += c.Total
	}
	if total != 130_000 {
		t.Fatalf("expected February category total 130000, got %d", total)
	}

	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/reports/categories?month=februari", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad month, got %d", rr.Code)
	}
}

func TestInsightsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv.Handler, http.MethodGet, "/api/insights", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("insights: got %d", rr.Code)
	}
	var a insightJSON
	decodeBody(t, rr, &a)
	if a.Trend != "STABLE" || a.Score != 50 {
		t.Fatalf("expected empty-ledger insight, got %+v", a)
	}
}

func TestReceiptEndpoints(t *testing.T) {
	srv := newTestServer(t)

	created := createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-03-10", Type: "MASUK", Amount: 250_000,
		Category: "Donasi", Description: "Donasi pembangunan", Treasurer: "Budi",
	})

	rr := doJSON(t, srv.Handler, http.MethodGet, "/api/transactions/"+created.ID+"/receipt", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("receipt: got %d, body %s", rr.Code, rr.Body.String())
	}
	var rec receiptJSON
	decodeBody(t, rr, &rec)
	if !strings.HasPrefix(rec.Reference, "NT-") {
		t.Fatalf("expected NT- reference, got %s", rec.Reference)
	}
	if rec.Date != "10 Maret 2024" {
		t.Fatalf("expected Indonesian display date, got %s", rec.Date)
	}
	if !strings.Contains(rec.VerifyPayload, "/rekap?id="+created.ID) {
		t.Fatalf("verify payload should target the rekap view, got %s", rec.VerifyPayload)
	}
	if !strings.HasPrefix(rec.QRDataURL, "data:image/png;base64,") {
		t.Fatalf("expected embedded QR data url, got %.40s", rec.QRDataURL)
	}

	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/transactions/"+created.ID+"/receipt.pdf", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("receipt.pdf: got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("response body is not a PDF")
	}

	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/transactions/nope/receipt", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown transaction, got %d", rr.Code)
	}
}

func TestBulkReceiptPDF(t *testing.T) {
	srv := newTestServer(t)

	createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-03-10", Type: "MASUK", Amount: 250_000,
		Category: "Donasi", Description: "Donasi pembangunan", Treasurer: "Budi",
	})
	createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-02-05", Type: "KELUAR", Amount: 50_000,
		Category: "Konsumsi", Description: "Kopi rapat", Treasurer: "Siti",
	})

	rr := doJSON(t, srv.Handler, http.MethodGet, "/api/receipts.pdf", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("bulk pdf: got %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("response body is not a PDF")
	}

	// Month filter still yields a document, even for an empty window.
	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/receipts.pdf?month=2024-01", nil)
	if rr.Code != http.StatusOK || !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("filtered bulk pdf: got %d", rr.Code)
	}

	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/receipts.pdf?month=maret", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad month, got %d", rr.Code)
	}
}

func TestRekapView(t *testing.T) {
	srv := newTestServer(t)

	created := createTransaction(t, srv.Handler, transactionRequest{
		Date: "2024-03-10", Type: "KELUAR", Amount: 50_000,
		Category: "Konsumsi", Description: "Snack rapat", Treasurer: "Budi",
	})

	rr := doJSON(t, srv.Handler, http.MethodGet, "/rekap?id="+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("rekap: got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Snack rapat", "Pengeluaran", "Budi", "10 Maret 2024"} {
		if !strings.Contains(body, want) {
			t.Fatalf("rekap page missing %q", want)
		}
	}

	rr = doJSON(t, srv.Handler, http.MethodGet, "/rekap?id=nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tidak ditemukan") {
		t.Fatal("missing not-found message")
	}
}

func TestVoiceParseEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv.Handler, http.MethodPost, "/api/voice/parse", voiceParseRequest{
		Text: "beli snack rapat 50 ribu",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("voice parse: got %d", rr.Code)
	}
	var d voiceDraftJSON
	decodeBody(t, rr, &d)
	if d.Amount != 50_000 || d.Category != "Konsumsi" || d.Type != "KELUAR" {
		t.Fatalf("unexpected draft: %+v", d)
	}

	rr = doJSON(t, srv.Handler, http.MethodPost, "/api/voice/parse", voiceParseRequest{Text: "   "})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", rr.Code)
	}
}

func TestCategoriesAndTreasurers(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv.Handler, http.MethodGet, "/api/categories", nil)
	var cats []string
	decodeBody(t, rr, &cats)
	if len(cats) == 0 || cats[0] != "Iuran Anggota" {
		t.Fatalf("unexpected categories: %v", cats)
	}

	rr = doJSON(t, srv.Handler, http.MethodGet, "/api/treasurers", nil)
	var names []string
	decodeBody(t, rr, &names)
	if len(names) != 2 || names[0] != "Budi" {
		t.Fatalf("unexpected treasurers: %v", names)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv.Handler, http.MethodGet, "/api/transactions", nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}
