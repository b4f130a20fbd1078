package http

import (
	"errors"
	"net/http"

	"kasku/internal/core"
	"kasku/internal/ledger"
)

// transactionJSON is the wire shape of a transaction row. Amount is whole
// Rupiah; date is an ISO calendar date.
type transactionJSON struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Treasurer   string `json:"treasurer"`
	EventID     string `json:"eventId,omitempty"`
}

type transactionRequest struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Treasurer   string `json:"treasurer"`
	EventID     string `json:"eventId"`
}

type transactionPatchRequest struct {
	Date        *string `json:"date"`
	Type        *string `json:"type"`
	Amount      *int64  `json:"amount"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Treasurer   *string `json:"treasurer"`
	EventID     *string `json:"eventId"`
}

// mutationResponse wraps a changed row. SyncWarning is set when the local
// write succeeded but the hosted store could not be reached; the caller
// sees the accepted record either way.
type mutationResponse struct {
	Transaction *transactionJSON `json:"transaction,omitempty"`
	Event       *eventJSON       `json:"event,omitempty"`
	SyncWarning string           `json:"syncWarning,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Date:        t.Date.String(),
		Type:        string(t.Type),
		Amount:      t.Amount.Rupiah,
		Category:    t.Category,
		Description: t.Description,
		Treasurer:   t.Treasurer,
		EventID:     t.EventID,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.ledger.Transactions()
	rows := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	t := core.Transaction{
		Date:        date,
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Rupiah: req.Amount},
		Category:    sanitize(req.Category),
		Description: sanitize(req.Description),
		Treasurer:   sanitize(req.Treasurer),
		EventID:     sanitize(req.EventID),
	}

	created, err := s.ledger.AddTransaction(r.Context(), t)
	if err != nil && !errors.Is(err, ledger.ErrRemoteSync) {
		writeDomainError(w, err)
		return
	}

	row := toTransactionJSON(created)
	writeJSON(w, http.StatusCreated, mutationResponse{Transaction: &row, SyncWarning: syncWarning(err)})
}

func (s *Server) handlePatchTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var p core.TransactionPatch
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		p.Date = &date
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		p.Type = &t
	}
	if req.Amount != nil {
		m := core.Money{Rupiah: *req.Amount}
		p.Amount = &m
	}
	if req.Category != nil {
		c := sanitize(*req.Category)
		p.Category = &c
	}
	if req.Description != nil {
		d := sanitize(*req.Description)
		p.Description = &d
	}
	if req.Treasurer != nil {
		tr := sanitize(*req.Treasurer)
		p.Treasurer = &tr
	}
	if req.EventID != nil {
		ev := sanitize(*req.EventID)
		p.EventID = &ev
	}

	updated, err := s.ledger.UpdateTransaction(r.Context(), r.PathValue("id"), p)
	if err != nil && !errors.Is(err, ledger.ErrRemoteSync) {
		writeDomainError(w, err)
		return
	}

	row := toTransactionJSON(updated)
	writeJSON(w, http.StatusOK, mutationResponse{Transaction: &row, SyncWarning: syncWarning(err)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.RemoveTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func syncWarning(err error) string {
	if errors.Is(err, ledger.ErrRemoteSync) {
		return "tersimpan lokal; sinkronisasi ke server gagal dan akan dicoba ulang"
	}
	return ""
}
