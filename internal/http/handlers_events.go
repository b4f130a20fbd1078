package http

import (
	"errors"
	"net/http"

	"kasku/internal/budget"
	"kasku/internal/core"
	"kasku/internal/ledger"
)

type eventJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Budget      int64  `json:"budget"`
	Status      string `json:"status"`
}

type eventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Budget      int64  `json:"budget"`
	Status      string `json:"status"`
}

type eventPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Budget      *int64  `json:"budget"`
	Status      *string `json:"status"`
}

type budgetJSON struct {
	EventID         string `json:"eventId"`
	Budget          int64  `json:"budget"`
	Income          int64  `json:"income"`
	Expense         int64  `json:"expense"`
	RemainingBudget int64  `json:"remainingBudget"`
	Status          string `json:"status"`
}

func toEventJSON(e core.Event) eventJSON {
	return eventJSON{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Date:        e.Date.String(),
		Budget:      e.Budget.Rupiah,
		Status:      string(e.Status),
	}
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	evs := s.ledger.Events()
	rows := make([]eventJSON, 0, len(evs))
	for _, e := range evs {
		rows = append(rows, toEventJSON(e))
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	status := core.EventStatus(req.Status)
	if req.Status == "" {
		status = core.EventPlanned
	}

	e := core.Event{
		Name:        sanitize(req.Name),
		Description: sanitize(req.Description),
		Date:        date,
		Budget:      core.Money{Rupiah: req.Budget},
		Status:      status,
	}

	created, err := s.ledger.AddEvent(r.Context(), e)
	if err != nil && !errors.Is(err, ledger.ErrRemoteSync) {
		writeDomainError(w, err)
		return
	}

	row := toEventJSON(created)
	writeJSON(w, http.StatusCreated, mutationResponse{Event: &row, SyncWarning: syncWarning(err)})
}

func (s *Server) handlePatchEvent(w http.ResponseWriter, r *http.Request) {
	var req eventPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var p core.EventPatch
	if req.Name != nil {
		n := sanitize(*req.Name)
		p.Name = &n
	}
	if req.Description != nil {
		d := sanitize(*req.Description)
		p.Description = &d
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		p.Date = &date
	}
	if req.Budget != nil {
		m := core.Money{Rupiah: *req.Budget}
		p.Budget = &m
	}
	if req.Status != nil {
		st := core.EventStatus(*req.Status)
		p.Status = &st
	}

	updated, err := s.ledger.UpdateEvent(r.Context(), r.PathValue("id"), p)
	if err != nil && !errors.Is(err, ledger.ErrRemoteSync) {
		writeDomainError(w, err)
		return
	}

	row := toEventJSON(updated)
	writeJSON(w, http.StatusOK, mutationResponse{Event: &row, SyncWarning: syncWarning(err)})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.RemoveEvent(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEventBudget(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.ledger.EventByID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	sum := budget.Track(ev, s.ledger.Transactions())
	writeJSON(w, http.StatusOK, budgetJSON{
		EventID:         sum.EventID,
		Budget:          ev.Budget.Rupiah,
		Income:          sum.Income.Rupiah,
		Expense:         sum.Expense.Rupiah,
		RemainingBudget: sum.RemainingBudget.Rupiah,
		Status:          string(sum.Status),
	})
}
