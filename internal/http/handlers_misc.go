package http

import (
	"net/http"

	"kasku/internal/core"
	"kasku/internal/voice"
)

type voiceParseRequest struct {
	Text string `json:"text"`
}

type voiceDraftJSON struct {
	Amount      int64  `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (s *Server) handleVoiceParse(w http.ResponseWriter, r *http.Request) {
	var req voiceParseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	text := sanitize(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	d := voice.Parse(text)
	writeJSON(w, http.StatusOK, voiceDraftJSON{
		Amount:      d.Amount,
		Category:    d.Category,
		Description: d.Description,
		Type:        string(d.Type),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.SuggestedCategories)
}

func (s *Server) handleTreasurers(w http.ResponseWriter, r *http.Request) {
	treasurers := s.treasurers
	if treasurers == nil {
		treasurers = []string{}
	}
	writeJSON(w, http.StatusOK, treasurers)
}
