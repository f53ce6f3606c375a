package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := s.ledger.GetSetting(r.Context(), key)
	if err != nil {
		writeError(w, r, "load setting", err)
		return
	}
	writeJSON(w, r, http.StatusOK, settingResponse{Key: key, Value: value})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req settingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ledger.SetSetting(r.Context(), key, req.Value); err != nil {
		writeError(w, r, "save setting", err)
		return
	}
	writeJSON(w, r, http.StatusOK, settingResponse{Key: key, Value: req.Value})
}
