package handler

import (
	"errors"
	"net/http"

	"ecostock/internal/model"
	"ecostock/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionHandler manages staging sessions for manual entries.
type SessionHandler struct {
	service  service.InventoryService
	sessions service.SessionService
	logger   zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(service service.InventoryService, sessions service.SessionService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service:  service,
		sessions: sessions,
		logger:   logger.With().Str("handler", "session").Logger(),
	}
}

// Create handles POST /api/sessions requests.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := h.sessions.Create()
	writeJSON(w, http.StatusCreated, model.SessionResponse{ID: id.String()})
}

// Stage handles POST /api/sessions/{id}/entries requests. Staged entries
// join every pipeline run made with the session but are never stored.
func (h *SessionHandler) Stage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	record, err := decodeRecord(w, r)
	if err != nil {
		if errors.Is(err, model.ErrInvalidRecord) {
			writeServiceError(w, err, h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := h.service.Validate(record); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	staged, err := h.sessions.Stage(id, record)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.SessionResponse{ID: id.String(), Staged: staged})
}

// Discard handles DELETE /api/sessions/{id} requests.
func (h *SessionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Discard(id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeSessionNotFound, "invalid session ID format", h.logger)
		return uuid.Nil, false
	}
	return id, true
}
