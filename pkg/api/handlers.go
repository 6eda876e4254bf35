package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/yourusername/bgturn/pkg/engine"
)

// Handlers holds the HTTP handlers and the session hub.
type Handlers struct {
	hub     *Hub
	pool    *SessionPool
	version string
	log     *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(hub *Hub, pool *SessionPool, version string, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		hub:     hub,
		pool:    pool,
		version: version,
		log:     log,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// session resolves the {id} path value and reserves a request slot. On
// failure it writes the error and returns nil. The caller must call the
// returned release function.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*Session, func()) {
	s, ok := h.hub.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found", CodeNotFound)
		return nil, nil
	}
	if err := h.pool.AcquireRequest(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", CodeServerBusy)
		return nil, nil
	}
	return s, h.pool.ReleaseRequest
}

// sessionError maps a session error to a response.
func (h *Handlers) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrSessionClosed) {
		writeError(w, http.StatusNotFound, err.Error(), CodeNotFound)
		return
	}
	writeError(w, http.StatusServiceUnavailable, err.Error(), CodeServerBusy)
}

// readField decodes a FieldRequest and checks the field index.
func readField(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req FieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return 0, false
	}
	if req.Field < 0 || req.Field >= engine.NumFields {
		writeError(w, http.StatusBadRequest, "field must be between 0 and 23", CodeInvalidField)
		return 0, false
	}
	return req.Field, true
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.pool.Stats()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Sessions: h.hub.Len(),
		Pool:     &stats,
	})
}

// CreateSession handles POST /api/sessions
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}

	s, err := h.hub.Create(req)
	if errors.Is(err, ErrServerBusy) {
		writeError(w, http.StatusServiceUnavailable, "session limit reached", CodeServerBusy)
		return
	}
	if err != nil {
		h.log.Error("create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error(), "ENGINE_ERROR")
		return
	}

	snap, err := s.Snapshot(r.Context())
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetSession handles GET /api/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	s, release := h.session(w, r)
	if s == nil {
		return
	}
	defer release()

	snap, err := s.Snapshot(r.Context())
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.hub.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found", CodeNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Roll handles POST /api/sessions/{id}/roll
func (h *Handlers) Roll(w http.ResponseWriter, r *http.Request) {
	s, release := h.session(w, r)
	if s == nil {
		return
	}
	defer release()

	resp, err := s.Roll(r.Context())
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Select handles POST /api/sessions/{id}/select
func (h *Handlers) Select(w http.ResponseWriter, r *http.Request) {
	s, release := h.session(w, r)
	if s == nil {
		return
	}
	defer release()

	field, ok := readField(w, r)
	if !ok {
		return
	}
	resp, err := s.Select(r.Context(), field)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Commit handles POST /api/sessions/{id}/commit
func (h *Handlers) Commit(w http.ResponseWriter, r *http.Request) {
	s, release := h.session(w, r)
	if s == nil {
		return
	}
	defer release()

	field, ok := readField(w, r)
	if !ok {
		return
	}
	resp, err := s.Commit(r.Context(), field)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Transcript handles GET /api/sessions/{id}/transcript
func (h *Handlers) Transcript(w http.ResponseWriter, r *http.Request) {
	s, release := h.session(w, r)
	if s == nil {
		return
	}
	defer release()

	t, err := s.Transcript(r.Context())
	if err != nil {
		h.sessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := t.WriteMAT(w); err != nil {
		h.log.Warn("write transcript", zap.Error(err))
	}
}
