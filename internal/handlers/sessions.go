package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/scene-engine/internal/session"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scene"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// CreateSessionRequest is the optional body of POST /v1/sessions.
type CreateSessionRequest struct {
	Start string `json:"start,omitempty"` // e.g. "day1#morning"
}

type SessionResponse struct {
	ID       uuid.UUID         `json:"id"`
	Location scene.LocationRef `json:"location"`
	Frame    engine.Frame      `json:"frame"`
	State    state.Vars        `json:"state"`
	Loading  bool              `json:"loading,omitempty"`
	Turns    int               `json:"turns"`
}

type SessionHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

func NewSessionHandler(sessions *session.Manager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for play sessions
// Routes:
// POST   /v1/sessions                       - Start a new session
// GET    /v1/sessions/{id}                  - Read the displayed scene and state
// DELETE /v1/sessions/{id}                  - End a session
// POST   /v1/sessions/{id}/choices/{index}  - Activate a choice
// POST   /v1/sessions/{id}/restart          - Clear state and return to the start
// GET    /v1/sessions/{id}/ws               - Stream renders over a websocket
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, sessionResponse(id, s))

	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := h.sessions.Delete(id); err != nil {
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 3 && parts[1] == "choices" && r.Method == http.MethodPost:
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Choice index must be an integer")
			return
		}
		h.handleSelect(w, r, id, s, index)

	case len(parts) == 2 && parts[1] == "restart" && r.Method == http.MethodPost:
		if _, err := s.Restart(r.Context()); err != nil {
			h.writeSessionError(w, id, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, sessionResponse(id, s))

	case len(parts) == 2 && parts[1] == "ws" && r.Method == http.MethodGet:
		h.handleWS(w, r, id, s)

	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown session route")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.logger.Warn("Invalid create session request", "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
	}

	var start scene.LocationRef
	if req.Start != "" {
		start, err = scene.ParseLocationRef(req.Start)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid start location: "+err.Error())
			return
		}
	}

	id, s, _, err := h.sessions.Create(r.Context(), start)
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, sessionResponse(id, s))
}

func (h *SessionHandler) handleSelect(w http.ResponseWriter, r *http.Request, id uuid.UUID, s *engine.Session, index int) {
	if _, err := s.Select(r.Context(), index); err != nil {
		h.writeSessionError(w, id, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sessionResponse(id, s))
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, id uuid.UUID, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrBusy),
		errors.Is(err, engine.ErrChoiceLocked),
		errors.Is(err, engine.ErrStaleChoice),
		errors.Is(err, engine.ErrNoActiveScene):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrChoiceOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, scene.ErrMalformedChoice):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Session operation failed", "session_id", id.String(), "error", err)
	} else {
		h.logger.Debug("Session operation rejected", "session_id", id.String(), "error", err)
	}
	writeError(w, h.logger, status, err.Error())
}

func sessionResponse(id uuid.UUID, s *engine.Session) SessionResponse {
	return SessionResponse{
		ID:       id,
		Location: s.Location(),
		Frame:    s.Current(),
		State:    s.State(),
		Loading:  s.Loading(),
		Turns:    s.Turns(),
	}
}
