package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// SourceService is the content access the source endpoints rely on.
type SourceService interface {
	Source(ctx context.Context, sourceID string) (*scene.Source, error)
	Invalidate(ctx context.Context, sourceIDs ...string) error
}

type SourceResponse struct {
	ID     string        `json:"id"`
	Source *scene.Source `json:"source"`
	Issues []string      `json:"issues"`
}

type SourceHandler struct {
	content SourceService
	logger  *slog.Logger
}

func NewSourceHandler(content SourceService, logger *slog.Logger) *SourceHandler {
	return &SourceHandler{
		content: content,
		logger:  logger,
	}
}

// ServeHTTP handles content source requests
// Routes:
// GET    /v1/sources/{id}        - Read a parsed source with its validation issues
// DELETE /v1/sources/{id}/cache  - Drop a source from the caches
func (h *SourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sources"), "/")
	if path == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Source ID is required")
		return
	}

	if id, ok := strings.CutSuffix(path, "/cache"); ok && r.Method == http.MethodDelete {
		if err := h.content.Invalidate(r.Context(), id); err != nil {
			h.logger.Error("Failed to invalidate source", "source", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to invalidate source")
			return
		}
		h.logger.Info("Source invalidated", "source", id)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		return
	}

	src, err := h.content.Source(r.Context(), path)
	switch {
	case errors.Is(err, scene.ErrMalformedSource):
		writeError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.Warn("Source unavailable", "source", path, "error", err)
		writeError(w, h.logger, http.StatusNotFound, "Source not found")
		return
	}

	issues := make([]string, 0)
	for _, issue := range scene.Validate(src) {
		issues = append(issues, issue.String())
	}
	writeJSON(w, h.logger, http.StatusOK, SourceResponse{ID: path, Source: src, Issues: issues})
}
