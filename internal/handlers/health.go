package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Service    string                 `json:"service"`
	Components map[string]interface{} `json:"components"`
}

// ComponentChecker reports the status of backing services by name.
type ComponentChecker interface {
	Health(ctx context.Context) map[string]string
}

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	content  ComponentChecker
	sessions SessionCounter
	logger   *slog.Logger
}

func NewHealthHandler(content ComponentChecker, sessions SessionCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		content:  content,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]interface{})
	overallStatus := "healthy"

	for name, status := range h.content.Health(ctx) {
		components[name] = status
		if status == "unhealthy" {
			overallStatus = "degraded"
		}
	}
	components["sessions"] = h.sessions.Len()

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, statusCode, HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "scene-engine",
		Components: components,
	})
}
