package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/scene-engine/internal/config"
	"github.com/jwebster45206/scene-engine/internal/handlers"
	"github.com/jwebster45206/scene-engine/internal/logger"
	"github.com/jwebster45206/scene-engine/internal/middleware"
	"github.com/jwebster45206/scene-engine/internal/services"
	"github.com/jwebster45206/scene-engine/internal/session"
	"github.com/jwebster45206/scene-engine/internal/telemetry"
	"github.com/jwebster45206/scene-engine/pkg/engine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Scene Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"content_backend", cfg.ContentBackend,
		"start", cfg.StartRef.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "scene-engine", cfg.OTelEndpoint)
	if err != nil {
		log.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}

	cache, err := services.ConnectCache(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to cache", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		log.Info("Cache connection established successfully")
	}

	contentService, err := services.NewContentService(cfg, cache, log)
	if err != nil {
		log.Error("Failed to set up content", "error", err, "backend", cfg.ContentBackend)
		os.Exit(1)
	}

	var opts []engine.Option
	if cfg.FallbackDayTitle != "" {
		opts = append(opts, engine.WithFallbackTitle(cfg.FallbackDayTitle))
	}
	eng := engine.New(contentService.Resolver, log, opts...)

	sessions := session.NewManager(eng, cfg.StartRef, cfg.SessionTTL, log)
	go sessions.Run(ctx, time.Minute)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(contentService, sessions, log)
	mux.Handle("/health", healthHandler)

	sessionHandler := handlers.NewSessionHandler(sessions, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	sourceHandler := handlers.NewSourceHandler(contentService, log)
	mux.Handle("/v1/sources/", sourceHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket connections outlive any fixed deadline
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := contentService.Close(); err != nil {
		log.Error("Error closing content backends", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error flushing traces", "error", err)
	}

	log.Info("Server exited")
}
