package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/scene-engine/internal/config"
	"github.com/jwebster45206/scene-engine/pkg/content"
	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// ContentService assembles the content pipeline selected by configuration:
// a backend loader, an optional shared Redis cache and the process-wide
// resolver.
type ContentService struct {
	Resolver *content.Resolver
	Backend  string

	loader content.Loader
	cache  Cache
	store  *content.SQLiteStore
	logger *slog.Logger
}

// NewContentService builds the pipeline described by cfg. cache may be nil to
// disable shared caching.
func NewContentService(cfg *config.Config, cache Cache, logger *slog.Logger) (*ContentService, error) {
	s := &ContentService{
		Backend: cfg.ContentBackend,
		cache:   cache,
		logger:  logger,
	}

	var backend content.Loader
	switch cfg.ContentBackend {
	case config.BackendFile:
		backend = content.NewFileLoader(cfg.ContentRoot, nil)
	case config.BackendHTTP:
		httpLoader, err := content.NewHTTPLoader(cfg.ContentBaseURL, nil, nil)
		if err != nil {
			return nil, err
		}
		backend = httpLoader
	case config.BackendSQLite:
		store, err := content.OpenSQLite(cfg.ContentSQLitePath)
		if err != nil {
			return nil, err
		}
		s.store = store
		backend = store
	default:
		return nil, fmt.Errorf("unknown content backend %q", cfg.ContentBackend)
	}

	s.loader = backend
	if cache != nil {
		s.loader = content.NewCachedLoader(backend, cache, cfg.ContentCacheTTL, logger)
	}
	s.Resolver = content.NewResolver(s.loader, logger)

	logger.Info("Content pipeline ready",
		"backend", cfg.ContentBackend,
		"shared_cache", cache != nil)
	return s, nil
}

// Source returns a parsed source by id.
func (s *ContentService) Source(ctx context.Context, sourceID string) (*scene.Source, error) {
	return s.Resolver.Source(ctx, sourceID)
}

// Invalidate drops sources from the shared cache and the process memo so the
// next request reads them from the backend again.
func (s *ContentService) Invalidate(ctx context.Context, sourceIDs ...string) error {
	s.Resolver.Forget(sourceIDs...)
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, SourceCacheKeys(sourceIDs...)...)
}

// Health reports the state of each dependency of the pipeline.
func (s *ContentService) Health(ctx context.Context) map[string]string {
	components := map[string]string{
		"content": s.Backend,
		"cache":   "disabled",
	}
	if s.cache != nil {
		components["cache"] = "healthy"
		if err := s.cache.Ping(ctx); err != nil {
			s.logger.Warn("Cache health check failed", "error", err)
			components["cache"] = "unhealthy"
		}
	}
	if s.store != nil {
		components["sqlite"] = "healthy"
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn("SQLite health check failed", "error", err)
			components["sqlite"] = "unhealthy"
		}
	}
	return components
}

func (s *ContentService) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	return errors.Join(errs...)
}

// ConnectCache opens the Redis cache named by cfg, or returns nil when no
// REDIS_URL is configured.
func ConnectCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Cache, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	redisService, err := NewRedisService(cfg.RedisURL, logger)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := redisService.WaitForConnection(waitCtx); err != nil {
		_ = redisService.Close()
		return nil, err
	}
	return redisService, nil
}
