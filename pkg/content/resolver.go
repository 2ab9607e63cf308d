package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// Resolver implements the content-source capability the scene engine consumes:
// given a location it returns the parsed source, failing when the source is
// unavailable or malformed or when the scene key is absent from it.
//
// Sources are immutable for the life of the process, so successful loads are
// memoised per source id. Failures are not memoised.
type Resolver struct {
	loader Loader
	logger *slog.Logger

	mu      sync.RWMutex
	sources map[string]*scene.Source
	memo    bool
}

type ResolverOption func(*Resolver)

// WithoutMemo disables the per-process source memo.
func WithoutMemo() ResolverOption {
	return func(r *Resolver) { r.memo = false }
}

func NewResolver(loader Loader, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		loader:  loader,
		logger:  logger,
		sources: make(map[string]*scene.Source),
		memo:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the source holding ref's scene.
func (r *Resolver) Resolve(ctx context.Context, ref scene.LocationRef) (*scene.Source, error) {
	src, err := r.Source(ctx, ref.SourceID)
	if err != nil {
		return nil, err
	}
	if _, ok := src.Scenes[ref.SceneKey]; !ok {
		return nil, fmt.Errorf("%w: %q in source %q", scene.ErrSceneNotFound, ref.SceneKey, ref.SourceID)
	}
	return src, nil
}

// Source returns a whole source by id.
func (r *Resolver) Source(ctx context.Context, sourceID string) (*scene.Source, error) {
	if r.memo {
		r.mu.RLock()
		src, ok := r.sources[sourceID]
		r.mu.RUnlock()
		if ok {
			return src, nil
		}
	}

	src, err := r.loader.Load(ctx, sourceID)
	if err != nil {
		r.logger.Debug("Failed to load source", "source", sourceID, "error", err)
		return nil, err
	}

	if r.memo {
		r.mu.Lock()
		r.sources[sourceID] = src
		r.mu.Unlock()
	}
	return src, nil
}

// Forget drops memoised sources, all of them when no ids are given.
func (r *Resolver) Forget(sourceIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(sourceIDs) == 0 {
		r.sources = make(map[string]*scene.Source)
		return
	}
	for _, id := range sourceIDs {
		delete(r.sources, id)
	}
}
