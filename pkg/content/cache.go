package content

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// PayloadCache is the subset of a key/value cache the CachedLoader needs.
// Get returns "" with a nil error on a miss.
type PayloadCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CacheKeyPrefix namespaces cached sources.
const CacheKeyPrefix = "content:"

// CachedLoader is a read-through cache in front of another loader. Sources are
// stored as normalised JSON. The cache is best effort: cache failures are
// logged and the next loader is consulted.
type CachedLoader struct {
	next   Loader
	cache  PayloadCache
	ttl    time.Duration
	logger *slog.Logger
}

var _ Loader = (*CachedLoader)(nil)

func NewCachedLoader(next Loader, cache PayloadCache, ttl time.Duration, logger *slog.Logger) *CachedLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedLoader{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedLoader) Load(ctx context.Context, sourceID string) (*scene.Source, error) {
	key := CacheKeyPrefix + sourceID

	cached, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("Content cache read failed", "source", sourceID, "error", err)
	case cached != "":
		var src scene.Source
		if err := json.Unmarshal([]byte(cached), &src); err == nil && src.Scenes != nil {
			src.ID = sourceID
			c.logger.Debug("Content cache hit", "source", sourceID)
			return &src, nil
		}
		c.logger.Warn("Discarding corrupt content cache entry", "source", sourceID)
	}

	src, err := c.next.Load(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(src)
	if err != nil {
		c.logger.Warn("Failed to encode source for cache", "source", sourceID, "error", err)
		return src, nil
	}
	if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
		c.logger.Warn("Content cache write failed", "source", sourceID, "error", err)
	}
	return src, nil
}
