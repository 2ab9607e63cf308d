package services

import (
	"context"

	"github.com/jwebster45206/scene-engine/pkg/content"
)

// Cache is the shared key/value store that backs the content cache.
type Cache interface {
	content.PayloadCache

	// Ping tests the cache connection
	Ping(ctx context.Context) error

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) error

	// Exists checks if keys exist
	Exists(ctx context.Context, keys ...string) (bool, error)

	Close() error

	// WaitForConnection waits for cache to be available with retries
	WaitForConnection(ctx context.Context) error
}

// SourceCacheKeys returns the cache keys holding the given content sources.
func SourceCacheKeys(sourceIDs ...string) []string {
	keys := make([]string, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		keys = append(keys, content.CacheKeyPrefix+id)
	}
	return keys
}

