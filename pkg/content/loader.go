package content

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// Loader retrieves and parses one content source.
//
// Implementations return errors wrapping scene.ErrSourceUnavailable when the
// source cannot be retrieved and scene.ErrMalformedSource when its payload
// does not parse.
type Loader interface {
	Load(ctx context.Context, sourceID string) (*scene.Source, error)
}

// SourceMapper maps a source id onto whatever identifier a loader addresses
// sources by (a relative path, a URL path, a row key).
type SourceMapper func(sourceID string) (string, error)

// DefaultMapper turns a source id into a slash-separated relative path under
// the content root. Ids without an extension get ".json".
func DefaultMapper(sourceID string) (string, error) {
	id := strings.TrimSpace(sourceID)
	if id == "" {
		return "", fmt.Errorf("%w: empty source id", scene.ErrSourceUnavailable)
	}
	if strings.HasPrefix(id, "/") || strings.Contains(id, "\\") || filepath.IsAbs(id) {
		return "", fmt.Errorf("%w: source id %q must be relative", scene.ErrSourceUnavailable, sourceID)
	}
	for _, part := range strings.Split(id, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: source id %q escapes the content root", scene.ErrSourceUnavailable, sourceID)
		}
	}
	id = path.Clean(id)
	if path.Ext(id) == "" {
		id += ".json"
	}
	return id, nil
}

// IdentityMapper uses source ids as-is.
func IdentityMapper(sourceID string) (string, error) {
	if strings.TrimSpace(sourceID) == "" {
		return "", fmt.Errorf("%w: empty source id", scene.ErrSourceUnavailable)
	}
	return sourceID, nil
}
