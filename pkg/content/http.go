package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// maxPayloadBytes bounds the size of a fetched source.
const maxPayloadBytes = 4 << 20

// HTTPLoader fetches sources relative to a base URL.
type HTTPLoader struct {
	baseURL *url.URL
	client  *http.Client
	mapper  SourceMapper
}

var _ Loader = (*HTTPLoader)(nil)

// NewHTTPLoader creates a loader that GETs mapped source paths from baseURL.
// A nil client gets a 30 second timeout; a nil mapper uses DefaultMapper.
func NewHTTPLoader(baseURL string, client *http.Client, mapper SourceMapper) (*HTTPLoader, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid content base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid content base URL %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if mapper == nil {
		mapper = DefaultMapper
	}
	return &HTTPLoader{baseURL: u, client: client, mapper: mapper}, nil
}

func (l *HTTPLoader) Load(ctx context.Context, sourceID string) (*scene.Source, error) {
	rel, err := l.mapper(sourceID)
	if err != nil {
		return nil, err
	}

	ref, err := url.Parse(rel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", scene.ErrSourceUnavailable, sourceID, err)
	}
	target := l.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", scene.ErrSourceUnavailable, sourceID, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", scene.ErrSourceUnavailable, sourceID, err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: GET %s returned status %d", scene.ErrSourceUnavailable, sourceID, target, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to read response: %v", scene.ErrSourceUnavailable, sourceID, err)
	}
	if len(data) > maxPayloadBytes {
		return nil, fmt.Errorf("%w: %s: payload exceeds %d bytes", scene.ErrSourceUnavailable, sourceID, maxPayloadBytes)
	}

	format := FormatFromContentType(resp.Header.Get("Content-Type"), FormatFromPath(rel))
	return Decode(sourceID, data, format)
}
