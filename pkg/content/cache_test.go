package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// memCache is an in-memory PayloadCache for testing
type memCache struct {
	data     map[string]string
	getErr   error
	setErr   error
	setTTLs  []time.Duration
	getCalls int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) {
	m.getCalls++
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.data[key], nil
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value.(string)
	m.setTTLs = append(m.setTTLs, expiration)
	return nil
}

// countingLoader counts calls through to a map of sources
type countingLoader struct {
	sources map[string]string
	calls   int
}

func (c *countingLoader) Load(ctx context.Context, sourceID string) (*scene.Source, error) {
	c.calls++
	data, ok := c.sources[sourceID]
	if !ok {
		return nil, errors.Join(scene.ErrSourceUnavailable, errors.New(sourceID))
	}
	return Decode(sourceID, []byte(data), FormatJSON)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCachedLoader_ReadThrough(t *testing.T) {
	next := &countingLoader{sources: map[string]string{"day1": day1JSON}}
	cache := newMemCache()
	loader := NewCachedLoader(next, cache, time.Hour, quietLogger())
	ctx := context.Background()

	first, err := loader.Load(ctx, "day1")
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected 1 backend call, got %d", next.calls)
	}
	if _, ok := cache.data["content:day1"]; !ok {
		t.Fatal("expected cache entry content:day1")
	}
	if len(cache.setTTLs) != 1 || cache.setTTLs[0] != time.Hour {
		t.Errorf("unexpected ttls: %v", cache.setTTLs)
	}

	second, err := loader.Load(ctx, "day1")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if next.calls != 1 {
		t.Errorf("expected cache hit, backend called %d times", next.calls)
	}
	if second.ID != "day1" {
		t.Errorf("cached source ID = %q", second.ID)
	}
	if second.DayTitle != first.DayTitle || len(second.Scenes) != len(first.Scenes) {
		t.Error("cached source differs from original")
	}
	choice := second.Scenes["morning"].Choices[1]
	if choice.LockedText != "need key" || len(choice.Conditions) != 1 {
		t.Errorf("cached choice lost fields: %+v", choice)
	}
}

func TestCachedLoader_CacheFailuresFallThrough(t *testing.T) {
	next := &countingLoader{sources: map[string]string{"day1": day1JSON}}
	cache := newMemCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	loader := NewCachedLoader(next, cache, time.Minute, quietLogger())

	for i := 0; i < 2; i++ {
		if _, err := loader.Load(context.Background(), "day1"); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	if next.calls != 2 {
		t.Errorf("expected 2 backend calls, got %d", next.calls)
	}
}

func TestCachedLoader_CorruptEntry(t *testing.T) {
	next := &countingLoader{sources: map[string]string{"day1": day1JSON}}
	cache := newMemCache()
	cache.data["content:day1"] = "{not json"
	loader := NewCachedLoader(next, cache, time.Minute, quietLogger())

	src, err := loader.Load(context.Background(), "day1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if src.DayTitle != "Day One" {
		t.Errorf("DayTitle = %q", src.DayTitle)
	}
	if next.calls != 1 {
		t.Errorf("expected backend call after corrupt entry, got %d", next.calls)
	}
	if strings.HasPrefix(cache.data["content:day1"], "{not") {
		t.Error("expected corrupt entry to be replaced")
	}
}

func TestCachedLoader_BackendErrorNotCached(t *testing.T) {
	next := &countingLoader{sources: map[string]string{}}
	cache := newMemCache()
	loader := NewCachedLoader(next, cache, time.Minute, quietLogger())

	_, err := loader.Load(context.Background(), "missing")
	if !errors.Is(err, scene.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if len(cache.data) != 0 {
		t.Errorf("expected nothing cached, got %v", cache.data)
	}
}
