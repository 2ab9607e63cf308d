package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

func newContentServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/stories/day1.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(day1JSON))
	})
	mux.HandleFunc("/stories/day2.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(day2YAML))
	})
	mux.HandleFunc("/stories/garbled.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	})
	mux.HandleFunc("/stories/down.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPLoader(t *testing.T) {
	srv := newContentServer(t)
	loader, err := NewHTTPLoader(srv.URL+"/stories", srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewHTTPLoader failed: %v", err)
	}
	ctx := context.Background()

	src, err := loader.Load(ctx, "day1")
	if err != nil {
		t.Fatalf("Load day1 failed: %v", err)
	}
	if src.DayTitle != "Day One" {
		t.Errorf("DayTitle = %q", src.DayTitle)
	}

	src, err = loader.Load(ctx, "day2.yaml")
	if err != nil {
		t.Fatalf("Load day2.yaml failed: %v", err)
	}
	if _, ok := src.Scenes["park"]; !ok {
		t.Error("expected park scene")
	}

	if _, err := loader.Load(ctx, "nope"); !errors.Is(err, scene.ErrSourceUnavailable) {
		t.Errorf("404: expected ErrSourceUnavailable, got %v", err)
	}
	if _, err := loader.Load(ctx, "down"); !errors.Is(err, scene.ErrSourceUnavailable) {
		t.Errorf("503: expected ErrSourceUnavailable, got %v", err)
	}
	if _, err := loader.Load(ctx, "garbled"); !errors.Is(err, scene.ErrMalformedSource) {
		t.Errorf("garbled: expected ErrMalformedSource, got %v", err)
	}
}

func TestHTTPLoader_OversizedPayload(t *testing.T) {
	// Valid JSON padded with whitespace past the limit.
	body := `{"scenes":{"a":{"title":"A","choices":[]}}}` + strings.Repeat(" ", maxPayloadBytes)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	loader, err := NewHTTPLoader(srv.URL, srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewHTTPLoader failed: %v", err)
	}
	_, err = loader.Load(context.Background(), "big")
	if !errors.Is(err, scene.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if errors.Is(err, scene.ErrMalformedSource) {
		t.Errorf("oversized payload reported as malformed: %v", err)
	}
	if !strings.Contains(err.Error(), "payload exceeds") {
		t.Errorf("error should name the size limit, got %v", err)
	}
}

func TestHTTPLoader_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	loader, err := NewHTTPLoader(url, nil, nil)
	if err != nil {
		t.Fatalf("NewHTTPLoader failed: %v", err)
	}
	if _, err := loader.Load(context.Background(), "day1"); !errors.Is(err, scene.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestNewHTTPLoader_InvalidURL(t *testing.T) {
	for _, u := range []string{"ftp://example.com", "not a url", ""} {
		if _, err := NewHTTPLoader(u, nil, nil); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}
