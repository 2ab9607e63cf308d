package handlers

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/scene-engine/internal/config"
	"github.com/jwebster45206/scene-engine/internal/services"
	"github.com/jwebster45206/scene-engine/internal/session"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scene"
)

const storyDay1 = `{
  "dayTitle": "Day One",
  "scenes": {
    "morning": {
      "title": "Morning",
      "description": "You wake up.",
      "choices": [
        {"text": "Talk to Bob", "setState": {"talkedToBob": true}, "target": "afternoon"},
        {"text": "Go to park", "lockedText": "need key", "conditions": {"hasKey": true}, "target": "park"},
        {"text": "Take the bus", "target": "day2#"}
      ]
    },
    "afternoon": {
      "title": "Afternoon",
      "description": "Bob waves.",
      "choices": [
        {"text": "Visit Bob's house", "conditions": {"talkedToBob": true}, "target": "day2#evening"},
        {"text": "Walk to the mall", "target": "day3#entrance"}
      ]
    },
    "park": {"title": "Park", "description": "Quiet.", "choices": []}
  }
}`

const storyDay2 = `scenes:
  evening:
    title: Evening
    description: Dinner at Bob's.
    choices:
      - text: Go home
        target: day1#morning
`

type testEnv struct {
	content  *services.ContentService
	cache    *services.MockCache
	sessions *session.Manager
	logger   *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day1.json"), []byte(storyDay1), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day2.yaml"), []byte(storyDay2), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"scenes": [`), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := services.NewMockCache()
	cfg := &config.Config{
		ContentBackend:  config.BackendFile,
		ContentRoot:     dir,
		ContentCacheTTL: time.Hour,
	}
	contentService, err := services.NewContentService(cfg, cache, logger)
	require.NoError(t, err)

	eng := engine.New(contentService.Resolver, logger)
	start := scene.LocationRef{SourceID: "day1", SceneKey: "morning"}
	return &testEnv{
		content:  contentService,
		cache:    cache,
		sessions: session.NewManager(eng, start, time.Hour, logger),
		logger:   logger,
	}
}

// Decoded views of the JSON responses.
type choiceBody struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

type frameBody struct {
	Model *struct {
		Ref        scene.LocationRef `json:"ref"`
		DayTitle   string            `json:"dayTitle"`
		SceneTitle string            `json:"sceneTitle"`
		Choices    []choiceBody      `json:"choices"`
		Terminal   bool              `json:"terminal"`
	} `json:"model"`
	Error *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

type sessionBody struct {
	ID       uuid.UUID              `json:"id"`
	Location scene.LocationRef      `json:"location"`
	Frame    frameBody              `json:"frame"`
	State    map[string]interface{} `json:"state"`
	Turns    int                    `json:"turns"`
}
