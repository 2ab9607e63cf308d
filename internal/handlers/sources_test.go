package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/scene-engine/pkg/content"
)

func TestSourceHandler_Get(t *testing.T) {
	env := newTestEnv(t)
	h := NewSourceHandler(env.content, env.logger)

	rr := doRequest(t, h, http.MethodGet, "/v1/sources/day1", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var response SourceResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, "day1", response.ID)
	require.NotNil(t, response.Source)
	assert.Equal(t, "Day One", response.Source.DayTitle)
	assert.Len(t, response.Source.Scenes, 3)
	assert.Contains(t, response.Issues, "warning: scene park: no choices; scene is a dead end")
}

func TestSourceHandler_Errors(t *testing.T) {
	env := newTestEnv(t)
	h := NewSourceHandler(env.content, env.logger)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"missing source", http.MethodGet, "/v1/sources/day9", http.StatusNotFound},
		{"malformed source", http.MethodGet, "/v1/sources/broken", http.StatusUnprocessableEntity},
		{"no id", http.MethodGet, "/v1/sources/", http.StatusBadRequest},
		{"wrong method", http.MethodPut, "/v1/sources/day1", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, h, tt.method, tt.path, "")
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestSourceHandler_Invalidate(t *testing.T) {
	env := newTestEnv(t)
	h := NewSourceHandler(env.content, env.logger)

	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/v1/sources/day1", "").Code)
	require.Len(t, env.cache.SetCalls, 1)

	rr := doRequest(t, h, http.MethodDelete, "/v1/sources/day1/cache", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, env.cache.DelCalls, 1)
	assert.Equal(t, []string{content.CacheKeyPrefix + "day1"}, env.cache.DelCalls[0])

	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/v1/sources/day1", "").Code)
	assert.Len(t, env.cache.SetCalls, 2)
}
