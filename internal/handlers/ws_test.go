package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/scene-engine/internal/session"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scene"
)

type wsReply struct {
	Type  string                 `json:"type"`
	Next  *scene.LocationRef     `json:"next"`
	Frame *frameBody             `json:"frame"`
	State map[string]interface{} `json:"state"`
	Error string                 `json:"error"`
}

func readReply(t *testing.T, conn *websocket.Conn) wsReply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestSessionHandler_WebSocket(t *testing.T) {
	env := newTestEnv(t)
	h := NewSessionHandler(env.sessions, env.logger)
	created := createSession(t, h)

	server := httptest.NewServer(h)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/sessions/" + created.ID.String() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readReply(t, conn)
	require.Equal(t, "frame", first.Type)
	require.NotNil(t, first.Frame.Model)
	assert.Equal(t, "Morning", first.Frame.Model.SceneTitle)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "select", "index": 0}))

	loading := readReply(t, conn)
	assert.Equal(t, "loading", loading.Type)
	require.NotNil(t, loading.Next)
	assert.Equal(t, scene.LocationRef{SourceID: "day1", SceneKey: "afternoon"}, *loading.Next)

	frame := readReply(t, conn)
	require.Equal(t, "frame", frame.Type)
	assert.Equal(t, "Afternoon", frame.Frame.Model.SceneTitle)
	assert.Equal(t, true, frame.State["talkedToBob"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "select", "index": 9}))
	rejected := readReply(t, conn)
	assert.Equal(t, "error", rejected.Type)
	assert.Contains(t, rejected.Error, "out of range")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "dance"}))
	unknown := readReply(t, conn)
	assert.Equal(t, "error", unknown.Type)
}

func TestSessionHandler_WebSocketActivityKeepsSessionAlive(t *testing.T) {
	env := newTestEnv(t)
	ttl := 300 * time.Millisecond
	eng := engine.New(env.content.Resolver, env.logger)
	sessions := session.NewManager(eng, scene.LocationRef{SourceID: "day1", SceneKey: "morning"}, ttl, env.logger)
	h := NewSessionHandler(sessions, env.logger)
	created := createSession(t, h)

	server := httptest.NewServer(h)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/sessions/" + created.ID.String() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, "frame", readReply(t, conn).Type)

	// Play past the TTL using only the websocket.
	for i := 0; i < 4; i++ {
		time.Sleep(ttl / 2)
		require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "restart"}))
		assert.Equal(t, "loading", readReply(t, conn).Type)
		assert.Equal(t, "frame", readReply(t, conn).Type)
	}

	assert.Equal(t, 0, sessions.Sweep())
	_, err = sessions.Get(created.ID)
	assert.NoError(t, err)
}
