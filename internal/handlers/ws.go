package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scene"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// wsMessage is sent to the client. Type is "loading", "frame" or "error".
type wsMessage struct {
	Type  string             `json:"type"`
	Next  *scene.LocationRef `json:"next,omitempty"`
	Frame *engine.Frame      `json:"frame,omitempty"`
	State state.Vars         `json:"state,omitempty"`
	Error string             `json:"error,omitempty"`
}

// wsInbound is read from the client. Type is "select" or "restart".
type wsInbound struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// wsPresenter forwards session renders to one websocket connection.
type wsPresenter struct {
	session *engine.Session
	send    chan wsMessage
	done    chan struct{}
}

func (p *wsPresenter) push(msg wsMessage) {
	select {
	case p.send <- msg:
	case <-p.done:
	default:
		// slow client; it will resync from the next frame
	}
}

func (p *wsPresenter) Loading(next scene.LocationRef) {
	p.push(wsMessage{Type: "loading", Next: &next})
}

func (p *wsPresenter) Render(frame engine.Frame) {
	p.push(wsMessage{Type: "frame", Frame: &frame, State: p.session.State()})
}

func (h *SessionHandler) handleWS(w http.ResponseWriter, r *http.Request, id uuid.UUID, s *engine.Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "session_id", id.String(), "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	p := &wsPresenter{
		session: s,
		send:    make(chan wsMessage, 16),
		done:    make(chan struct{}),
	}
	defer close(p.done)
	detach := s.Attach(p)
	defer detach()

	if frame := s.Current(); frame.IsZero() {
		next := s.Location()
		p.push(wsMessage{Type: "loading", Next: &next})
	} else {
		p.push(wsMessage{Type: "frame", Frame: &frame, State: s.State()})
	}

	go h.wsWriter(conn, p)

	h.logger.Info("Websocket attached", "session_id", id.String())
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Websocket read failed", "session_id", id.String(), "error", err)
			}
			h.logger.Info("Websocket detached", "session_id", id.String())
			return
		}
		if err := h.sessions.Touch(id); err != nil {
			h.logger.Info("Websocket session expired", "session_id", id.String())
			p.push(wsMessage{Type: "error", Error: err.Error()})
			return
		}

		var in wsInbound
		if err := json.Unmarshal(data, &in); err != nil {
			p.push(wsMessage{Type: "error", Error: "invalid message"})
			continue
		}

		switch in.Type {
		case "select":
			// Run off the read loop so a second select during loading is
			// rejected as busy instead of landing on the next scene.
			go func(index int) {
				if _, err := s.Select(ctx, index); err != nil {
					p.push(wsMessage{Type: "error", Error: err.Error()})
				}
			}(in.Index)
		case "restart":
			go func() {
				if _, err := s.Restart(ctx); err != nil {
					p.push(wsMessage{Type: "error", Error: err.Error()})
				}
			}()
		default:
			p.push(wsMessage{Type: "error", Error: "unknown message type: " + in.Type})
		}
	}
}

func (h *SessionHandler) wsWriter(conn *websocket.Conn, p *wsPresenter) {
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("Websocket write failed", "error", err)
				return
			}
		}
	}
}
