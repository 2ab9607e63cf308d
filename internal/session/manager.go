// Package session keeps the live playthroughs served by the API.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scene"
)

var ErrNotFound = errors.New("session not found")

type entry struct {
	session  *engine.Session
	lastSeen time.Time
}

// Manager owns the in-memory session table. Sessions idle for longer than
// the TTL are dropped by Sweep.
type Manager struct {
	engine *engine.Engine
	start  scene.LocationRef
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
}

func NewManager(eng *engine.Engine, start scene.LocationRef, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		engine:   eng,
		start:    start,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// Create starts a new session at start, or at the default start location
// when start is zero, and presents its first scene.
func (m *Manager) Create(ctx context.Context, start scene.LocationRef) (uuid.UUID, *engine.Session, engine.Frame, error) {
	if start.IsZero() {
		start = m.start
	}
	id := uuid.New()
	s := engine.NewSession(m.engine, start, m.logger.With("session_id", id.String()))

	frame, err := s.Start(ctx)
	if err != nil {
		return uuid.Nil, nil, engine.Frame{}, err
	}

	m.mu.Lock()
	m.sessions[id] = &entry{session: s, lastSeen: m.now()}
	m.mu.Unlock()

	m.logger.Info("Session created", "session_id", id.String(), "start", start.String())
	return id, s, frame, nil
}

// Get returns the session and marks it as recently used.
func (m *Manager) Get(id uuid.UUID) (*engine.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = m.now()
	return e.session, nil
}

// Touch marks the session as recently used without returning it.
func (m *Manager) Touch(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	e.lastSeen = m.now()
	return nil
}

func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.logger.Info("Session deleted", "session_id", id.String())
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("Expired sessions removed", "count", removed, "remaining", len(m.sessions))
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
