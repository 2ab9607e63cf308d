package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jwebster45206/scene-engine/pkg/scene"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

var (
	ErrBusy             = errors.New("a transition is already in progress")
	ErrNoActiveScene    = errors.New("no scene is displayed")
	ErrChoiceOutOfRange = errors.New("choice index out of range")
	ErrChoiceLocked     = errors.New("choice is locked")
	ErrStaleChoice      = errors.New("choice belongs to a scene that is no longer displayed")
)

// Presenter receives render updates from a session. Calls are made from the
// goroutine driving the transition and must not block for long.
type Presenter interface {
	// Loading is called once state has been merged and before the next
	// scene is resolved. Any displayed choices are no longer actionable.
	Loading(next scene.LocationRef)
	Render(frame Frame)
}

// Session owns one playthrough: the game state, the displayed scene and the
// presenters watching it. At most one transition runs at a time.
type Session struct {
	engine *Engine
	start  scene.LocationRef
	logger *slog.Logger

	// flight is held for the duration of a transition.
	flight sync.Mutex

	mu      sync.RWMutex
	state   *state.GameState
	current Frame
	ref     scene.LocationRef
	loading bool
	gen     uint64
	turns   int

	pmu        sync.Mutex
	presenters map[int]Presenter
	nextID     int
}

func NewSession(engine *Engine, start scene.LocationRef, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		engine:     engine,
		start:      start,
		logger:     logger.With("start", start.String()),
		state:      state.NewGameState(),
		presenters: make(map[int]Presenter),
	}
}

// Attach registers p for future updates and returns a func that detaches it.
func (s *Session) Attach(p Presenter) (detach func()) {
	s.pmu.Lock()
	id := s.nextID
	s.nextID++
	s.presenters[id] = p
	s.pmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.pmu.Lock()
			delete(s.presenters, id)
			s.pmu.Unlock()
		})
	}
}

// Start presents the starting location with the current game state.
func (s *Session) Start(ctx context.Context) (Frame, error) {
	if !s.flight.TryLock() {
		return Frame{}, ErrBusy
	}
	defer s.flight.Unlock()

	return s.transition(ctx, s.start, nil), nil
}

// Restart clears the game state and presents the starting location again.
func (s *Session) Restart(ctx context.Context) (Frame, error) {
	if !s.flight.TryLock() {
		return Frame{}, ErrBusy
	}
	defer s.flight.Unlock()

	s.mu.Lock()
	s.state = state.NewGameState()
	s.turns = 0
	s.mu.Unlock()

	s.logger.Info("Session restarted")
	return s.transition(ctx, s.start, nil), nil
}

// Select activates the choice at index in the displayed scene.
func (s *Session) Select(ctx context.Context, index int) (Frame, error) {
	return s.selectChoice(ctx, 0, false, index)
}

func (s *Session) selectChoice(ctx context.Context, gen uint64, checkGen bool, index int) (Frame, error) {
	if !s.flight.TryLock() {
		return Frame{}, ErrBusy
	}
	defer s.flight.Unlock()

	ctx, span := s.engine.tracer.Start(ctx, "session.Select", trace.WithAttributes(
		attribute.Int("choice.index", index),
	))
	defer span.End()

	s.mu.RLock()
	frame, current, currentGen := s.current, s.ref, s.gen
	s.mu.RUnlock()

	if checkGen && gen != currentGen {
		return Frame{}, ErrStaleChoice
	}
	if frame.Model == nil {
		return Frame{}, ErrNoActiveScene
	}
	if index < 0 || index >= len(frame.Model.Choices) {
		return Frame{}, fmt.Errorf("%w: %d", ErrChoiceOutOfRange, index)
	}
	view := frame.Model.Choices[index]
	if !view.Enabled {
		return Frame{}, fmt.Errorf("%w: %q", ErrChoiceLocked, view.Label)
	}

	// The target is checked before anything is merged so a broken choice
	// leaves both state and the displayed scene untouched.
	next, err := Next(current, view.choice)
	if err != nil {
		s.logger.Warn("Rejected malformed choice",
			"scene", current.String(),
			"index", index,
			"target", view.choice.Target,
			"error", err)
		span.RecordError(err)
		return Frame{}, err
	}

	span.SetAttributes(attribute.String("choice.next", next.String()))
	s.logger.Debug("Choice selected", "scene", current.String(), "index", index, "next", next.String())

	return s.transition(ctx, next, view.choice.SetState), nil
}

// transition merges patch, announces loading, then presents next. The caller
// holds flight.
func (s *Session) transition(ctx context.Context, next scene.LocationRef, patch state.Vars) Frame {
	s.mu.Lock()
	s.state.Merge(patch)
	s.ref = next
	s.loading = true
	s.current = Frame{}
	s.gen++
	gs := s.state
	s.mu.Unlock()

	for _, p := range s.attached() {
		p.Loading(next)
	}

	// Only flight holders write the state, so reading it here without mu is
	// safe.
	frame := s.engine.Present(ctx, next, gs)

	s.mu.Lock()
	s.gen++
	frame = s.bind(frame, s.gen)
	s.current = frame
	s.loading = false
	if frame.Model != nil {
		s.turns++
	}
	s.mu.Unlock()

	for _, p := range s.attached() {
		p.Render(frame)
	}
	return frame
}

// bind attaches OnSelect handlers to the enabled choices of frame. A handler
// only fires while the render it came from is still displayed.
func (s *Session) bind(frame Frame, gen uint64) Frame {
	if frame.Model == nil {
		return frame
	}
	model := *frame.Model
	model.Choices = make([]ChoiceView, len(frame.Model.Choices))
	for i, cv := range frame.Model.Choices {
		if cv.Enabled {
			index := cv.Index
			cv.OnSelect = func(ctx context.Context) (Frame, error) {
				return s.selectChoice(ctx, gen, true, index)
			}
		}
		model.Choices[i] = cv
	}
	return Frame{Model: &model}
}

func (s *Session) attached() []Presenter {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	out := make([]Presenter, 0, len(s.presenters))
	for i := 0; i < s.nextID; i++ {
		if p, ok := s.presenters[i]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Current returns the displayed frame. It is zero while a transition is
// loading.
func (s *Session) Current() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Location returns the location of the displayed or loading scene.
func (s *Session) Location() scene.LocationRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ref
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Turns counts successfully rendered scenes since the last restart.
func (s *Session) Turns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turns
}

// State returns a copy of the game state.
func (s *Session) State() state.Vars {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Snapshot()
}

// StartRef returns the location the session starts and restarts at.
func (s *Session) StartRef() scene.LocationRef {
	return s.start
}
