package engine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// RenderModel is everything the presentation layer needs to draw a scene.
type RenderModel struct {
	Ref         scene.LocationRef `json:"ref"`
	DayTitle    string            `json:"dayTitle"`
	SceneTitle  string            `json:"sceneTitle"`
	Description scene.RichText    `json:"description"` // Opaque markup, passed through unmodified
	Choices     []ChoiceView      `json:"choices"`
	Terminal    bool              `json:"terminal,omitempty"` // No choices; the scene is a dead end
}

// ChoiceView mirrors one choice of the scene in source order.
type ChoiceView struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`

	// OnSelect triggers the transition for this choice. It is nil for disabled
	// choices and for views not bound to a session.
	OnSelect func(ctx context.Context) (Frame, error) `json:"-"`

	choice scene.Choice
}

// ErrorKind classifies a failed render.
type ErrorKind string

const (
	KindSourceUnavailable ErrorKind = "SourceUnavailable"
	KindMalformedSource   ErrorKind = "MalformedSource"
	KindSceneNotFound     ErrorKind = "SceneNotFound"
)

// RenderError replaces a RenderModel when a scene cannot be shown. The
// presentation layer shows Message with no choices.
type RenderError struct {
	Kind    ErrorKind
	Message string
	Ref     scene.LocationRef
	Cause   error
}

func (e *RenderError) Error() string {
	msg := string(e.Kind) + " at " + e.Ref.String()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

func (e *RenderError) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind    ErrorKind         `json:"kind"`
		Message string            `json:"message"`
		Ref     scene.LocationRef `json:"ref"`
		Cause   string            `json:"cause,omitempty"`
	}{
		Kind:    e.Kind,
		Message: e.Message,
		Ref:     e.Ref,
	}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	return json.Marshal(out)
}

func newRenderError(ref scene.LocationRef, cause error) *RenderError {
	re := &RenderError{Ref: ref, Cause: cause}
	switch {
	case errors.Is(cause, scene.ErrSceneNotFound):
		re.Kind = KindSceneNotFound
		re.Message = "This scene could not be found."
	case errors.Is(cause, scene.ErrMalformedSource):
		re.Kind = KindMalformedSource
		re.Message = "This part of the story is damaged and cannot be shown."
	default:
		re.Kind = KindSourceUnavailable
		re.Message = "This part of the story could not be loaded."
	}
	return re
}

// Frame is one render: exactly one of Model and Err is set.
type Frame struct {
	Model *RenderModel `json:"model,omitempty"`
	Err   *RenderError `json:"error,omitempty"`
}

// IsZero reports whether nothing has been rendered.
func (f Frame) IsZero() bool {
	return f.Model == nil && f.Err == nil
}

// Choices returns the interactive choice list, empty for error frames.
func (f Frame) Choices() []ChoiceView {
	if f.Model == nil {
		return nil
	}
	return f.Model.Choices
}
