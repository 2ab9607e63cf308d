package scene

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jwebster45206/scene-engine/pkg/state"
)

// DefaultLockedText is shown after a disabled choice's label when the choice
// does not set its own.
const DefaultLockedText = "Locked"

// RichText is scene description markup. It is passed through to the
// presentation layer untouched; the engine never interprets it.
type RichText string

// Source is one content document: a shared heading and the scenes it holds.
type Source struct {
	ID       string          `json:"-" yaml:"-"`
	DayTitle string          `json:"dayTitle,omitempty" yaml:"dayTitle,omitempty"`
	Scenes   map[string]Body `json:"scenes" yaml:"scenes"`
}

// Body is a single displayable scene.
type Body struct {
	Title       string   `json:"title" yaml:"title"`
	Description RichText `json:"description" yaml:"description"`
	Choices     []Choice `json:"choices" yaml:"choices"` // Order is display order
}

// Choice is a selectable transition out of a scene.
type Choice struct {
	Text       string     `json:"text" yaml:"text"`
	LockedText string     `json:"lockedText,omitempty" yaml:"lockedText,omitempty"` // Suffix when disabled; defaults to "Locked"
	Conditions state.Vars `json:"conditions,omitempty" yaml:"conditions,omitempty"` // All must match; absent means always available
	SetState   state.Vars `json:"setState,omitempty" yaml:"setState,omitempty"`     // Merged into game state on selection
	Target     string     `json:"target" yaml:"target"`                             // "source#scene", "#scene" or "scene"
}

// Scene returns the scene stored under key.
func (s *Source) Scene(key string) (Body, error) {
	body, ok := s.Scenes[key]
	if !ok {
		return Body{}, fmt.Errorf("%w: %q in source %q", ErrSceneNotFound, key, s.ID)
	}
	return body, nil
}

// SceneKeys returns the scene keys in sorted order.
func (s *Source) SceneKeys() []string {
	return slices.Sorted(maps.Keys(s.Scenes))
}

// IsTerminal reports whether the scene has no way out.
func (b Body) IsTerminal() bool {
	return len(b.Choices) == 0
}

// Label returns the text to display for the choice.
// Disabled choices get their locked text appended in parentheses.
func (c Choice) Label(enabled bool) string {
	if enabled {
		return c.Text
	}
	locked := c.LockedText
	if locked == "" {
		locked = DefaultLockedText
	}
	return c.Text + " (" + locked + ")"
}
