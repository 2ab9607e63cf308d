package scene

import (
	"fmt"
	"strings"
)

// LocationRef identifies exactly one scene: a content source and a scene key
// within it. Two refs are equal iff both fields match.
type LocationRef struct {
	SourceID string `json:"source"`
	SceneKey string `json:"scene"`
}

func (r LocationRef) String() string {
	return r.SourceID + "#" + r.SceneKey
}

// IsZero reports whether the ref is unset.
func (r LocationRef) IsZero() bool {
	return r.SourceID == "" && r.SceneKey == ""
}

// ParseLocationRef parses a fully qualified "source#scene" reference, such as
// a configured starting point. Both parts are required.
func ParseLocationRef(s string) (LocationRef, error) {
	source, key, found := strings.Cut(strings.TrimSpace(s), "#")
	source = strings.TrimSpace(source)
	key = strings.TrimSpace(key)
	if !found || source == "" || key == "" {
		return LocationRef{}, fmt.Errorf("invalid location %q: expected source#scene", s)
	}
	return LocationRef{SourceID: source, SceneKey: key}, nil
}

// Target is a parsed choice target. An empty SourceID means "the source of
// the scene currently displayed".
type Target struct {
	SourceID string
	SceneKey string
}

// ParseTarget splits a raw choice target on its first '#'. A non-empty left
// part names the next source; the right part (or the whole string when there
// is no '#') is the scene key and must be non-empty.
func ParseTarget(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	source, key, found := strings.Cut(trimmed, "#")
	if !found {
		source, key = "", trimmed
	}
	source = strings.TrimSpace(source)
	key = strings.TrimSpace(key)
	if key == "" {
		return Target{}, fmt.Errorf("%w: target %q has no scene key", ErrMalformedChoice, raw)
	}
	return Target{SourceID: source, SceneKey: key}, nil
}

// IsLocal reports whether the target stays within the current source.
func (t Target) IsLocal() bool {
	return t.SourceID == ""
}

// Resolve turns the target into a concrete ref relative to the currently
// displayed location.
func (t Target) Resolve(current LocationRef) LocationRef {
	source := t.SourceID
	if source == "" {
		source = current.SourceID
	}
	return LocationRef{SourceID: source, SceneKey: t.SceneKey}
}
