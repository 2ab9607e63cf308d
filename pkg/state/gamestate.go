package state

import (
	"encoding/json"
	"maps"
	"slices"
)

// View is the read-only face of the game state handed to condition
// evaluation and rendering.
type View interface {
	Get(key string) (Value, bool)
}

// GameState is the session-scoped flag/value store. Keys are only ever
// added or overwritten, never removed.
//
// GameState is not safe for concurrent use; the owning session serialises
// access so a render never observes a partial merge.
type GameState struct {
	vars Vars
}

var _ View = (*GameState)(nil)

// NewGameState returns an empty store.
func NewGameState() *GameState {
	return &GameState{vars: make(Vars)}
}

// Get returns the value stored under key, if any.
func (gs *GameState) Get(key string) (Value, bool) {
	v, ok := gs.vars[key]
	return v, ok
}

// Merge overwrites each key in patch, creating keys that are absent. Keys not
// named by patch are left as they are. Invalid values are skipped.
func (gs *GameState) Merge(patch Vars) {
	for k, v := range patch {
		if !v.IsValid() {
			continue
		}
		gs.vars[k] = v
	}
}

// Len returns the number of keys set.
func (gs *GameState) Len() int {
	return len(gs.vars)
}

// Keys returns the set keys in sorted order.
func (gs *GameState) Keys() []string {
	return slices.Sorted(maps.Keys(gs.vars))
}

// Snapshot returns a copy of the current values.
func (gs *GameState) Snapshot() Vars {
	return maps.Clone(gs.vars)
}

func (gs *GameState) MarshalJSON() ([]byte, error) {
	return json.Marshal(gs.vars)
}
