package conditionals

import (
	"maps"
	"slices"

	"github.com/jwebster45206/scene-engine/pkg/state"
)

// IsSatisfied checks if all conditions are met by the game state.
// No conditions always passes. Otherwise every key must be present in the
// state with a strictly equal value; a key that was never set fails even
// when the required value is false or 0.
func IsSatisfied(gs state.View, conditions state.Vars) bool {
	if len(conditions) == 0 {
		return true
	}
	if gs == nil {
		return false
	}

	for key, want := range conditions {
		got, exists := gs.Get(key)
		if !exists || !got.Equal(want) {
			return false
		}
	}
	return true
}

// Unmet returns the sorted condition keys the game state does not satisfy.
func Unmet(gs state.View, conditions state.Vars) []string {
	var unmet []string
	for _, key := range slices.Sorted(maps.Keys(conditions)) {
		if gs == nil {
			unmet = append(unmet, key)
			continue
		}
		got, exists := gs.Get(key)
		if !exists || !got.Equal(conditions[key]) {
			unmet = append(unmet, key)
		}
	}
	return unmet
}
