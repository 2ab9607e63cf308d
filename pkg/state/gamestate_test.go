package state

import (
	"encoding/json"
	"testing"
)

func TestNewGameState_Empty(t *testing.T) {
	gs := NewGameState()
	if gs.Len() != 0 {
		t.Errorf("expected empty store, got %d keys", gs.Len())
	}
	if _, ok := gs.Get("anything"); ok {
		t.Error("expected missing key")
	}
}

func TestGameState_Merge(t *testing.T) {
	gs := NewGameState()
	gs.Merge(Vars{
		"talkedToBob": BoolValue(true),
		"mood":        StringValue("calm"),
	})

	patch := Vars{
		"mood":  StringValue("angry"),
		"coins": NumberValue(3),
	}
	gs.Merge(patch)

	// Every patched key reads back its patch value.
	for k, want := range patch {
		got, ok := gs.Get(k)
		if !ok || !got.Equal(want) {
			t.Errorf("Get(%q) = %v, %v; want %v", k, got, ok, want)
		}
	}

	// Keys outside the patch are untouched.
	got, ok := gs.Get("talkedToBob")
	if !ok || !got.Equal(BoolValue(true)) {
		t.Errorf("talkedToBob = %v, %v; want true", got, ok)
	}

	if gs.Len() != 3 {
		t.Errorf("expected 3 keys, got %d", gs.Len())
	}
}

func TestGameState_MergeNilAndInvalid(t *testing.T) {
	gs := NewGameState()
	gs.Merge(nil)
	gs.Merge(Vars{"broken": Value{}})
	if gs.Len() != 0 {
		t.Errorf("expected no keys, got %v", gs.Keys())
	}
}

func TestGameState_SnapshotIsCopy(t *testing.T) {
	gs := NewGameState()
	gs.Merge(Vars{"a": BoolValue(true)})

	snap := gs.Snapshot()
	snap["a"] = BoolValue(false)
	snap["b"] = NumberValue(1)

	got, _ := gs.Get("a")
	if !got.Equal(BoolValue(true)) {
		t.Error("snapshot mutation leaked into store")
	}
	if _, ok := gs.Get("b"); ok {
		t.Error("snapshot insert leaked into store")
	}
}

func TestGameState_KeysSorted(t *testing.T) {
	gs := NewGameState()
	gs.Merge(Vars{"c": BoolValue(true), "a": BoolValue(true), "b": BoolValue(true)})

	keys := gs.Keys()
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestGameState_MarshalJSON(t *testing.T) {
	gs := NewGameState()
	gs.Merge(Vars{"talkedToBob": BoolValue(true)})

	data, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"talkedToBob":true}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}
