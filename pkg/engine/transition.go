package engine

import (
	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// Next resolves the location a choice leads to. Targets without a source
// stay in the source currently displayed.
func Next(current scene.LocationRef, choice scene.Choice) (scene.LocationRef, error) {
	target, err := scene.ParseTarget(choice.Target)
	if err != nil {
		return scene.LocationRef{}, err
	}
	return target.Resolve(current), nil
}
