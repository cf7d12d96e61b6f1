package component

import "github.com/voidrunner/simcore/internal/core/ecs"

// Player marks a player-controlled entity and keeps its score.
type Player struct {
	ecs.Base
	Kills int
	Score int
}
