package event

import "github.com/voidrunner/simcore/internal/core/ecs"

// EntityDied is published when a Health component reaches zero.
type EntityDied struct {
	Entity ecs.EntityID
	Killer ecs.EntityID // weak reference, may be zero
}

// PowerUpCollected is published when an entity picks up a power-up.
type PowerUpCollected struct {
	Collector ecs.EntityID
	PowerUp   ecs.EntityID
}

// FrameStats is published by the scheduler when the smoothed frame rate is
// recomputed (at most once per second).
type FrameStats struct {
	FrameRate     float64
	FixedSteps    uint64
	TotalGameTime float64 // seconds
}
