// Package spatial provides O(n) proximity queries over Transform components.
// They suit the hundreds-of-entities scale of the kernel; callers needing
// more should query the physics grid instead.
package spatial

import (
	"math"

	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/mathx"
)

// EntitiesInRange returns entities whose Transform lies within radius of point.
func EntitiesInRange(s *ecs.Store, point mathx.Vec2, radius float64) []ecs.EntityID {
	if radius < 0 {
		return nil
	}
	r2 := radius * radius
	var out []ecs.EntityID
	for _, t := range ecs.GetComponents[component.Transform](s) {
		if t.Position.DistSq(point) <= r2 {
			out = append(out, t.Owner())
		}
	}
	return out
}

// ClosestEntity returns the entity owning a T whose Transform is nearest to point.
func ClosestEntity[T any](s *ecs.Store, point mathx.Vec2) (ecs.EntityID, bool) {
	return ClosestEntityExcept[T](s, point, 0)
}

// ClosestEntityExcept is ClosestEntity ignoring one entity (usually the caller).
func ClosestEntityExcept[T any](s *ecs.Store, point mathx.Vec2, except ecs.EntityID) (ecs.EntityID, bool) {
	var (
		best   ecs.EntityID
		bestD2 = math.Inf(1)
	)
	for _, t := range ecs.GetComponents[component.Transform](s) {
		id := t.Owner()
		if id == except || !ecs.HasComponent[T](s, id) {
			continue
		}
		if d2 := t.Position.DistSq(point); d2 < bestD2 {
			best, bestD2 = id, d2
		}
	}
	return best, !best.IsZero()
}
