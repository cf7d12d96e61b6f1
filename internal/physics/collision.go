package physics

import (
	"math"

	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/mathx"
)

// CanonicalNormal is used when two centers coincide and no direction exists.
var CanonicalNormal = mathx.V(1, 0)

// Body is the narrow-phase view of a physics entity.
type Body struct {
	ID       ecs.EntityID
	Position mathx.Vec2
	Velocity mathx.Vec2
	Radius   float64
}

// Collision is delivered to each participant in its own frame: Normal points
// from Self toward Other and RelativeVelocity is dot(vOther - vSelf, Normal).
type Collision struct {
	Self             ecs.EntityID
	Other            ecs.EntityID
	Point            mathx.Vec2
	Normal           mathx.Vec2
	Penetration      float64
	RelativeVelocity float64
	Degenerate       bool // centers coincided, Normal is CanonicalNormal
}

// Mirror returns the event as seen by Other.
func (c Collision) Mirror() Collision {
	return Collision{
		Self:             c.Other,
		Other:            c.Self,
		Point:            c.Point,
		Normal:           c.Normal.Neg(),
		Penetration:      c.Penetration,
		RelativeVelocity: -c.RelativeVelocity,
		Degenerate:       c.Degenerate,
	}
}

// Detect tests two circles. Bodies with a non-positive radius never collide.
func Detect(a, b Body) (Collision, bool) {
	if a.Radius <= 0 || b.Radius <= 0 {
		return Collision{}, false
	}
	minDist := a.Radius + b.Radius
	delta := b.Position.Sub(a.Position)
	distSq := delta.LenSq()
	if distSq >= minDist*minDist {
		return Collision{}, false
	}

	dist := math.Sqrt(distSq)
	normal := CanonicalNormal
	degenerate := dist == 0
	if !degenerate {
		normal = delta.Scale(1 / dist)
	}

	return Collision{
		Self:             a.ID,
		Other:            b.ID,
		Point:            a.Position.Add(normal.Scale(a.Radius)),
		Normal:           normal,
		Penetration:      minDist - dist,
		RelativeVelocity: b.Velocity.Sub(a.Velocity).Dot(normal),
		Degenerate:       degenerate,
	}, true
}
