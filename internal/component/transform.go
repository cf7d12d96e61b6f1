package component

import (
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/mathx"
)

// Transform is the only component read by both physics and rendering.
// PrevPosition is captured at the start of each fixed step so the render
// layer can blend with the interpolation factor.
type Transform struct {
	ecs.Base
	Position     mathx.Vec2
	PrevPosition mathx.Vec2
	Velocity     mathx.Vec2
	Scale        mathx.Vec2
	Rotation     float64 // radians
}

func NewTransform(pos mathx.Vec2) Transform {
	return Transform{Position: pos, PrevPosition: pos, Scale: mathx.V(1, 1)}
}

// Interpolated blends the previous and current fixed-step positions.
func (t *Transform) Interpolated(alpha float64) mathx.Vec2 {
	return t.PrevPosition.Lerp(t.Position, alpha)
}
