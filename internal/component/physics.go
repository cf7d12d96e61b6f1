package component

import (
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/mathx"
)

// MinMass is the floor applied to Physics.Mass before integration.
const MinMass = 1e-4

// Physics carries the rigid-body state integrated by the stepper.
// Force is an impulse for the next step only; the stepper zeroes it.
type Physics struct {
	ecs.Base
	Mass      float64
	Force     mathx.Vec2
	Drag      float64 // velocity multiplier per step, 1 = no drag
	Radius    float64
	Kinematic bool // moves at constant velocity, ignores forces
}

func NewPhysics(mass, drag, radius float64) Physics {
	p := Physics{Mass: mass, Drag: drag, Radius: radius}
	p.Clamp()
	return p
}

// Clamp forces the fields into their valid ranges.
func (p *Physics) Clamp() {
	if p.Mass < MinMass {
		p.Mass = MinMass
	}
	p.Drag = mathx.Clamp(p.Drag, 0, 1)
	if p.Radius < 0 {
		p.Radius = 0
	}
}

func (p *Physics) AddForce(f mathx.Vec2) {
	p.Force = p.Force.Add(f)
}

func (p *Physics) InverseMass() float64 {
	if p.Mass < MinMass {
		return 1 / MinMass
	}
	return 1 / p.Mass
}

// Collides reports whether the body takes part in collision detection.
func (p *Physics) Collides() bool { return p.Radius > 0 }
