package component

import (
	"time"

	"github.com/voidrunner/simcore/internal/core/ecs"
)

// Explosion deals radial damage once, then lingers for TTL as a visual.
type Explosion struct {
	ecs.Base
	Source  ecs.EntityID // weak reference to whoever caused it
	Radius  float64
	Damage  float64
	TTL     time.Duration
	Applied bool
}

func (e *Explosion) Age(dt time.Duration) { e.TTL -= dt }
func (e *Explosion) Expired() bool        { return e.TTL <= 0 }
