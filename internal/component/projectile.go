package component

import (
	"time"

	"github.com/voidrunner/simcore/internal/core/ecs"
)

// Projectile is a kinematic damage carrier. Owner is a weak reference.
type Projectile struct {
	ecs.Base
	Owner    ecs.EntityID
	Damage   float64
	TTL      time.Duration
	Piercing bool
}

// Age consumes dt of lifetime.
func (p *Projectile) Age(dt time.Duration) { p.TTL -= dt }

func (p *Projectile) Expired() bool { return p.TTL <= 0 }
