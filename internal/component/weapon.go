package component

import (
	"time"

	"github.com/voidrunner/simcore/internal/core/ecs"
)

// Weapon fires projectiles on a cooldown.
type Weapon struct {
	ecs.Base
	Damage          float64
	FireInterval    time.Duration
	Cooldown        time.Duration // time left until the weapon can fire
	ProjectileSpeed float64
	ProjectileTTL   time.Duration
	Range           float64
	Projectile      string // archetype spawned on fire
	// RapidFor halves the fire interval while positive (power-up effect).
	RapidFor time.Duration
}

// Tick counts down the cooldown and any rapid-fire window.
func (w *Weapon) Tick(dt time.Duration) {
	w.Cooldown -= dt
	if w.Cooldown < 0 {
		w.Cooldown = 0
	}
	w.RapidFor -= dt
	if w.RapidFor < 0 {
		w.RapidFor = 0
	}
}

func (w *Weapon) Ready() bool { return w.Cooldown <= 0 }

// Fire resets the cooldown. Returns false when the weapon is still cooling down.
func (w *Weapon) Fire() bool {
	if !w.Ready() {
		return false
	}
	interval := w.FireInterval
	if w.RapidFor > 0 {
		interval /= 2
	}
	w.Cooldown = interval
	return true
}
