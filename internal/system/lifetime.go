package system

import (
	"time"

	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/core/spatial"
	coresys "github.com/voidrunner/simcore/internal/core/system"
	"github.com/voidrunner/simcore/internal/scripting"
)

// LifetimeSystem ages projectiles, power-ups and explosions, destroying them
// on expiry. Explosions apply their radial damage once, on the first update.
// Phase 3 (Lifetime).
type LifetimeSystem struct {
	store  *ecs.Store
	rules  *scripting.Engine
	reaper *Reaper
}

func NewLifetimeSystem(store *ecs.Store, rules *scripting.Engine, reaper *Reaper) *LifetimeSystem {
	return &LifetimeSystem{store: store, rules: rules, reaper: reaper}
}

func (s *LifetimeSystem) Phase() coresys.Phase { return coresys.PhaseLifetime }

func (s *LifetimeSystem) Update(dt time.Duration) {
	ecs.Each1(s.store, func(id ecs.EntityID, p *component.Projectile) {
		p.Age(dt)
		if p.Expired() {
			s.store.DestroyEntity(id)
		}
	})
	ecs.Each1(s.store, func(id ecs.EntityID, p *component.PowerUp) {
		p.Age(dt)
		if p.Expired() {
			s.store.DestroyEntity(id)
		}
	})
	ecs.Each2(s.store, func(id ecs.EntityID, e *component.Explosion, t *component.Transform) {
		if !e.Applied {
			s.detonate(id, e, t)
		}
		e.Age(dt)
		if e.Expired() {
			s.store.DestroyEntity(id)
		}
	})
}

func (s *LifetimeSystem) detonate(id ecs.EntityID, e *component.Explosion, t *component.Transform) {
	e.Applied = true
	for _, victim := range spatial.EntitiesInRange(s.store, t.Position, e.Radius) {
		if victim == id {
			continue
		}
		h, ok := ecs.GetComponent[component.Health](s.store, victim)
		if !ok || !h.IsAlive() {
			continue
		}
		vt, _ := ecs.GetComponent[component.Transform](s.store, victim)
		dmg := e.Damage
		if s.rules != nil {
			dmg = s.rules.CalcExplosionFalloff(e.Damage, e.Radius, vt.Position.Dist(t.Position))
		}
		if h.TakeDamage(dmg) && s.reaper != nil {
			s.reaper.Kill(victim, e.Source)
		}
	}
}
