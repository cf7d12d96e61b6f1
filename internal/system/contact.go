package system

import (
	"time"

	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/core/event"
	"github.com/voidrunner/simcore/internal/physics"
	"github.com/voidrunner/simcore/internal/scripting"
	"go.uber.org/zap"
)

// Separation stiffness for overlapping solid bodies, in force per unit of
// penetration per unit of mass.
const separationStiffness = 800.0

// ContactSystem resolves collision events: projectile hits, power-up
// pickups and soft separation of overlapping bodies. Each participant gets
// its own event, so handlers only ever act on behalf of c.Self.
type ContactSystem struct {
	store  *ecs.Store
	bus    *event.Bus
	rules  *scripting.Engine
	reaper *Reaper
	log    *zap.Logger
	hits   uint64
}

func NewContactSystem(store *ecs.Store, bus *event.Bus, rules *scripting.Engine, reaper *Reaper, log *zap.Logger) *ContactSystem {
	if log == nil {
		log = zap.NewNop()
	}
	s := &ContactSystem{store: store, bus: bus, rules: rules, reaper: reaper, log: log}
	event.Subscribe(bus, s.onCollision)
	return s
}

// Hits returns the number of projectile hits applied so far.
func (s *ContactSystem) Hits() uint64 { return s.hits }

func (s *ContactSystem) onCollision(c physics.Collision) {
	// Something earlier in this step already consumed us.
	if s.store.PendingDestroy(c.Self) || s.store.PendingDestroy(c.Other) {
		return
	}
	if p, ok := ecs.GetComponent[component.Projectile](s.store, c.Self); ok {
		s.projectileHit(c, p)
		return
	}
	if pu, ok := ecs.GetComponent[component.PowerUp](s.store, c.Self); ok {
		s.pickup(c, pu)
		return
	}
	s.separate(c)
}

func (s *ContactSystem) projectileHit(c physics.Collision, p *component.Projectile) {
	if c.Other == p.Owner || ecs.HasComponent[component.Projectile](s.store, c.Other) ||
		ecs.HasComponent[component.PowerUp](s.store, c.Other) {
		return
	}
	h, ok := ecs.GetComponent[component.Health](s.store, c.Other)
	if !ok || !h.IsAlive() {
		return
	}
	dmg := p.Damage
	if s.rules != nil {
		dmg = s.rules.CalcContactDamage(scripting.ContactContext{
			BaseDamage:   p.Damage,
			ImpactSpeed:  c.RelativeVelocity,
			TargetHealth: h.Current,
			TargetShield: h.Shield,
			Piercing:     p.Piercing,
		})
	}
	s.hits++
	if h.TakeDamage(dmg) {
		s.reaper.Kill(c.Other, p.Owner)
	}
	if !p.Piercing {
		s.store.DestroyEntity(c.Self)
	}
}

func (s *ContactSystem) pickup(c physics.Collision, pu *component.PowerUp) {
	if !ecs.HasComponent[component.Player](s.store, c.Other) {
		return
	}
	switch pu.Kind {
	case component.PowerUpHeal:
		if h, ok := ecs.GetComponent[component.Health](s.store, c.Other); ok {
			h.Heal(pu.Amount)
		}
	case component.PowerUpShield:
		if h, ok := ecs.GetComponent[component.Health](s.store, c.Other); ok {
			h.AddShield(pu.Amount)
		}
	case component.PowerUpRapidFire:
		if w, ok := ecs.GetComponent[component.Weapon](s.store, c.Other); ok {
			w.RapidFor = time.Duration(pu.Amount * float64(time.Second))
		}
	}
	s.store.DestroyEntity(c.Self)
	event.Publish(s.bus, event.PowerUpCollected{Collector: c.Other, PowerUp: c.Self})
	s.log.Debug("power-up collected", zap.Stringer("collector", c.Other), zap.Stringer("powerup", c.Self))
}

// separate pushes Self out of a solid body it overlaps.
func (s *ContactSystem) separate(c physics.Collision) {
	if ecs.HasComponent[component.Projectile](s.store, c.Other) || ecs.HasComponent[component.PowerUp](s.store, c.Other) {
		return
	}
	p, ok := ecs.GetComponent[component.Physics](s.store, c.Self)
	if !ok || p.Kinematic {
		return
	}
	p.AddForce(c.Normal.Neg().Scale(c.Penetration * separationStiffness * p.Mass))
}
