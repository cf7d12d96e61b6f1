package system

import (
	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/core/event"
	"github.com/voidrunner/simcore/internal/factory"
	"go.uber.org/zap"
)

// Reaper turns a death into its consequences: the EntityDied event, score
// for the killer, an explosion, and deferred destruction of the victim.
type Reaper struct {
	store     *ecs.Store
	bus       *event.Bus
	factory   *factory.Factory
	explosion string // archetype spawned on death, empty = none
	log       *zap.Logger
}

func NewReaper(store *ecs.Store, bus *event.Bus, f *factory.Factory, explosion string, log *zap.Logger) *Reaper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reaper{store: store, bus: bus, factory: f, explosion: explosion, log: log}
}

// Kill processes a death once; repeated calls for a victim already queued
// for destruction are ignored.
func (r *Reaper) Kill(victim, killer ecs.EntityID) {
	if !r.store.Alive(victim) || r.store.PendingDestroy(victim) {
		return
	}
	r.store.DestroyEntity(victim)

	if p, ok := ecs.GetComponent[component.Player](r.store, killer); ok && killer != victim {
		p.Kills++
		p.Score += scoreFor(r.store, victim)
	}

	if t, ok := ecs.GetComponent[component.Transform](r.store, victim); ok && r.explosion != "" && r.factory != nil {
		if _, err := r.factory.SpawnExplosion(r.explosion, t.Position, killer); err != nil {
			r.log.Warn("spawn death explosion", zap.Stringer("victim", victim), zap.Error(err))
		}
	}

	event.Publish(r.bus, event.EntityDied{Entity: victim, Killer: killer})
	r.log.Debug("entity died", zap.Stringer("victim", victim), zap.Stringer("killer", killer))
}

func scoreFor(s *ecs.Store, victim ecs.EntityID) int {
	tag, ok := ecs.GetComponent[component.Tag](s, victim)
	if !ok {
		return 0
	}
	switch tag.Kind {
	case component.KindEnemy:
		return 100
	case component.KindPlayer:
		return 500
	}
	return 0
}
