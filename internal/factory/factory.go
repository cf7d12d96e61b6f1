package factory

import (
	"errors"
	"fmt"

	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/data"
	"github.com/voidrunner/simcore/internal/mathx"
	"go.uber.org/zap"
)

var ErrUnknownArchetype = errors.New("unknown archetype")

// Factory instantiates archetypes into the store. Components are attached
// synchronously at creation; a failed attach destroys the half-built entity.
type Factory struct {
	store *ecs.Store
	table *data.ArchetypeTable
	log   *zap.Logger
}

func New(store *ecs.Store, table *data.ArchetypeTable, log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{store: store, table: table, log: log}
}

func (f *Factory) Archetypes() *data.ArchetypeTable { return f.table }

// Spawn builds the named archetype at pos with an initial velocity.
func (f *Factory) Spawn(name string, pos, vel mathx.Vec2) (ecs.EntityID, error) {
	a, ok := f.table.Get(name)
	if !ok {
		return 0, fmt.Errorf("spawn %q: %w", name, ErrUnknownArchetype)
	}
	id := f.store.CreateEntity()
	if err := f.attach(id, a, pos, vel); err != nil {
		f.store.DestroyEntity(id)
		return 0, fmt.Errorf("spawn %q: %w", name, err)
	}
	f.log.Debug("spawned", zap.String("archetype", name), zap.Stringer("entity", id))
	return id, nil
}

func (f *Factory) attach(id ecs.EntityID, a *data.Archetype, pos, vel mathx.Vec2) error {
	tr := component.NewTransform(pos)
	tr.Velocity = vel
	if _, err := ecs.AddComponent(f.store, id, tr); err != nil {
		return err
	}
	if _, err := ecs.AddComponent(f.store, id, component.Tag{Kind: kindOf(a.Kind)}); err != nil {
		return err
	}
	if _, err := ecs.AddComponent(f.store, id, component.Render{
		Sprite: a.Render.Sprite, Layer: a.Render.Layer, Tint: a.Render.Tint, Visible: true,
	}); err != nil {
		return err
	}
	if p := a.Physics; p != nil {
		ph := component.NewPhysics(p.Mass, p.Drag, p.Radius)
		ph.Kinematic = p.Kinematic
		if _, err := ecs.AddComponent(f.store, id, ph); err != nil {
			return err
		}
	}
	if a.Kind == "player" {
		if _, err := ecs.AddComponent(f.store, id, component.Player{}); err != nil {
			return err
		}
	}
	if h := a.Health; h != nil {
		if _, err := ecs.AddComponent(f.store, id, component.NewHealth(h.Max, h.Shield)); err != nil {
			return err
		}
	}
	if w := a.Weapon; w != nil {
		if _, err := ecs.AddComponent(f.store, id, component.Weapon{
			Damage:          w.Damage,
			FireInterval:    w.FireInterval,
			ProjectileSpeed: w.ProjectileSpeed,
			ProjectileTTL:   w.ProjectileTTL,
			Range:           w.Range,
			Projectile:      w.Projectile,
		}); err != nil {
			return err
		}
	}
	if ai := a.AI; ai != nil {
		if _, err := ecs.AddComponent(f.store, id, component.AI{
			AggroRange:      ai.AggroRange,
			AttackRange:     ai.AttackRange,
			FleeHealthRatio: ai.FleeHealthRatio,
			Speed:           ai.Speed,
			ThinkInterval:   ai.ThinkInterval,
		}); err != nil {
			return err
		}
	}
	if p := a.Projectile; p != nil {
		if _, err := ecs.AddComponent(f.store, id, component.Projectile{
			Damage: p.Damage, TTL: p.TTL, Piercing: p.Piercing,
		}); err != nil {
			return err
		}
	}
	if p := a.PowerUp; p != nil {
		kind, ok := component.ParsePowerUpKind(p.Kind)
		if !ok {
			return fmt.Errorf("powerup kind %q: %w", p.Kind, ecs.ErrInvalidComponentState)
		}
		if _, err := ecs.AddComponent(f.store, id, component.PowerUp{
			Kind: kind, Amount: p.Amount, TTL: p.TTL,
		}); err != nil {
			return err
		}
	}
	if e := a.Explosion; e != nil {
		if _, err := ecs.AddComponent(f.store, id, component.Explosion{
			Radius: e.Radius, Damage: e.Damage, TTL: e.TTL,
		}); err != nil {
			return err
		}
	}
	return nil
}

func kindOf(s string) component.Kind {
	switch s {
	case "player":
		return component.KindPlayer
	case "enemy":
		return component.KindEnemy
	case "projectile":
		return component.KindProjectile
	case "powerup":
		return component.KindPowerUp
	case "explosion":
		return component.KindExplosion
	}
	return 0
}

func (f *Factory) SpawnPlayer(pos mathx.Vec2) (ecs.EntityID, error) {
	return f.Spawn("player", pos, mathx.Vec2{})
}

func (f *Factory) SpawnEnemy(name string, pos mathx.Vec2) (ecs.EntityID, error) {
	return f.Spawn(name, pos, mathx.Vec2{})
}

func (f *Factory) SpawnPowerUp(name string, pos mathx.Vec2) (ecs.EntityID, error) {
	return f.Spawn(name, pos, mathx.Vec2{})
}

// SpawnProjectile fires the named projectile from owner toward dir. The
// weapon's damage and lifetime override the archetype's when set.
func (f *Factory) SpawnProjectile(name string, owner ecs.EntityID, pos, dir mathx.Vec2, w *component.Weapon) (ecs.EntityID, error) {
	speed := 0.0
	if w != nil {
		speed = w.ProjectileSpeed
	}
	id, err := f.Spawn(name, pos, dir.Normalize().Scale(speed))
	if err != nil {
		return 0, err
	}
	p, ok := ecs.GetComponent[component.Projectile](f.store, id)
	if !ok {
		return id, nil
	}
	p.Owner = owner
	if w != nil {
		if w.Damage > 0 {
			p.Damage = w.Damage
		}
		if w.ProjectileTTL > 0 {
			p.TTL = w.ProjectileTTL
		}
	}
	return id, nil
}

// SpawnExplosion places a blast at pos caused by source.
func (f *Factory) SpawnExplosion(name string, pos mathx.Vec2, source ecs.EntityID) (ecs.EntityID, error) {
	id, err := f.Spawn(name, pos, mathx.Vec2{})
	if err != nil {
		return 0, err
	}
	if e, ok := ecs.GetComponent[component.Explosion](f.store, id); ok {
		e.Source = source
	}
	return id, nil
}
