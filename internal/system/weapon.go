package system

import (
	"fmt"
	"time"

	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/core/ecs"
	coresys "github.com/voidrunner/simcore/internal/core/system"
	"github.com/voidrunner/simcore/internal/factory"
	"github.com/voidrunner/simcore/internal/mathx"
	"go.uber.org/zap"
)

// WeaponSystem ticks weapon cooldowns and fires for AIs in the attack state.
// Phase 2 (Combat).
type WeaponSystem struct {
	store   *ecs.Store
	factory *factory.Factory
	log     *zap.Logger
	fired   uint64
}

func NewWeaponSystem(store *ecs.Store, f *factory.Factory, log *zap.Logger) *WeaponSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &WeaponSystem{store: store, factory: f, log: log}
}

func (s *WeaponSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

// Fired returns the number of projectiles spawned so far.
func (s *WeaponSystem) Fired() uint64 { return s.fired }

func (s *WeaponSystem) Update(dt time.Duration) {
	ecs.Each2(s.store, func(id ecs.EntityID, w *component.Weapon, t *component.Transform) {
		w.Tick(dt)

		ai, ok := ecs.GetComponent[component.AI](s.store, id)
		if !ok || ai.State != component.AIAttack {
			return
		}
		target, ok := ecs.GetComponent[component.Transform](s.store, ai.Target)
		if !ok {
			return
		}
		if _, err := s.fire(id, w, t, target.Position); err != nil {
			s.log.Warn("enemy fire failed", zap.Stringer("entity", id), zap.Error(err))
		}
	})
}

// FireAt fires shooter's weapon toward point if it is ready and in range.
// Returns the zero id when the weapon did not fire.
func (s *WeaponSystem) FireAt(shooter ecs.EntityID, point mathx.Vec2) (ecs.EntityID, error) {
	w, err := ecs.Require[component.Weapon](s.store, shooter)
	if err != nil {
		return 0, fmt.Errorf("fire: %w", err)
	}
	t, err := ecs.Require[component.Transform](s.store, shooter)
	if err != nil {
		return 0, fmt.Errorf("fire: %w", err)
	}
	return s.fire(shooter, w, t, point)
}

func (s *WeaponSystem) fire(id ecs.EntityID, w *component.Weapon, t *component.Transform, point mathx.Vec2) (ecs.EntityID, error) {
	if w.Projectile == "" {
		return 0, nil
	}
	dir := point.Sub(t.Position)
	if dir.IsZero() || (w.Range > 0 && dir.Len() > w.Range) {
		return 0, nil
	}
	if !w.Fire() {
		return 0, nil
	}
	pid, err := s.factory.SpawnProjectile(w.Projectile, id, t.Position, dir, w)
	if err != nil {
		return 0, err
	}
	s.fired++
	return pid, nil
}
