package system

import (
	"time"

	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/core/spatial"
	coresys "github.com/voidrunner/simcore/internal/core/system"
	"github.com/voidrunner/simcore/internal/mathx"
)

// AISystem picks a state for every AI on its think interval (Phase 1) and
// steers it before every fixed physics step.
type AISystem struct {
	store *ecs.Store
}

func NewAISystem(store *ecs.Store) *AISystem {
	return &AISystem{store: store}
}

func (s *AISystem) Phase() coresys.Phase { return coresys.PhaseAI }

func (s *AISystem) Update(dt time.Duration) {
	ecs.Each2(s.store, func(id ecs.EntityID, ai *component.AI, t *component.Transform) {
		if ai.ShouldThink(dt) {
			s.think(id, ai, t)
		}
	})
}

func (s *AISystem) think(id ecs.EntityID, ai *component.AI, t *component.Transform) {
	target, targetPos, ok := s.resolveTarget(ai)
	if !ok {
		target, ok = spatial.ClosestEntityExcept[component.Player](s.store, t.Position, id)
		if ok {
			tt, _ := ecs.GetComponent[component.Transform](s.store, target)
			targetPos = tt.Position
		}
	}
	if !ok || targetPos.Dist(t.Position) > ai.AggroRange {
		ai.Target = 0
		ai.State = component.AIIdle
		return
	}
	ai.Target = target

	if h, ok := ecs.GetComponent[component.Health](s.store, id); ok && h.Ratio() < ai.FleeHealthRatio {
		ai.State = component.AIFlee
		return
	}
	if targetPos.Dist(t.Position) <= ai.AttackRange {
		ai.State = component.AIAttack
	} else {
		ai.State = component.AIChase
	}
}

// resolveTarget re-resolves the weak target reference.
func (s *AISystem) resolveTarget(ai *component.AI) (ecs.EntityID, mathx.Vec2, bool) {
	if ai.Target.IsZero() {
		return 0, mathx.Vec2{}, false
	}
	t, ok := ecs.GetComponent[component.Transform](s.store, ai.Target)
	if !ok {
		return 0, mathx.Vec2{}, false
	}
	return ai.Target, t.Position, true
}

// FixedUpdate applies steering forces; registered as a fixed-update hook.
func (s *AISystem) FixedUpdate() {
	ecs.Each3(s.store, func(_ ecs.EntityID, ai *component.AI, t *component.Transform, p *component.Physics) {
		_, targetPos, ok := s.resolveTarget(ai)
		if !ok {
			return
		}
		dir := targetPos.Sub(t.Position).Normalize()
		switch ai.State {
		case component.AIChase:
			p.AddForce(dir.Scale(ai.Speed))
		case component.AIAttack:
			// Hold distance: brake instead of closing in.
			p.AddForce(t.Velocity.Scale(-p.Mass))
		case component.AIFlee:
			p.AddForce(dir.Scale(-ai.Speed))
		}
	})
}
