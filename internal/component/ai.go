package component

import (
	"time"

	"github.com/voidrunner/simcore/internal/core/ecs"
)

type AIState uint8

const (
	AIIdle AIState = iota
	AIChase
	AIAttack
	AIFlee
)

func (s AIState) String() string {
	switch s {
	case AIIdle:
		return "idle"
	case AIChase:
		return "chase"
	case AIAttack:
		return "attack"
	case AIFlee:
		return "flee"
	}
	return "unknown"
}

// AI drives an enemy. Target is a weak reference: it must be resolved
// through the store every think and may point at a destroyed entity.
type AI struct {
	ecs.Base
	State           AIState
	Target          ecs.EntityID
	AggroRange      float64
	AttackRange     float64
	FleeHealthRatio float64 // flee when health ratio drops below this
	Speed           float64 // steering force magnitude
	ThinkInterval   time.Duration
	thinkTimer      time.Duration
}

// ShouldThink advances the think timer and reports whether a decision is due.
func (a *AI) ShouldThink(dt time.Duration) bool {
	a.thinkTimer -= dt
	if a.thinkTimer > 0 {
		return false
	}
	a.thinkTimer = a.ThinkInterval
	return true
}
