package component

import (
	"time"

	"github.com/voidrunner/simcore/internal/core/ecs"
)

type PowerUpKind uint8

const (
	PowerUpHeal PowerUpKind = iota
	PowerUpShield
	PowerUpRapidFire
)

// ParsePowerUpKind maps an archetype name to a kind.
func ParsePowerUpKind(s string) (PowerUpKind, bool) {
	switch s {
	case "heal":
		return PowerUpHeal, true
	case "shield":
		return PowerUpShield, true
	case "rapid_fire":
		return PowerUpRapidFire, true
	}
	return 0, false
}

// PowerUp is picked up on contact. For rapid fire, Amount is seconds.
type PowerUp struct {
	ecs.Base
	Kind   PowerUpKind
	Amount float64
	TTL    time.Duration
}

func (p *PowerUp) Age(dt time.Duration) { p.TTL -= dt }
func (p *PowerUp) Expired() bool        { return p.TTL <= 0 }
