package component

import "github.com/voidrunner/simcore/internal/core/ecs"

// Render is render intent only; the presentation layer decides how.
type Render struct {
	ecs.Base
	Sprite  string
	Layer   int
	Tint    uint32 // 0xRRGGBBAA
	Visible bool
}

// Tag marks an entity's gameplay role.
type Tag struct {
	ecs.Base
	Kind Kind
}

type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindEnemy
	KindProjectile
	KindPowerUp
	KindExplosion
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindEnemy:
		return "enemy"
	case KindProjectile:
		return "projectile"
	case KindPowerUp:
		return "powerup"
	case KindExplosion:
		return "explosion"
	}
	return "unknown"
}
