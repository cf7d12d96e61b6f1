package component

import (
	"math"

	"github.com/voidrunner/simcore/internal/core/ecs"
)

// Health tracks hit points and an absorbing shield.
// Invariants: 0 <= Current <= Max, 0 <= Shield <= MaxShield.
// Death is one-way: only Revive makes a dead entity alive again.
type Health struct {
	ecs.Base
	Current   float64
	Max       float64
	Shield    float64
	MaxShield float64
	Dead      bool
}

func NewHealth(max, maxShield float64) Health {
	max = math.Max(max, 0)
	maxShield = math.Max(maxShield, 0)
	return Health{Current: max, Max: max, Shield: maxShield, MaxShield: maxShield, Dead: max == 0}
}

func (h *Health) IsAlive() bool { return !h.Dead }

// Ratio returns Current/Max, or 0 when Max is zero.
func (h *Health) Ratio() float64 {
	if h.Max <= 0 {
		return 0
	}
	return h.Current / h.Max
}

// TakeDamage applies d to the shield first, then to health.
// Returns true when this call killed the entity.
func (h *Health) TakeDamage(d float64) bool {
	if d <= 0 || h.Dead {
		return false
	}
	absorbed := math.Min(h.Shield, d)
	h.Shield -= absorbed
	d -= absorbed
	h.Current = math.Max(h.Current-d, 0)
	if h.Current == 0 {
		h.Dead = true
		return true
	}
	return false
}

// Heal restores health up to Max and credits the overflow to the shield,
// capped at MaxShield. Dead entities cannot be healed.
func (h *Health) Heal(amount float64) {
	if amount <= 0 || h.Dead {
		return
	}
	applied := math.Min(amount, h.Max-h.Current)
	h.Current += applied
	h.AddShield(amount - applied)
}

// AddShield raises the shield, capped at MaxShield.
func (h *Health) AddShield(amount float64) {
	if amount <= 0 {
		return
	}
	h.Shield = math.Min(h.Shield+amount, h.MaxShield)
}

// Revive heals to full and clears the dead flag.
func (h *Health) Revive() {
	h.Current = h.Max
	h.Shield = h.MaxShield
	h.Dead = h.Max == 0
}
