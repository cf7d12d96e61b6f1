package system

import (
	"time"

	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/core/ecs"
	coresys "github.com/voidrunner/simcore/internal/core/system"
)

// CleanupSystem reaps entities whose health hit zero outside a contact,
// e.g. from explosions. Phase 3 (Lifetime).
type CleanupSystem struct {
	store  *ecs.Store
	reaper *Reaper
}

func NewCleanupSystem(store *ecs.Store, reaper *Reaper) *CleanupSystem {
	return &CleanupSystem{store: store, reaper: reaper}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseLifetime }

func (s *CleanupSystem) Update(_ time.Duration) {
	ecs.Each1(s.store, func(id ecs.EntityID, h *component.Health) {
		if !h.IsAlive() {
			s.reaper.Kill(id, 0)
		}
	})
}
