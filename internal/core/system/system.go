package system

import "time"

// Phase defines execution ordering within a single variable-rate update.
type Phase int

const (
	PhaseInput     Phase = iota // 0: external input, steering intents
	PhaseAI                     // 1: AI decisions
	PhaseCombat                 // 2: weapons, firing
	PhaseLifetime               // 3: TTL aging, expiry
	PhaseTelemetry              // 4: stats, persistence
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseAI:
		return "ai"
	case PhaseCombat:
		return "combat"
	case PhaseLifetime:
		return "lifetime"
	case PhaseTelemetry:
		return "telemetry"
	}
	return "unknown"
}

// System is the interface every update system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
