package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSystem struct {
	name  string
	phase Phase
	log   *[]string
}

func (f fakeSystem) Phase() Phase            { return f.phase }
func (f fakeSystem) Update(dt time.Duration) { *f.log = append(*f.log, f.name) }

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(fakeSystem{"telemetry", PhaseTelemetry, &log})
	r.Register(fakeSystem{"weapons", PhaseCombat, &log})
	r.Register(fakeSystem{"ai-a", PhaseAI, &log})
	r.Register(fakeSystem{"ai-b", PhaseAI, &log})
	r.Register(fakeSystem{"input", PhaseInput, &log})

	r.Tick(time.Millisecond)

	assert.Equal(t, []string{"input", "ai-a", "ai-b", "weapons", "telemetry"}, log)
	assert.Equal(t, 5, r.Len())
}

func TestRunnerTickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(fakeSystem{"weapons", PhaseCombat, &log})
	r.Register(fakeSystem{"ttl", PhaseLifetime, &log})

	r.TickPhase(PhaseLifetime, time.Millisecond)
	assert.Equal(t, []string{"ttl"}, log)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "combat", PhaseCombat.String())
	assert.Equal(t, "unknown", Phase(99).String())
}
