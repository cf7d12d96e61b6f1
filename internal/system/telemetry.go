package system

import (
	"context"
	"sync"
	"time"

	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/core/event"
	coresys "github.com/voidrunner/simcore/internal/core/system"
	"github.com/voidrunner/simcore/internal/persist"
	"go.uber.org/zap"
)

// SampleWriter persists frame-rate samples. *persist.TelemetryRepo satisfies it.
type SampleWriter interface {
	WriteSamples(ctx context.Context, sessionID int64, samples []persist.FrameSample) error
}

// TelemetrySystem buffers scheduler frame stats and hands batches to a
// writer goroutine so database latency never stalls the loop.
// Phase 4 (Telemetry).
type TelemetrySystem struct {
	store      *ecs.Store
	writer     SampleWriter
	sessionID  int64
	flushEvery time.Duration
	log        *zap.Logger

	since   time.Duration
	buf     []persist.FrameSample
	out     chan []persist.FrameSample
	wg      sync.WaitGroup
	dropped int
}

func NewTelemetrySystem(store *ecs.Store, bus *event.Bus, w SampleWriter, sessionID int64, flushEvery time.Duration, log *zap.Logger) *TelemetrySystem {
	if log == nil {
		log = zap.NewNop()
	}
	s := &TelemetrySystem{
		store:      store,
		writer:     w,
		sessionID:  sessionID,
		flushEvery: flushEvery,
		log:        log,
		out:        make(chan []persist.FrameSample, 8),
	}
	event.Subscribe(bus, s.onFrameStats)
	return s
}

func (s *TelemetrySystem) Phase() coresys.Phase { return coresys.PhaseTelemetry }

func (s *TelemetrySystem) onFrameStats(fs event.FrameStats) {
	s.buf = append(s.buf, persist.FrameSample{
		SampledAt:  time.Now(),
		FrameRate:  fs.FrameRate,
		FixedSteps: fs.FixedSteps,
		GameTime:   fs.TotalGameTime,
		Entities:   s.store.Len(),
	})
}

func (s *TelemetrySystem) Update(dt time.Duration) {
	s.since += dt
	if s.since < s.flushEvery || len(s.buf) == 0 {
		return
	}
	s.since = 0
	s.handOff()
}

func (s *TelemetrySystem) handOff() {
	batch := s.buf
	s.buf = nil
	select {
	case s.out <- batch:
	default:
		s.dropped += len(batch)
		s.log.Warn("telemetry writer behind, dropping samples", zap.Int("samples", len(batch)))
	}
}

// Start launches the writer goroutine; it drains batches until Close.
func (s *TelemetrySystem) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *TelemetrySystem) run(ctx context.Context) {
	defer s.wg.Done()
	for batch := range s.out {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s.writer.WriteSamples(wctx, s.sessionID, batch); err != nil {
			s.log.Error("write telemetry samples", zap.Int("samples", len(batch)), zap.Error(err))
		}
		cancel()
	}
}

// Close hands off buffered samples and waits for the writer to drain.
// Must be called after the scheduler has stopped.
func (s *TelemetrySystem) Close() {
	if len(s.buf) > 0 {
		s.handOff()
	}
	close(s.out)
	s.wg.Wait()
}

// Dropped returns the number of samples discarded because the writer lagged.
func (s *TelemetrySystem) Dropped() int { return s.dropped }
