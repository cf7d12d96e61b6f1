package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidrunner/simcore/internal/core/event"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	steps int
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) Update(time.Duration) { r.add("store") }

func (r *recorder) Step(time.Duration) {
	r.add("step")
	r.mu.Lock()
	r.steps++
	r.mu.Unlock()
}

func testConfig() Config {
	return Config{
		TargetFrameTime: time.Millisecond,
		FixedTimeStep:   10 * time.Millisecond,
		MaxFrameSkip:    5,
		FPSWindow:       60,
		StopTimeout:     time.Second,
	}
}

func newManual(t *testing.T, cfg Config, opts ...Option) (*Scheduler, *ManualClock, *recorder) {
	t.Helper()
	clock := NewManualClock(time.Unix(1_700_000_000, 0))
	rec := &recorder{}
	s := New(cfg, rec, rec, append([]Option{WithClock(clock)}, opts...)...)
	s.RunFrame() // establishes the time base
	return s, clock, rec
}

func TestFirstFrameHasNoDelta(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	s := New(testConfig(), nil, nil, WithClock(clock))

	r := s.RunFrame()
	assert.Equal(t, time.Duration(0), r.FrameTime)
	assert.Equal(t, 0, r.Steps)
}

func TestFixedStepsConsumeAccumulator(t *testing.T) {
	s, clock, rec := newManual(t, testConfig())

	clock.Advance(25 * time.Millisecond)
	r := s.RunFrame()
	assert.Equal(t, 2, r.Steps)
	assert.Equal(t, 5*time.Millisecond, s.Accumulator())
	assert.InDelta(t, 0.5, r.Interpolation, 1e-9)

	clock.Advance(5 * time.Millisecond)
	r = s.RunFrame()
	assert.Equal(t, 1, r.Steps)
	assert.Equal(t, 0.0, r.Interpolation)
	assert.Equal(t, 3, rec.steps)
	assert.Equal(t, uint64(3), s.FixedSteps())
	assert.Equal(t, 30*time.Millisecond, s.TotalGameTime())
}

func TestStepsTrackSimulatedTime(t *testing.T) {
	cfg := testConfig()
	s, clock, _ := newManual(t, cfg)
	rng := rand.New(rand.NewSource(7))

	var total time.Duration
	for i := 0; i < 500; i++ {
		ft := time.Duration(rng.Intn(45)+1) * time.Millisecond // below the clamp
		clock.Advance(ft)
		total += ft
		r := s.RunFrame()
		require.GreaterOrEqual(t, r.Interpolation, 0.0)
		require.Less(t, r.Interpolation, 1.0)
	}

	simulated := time.Duration(s.FixedSteps()) * cfg.FixedTimeStep
	diff := total - simulated
	assert.GreaterOrEqual(t, diff, time.Duration(0))
	assert.Less(t, diff, cfg.FixedTimeStep)
	assert.Equal(t, diff, s.Accumulator())
}

func TestLongFrameIsClamped(t *testing.T) {
	cfg := testConfig()
	s, clock, rec := newManual(t, cfg)

	clock.Advance(3 * time.Second)
	r := s.RunFrame()

	assert.Equal(t, cfg.MaxFrameTime(), r.FrameTime)
	assert.Equal(t, cfg.MaxFrameSkip, r.Steps)
	assert.Equal(t, cfg.MaxFrameSkip, rec.steps)
	assert.Less(t, s.Accumulator(), cfg.FixedTimeStep)
	assert.Equal(t, cfg.MaxFrameTime(), s.DeltaTime())
}

func TestHookOrder(t *testing.T) {
	s, clock, rec := newManual(t, testConfig())
	s.OnUpdate(func(time.Duration) { rec.add("update") })
	s.OnFixedUpdate(func() { rec.add("fixed") })
	s.OnRender(func(float64) { rec.add("render") })
	rec.calls = nil

	clock.Advance(20 * time.Millisecond)
	s.RunFrame()

	assert.Equal(t, []string{"store", "update", "fixed", "step", "fixed", "step", "render"}, rec.calls)
}

func TestRenderRunsWithoutSteps(t *testing.T) {
	s, clock, _ := newManual(t, testConfig())
	var got []float64
	s.OnRender(func(a float64) { got = append(got, a) })

	clock.Advance(4 * time.Millisecond)
	r := s.RunFrame()

	assert.Equal(t, 0, r.Steps)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.4, got[0], 1e-9)
}

func TestPauseAccruesNoDebt(t *testing.T) {
	s, clock, rec := newManual(t, testConfig())
	s.state.Store(int32(StateRunning))

	require.True(t, s.Pause())
	assert.True(t, s.IsPaused())
	assert.False(t, s.Pause())

	for i := 0; i < 10; i++ {
		clock.Advance(500 * time.Millisecond)
		r := s.RunFrame()
		assert.True(t, r.Paused)
	}
	assert.Equal(t, 0, rec.steps)
	assert.Equal(t, time.Duration(0), s.TotalGameTime())

	clock.Advance(time.Second)
	require.True(t, s.Resume())
	assert.False(t, s.Resume())

	r := s.RunFrame()
	assert.Equal(t, time.Duration(0), r.FrameTime)
	assert.Equal(t, 0, r.Steps)

	clock.Advance(10 * time.Millisecond)
	r = s.RunFrame()
	assert.Equal(t, 1, r.Steps)
}

func TestPauseRequiresRunning(t *testing.T) {
	s := New(testConfig(), nil, nil)
	assert.False(t, s.Pause())
	assert.False(t, s.Resume())
	assert.Equal(t, StateStopped, s.State())
}

func TestFrameRatePublished(t *testing.T) {
	bus := event.NewBus()
	var stats []event.FrameStats
	event.Subscribe(bus, func(fs event.FrameStats) { stats = append(stats, fs) })

	s, clock, _ := newManual(t, testConfig(), WithBus(bus))
	for i := 0; i < 99; i++ {
		clock.Advance(10 * time.Millisecond)
		s.RunFrame()
	}
	assert.Empty(t, stats, "published at most once per second")

	clock.Advance(10 * time.Millisecond)
	s.RunFrame()

	require.Len(t, stats, 1)
	assert.InDelta(t, 100, stats[0].FrameRate, 1e-6)
	assert.InDelta(t, 100, s.FrameRate(), 1e-6)
	// Sampled before this frame's own steps run.
	assert.Equal(t, uint64(99), stats[0].FixedSteps)
}

func TestStartStop(t *testing.T) {
	rec := &recorder{}
	s := New(testConfig(), rec, rec)

	s.Stop() // no-op while stopped
	assert.False(t, s.IsRunning())

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.IsRunning())
	assert.Equal(t, StateRunning, s.State())

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.steps > 0
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.Equal(t, StateStopped, s.State())
	s.Stop()
}

func TestContextCancellationEndsLoop(t *testing.T) {
	s := New(testConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	done := s.done
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on context cancellation")
	}
	assert.False(t, s.IsRunning(), "a cancelled context stops the scheduler")
	assert.Equal(t, StateStopped, s.State())

	rec := &recorder{}
	s.stepper = rec
	s.Start(context.Background())
	assert.True(t, s.IsRunning())
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.steps > 0
	}, 2*time.Second, 5*time.Millisecond, "restarted loop must run")

	s.Stop()
	assert.Equal(t, StateStopped, s.State())
}

func TestStopTimeoutKeepsRunningUntilLoopExits(t *testing.T) {
	cfg := testConfig()
	cfg.StopTimeout = 20 * time.Millisecond
	s := New(cfg, nil, nil)

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	s.OnUpdate(func(time.Duration) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	})

	s.Start(context.Background())
	<-entered
	done := s.done

	s.Stop()
	assert.Equal(t, StateRunning, s.State(), "loop is still inside a frame")
	s.Start(context.Background()) // ignored while the old loop lives
	assert.Equal(t, done, s.done)

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after the frame completed")
	}
	assert.Equal(t, StateStopped, s.State())

	s.Stop()
	assert.Equal(t, StateStopped, s.State())
}

func TestAccumulatorReadableWhileRunning(t *testing.T) {
	cfg := testConfig()
	s := New(cfg, nil, nil)
	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		acc := s.Accumulator()
		require.GreaterOrEqual(t, acc, time.Duration(0))
		require.Less(t, acc, cfg.FixedTimeStep)
		_ = s.DeltaTime()
		_ = s.FixedSteps()
	}
}

func TestDefaultsFillZeroConfig(t *testing.T) {
	s := New(Config{}, nil, nil)
	assert.Equal(t, DefaultConfig(), s.Config())
	assert.Equal(t, 5*(time.Second/120), s.Config().MaxFrameTime())
}
