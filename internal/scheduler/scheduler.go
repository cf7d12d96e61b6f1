package scheduler

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voidrunner/simcore/internal/core/event"
	"go.uber.org/zap"
)

// State is the scheduler lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// Updater is advanced once per frame before any update hook runs.
// *ecs.Store satisfies it.
type Updater interface {
	Update(dt time.Duration)
}

// Stepper is advanced by exactly one fixed step at a time.
// *physics.Stepper satisfies it.
type Stepper interface {
	Step(dt time.Duration)
}

type Config struct {
	TargetFrameTime time.Duration // iteration rate cap
	FixedTimeStep   time.Duration // physics step
	MaxFrameSkip    int           // max fixed steps per iteration
	FPSWindow       int           // samples in the frame-rate average
	StopTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		TargetFrameTime: time.Second / 60,
		FixedTimeStep:   time.Second / 120,
		MaxFrameSkip:    5,
		FPSWindow:       60,
		StopTimeout:     time.Second,
	}
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.TargetFrameTime <= 0 {
		c.TargetFrameTime = d.TargetFrameTime
	}
	if c.FixedTimeStep <= 0 {
		c.FixedTimeStep = d.FixedTimeStep
	}
	if c.MaxFrameSkip <= 0 {
		c.MaxFrameSkip = d.MaxFrameSkip
	}
	if c.FPSWindow <= 0 {
		c.FPSWindow = d.FPSWindow
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = d.StopTimeout
	}
}

// MaxFrameTime is the cap applied to a measured frame.
func (c Config) MaxFrameTime() time.Duration {
	return time.Duration(c.MaxFrameSkip) * c.FixedTimeStep
}

// FrameResult describes one loop iteration.
type FrameResult struct {
	FrameTime     time.Duration // clamped
	Steps         int
	Interpolation float64
	Paused        bool
}

// Scheduler drives a fixed-rate simulation from a variable-rate loop.
// Per iteration: store update, update hooks, zero or more fixed steps
// (fixed hooks then physics), render hooks with the interpolation factor.
type Scheduler struct {
	cfg     Config
	store   Updater
	stepper Stepper
	clock   Clock
	bus     *event.Bus
	log     *zap.Logger

	hookMu   sync.RWMutex
	onUpdate []func(time.Duration)
	onFixed  []func()
	onRender []func(float64)

	ctlMu  sync.Mutex
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	// Loop-goroutine state.
	last        time.Time
	accumulator time.Duration
	resetDelta  atomic.Bool
	samples     []time.Duration
	sampleIdx   int
	sampleCount int
	lastFPS     time.Time

	// Telemetry, readable from any goroutine.
	deltaTime  atomic.Int64
	frameRate  atomic.Uint64 // float64 bits
	gameTime   atomic.Int64
	fixedSteps atomic.Uint64
	frames     atomic.Uint64
	acc        atomic.Int64 // accumulator as of the last frame
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(c Clock) Option { return func(s *Scheduler) { s.clock = c } }

// WithBus publishes event.FrameStats on the given bus.
func WithBus(b *event.Bus) Option { return func(s *Scheduler) { s.bus = b } }

func WithLogger(l *zap.Logger) Option { return func(s *Scheduler) { s.log = l } }

func New(cfg Config, store Updater, stepper Stepper, opts ...Option) *Scheduler {
	cfg.normalize()
	s := &Scheduler{
		cfg:     cfg,
		store:   store,
		stepper: stepper,
		clock:   SystemClock{},
		log:     zap.NewNop(),
		samples: make([]time.Duration, cfg.FPSWindow),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scheduler) Config() Config { return s.cfg }

// OnUpdate registers a variable-rate hook receiving the frame time.
func (s *Scheduler) OnUpdate(fn func(dt time.Duration)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.onUpdate = append(s.onUpdate, fn)
}

// OnFixedUpdate registers a hook run before every fixed physics step.
func (s *Scheduler) OnFixedUpdate(fn func()) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.onFixed = append(s.onFixed, fn)
}

// OnRender registers a hook receiving the interpolation factor in [0,1).
func (s *Scheduler) OnRender(fn func(interpolation float64)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.onRender = append(s.onRender, fn)
}

// Start launches the loop goroutine. Calling Start while running only logs
// a warning. A loop that ended because ctx was cancelled leaves the
// scheduler stopped, so it can be started again.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctlMu.Lock()
	defer s.ctlMu.Unlock()
	if !s.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		s.log.Warn("scheduler already running", zap.Stringer("state", s.State()))
		return
	}
	s.reap()
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.resetDelta.Store(true)
	s.log.Info("scheduler started",
		zap.Duration("fixed_step", s.cfg.FixedTimeStep),
		zap.Duration("target_frame", s.cfg.TargetFrameTime),
		zap.Int("max_frame_skip", s.cfg.MaxFrameSkip))
	go s.loop(loopCtx, s.done)
}

// Stop requests cancellation and waits up to StopTimeout for the loop to
// exit. An in-flight iteration always completes its physics steps. If the
// loop outlives the timeout the scheduler stays running until it exits.
func (s *Scheduler) Stop() {
	s.ctlMu.Lock()
	defer s.ctlMu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(s.cfg.StopTimeout):
		s.log.Warn("scheduler loop did not stop in time", zap.Duration("timeout", s.cfg.StopTimeout))
		return
	}
	s.cancel = nil
	s.state.Store(int32(StateStopped))
	s.log.Info("scheduler stopped",
		zap.Uint64("frames", s.frames.Load()),
		zap.Uint64("fixed_steps", s.fixedSteps.Load()))
}

// reap releases the previous loop's context once it has exited.
// Caller holds ctlMu.
func (s *Scheduler) reap() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

// Pause suspends simulation; time keeps being measured but no catch-up
// debt accrues. Returns false if the scheduler was not running.
func (s *Scheduler) Pause() bool {
	return s.state.CompareAndSwap(int32(StateRunning), int32(StatePaused))
}

// Resume continues a paused simulation with a fresh frame delta.
func (s *Scheduler) Resume() bool {
	if !s.state.CompareAndSwap(int32(StatePaused), int32(StateRunning)) {
		return false
	}
	s.resetDelta.Store(true)
	return true
}

func (s *Scheduler) State() State { return State(s.state.Load()) }

// IsRunning reports whether the loop is active (running or paused).
func (s *Scheduler) IsRunning() bool { return s.State() != StateStopped }
func (s *Scheduler) IsPaused() bool  { return s.State() == StatePaused }

// DeltaTime is the clamped frame time of the last simulated iteration.
func (s *Scheduler) DeltaTime() time.Duration { return time.Duration(s.deltaTime.Load()) }

// FrameRate is the smoothed frames-per-second figure.
func (s *Scheduler) FrameRate() float64 { return math.Float64frombits(s.frameRate.Load()) }

// TotalGameTime is the simulated time, excluding pauses.
func (s *Scheduler) TotalGameTime() time.Duration { return time.Duration(s.gameTime.Load()) }

func (s *Scheduler) FixedSteps() uint64 { return s.fixedSteps.Load() }

// Accumulator is the unconsumed simulation time.
func (s *Scheduler) Accumulator() time.Duration { return time.Duration(s.acc.Load()) }

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.state.Store(int32(StateStopped))

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := s.clock.Now()
		s.RunFrame()

		// Yield so the host goroutines get a turn even when we are behind.
		runtime.Gosched()

		sleep := s.cfg.TargetFrameTime - s.clock.Now().Sub(start)
		if sleep <= 0 {
			continue
		}
		timer.Reset(sleep)
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
	}
}

// RunFrame executes one loop iteration. The loop goroutine calls it; tests
// and headless hosts may call it directly with a manual clock instead of Start.
func (s *Scheduler) RunFrame() FrameResult {
	now := s.clock.Now()
	if s.last.IsZero() || s.resetDelta.Swap(false) {
		s.last = now
	}
	frameTime := now.Sub(s.last)
	s.last = now
	if frameTime < 0 {
		frameTime = 0
	}
	s.sampleFrame(frameTime, now)

	// Avoid the spiral of death: never try to catch up more than MaxFrameSkip steps.
	if maxFrame := s.cfg.MaxFrameTime(); frameTime > maxFrame {
		frameTime = maxFrame
	}

	if s.State() == StatePaused {
		return FrameResult{Paused: true}
	}
	s.frames.Add(1)
	s.deltaTime.Store(int64(frameTime))

	s.hookMu.RLock()
	onUpdate, onFixed, onRender := s.onUpdate, s.onFixed, s.onRender
	s.hookMu.RUnlock()

	// Drain destruction first so update hooks never see last tick's dead.
	if s.store != nil {
		s.store.Update(frameTime)
	}
	for _, fn := range onUpdate {
		fn(frameTime)
	}

	fixed := s.cfg.FixedTimeStep
	s.accumulator += frameTime
	steps := 0
	for s.accumulator >= fixed && steps < s.cfg.MaxFrameSkip {
		for _, fn := range onFixed {
			fn()
		}
		if s.stepper != nil {
			s.stepper.Step(fixed)
		}
		s.accumulator -= fixed
		steps++
	}
	if s.accumulator >= fixed {
		dropped := s.accumulator - s.accumulator%fixed
		s.accumulator %= fixed
		s.log.Debug("dropped simulation time", zap.Duration("dropped", dropped))
	}
	s.fixedSteps.Add(uint64(steps))
	s.gameTime.Add(int64(frameTime))
	s.acc.Store(int64(s.accumulator))

	interp := float64(s.accumulator) / float64(fixed)
	for _, fn := range onRender {
		fn(interp)
	}

	return FrameResult{FrameTime: frameTime, Steps: steps, Interpolation: interp}
}

// sampleFrame feeds the rolling frame-time window and republishes the
// smoothed rate at most once per second.
func (s *Scheduler) sampleFrame(frameTime time.Duration, now time.Time) {
	s.samples[s.sampleIdx] = frameTime
	s.sampleIdx = (s.sampleIdx + 1) % len(s.samples)
	if s.sampleCount < len(s.samples) {
		s.sampleCount++
	}

	if s.lastFPS.IsZero() {
		s.lastFPS = now
		return
	}
	if now.Sub(s.lastFPS) < time.Second {
		return
	}
	s.lastFPS = now

	var total time.Duration
	for i := 0; i < s.sampleCount; i++ {
		total += s.samples[i]
	}
	fps := 0.0
	if total > 0 {
		fps = float64(s.sampleCount) / total.Seconds()
	}
	s.frameRate.Store(math.Float64bits(fps))

	if s.bus != nil {
		event.Publish(s.bus, event.FrameStats{
			FrameRate:     fps,
			FixedSteps:    s.fixedSteps.Load(),
			TotalGameTime: s.TotalGameTime().Seconds(),
		})
	}
}
