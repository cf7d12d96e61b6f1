package physics

import (
	"time"

	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/core/event"
	"github.com/voidrunner/simcore/internal/mathx"
	"go.uber.org/zap"
)

// Rect is an axis-aligned world boundary. The zero Rect means unbounded.
type Rect struct {
	Min mathx.Vec2
	Max mathx.Vec2
}

func (r Rect) IsZero() bool { return r.Min.IsZero() && r.Max.IsZero() }

type Config struct {
	CellSize float64
	Bounds   Rect
}

// Stats describes the most recent step.
type Stats struct {
	Bodies     int
	Cells      int
	Pairs      int // unique pairs reaching the narrow phase
	Collisions int
	Degenerate int
}

type pairKey struct {
	lo ecs.EntityID
	hi ecs.EntityID
}

func makePairKey(a, b ecs.EntityID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

type body struct {
	t *component.Transform
	p *component.Physics
}

// Stepper advances every physics entity by one fixed step and reports
// circle-circle contacts. It detects and dispatches only; gameplay
// consequences belong to Collision subscribers.
type Stepper struct {
	store   *ecs.Store
	bus     *event.Bus
	index   *Index
	bounds  Rect
	log     *zap.Logger
	bodies  map[ecs.EntityID]body
	order   []ecs.EntityID
	checked map[pairKey]struct{}
	stats   Stats
	steps   uint64
}

// NewStepper creates a stepper. A nil bus gets a private one.
func NewStepper(store *ecs.Store, bus *event.Bus, cfg Config, log *zap.Logger) *Stepper {
	if bus == nil {
		bus = event.NewBus()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Stepper{
		store:   store,
		bus:     bus,
		index:   NewIndex(cfg.CellSize),
		bounds:  cfg.Bounds,
		log:     log,
		bodies:  make(map[ecs.EntityID]body, 256),
		order:   make([]ecs.EntityID, 0, 256),
		checked: make(map[pairKey]struct{}, 512),
	}
}

func (s *Stepper) Bus() *event.Bus { return s.bus }
func (s *Stepper) Index() *Index   { return s.index }
func (s *Stepper) Stats() Stats    { return s.stats }
func (s *Stepper) Steps() uint64   { return s.steps }

// OnCollision registers a handler invoked once per participant per contact.
func (s *Stepper) OnCollision(fn func(Collision)) {
	event.Subscribe(s.bus, fn)
}

// Step advances the simulation by exactly dt.
func (s *Stepper) Step(dt time.Duration) {
	sec := dt.Seconds()
	s.stats = Stats{}
	s.steps++

	s.collect()
	s.rebuild()
	s.integrate(sec)
	s.broadPhase()

	if n := s.bus.Flush(); n > 0 {
		s.log.Debug("collision events dispatched",
			zap.Int("events", n), zap.Uint64("step", s.steps))
	}
}

func (s *Stepper) collect() {
	clear(s.bodies)
	s.order = s.order[:0]
	ecs.Each2(s.store, func(id ecs.EntityID, t *component.Transform, p *component.Physics) {
		s.bodies[id] = body{t: t, p: p}
		s.order = append(s.order, id)
	})
	s.stats.Bodies = len(s.order)
}

func (s *Stepper) rebuild() {
	s.index.Clear()
	for _, id := range s.order {
		b := s.bodies[id]
		s.index.Insert(id, b.t.Position, b.p.Radius)
	}
	s.stats.Cells = s.index.Cells()
}

func (s *Stepper) integrate(dt float64) {
	for _, id := range s.order {
		b := s.bodies[id]
		t, p := b.t, b.p
		t.PrevPosition = t.Position
		p.Clamp()

		if !p.Kinematic {
			accel := p.Force.Scale(p.InverseMass())
			t.Velocity = t.Velocity.Add(accel.Scale(dt))
			t.Velocity = t.Velocity.Scale(p.Drag)
		}
		t.Position = t.Position.Add(t.Velocity.Scale(dt))
		p.Force = mathx.Vec2{}

		if !s.bounds.IsZero() {
			s.confine(t, p.Radius)
		}
	}
}

// confine keeps a body inside the world bounds, reflecting its velocity.
func (s *Stepper) confine(t *component.Transform, r float64) {
	lo, hi := s.bounds.Min, s.bounds.Max
	if t.Position.X-r < lo.X {
		t.Position.X = lo.X + r
		t.Velocity.X = -t.Velocity.X
	} else if t.Position.X+r > hi.X {
		t.Position.X = hi.X - r
		t.Velocity.X = -t.Velocity.X
	}
	if t.Position.Y-r < lo.Y {
		t.Position.Y = lo.Y + r
		t.Velocity.Y = -t.Velocity.Y
	} else if t.Position.Y+r > hi.Y {
		t.Position.Y = hi.Y - r
		t.Velocity.Y = -t.Velocity.Y
	}
}

func (s *Stepper) broadPhase() {
	clear(s.checked)
	s.index.EachCell(func(members []ecs.EntityID) {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				s.testPair(members[i], members[j])
			}
		}
	})
	// Oversized bodies share no cells; test them against every body.
	for _, a := range s.index.Oversized() {
		for _, b := range s.order {
			s.testPair(a, b)
		}
	}
}

func (s *Stepper) testPair(a, b ecs.EntityID) {
	if a == b {
		return
	}
	k := makePairKey(a, b)
	if _, done := s.checked[k]; done {
		return
	}
	s.checked[k] = struct{}{}
	s.stats.Pairs++
	s.narrowPhase(a, b)
}

func (s *Stepper) narrowPhase(a, b ecs.EntityID) {
	ba, bb := s.bodies[a], s.bodies[b]
	c, hit := Detect(
		Body{ID: a, Position: ba.t.Position, Velocity: ba.t.Velocity, Radius: ba.p.Radius},
		Body{ID: b, Position: bb.t.Position, Velocity: bb.t.Velocity, Radius: bb.p.Radius},
	)
	if !hit {
		return
	}
	s.stats.Collisions++
	if c.Degenerate {
		s.stats.Degenerate++
	}
	event.Emit(s.bus, c)
	event.Emit(s.bus, c.Mirror())
}
