package engine

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/directory"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/port"
	"github.com/san-kum/orbiter/internal/routing"
	"github.com/san-kum/orbiter/internal/trajectory"
)

// Cycle is what the host hands the engine every rendering quantum.
type Cycle struct {
	Now    float64
	Inputs params.Inputs
}

// Report summarizes one processed cycle for observers. Observers run on the
// real-time path, must not block and must not retain the pointer.
type Report struct {
	Cycle   uint64
	Time    float64
	Inputs  params.Inputs
	Point   trajectory.Point
	Values  *modulation.Values
	Emitted int
	Dropped bool
	Wrapped bool
}

type Observer interface {
	OnCycle(r *Report)
}

type Engine struct {
	id        string
	strategy  modulation.Strategy
	canvas    modulation.Canvas
	traj      *trajectory.Trajectory
	table     *routing.Table
	emitter   *automation.Emitter
	port      port.EngineSide
	available directory.Snapshot
	observers []Observer

	destroyed atomic.Bool
	busDown   bool
	cycles    uint64
	values    modulation.Values
	report    Report
}

type Option func(*settings)

type settings struct {
	id        string
	start     float64
	wrap      float64
	canvas    modulation.Canvas
	observers []Observer
	bindings  routing.Bindings
}

// WithStart sets the timestamp the first cycle's delta is measured from.
func WithStart(t float64) Option {
	return func(s *settings) { s.start = t }
}

func WithWrapThreshold(v float64) Option {
	return func(s *settings) { s.wrap = v }
}

func WithCanvas(c modulation.Canvas) Option {
	return func(s *settings) { s.canvas = c }
}

func WithObserver(o Observer) Option {
	return func(s *settings) { s.observers = append(s.observers, o) }
}

func WithID(id string) Option {
	return func(s *settings) { s.id = id }
}

// WithBindings seeds the routing table before the first cycle.
func WithBindings(b routing.Bindings) Option {
	return func(s *settings) { s.bindings = b }
}

// New builds an engine around strategy. bus may be nil and attached later
// through the port.
func New(strategy modulation.Strategy, bus automation.Bus, p *port.Port, opts ...Option) *Engine {
	s := settings{
		wrap:   trajectory.DefaultWrapThreshold,
		canvas: modulation.DefaultCanvas(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.id == "" {
		s.id = uuid.New().String()
	}

	e := &Engine{
		id:        s.id,
		strategy:  strategy,
		canvas:    s.canvas,
		traj:      trajectory.New(s.start, trajectory.WithWrapThreshold(s.wrap)),
		table:     routing.NewTable(),
		emitter:   automation.NewEmitter(bus),
		port:      p.Engine(),
		observers: s.observers,
	}
	for i, target := range s.bindings {
		e.table.Bind(modulation.Channel(i), target)
	}
	e.report.Values = &e.values
	e.port.PostLog(port.Log{Event: port.LogStarted, Time: s.start})
	return e
}

// Process runs one cycle. It returns false once the engine is destroyed,
// telling the host it may tear the engine down.
func (e *Engine) Process(c Cycle) bool {
	if e.destroyed.Load() || c.Inputs.IsDestroyed() {
		e.destroyed.Store(true)
		return false
	}

	e.drain()

	in := c.Inputs.Clamp()
	wraps := e.traj.Wraps()
	p := e.traj.Advance(c.Now, in.FreqX, in.FreqY, in.Phase)

	e.values.Reset()
	e.strategy.Derive(p, in, &e.values)

	b := e.table.Current()
	sent, err := e.emitter.Emit(b, &e.values, c.Now)
	dropped := false
	if err != nil {
		if n := b.Count(); n > 0 {
			dropped = true
			if !e.busDown {
				e.busDown = true
				e.port.PostLog(port.Log{Event: port.LogBusUnavailable, Count: n, Time: c.Now})
			}
		}
	} else if e.busDown {
		e.busDown = false
		e.port.PostLog(port.Log{Event: port.LogBusRestored, Time: c.Now})
	}

	x, y := e.canvas.Project(p, in.AmpX, in.AmpY)
	e.port.PostTelemetry(port.Telemetry{X: x, Y: y, Time: c.Now})
	if r, ok := e.values.Readout(); ok {
		e.port.PostModulation(port.ModulationValue{Value: r, Time: c.Now})
	}

	e.cycles++
	if len(e.observers) > 0 {
		e.report.Cycle = e.cycles
		e.report.Time = c.Now
		e.report.Inputs = in
		e.report.Point = p
		e.report.Emitted = sent
		e.report.Dropped = dropped
		e.report.Wrapped = e.traj.Wraps() != wraps
		for _, o := range e.observers {
			o.OnCycle(&e.report)
		}
	}
	return true
}

// drain applies every directive queued before this cycle started, bounded by
// the inbound capacity so a flooding controller cannot stretch the cycle.
func (e *Engine) drain() {
	limit := e.port.InboundCapacity()
	for i := 0; i < limit; i++ {
		msg, ok := e.port.Next()
		if !ok {
			return
		}
		e.apply(msg)
	}
}

func (e *Engine) apply(msg port.Inbound) {
	switch msg.Kind {
	case port.KindSetTarget:
		ch := e.strategy.Channels()[0]
		if msg.HasChannel {
			if !e.fills(msg.Channel) {
				e.port.PostLog(port.Log{Event: port.LogMalformed, Count: int(msg.Kind)})
				return
			}
			ch = msg.Channel
		}
		if msg.TargetID == "" {
			if e.table.Unbind(ch) {
				e.port.PostLog(port.Log{Event: port.LogTargetCleared, Channel: ch})
			}
			return
		}
		if e.table.Bind(ch, msg.TargetID) {
			e.port.PostLog(port.Log{Event: port.LogTargetSet, Channel: ch, TargetID: msg.TargetID})
		}
	case port.KindSetAvailableParams:
		e.available = msg.Params
		e.port.PostLog(port.Log{Event: port.LogParamsUpdated, Count: len(msg.Params)})
	case port.KindAttachBus:
		e.emitter.Attach(msg.Bus)
		e.busDown = false
		if msg.Bus == nil {
			e.port.PostLog(port.Log{Event: port.LogBusDetached})
		} else {
			e.port.PostLog(port.Log{Event: port.LogBusAttached})
		}
	default:
		e.port.PostLog(port.Log{Event: port.LogMalformed, Count: int(msg.Kind)})
	}
}

// fills reports whether the strategy ever produces a value for ch.
func (e *Engine) fills(ch modulation.Channel) bool {
	if !ch.Valid() {
		return false
	}
	for _, c := range e.strategy.Channels() {
		if c == ch {
			return true
		}
	}
	return false
}

// Destroy raises the lifecycle guard. It takes effect at the top of the next
// cycle and cannot be undone. Safe to call from any goroutine.
func (e *Engine) Destroy() {
	e.destroyed.Store(true)
}

func (e *Engine) Destroyed() bool {
	return e.destroyed.Load()
}

func (e *Engine) ID() string { return e.id }

func (e *Engine) Strategy() modulation.Strategy { return e.strategy }

// Descriptors lists the control inputs this engine accepts.
func (e *Engine) Descriptors() []params.Descriptor {
	return params.Descriptors()
}

// The accessors below read engine-owned state. Call them from the goroutine
// that drives Process, or after the host has stopped.

func (e *Engine) Bindings() routing.Bindings { return e.table.Current() }

func (e *Engine) AvailableParams() directory.Snapshot { return e.available }

func (e *Engine) Cycles() uint64 { return e.cycles }

func (e *Engine) Elapsed() float64 { return e.traj.Elapsed() }

func (e *Engine) Emitter() *automation.Emitter { return e.emitter }
