package automation

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/routing"
)

// ErrBusUnavailable is returned when no bus is attached or the attached bus
// is not ready. The cycle's events are dropped, not queued.
var ErrBusUnavailable = errors.New("automation: bus unavailable")

// Event instructs the automation bus to move a target parameter. Normalized
// values are a fraction of the target's declared range.
type Event struct {
	TargetID   string
	Value      float64
	Normalized bool
	Time       float64
}

// Bus accepts automation events. Emit must not block.
type Bus interface {
	Emit(ev Event)
}

// Readiness is implemented by buses that can be temporarily unavailable.
type Readiness interface {
	Ready() bool
}

// BusFunc adapts a function to Bus.
type BusFunc func(Event)

func (f BusFunc) Emit(ev Event) { f(ev) }

// Available reports whether bus can take events right now.
func Available(bus Bus) bool {
	if bus == nil {
		return false
	}
	if r, ok := bus.(Readiness); ok {
		return r.Ready()
	}
	return true
}

// Emitter turns derived channel values into automation events.
type Emitter struct {
	bus     Bus
	emitted uint64
	dropped uint64
}

func NewEmitter(bus Bus) *Emitter {
	return &Emitter{bus: bus}
}

// Attach swaps the bus handle. Passing nil detaches.
func (e *Emitter) Attach(bus Bus) {
	e.bus = bus
}

// Emit sends one event per bound channel that has a value this cycle and
// returns how many were sent. Unbound channels are skipped.
func (e *Emitter) Emit(b routing.Bindings, vals *modulation.Values, t float64) (int, error) {
	if !Available(e.bus) {
		if b.Count() > 0 {
			e.dropped++
		}
		return 0, ErrBusUnavailable
	}

	sent := 0
	for i := 0; i < modulation.NumChannels; i++ {
		ch := modulation.Channel(i)
		target, ok := b.Target(ch)
		if !ok {
			continue
		}
		v, ok := vals.Get(ch)
		if !ok {
			continue
		}
		e.bus.Emit(Event{
			TargetID:   target,
			Value:      clampUnit(v),
			Normalized: true,
			Time:       t,
		})
		sent++
	}
	e.emitted += uint64(sent)
	return sent, nil
}

// Emitted is the total number of events sent.
func (e *Emitter) Emitted() uint64 { return e.emitted }

// Dropped is the number of cycles lost to an unavailable bus while at least
// one channel was bound.
func (e *Emitter) Dropped() uint64 { return e.dropped }

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Gate wraps a bus with a switchable ready flag, modelling a bus that is not
// initialized yet or temporarily offline.
type Gate struct {
	bus   Bus
	ready atomic.Bool
}

func NewGate(bus Bus, ready bool) *Gate {
	g := &Gate{bus: bus}
	g.ready.Store(ready)
	return g
}

func (g *Gate) SetReady(ready bool) { g.ready.Store(ready) }

func (g *Gate) Ready() bool {
	return g.ready.Load() && Available(g.bus)
}

func (g *Gate) Emit(ev Event) {
	if g.bus != nil {
		g.bus.Emit(ev)
	}
}
