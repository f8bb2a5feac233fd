// Package host drives an engine the way an audio graph would: one Process
// call per rendering quantum, with control inputs read from a shared block.
package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/san-kum/orbiter/internal/engine"
	"github.com/san-kum/orbiter/internal/params"
	"go.uber.org/zap"
)

const (
	DefaultSampleRate = 48000
	DefaultQuantum    = 128
)

// ErrCompleted is returned by Run after the engine reported completion.
var ErrCompleted = errors.New("host: engine completed")

// Processor is the host-facing face of the engine.
type Processor interface {
	Process(engine.Cycle) bool
}

// Clock converts a sample counter into timestamps, like an audio context's
// currentTime.
type Clock struct {
	SampleRate int
	Quantum    int
	Start      float64
	frames     uint64
}

func (c *Clock) Step() float64 {
	c.frames += uint64(c.Quantum)
	return c.Now()
}

func (c *Clock) Now() float64 {
	return c.Start + float64(c.frames)/float64(c.SampleRate)
}

func (c *Clock) QuantumDuration() time.Duration {
	return time.Duration(float64(time.Second) * float64(c.Quantum) / float64(c.SampleRate))
}

type Virtual struct {
	proc     Processor
	inputs   *params.Atomic
	clock    Clock
	realtime bool
	logger   *zap.Logger

	cycles   uint64
	done     chan struct{}
	doneOnce sync.Once
}

type Option func(*Virtual)

func WithSampleRate(sampleRate, quantum int) Option {
	return func(v *Virtual) {
		if sampleRate > 0 {
			v.clock.SampleRate = sampleRate
		}
		if quantum > 0 {
			v.clock.Quantum = quantum
		}
	}
}

// WithRealtime paces cycles against the wall clock instead of running flat out.
func WithRealtime(on bool) Option {
	return func(v *Virtual) { v.realtime = on }
}

func WithStart(t float64) Option {
	return func(v *Virtual) { v.clock.Start = t }
}

func WithLogger(l *zap.Logger) Option {
	return func(v *Virtual) { v.logger = l }
}

func NewVirtual(proc Processor, inputs *params.Atomic, opts ...Option) *Virtual {
	v := &Virtual{
		proc:   proc,
		inputs: inputs,
		clock:  Clock{SampleRate: DefaultSampleRate, Quantum: DefaultQuantum},
		logger: zap.NewNop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.Named("host")
	return v
}

// Step runs one quantum. It returns false once the engine has completed.
func (v *Virtual) Step() bool {
	select {
	case <-v.done:
		return false
	default:
	}
	now := v.clock.Step()
	if !v.proc.Process(engine.Cycle{Now: now, Inputs: v.inputs.Load()}) {
		v.doneOnce.Do(func() {
			close(v.done)
			v.logger.Info("engine completed", zap.Uint64("cycles", v.cycles), zap.Float64("t", now))
		})
		return false
	}
	v.cycles++
	return true
}

// Run steps until duration seconds of host time have passed, the engine
// completes, or ctx is done. A zero duration runs until one of the others.
func (v *Virtual) Run(ctx context.Context, duration float64) error {
	var end float64
	if duration > 0 {
		end = v.clock.Now() + duration
	}
	var tick <-chan time.Time
	if v.realtime {
		t := time.NewTicker(v.clock.QuantumDuration())
		defer t.Stop()
		tick = t.C
	}

	for {
		if duration > 0 && v.clock.Now() >= end {
			return nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if !v.Step() {
			return ErrCompleted
		}
	}
}

// Done is closed when the engine reports completion.
func (v *Virtual) Done() <-chan struct{} { return v.done }

func (v *Virtual) Cycles() uint64 { return v.cycles }

func (v *Virtual) Now() float64 { return v.clock.Now() }

func (v *Virtual) QuantumDuration() time.Duration { return v.clock.QuantumDuration() }
