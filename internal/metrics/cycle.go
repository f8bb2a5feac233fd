package metrics

import (
	"math"

	"github.com/san-kum/orbiter/internal/engine"
	"github.com/san-kum/orbiter/internal/modulation"
)

type EmittedEvents struct {
	total int
}

func NewEmittedEvents() *EmittedEvents { return &EmittedEvents{} }

func (e *EmittedEvents) Name() string { return "emitted_events" }

func (e *EmittedEvents) Observe(r *engine.Report) { e.total += r.Emitted }

func (e *EmittedEvents) Value() float64 { return float64(e.total) }

func (e *EmittedEvents) Reset() { e.total = 0 }

// DroppedCycles is the fraction of cycles whose events were lost to an
// unavailable bus.
type DroppedCycles struct {
	dropped int
	samples int
}

func NewDroppedCycles() *DroppedCycles { return &DroppedCycles{} }

func (d *DroppedCycles) Name() string { return "dropped_ratio" }

func (d *DroppedCycles) Observe(r *engine.Report) {
	d.samples++
	if r.Dropped {
		d.dropped++
	}
}

func (d *DroppedCycles) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return float64(d.dropped) / float64(d.samples)
}

func (d *DroppedCycles) Reset() { d.dropped, d.samples = 0, 0 }

type ReadoutPeak struct {
	peak float64
}

func NewReadoutPeak() *ReadoutPeak { return &ReadoutPeak{} }

func (p *ReadoutPeak) Name() string { return "readout_peak" }

func (p *ReadoutPeak) Observe(r *engine.Report) {
	if v, ok := r.Values.Readout(); ok {
		p.peak = math.Max(p.peak, math.Abs(v))
	}
}

func (p *ReadoutPeak) Value() float64 { return p.peak }

func (p *ReadoutPeak) Reset() { p.peak = 0 }

type PhaseWraps struct {
	wraps int
}

func NewPhaseWraps() *PhaseWraps { return &PhaseWraps{} }

func (w *PhaseWraps) Name() string { return "phase_wraps" }

func (w *PhaseWraps) Observe(r *engine.Report) {
	if r.Wrapped {
		w.wraps++
	}
}

func (w *PhaseWraps) Value() float64 { return float64(w.wraps) }

func (w *PhaseWraps) Reset() { w.wraps = 0 }

// WeightDrift tracks the largest distance of the corner weight sum from 2.
// Cycles without corner values are skipped.
type WeightDrift struct {
	maxDrift float64
}

func NewWeightDrift() *WeightDrift { return &WeightDrift{} }

func (w *WeightDrift) Name() string { return "weight_drift" }

func (w *WeightDrift) Observe(r *engine.Report) {
	sum := 0.0
	for _, ch := range [...]modulation.Channel{modulation.TopLeft, modulation.TopRight, modulation.BottomLeft, modulation.BottomRight} {
		v, ok := r.Values.Get(ch)
		if !ok {
			return
		}
		sum += v
	}
	w.maxDrift = math.Max(w.maxDrift, math.Abs(sum-2))
}

func (w *WeightDrift) Value() float64 { return w.maxDrift }

func (w *WeightDrift) Reset() { w.maxDrift = 0 }
