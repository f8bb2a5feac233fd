package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/engine"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/port"
	"github.com/san-kum/orbiter/internal/routing"
)

func report(values *modulation.Values) *engine.Report {
	return &engine.Report{Values: values}
}

func TestEmittedAndDropped(t *testing.T) {
	var vals modulation.Values
	e := NewEmittedEvents()
	d := NewDroppedCycles()

	r := report(&vals)
	r.Emitted = 4
	e.Observe(r)
	d.Observe(r)
	r.Emitted = 0
	r.Dropped = true
	e.Observe(r)
	d.Observe(r)

	if e.Value() != 4 {
		t.Errorf("expected 4 events, got %f", e.Value())
	}
	if d.Value() != 0.5 {
		t.Errorf("expected dropped ratio 0.5, got %f", d.Value())
	}

	d.Reset()
	if d.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestReadoutPeak(t *testing.T) {
	var vals modulation.Values
	p := NewReadoutPeak()

	p.Observe(report(&vals))
	if p.Value() != 0 {
		t.Error("no readout should leave the peak at zero")
	}
	for _, v := range []float64{0.2, -0.7, 0.4} {
		vals.SetReadout(v)
		p.Observe(report(&vals))
	}
	if p.Value() != 0.7 {
		t.Errorf("expected peak 0.7, got %f", p.Value())
	}
}

func TestWeightDrift(t *testing.T) {
	var vals modulation.Values
	w := NewWeightDrift()

	vals.Set(modulation.Main, 0.5)
	w.Observe(report(&vals))
	if w.Value() != 0 {
		t.Error("cycles without corners should be skipped")
	}

	cw := modulation.CornerWeights(0.3, 0.9)
	vals.Set(modulation.TopLeft, cw.TopLeft)
	vals.Set(modulation.TopRight, cw.TopRight)
	vals.Set(modulation.BottomLeft, cw.BottomLeft)
	vals.Set(modulation.BottomRight, cw.BottomRight)
	w.Observe(report(&vals))
	if w.Value() > 1e-12 {
		t.Errorf("corner weights should sum to 2, drift %g", w.Value())
	}
}

func TestSetAsObserver(t *testing.T) {
	set := Default()
	strat, _ := modulation.New(modulation.QuadCorner, modulation.DefaultCanvas())
	rec := automation.NewRecorder(0)
	eng := engine.New(strat, rec, port.New(port.DefaultConfig()),
		engine.WithObserver(set),
		engine.WithWrapThreshold(1),
		engine.WithBindings(routing.Bindings{modulation.TopLeft: "a", modulation.BottomRight: "b"}))

	in := params.Defaults()
	for i := 1; i <= 20; i++ {
		eng.Process(engine.Cycle{Now: float64(i) * 0.1, Inputs: in})
	}

	v := set.Values()
	if v["emitted_events"] != 40 {
		t.Errorf("expected 40 events, got %f", v["emitted_events"])
	}
	if v["phase_wraps"] < 1 {
		t.Errorf("expected at least one wrap, got %f", v["phase_wraps"])
	}
	if v["weight_drift"] > 1e-9 {
		t.Errorf("weight drift %g", v["weight_drift"])
	}
	if math.IsNaN(v["dropped_ratio"]) || v["dropped_ratio"] != 0 {
		t.Errorf("unexpected dropped ratio %f", v["dropped_ratio"])
	}
	if len(set.Names()) != 5 {
		t.Errorf("expected 5 metrics, got %v", set.Names())
	}

	set.Reset()
	if set.Values()["emitted_events"] != 0 {
		t.Error("reset should clear every metric")
	}
}
