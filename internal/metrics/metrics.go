package metrics

import (
	"sort"

	"github.com/san-kum/orbiter/internal/engine"
)

// Metric accumulates one figure over the cycles of a run. Observe runs on the
// real-time path and must not allocate or block.
type Metric interface {
	Name() string
	Observe(r *engine.Report)
	Value() float64
	Reset()
}

// Set fans engine reports out to its metrics. It satisfies engine.Observer.
// Read values only after the host has stopped.
type Set struct {
	metrics []Metric
}

func NewSet(ms ...Metric) *Set {
	return &Set{metrics: ms}
}

// Default returns the metrics a headless run reports.
func Default() *Set {
	return NewSet(
		NewEmittedEvents(),
		NewDroppedCycles(),
		NewReadoutPeak(),
		NewPhaseWraps(),
		NewWeightDrift(),
	)
}

func (s *Set) Add(m Metric) { s.metrics = append(s.metrics, m) }

func (s *Set) OnCycle(r *engine.Report) {
	for _, m := range s.metrics {
		m.Observe(r)
	}
}

func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names lists metric names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.metrics))
	for _, m := range s.metrics {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

func (s *Set) Reset() {
	for _, m := range s.metrics {
		m.Reset()
	}
}
