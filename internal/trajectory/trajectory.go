// Package trajectory advances the two-axis Lissajous position that drives
// every modulation channel.
//
// A Trajectory accumulates elapsed render time and evaluates
//
//	x = sin(freqX*t + phase)
//	y = sin(freqY*t)
//
// Both axes stay within [-1, 1]. Amplitude is applied downstream by the
// modulation strategies, never here.
//
// # Thread Safety
//
// A Trajectory is owned by the real-time engine and is NOT safe for
// concurrent use.
package trajectory

import "math"

// DefaultWrapThreshold bounds accumulated phase so float precision does not
// degrade over long uptimes.
const DefaultWrapThreshold = 1000.0

// Point is a trajectory sample with both axes in [-1, 1].
type Point struct {
	X, Y float64
}

func (p Point) IsValid() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

type Trajectory struct {
	elapsed       float64
	last          float64
	wrapThreshold float64
	wraps         int
}

type Option func(*Trajectory)

// WithWrapThreshold overrides the phase reset bound. Non-positive values are
// ignored.
func WithWrapThreshold(v float64) Option {
	return func(t *Trajectory) {
		if v > 0 && !math.IsInf(v, 0) {
			t.wrapThreshold = v
		}
	}
}

// New creates a trajectory whose first delta is measured from start.
func New(start float64, opts ...Option) *Trajectory {
	t := &Trajectory{
		last:          start,
		wrapThreshold: DefaultWrapThreshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Advance moves the trajectory to timestamp now and returns the new position.
// A timestamp that goes backwards or is not finite advances nothing.
//
// Crossing the wrap threshold resets the accumulated phase to zero, which
// produces a one-cycle jump in the curve.
func (t *Trajectory) Advance(now, freqX, freqY, phase float64) Point {
	delta := now - t.last
	if math.IsNaN(now) || math.IsInf(now, 0) {
		delta = 0
	} else {
		t.last = now
	}
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		delta = 0
	}

	t.elapsed += delta
	if t.elapsed >= t.wrapThreshold {
		t.elapsed = 0
		t.wraps++
	}

	return Point{
		X: math.Sin(freqX*t.elapsed + phase),
		Y: math.Sin(freqY * t.elapsed),
	}
}

// Elapsed returns the accumulated phase time.
func (t *Trajectory) Elapsed() float64 { return t.elapsed }

// Wraps returns how many times the phase has been reset.
func (t *Trajectory) Wraps() int { return t.wraps }

// Curve samples one full period of the analytic figure, t in [0, 2π], for
// drawing the path the trajectory follows.
func Curve(freqX, freqY, phase float64, steps int) []Point {
	if steps < 2 {
		steps = 2
	}
	pts := make([]Point, steps)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(steps-1)
		pts[i] = Point{X: math.Sin(freqX*t + phase), Y: math.Sin(freqY * t)}
	}
	return pts
}
