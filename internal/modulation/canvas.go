package modulation

import "github.com/san-kum/orbiter/internal/trajectory"

const (
	DefaultCanvasWidth  = 400.0
	DefaultCanvasHeight = 400.0
)

// Canvas is the fixed logical space telemetry positions are expressed in.
type Canvas struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

func DefaultCanvas() Canvas {
	return Canvas{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}
}

func (c Canvas) orDefault() Canvas {
	if c.Width <= 0 {
		c.Width = DefaultCanvasWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultCanvasHeight
	}
	return c
}

// Project maps a trajectory sample into canvas coordinates, scaling each
// axis by its amplitude around the canvas center.
func (c Canvas) Project(p trajectory.Point, ampX, ampY float64) (x, y float64) {
	c = c.orDefault()
	cx, cy := c.Width/2, c.Height/2
	return cx + ampX*cx*p.X, cy + ampY*cy*p.Y
}

// Normalize is Project divided by the canvas size, landing in [0,1]² for
// amplitudes up to 1.
func (c Canvas) Normalize(p trajectory.Point, ampX, ampY float64) (normX, normY float64) {
	c = c.orDefault()
	x, y := c.Project(p, ampX, ampY)
	return x / c.Width, y / c.Height
}
