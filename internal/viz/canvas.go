package viz

import (
	"math"
	"strings"

	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/port"
	"github.com/san-kum/orbiter/internal/trajectory"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBase = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille dot grid. Width and Height are in terminal cells; the
// drawable area is twice as wide and four times as tall in dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) DotsWide() int { return c.Width * 2 }
func (c *Canvas) DotsHigh() int { return c.Height * 4 }

// Set lights the dot at (x, y). Out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.DotsWide() || y >= c.DotsHigh() {
		return
	}
	c.Grid[y/4][x/2] |= pixelMap[y%4][x%2]
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x >= c.DotsWide() || y >= c.DotsHigh() {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Fit maps positions in a modulation canvas onto this grid's dots.
type Fit struct {
	space modulation.Canvas
	dotsW float64
	dotsH float64
}

func (c *Canvas) Fit(space modulation.Canvas) Fit {
	if space.Width <= 0 || space.Height <= 0 {
		space = modulation.DefaultCanvas()
	}
	return Fit{space: space, dotsW: float64(c.DotsWide() - 1), dotsH: float64(c.DotsHigh() - 1)}
}

func (f Fit) Dot(x, y float64) (int, int) {
	return int(math.Round(x / f.space.Width * f.dotsW)), int(math.Round(y / f.space.Height * f.dotsH))
}

// DrawCurve traces the analytic figure for the given inputs.
func (c *Canvas) DrawCurve(f Fit, fx, fy, phase, ampX, ampY float64, steps int) {
	var px, py int
	for i, p := range trajectory.Curve(fx, fy, phase, steps) {
		x, y := f.space.Project(p, ampX, ampY)
		dx, dy := f.Dot(x, y)
		if i > 0 {
			c.DrawLine(px, py, dx, dy)
		}
		px, py = dx, dy
	}
}

// DrawTrail connects consecutive telemetry samples.
func (c *Canvas) DrawTrail(f Fit, pts []port.Telemetry) {
	for i, p := range pts {
		x, y := f.Dot(p.X, p.Y)
		if i == 0 {
			c.Set(x, y)
			continue
		}
		px, py := f.Dot(pts[i-1].X, pts[i-1].Y)
		c.DrawLine(px, py, x, y)
	}
}

// DrawDot marks the current position with a small cross.
func (c *Canvas) DrawDot(f Fit, x, y float64) {
	cx, cy := f.Dot(x, y)
	for d := -1; d <= 1; d++ {
		c.Set(cx+d, cy)
		c.Set(cx, cy+d)
	}
}

func (c *Canvas) Lines() []string {
	out := make([]string, len(c.Grid))
	for i, row := range c.Grid {
		out[i] = string(row)
	}
	return out
}

func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
