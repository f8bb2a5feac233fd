package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/port"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	if c.DotsWide() != 8 || c.DotsHigh() != 8 {
		t.Fatalf("unexpected dot size %dx%d", c.DotsWide(), c.DotsHigh())
	}

	c.Set(0, 0)
	c.Set(7, 7)
	c.Set(-1, 3)
	c.Set(8, 0)
	if !c.IsSet(0, 0) || !c.IsSet(7, 7) {
		t.Error("expected corner dots to be set")
	}
	if c.Grid[0][0] != brailleBase|0x1 {
		t.Errorf("expected dot 1, got %U", c.Grid[0][0])
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("clear should reset every cell")
	}
}

func TestDrawLineEndpoints(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 19)
	if !c.IsSet(0, 0) || !c.IsSet(19, 19) || !c.IsSet(10, 10) {
		t.Error("diagonal should cover both ends and the middle")
	}
}

func TestFitMapsCanvasCorners(t *testing.T) {
	c := NewCanvas(20, 10)
	f := c.Fit(modulation.DefaultCanvas())

	if x, y := f.Dot(0, 0); x != 0 || y != 0 {
		t.Errorf("origin mapped to %d,%d", x, y)
	}
	if x, y := f.Dot(400, 400); x != 39 || y != 39 {
		t.Errorf("far corner mapped to %d,%d", x, y)
	}
}

func TestDrawCurveStaysInside(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawCurve(c.Fit(modulation.DefaultCanvas()), 3, 2, 0.5, 1, 1, 360)

	lit := 0
	for y := 0; y < c.DotsHigh(); y++ {
		for x := 0; x < c.DotsWide(); x++ {
			if c.IsSet(x, y) {
				lit++
			}
		}
	}
	if lit < 40 {
		t.Errorf("expected a visible figure, only %d dots lit", lit)
	}
}

func TestDrawTrailAndDot(t *testing.T) {
	c := NewCanvas(20, 10)
	f := c.Fit(modulation.DefaultCanvas())
	c.DrawTrail(f, []port.Telemetry{{X: 0, Y: 0}, {X: 400, Y: 0}})
	if !c.IsSet(0, 0) || !c.IsSet(39, 0) || !c.IsSet(20, 0) {
		t.Error("trail should join consecutive samples")
	}

	c.Clear()
	c.DrawDot(f, 200, 200)
	cx, cy := f.Dot(200, 200)
	for _, d := range [][2]int{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		if !c.IsSet(cx+d[0], cy+d[1]) {
			t.Errorf("dot missing at offset %v", d)
		}
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(c.String(), "\n")
	if len(lines) != 2 || len([]rune(lines[0])) != 3 {
		t.Errorf("unexpected layout %q", c.String())
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "[----]"},
		{0.5, "[==--]"},
		{1, "[====]"},
		{2, "[====]"},
		{-1, "[----]"},
	}
	for _, tt := range tests {
		if got := Bar(tt.ratio, 4); got != tt.want {
			t.Errorf("Bar(%v) = %q, want %q", tt.ratio, got, tt.want)
		}
	}
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	cur := GetTheme(names[0])
	for i := 1; i <= len(names); i++ {
		cur = NextTheme(cur.Name)
		if cur.Name != names[i%len(names)] {
			t.Errorf("step %d: got %s", i, cur.Name)
		}
	}
	if GetTheme("nope").Name != names[0] {
		t.Error("unknown theme should fall back to the first")
	}
}
