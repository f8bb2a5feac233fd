// Package export writes captured runs as standalone SVG images.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/port"
	"github.com/san-kum/orbiter/internal/trajectory"
	"github.com/san-kum/orbiter/internal/viz"
)

const (
	background = "#0a0a0a"
	curveColor = "#444466"
	curveSteps = 720
)

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.DotsWide()) * scale
	height := float64(canvas.DotsHigh()) * scale
	r := scale * 0.4

	var sb strings.Builder
	header(&sb, width, height, background)
	sb.WriteString(`<g fill="#00ff00">` + "\n")
	for y := 0; y < canvas.DotsHigh(); y++ {
		for x := 0; x < canvas.DotsWide(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
				float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

type Options struct {
	Width, Height int
	Stroke        string
	Background    string
	// Curve overlays the analytic figure for these inputs.
	Curve *params.Inputs
	// Corners labels the four quad corners.
	Corners bool
}

func DefaultOptions() Options {
	return Options{Width: 400, Height: 400, Stroke: "#00ffff", Background: background}
}

// TrailToSVG draws telemetry as a path. Positions are scaled from the
// modulation canvas, so runs with the same canvas line up.
func TrailToSVG(points []port.Telemetry, canvas modulation.Canvas, opts Options) string {
	if len(points) < 2 {
		return ""
	}
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = modulation.DefaultCanvas()
	}
	def := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Stroke == "" {
		opts.Stroke = def.Stroke
	}
	if opts.Background == "" {
		opts.Background = def.Background
	}
	sx := float64(opts.Width) / canvas.Width
	sy := float64(opts.Height) / canvas.Height

	var sb strings.Builder
	header(&sb, float64(opts.Width), float64(opts.Height), opts.Background)

	if in := opts.Curve; in != nil {
		c := in.Clamp()
		sb.WriteString(`<path fill="none" stroke="` + curveColor + `" stroke-width="1" d="`)
		for i, p := range trajectory.Curve(c.FreqX, c.FreqY, c.Phase, curveSteps) {
			x, y := canvas.Project(p, c.AmpX, c.AmpY)
			writePoint(&sb, i, x*sx, y*sy)
		}
		sb.WriteString("\"/>\n")
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, opts.Stroke)
	for i, p := range points {
		writePoint(&sb, i, p.X*sx, p.Y*sy)
	}
	sb.WriteString("\"/>\n")

	if opts.Corners {
		w, h := float64(opts.Width), float64(opts.Height)
		for _, c := range []struct {
			ch     modulation.Channel
			x, y   float64
			anchor string
		}{
			{modulation.TopLeft, 4, 14, "start"},
			{modulation.TopRight, w - 4, 14, "end"},
			{modulation.BottomLeft, 4, h - 6, "start"},
			{modulation.BottomRight, w - 4, h - 6, "end"},
		} {
			fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" fill="#888888" font-family="monospace" font-size="11" text-anchor="%s">%s</text>`+"\n",
				c.x, c.y, c.anchor, c.ch)
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func header(sb *strings.Builder, w, h float64, bg string) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, bg)
}

func writePoint(sb *strings.Builder, i int, x, y float64) {
	if i == 0 {
		fmt.Fprintf(sb, "M%.1f,%.1f", x, y)
		return
	}
	fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
}
