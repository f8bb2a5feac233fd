package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbiter/internal/analysis"
	"github.com/san-kum/orbiter/internal/export"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/storage"
	"github.com/spf13/cobra"
)

const maxPlotPoints = 400

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTRATEGY\tTIME\tDURATION\tCYCLES\tSAMPLES\tEVENTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%d\t%d\n",
			run.ID,
			run.Strategy,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Cycles,
			run.Samples,
			run.Events,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tel, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	readout, err := st.LoadReadout(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("strategy: %s\n", meta.Strategy)
	fmt.Printf("samples: %d\n\n", len(tel))

	series := map[string][]float64{}
	if len(tel) > 0 {
		xs := make([]float64, len(tel))
		ys := make([]float64, len(tel))
		for i, t := range tel {
			xs[i], ys[i] = t.X, t.Y
		}
		series["x"], series["y"] = xs, ys
	}
	if len(readout) > 0 {
		vals := make([]float64, len(readout))
		for i, r := range readout {
			vals[i] = r.Value
		}
		series["readout"] = vals
	}

	names := []string{"x", "y", "readout"}
	if plotSeries != "all" {
		names = []string{plotSeries}
	}
	plotted := 0
	for _, name := range names {
		data, ok := series[name]
		if !ok {
			if plotSeries != "all" {
				return fmt.Errorf("run %s has no %s series", runID, name)
			}
			continue
		}
		graph := asciigraph.Plot(downsample(data, maxPlotPoints),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption(name)),
		)
		fmt.Println(graph)
		fmt.Println()
		plotted++
	}
	if plotted == 0 {
		return fmt.Errorf("no data to plot")
	}
	return nil
}

func caption(series string) string {
	switch series {
	case "x":
		return "telemetry x (canvas units)"
	case "y":
		return "telemetry y (canvas units)"
	}
	return "readout"
}

// downsample keeps every k-th point so long runs fit the plot width.
func downsample(data []float64, max int) []float64 {
	if len(data) <= max {
		return data
	}
	step := int(math.Ceil(float64(len(data)) / float64(max)))
	out := make([]float64, 0, max)
	for i := 0; i < len(data); i += step {
		out = append(out, data[i])
	}
	return out
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tel, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	if len(tel) == 0 {
		return fmt.Errorf("no data")
	}

	times := make([]float64, len(tel))
	xs := make([]float64, len(tel))
	ys := make([]float64, len(tel))
	for i, t := range tel {
		times[i], xs[i], ys[i] = t.Time, t.X, t.Y
	}
	rate := analysis.SampleRate(times)
	if rate <= 0 {
		return fmt.Errorf("cannot estimate sample rate")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("strategy: %s\n", meta.Strategy)
	fmt.Printf("telemetry rate: %.2f hz\n\n", rate)

	ps := analysis.PowerSpectrum(xs, rate)
	if len(ps.Power) > 1 {
		plotData := ps.Power[:len(ps.Power)/4+1]
		graph := asciigraph.Plot(downsample(plotData, maxPlotPoints),
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (x)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	expX, expY := analysis.ExpectedFrequencies(inputsFromMap(meta.Inputs))
	for _, axis := range []struct {
		name     string
		data     []float64
		expected float64
	}{
		{"x", xs, expX},
		{"y", ys, expY},
	} {
		hz, _, err := analysis.DominantFrequency(axis.data, rate)
		if err != nil {
			return err
		}
		fmt.Printf("%s: dominant %.3f hz, expected %.3f hz", axis.name, hz, axis.expected)
		if hz > 0 {
			fmt.Printf(", period %.3f s", 1/hz)
		}
		fmt.Println()
		sum := analysis.Summarize(axis.data)
		fmt.Printf("   min %.2f  max %.2f  mean %.2f  rms %.2f\n", sum.Min, sum.Max, sum.Mean, sum.RMS)
	}
	return nil
}

func inputsFromMap(m map[string]float64) params.Inputs {
	in := params.Defaults()
	for name, v := range m {
		_ = in.Set(name, v)
	}
	return in
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tel, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.Width, opts.Height = svgSize, svgSize
	opts.Corners = meta.Strategy == modulation.QuadCorner.String()
	if svgCurve {
		in := inputsFromMap(meta.Inputs)
		opts.Curve = &in
	}
	svg := export.TrailToSVG(tel, meta.Canvas, opts)
	if svg == "" {
		return fmt.Errorf("run %s has fewer than 2 telemetry samples", runID)
	}

	out := svgOut
	if out == "" {
		out = runID + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d samples)\n", out, len(tel))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tel, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	readout, err := st.LoadReadout(runID)
	if err != nil {
		return err
	}
	events, err := st.LoadEvents(runID)
	if err != nil {
		return err
	}

	w := os.Stdout
	if jsonOut != "" {
		f, err := os.Create(jsonOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return export.WriteJSON(w, export.NewRunData(*meta, tel, readout, events))
}
