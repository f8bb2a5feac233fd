package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/orbiter/internal/config"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/session"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	strategy   string
	duration   float64
	sampleRate int
	quantum    int
	backend    string
	instance   string
	scenario   string
	bindings   map[string]string
	logLevel   string
	logFile    string
	theme      string
	frameRate  int
	noSave     bool
	workers    int

	freqX, freqY float64
	ampX, ampY   float64
	phase        float64
	center       float64
	positionX    float64
	positionY    float64

	jsonOut    string
	svgOut     string
	svgSize    int
	svgCurve   bool
	plotSeries string
)

// main registers the orbiter commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "orbiter",
		Short:         "Lissajous modulation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbiter", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this rotated file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the engine headless and save the capture",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	addEngineFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print metrics without saving the run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run every preset of a strategy in parallel and compare metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addEngineFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 uses every CPU)")
	sweepCmd.Flags().BoolVar(&noSave, "no-save", false, "print metrics without saving the runs")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the engine in real time with the terminal observer",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addEngineFlags(liveCmd)
	liveCmd.Flags().StringVar(&backend, "backend", "virtual", "host backend (virtual, portaudio)")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list the control inputs and target instances",
		Args:  cobra.NoArgs,
		RunE:  listParams,
	}
	paramsCmd.Flags().StringVar(&configFile, "config", "", "config file whose directory to list")

	presetsCmd := &cobra.Command{
		Use:   "presets [strategy]",
		Short: "list available presets for a strategy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategies := []string{"single", "xy", "quad"}
			if len(args) == 1 {
				strategies = args
			}
			for _, s := range strategies {
				presets := config.ListPresets(s)
				if len(presets) == 0 {
					fmt.Printf("no presets for strategy: %s\n", s)
					continue
				}
				fmt.Printf("presets for %s:\n", s)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			cfg.Directory = session.DemoDirectory()
			cfg.TargetInstance = session.DemoInstance
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotSeries, "series", "all", "what to plot (x, y, readout, all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	jsonCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run with its telemetry and events as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	jsonCmd.Flags().StringVarP(&jsonOut, "output", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the telemetry trail as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().IntVar(&svgSize, "size", 400, "image size in pixels")
	svgCmd.Flags().BoolVar(&svgCurve, "curve", true, "overlay the analytic figure")

	rootCmd.AddCommand(runCmd, sweepCmd, liveCmd, paramsCmd, presetsCmd, initCmd, listCmd, showCmd, plotCmd, analyzeCmd, jsonCmd, svgCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	d := params.Defaults()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset inputs for the strategy")
	f.StringVar(&strategy, "strategy", config.DefaultStrategy, "derivation strategy (single, xy, quad)")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds of host time (0 runs until stopped)")
	f.IntVar(&sampleRate, "sample-rate", config.DefaultSampleRate, "host sample rate")
	f.IntVar(&quantum, "quantum", config.DefaultQuantum, "frames per processing cycle")
	f.StringVar(&instance, "instance", "", "target instance to list parameters from")
	f.StringVar(&scenario, "scenario", "", "scenario file to play")
	f.StringToStringVar(&bindings, "bind", nil, "channel=target bindings, e.g. top_left=cutoff")
	f.Float64Var(&freqX, "freq-x", d.FreqX, "x angular frequency")
	f.Float64Var(&freqY, "freq-y", d.FreqY, "y angular frequency")
	f.Float64Var(&ampX, "amp-x", d.AmpX, "x amplitude")
	f.Float64Var(&ampY, "amp-y", d.AmpY, "y amplitude")
	f.Float64Var(&phase, "phase", d.Phase, "phase offset in radians")
	f.Float64Var(&center, "center", d.CenterValue, "center value (single)")
	f.Float64Var(&positionX, "position-x", d.PositionX, "x offset (xy)")
	f.Float64Var(&positionY, "position-y", d.PositionY, "y offset (xy)")
}

// loadConfig layers the config file, the preset and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("strategy") || configFile == "" {
		cfg.Strategy = strategy
	}
	if preset != "" {
		p := config.GetPreset(cfg.Strategy, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Strategy))
		}
		cfg.Inputs = p.Inputs
	}

	if flags.Changed("time") {
		cfg.Host.Duration = duration
	}
	if flags.Changed("sample-rate") {
		cfg.Host.SampleRate = sampleRate
	}
	if flags.Changed("quantum") {
		cfg.Host.Quantum = quantum
	}
	if flags.Changed("backend") {
		cfg.Host.Backend = backend
	}
	if flags.Changed("instance") {
		cfg.TargetInstance = instance
	}
	if flags.Changed("scenario") {
		cfg.Scenario = scenario
	}
	if len(bindings) > 0 {
		if cfg.Bindings == nil {
			cfg.Bindings = make(map[string]string, len(bindings))
		}
		for ch, target := range bindings {
			cfg.Bindings[ch] = target
		}
	}

	for flag, name := range map[string]string{
		"freq-x":     params.FreqX,
		"freq-y":     params.FreqY,
		"amp-x":      params.AmpX,
		"amp-y":      params.AmpY,
		"phase":      params.Phase,
		"center":     params.CenterValue,
		"position-x": params.PositionX,
		"position-y": params.PositionY,
	} {
		if !flags.Changed(flag) {
			continue
		}
		v, err := flags.GetFloat64(flag)
		if err != nil {
			return nil, err
		}
		if err := cfg.Inputs.Set(name, v); err != nil {
			return nil, err
		}
	}

	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	if logFile != "" {
		cfg.Logger.LogFile = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func listParams(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	fmt.Printf("%-12s %8s %8s %8s\n", "NAME", "DEFAULT", "MIN", "MAX")
	for _, d := range params.Descriptors() {
		fmt.Printf("%-12s %8.3f %8.3f %8.3f\n", d.Name, d.Default, d.Min, d.Max)
	}
	fmt.Println()
	fmt.Println("channels: " + strings.Join([]string{
		"single: main",
		"xy: x, y",
		"quad: top_left, top_right, bottom_left, bottom_right",
	}, "; "))

	dir := session.Directory(cfg)
	fmt.Println()
	fmt.Println("target instances:")
	for _, id := range dir.Instances() {
		snap, err := dir.ListParameters(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("  %s: %s\n", id, strings.Join(snap.IDs(), ", "))
	}
	return nil
}
