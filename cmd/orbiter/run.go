package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/orbiter/internal/audio"
	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/config"
	"github.com/san-kum/orbiter/internal/host"
	"github.com/san-kum/orbiter/internal/observability"
	"github.com/san-kum/orbiter/internal/session"
	"github.com/san-kum/orbiter/internal/storage"
	"github.com/san-kum/orbiter/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	observability.InitializeLogger(cfg.Logger)
	logger := observability.GetLogger()
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s engine for %.2fs...\n", cfg.Strategy, cfg.Host.Duration)
	start := time.Now()

	res, err := session.RunHeadless(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("cycles: %d\n", res.Cycles)
	fmt.Printf("events: %d\n", res.Events())
	printMetrics(res.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(res.Meta, res.Capture)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

// runSweep runs every preset of the strategy side by side and compares
// their metrics.
func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	observability.InitializeLogger(base.Logger)
	logger := observability.GetLogger()
	defer logger.Sync()

	names := config.ListPresets(base.Strategy)
	if len(names) == 0 {
		return fmt.Errorf("no presets for strategy: %s", base.Strategy)
	}
	cfgs := make([]*config.Config, len(names))
	for i, name := range names {
		c := *base
		c.Inputs = config.GetPreset(base.Strategy, name).Inputs
		cfgs[i] = &c
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := session.NewBatch(workers, logger).Run(ctx, cfgs)
	if err != nil {
		return err
	}

	metricNames := make([]string, 0)
	for name := range results[0].Metrics {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "PRESET\tCYCLES\tEVENTS")
	for _, m := range metricNames {
		fmt.Fprintf(w, "\t%s", m)
	}
	fmt.Fprintln(w)
	for i, res := range results {
		fmt.Fprintf(w, "%s\t%d\t%d", names[i], res.Cycles, res.Events())
		for _, m := range metricNames {
			fmt.Fprintf(w, "\t%.4f", res.Metrics[m])
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	for i, res := range results {
		id, err := st.Save(res.Meta, res.Capture)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", names[i], id)
	}
	return nil
}

// runLive runs the host in real time next to the controller's poll loop and
// the terminal observer. Quitting the observer stops everything.
func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("time") {
		cfg.Host.Duration = 0
	}
	// The alt screen owns the terminal, so console logs go nowhere.
	observability.Initialize(cfg.Logger, zapcore.AddSync(io.Discard))
	logger := observability.GetLogger()
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	gate := automation.NewGate(automation.BusFunc(func(automation.Event) {}), true)
	s, err := session.New(ctx, cfg, gate, logger)
	if err != nil {
		return err
	}

	model := viz.NewModel(s.Controller, viz.Options{
		Strategy: s.Strategy,
		Canvas:   cfg.Canvas(),
		Targets:  s.Snapshot.IDs(),
		Bindings: s.Engine.Bindings(),
		Theme:    theme,
		FPS:      frameRate,
		Gate:     gate,
	})
	g, gctx := errgroup.WithContext(ctx)
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
	s.Controller.Subscribe(viz.Forward(prog))

	type runner interface {
		Run(ctx context.Context, duration float64) error
	}
	var h runner
	switch cfg.Host.Backend {
	case "portaudio":
		h = audio.NewHost(s.Engine, s.Inputs, cfg.Host.SampleRate, cfg.Host.Quantum, logger)
	default:
		h = host.NewVirtual(s.Engine, s.Inputs,
			host.WithSampleRate(cfg.Host.SampleRate, cfg.Host.Quantum),
			host.WithRealtime(true),
			host.WithLogger(logger))
	}

	g.Go(func() error {
		err := h.Run(gctx, cfg.Host.Duration)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err == nil || errors.Is(err, host.ErrCompleted) {
			prog.Send(viz.DoneMsg{})
			return nil
		}
		return err
	})
	g.Go(func() error {
		return s.Controller.Run(gctx)
	})
	if s.Player != nil {
		g.Go(func() error {
			err := s.Player.Run(gctx, s.Controller, cfg.Controller.PollInterval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		_, err := prog.Run()
		cancel()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	printMetrics(s.Metrics.Values())
	return nil
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, values[name])
	}
}
