// Package session assembles an engine with its port, controller, metrics and
// optional scenario from a config, and runs it headless.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/config"
	"github.com/san-kum/orbiter/internal/controller"
	"github.com/san-kum/orbiter/internal/directory"
	"github.com/san-kum/orbiter/internal/engine"
	"github.com/san-kum/orbiter/internal/host"
	"github.com/san-kum/orbiter/internal/metrics"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/port"
	"github.com/san-kum/orbiter/internal/scenario"
	"github.com/san-kum/orbiter/internal/storage"
	"go.uber.org/zap"
)

const DemoInstance = "synth-1"

var ErrNoDuration = errors.New("session: headless runs need a positive duration")

// DemoDirectory stands in for a host that exposes no parameter directory.
func DemoDirectory() map[string]directory.Snapshot {
	return map[string]directory.Snapshot{
		DemoInstance: {
			"cutoff":    {Label: "Filter Cutoff", Min: 20, Max: 20000, Default: 1000},
			"resonance": {Label: "Resonance", Min: 0, Max: 1, Default: 0.2},
			"drive":     {Label: "Drive", Min: 0, Max: 1, Default: 0},
			"pan":       {Label: "Pan", Min: -1, Max: 1, Default: 0},
			"mix":       {Label: "Dry/Wet", Min: 0, Max: 1, Default: 0.5},
		},
	}
}

// Directory serves the config's target instances, or the demo instance when
// the config declares none.
func Directory(cfg *config.Config) *directory.Static {
	dir := directory.NewStatic(cfg.Directory)
	if len(cfg.Directory) == 0 {
		for id, snap := range DemoDirectory() {
			dir.Register(id, snap)
		}
	}
	return dir
}

// Session is one engine wired to its controller.
type Session struct {
	Config     *config.Config
	Strategy   modulation.Strategy
	Engine     *engine.Engine
	Inputs     *params.Atomic
	Controller *controller.Controller
	Metrics    *metrics.Set
	// Snapshot holds the target instance's parameters, if one was selected.
	Snapshot directory.Snapshot
	Player   *scenario.Player

	logger *zap.Logger
}

// New builds a session whose engine emits on bus. When the config names a
// target instance its parameters are requested before New returns.
func New(ctx context.Context, cfg *config.Config, bus automation.Bus, logger *zap.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	kind, err := cfg.StrategyKind()
	if err != nil {
		return nil, err
	}
	strat, err := modulation.New(kind, cfg.Canvas())
	if err != nil {
		return nil, err
	}
	b, err := cfg.RoutingBindings()
	if err != nil {
		return nil, err
	}

	s := &Session{
		Config:   cfg,
		Strategy: strat,
		Inputs:   params.NewAtomic(cfg.Inputs),
		Metrics:  metrics.Default(),
		logger:   logger,
	}

	p := port.New(cfg.Port)
	s.Engine = engine.New(strat, bus, p,
		engine.WithWrapThreshold(cfg.Engine.WrapThreshold),
		engine.WithCanvas(cfg.Canvas()),
		engine.WithBindings(b),
		engine.WithObserver(s.Metrics),
	)

	s.Controller = controller.New(p, s.Inputs,
		controller.WithLogger(logger),
		controller.WithEngine(s.Engine),
		controller.WithDirectory(Directory(cfg), cfg.Controller.DirectoryRate, cfg.Controller.DirectoryBurst),
		controller.WithTrailLength(cfg.Controller.TrailLength),
		controller.WithPollInterval(cfg.Controller.PollInterval),
	)

	if cfg.TargetInstance != "" {
		if s.Snapshot, err = s.Controller.SetTargetInstance(ctx, cfg.TargetInstance); err != nil {
			return nil, err
		}
	}

	if cfg.Scenario != "" {
		sc, err := scenario.LoadScenario(cfg.Scenario)
		if err != nil {
			return nil, err
		}
		s.Player = scenario.NewPlayer(sc, logger)
		if cfg.Host.Duration > 0 && sc.Duration() > cfg.Host.Duration {
			logger.Warn("scenario runs past the host duration",
				zap.String("scenario", sc.Name),
				zap.Float64("scenario_duration", sc.Duration()),
				zap.Float64("duration", cfg.Host.Duration))
		}
	}

	logger.Info("engine ready",
		zap.String("engine", s.Engine.ID()),
		zap.Stringer("strategy", kind),
		zap.Int("bound", b.Count()),
		zap.String("instance", cfg.TargetInstance))
	return s, nil
}

// Result is what a headless run produced.
type Result struct {
	EngineID string
	Strategy modulation.Kind
	Cycles   uint64
	Duration float64
	Metrics  map[string]float64
	Capture  *storage.Capture
	// Emitted counts events handed to the bus; Dropped counts cycles lost to
	// an unavailable bus.
	Emitted  uint64
	Dropped  uint64
	Overflow int
	Meta     storage.RunMetadata
}

// RunHeadless drives a fresh session on the virtual clock as fast as
// possible. Engine, controller and scenario share the calling goroutine, so
// the same config always produces the same capture.
func RunHeadless(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Result, error) {
	if cfg.Host.Duration <= 0 {
		return nil, ErrNoDuration
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cycles := int(cfg.Host.Duration/cfg.QuantumSeconds()) + 1
	rec := automation.NewRecorder(cycles * 4)

	s, err := New(ctx, cfg, rec, logger)
	if err != nil {
		return nil, err
	}
	capture := storage.NewCapture()
	s.Controller.Subscribe(capture.Observe)

	h := host.NewVirtual(s.Engine, s.Inputs,
		host.WithSampleRate(cfg.Host.SampleRate, cfg.Host.Quantum),
		host.WithLogger(logger))

	for h.Now() < cfg.Host.Duration {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Player != nil {
			if _, err := s.Player.Advance(ctx, h.Now(), s.Controller); err != nil {
				return nil, fmt.Errorf("scenario: %w", err)
			}
		}
		if !h.Step() {
			break
		}
		s.Controller.Poll()
	}
	s.Controller.Poll()

	capture.AddEvents(rec.Events())
	if n := rec.Overflow(); n > 0 {
		logger.Warn("automation recorder overflowed", zap.Int("dropped", n))
	}

	res := &Result{
		EngineID: s.Engine.ID(),
		Strategy: s.Strategy.Kind(),
		Cycles:   h.Cycles(),
		Duration: h.Now(),
		Metrics:  s.Metrics.Values(),
		Capture:  capture,
		Emitted:  s.Engine.Emitter().Emitted(),
		Dropped:  s.Engine.Emitter().Dropped(),
		Overflow: rec.Overflow(),
	}
	logger.Debug("headless run finished",
		zap.String("engine", res.EngineID),
		zap.Uint64("cycles", res.Cycles),
		zap.Uint64("emitted", res.Emitted),
		zap.Uint64("dropped", res.Dropped))
	res.Meta = storage.RunMetadata{
		EngineID:   res.EngineID,
		Strategy:   res.Strategy.String(),
		SampleRate: cfg.Host.SampleRate,
		Quantum:    cfg.Host.Quantum,
		Duration:   res.Duration,
		Canvas:     cfg.Canvas(),
		Cycles:     res.Cycles,
		Inputs:     s.Inputs.Load().Map(),
		Bindings:   s.Engine.Bindings().Map(),
		Metrics:    res.Metrics,
	}
	return res, nil
}

// Events is the number of automation events the run recorded.
func (r *Result) Events() int { return len(r.Capture.Events) }
