package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/san-kum/orbiter/internal/directory"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/port"
	"github.com/san-kum/orbiter/internal/routing"
	"github.com/san-kum/orbiter/internal/trajectory"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStrategy      = "quad"
	DefaultSampleRate    = 48000
	DefaultQuantum       = 128
	DefaultDuration      = 10.0
	DefaultPollInterval  = 33 * time.Millisecond
	DefaultTrailLength   = 64
	DefaultDirectoryRate = 5.0
)

type Config struct {
	Strategy       string                        `yaml:"strategy"`
	Engine         EngineConfig                  `yaml:"engine"`
	Port           port.Config                   `yaml:"port"`
	Host           HostConfig                    `yaml:"host"`
	Controller     ControllerConfig              `yaml:"controller"`
	Inputs         params.Inputs                 `yaml:"inputs"`
	Bindings       map[string]string             `yaml:"bindings,omitempty"`
	TargetInstance string                        `yaml:"target_instance,omitempty"`
	Directory      map[string]directory.Snapshot `yaml:"directory,omitempty"`
	Scenario       string                        `yaml:"scenario,omitempty"`
	Logger         LoggerConfig                  `yaml:"logger"`
}

type EngineConfig struct {
	WrapThreshold float64 `yaml:"wrap_threshold"`
	CanvasWidth   float64 `yaml:"canvas_width"`
	CanvasHeight  float64 `yaml:"canvas_height"`
}

// HostConfig describes the stand-in for the host audio graph.
type HostConfig struct {
	Backend    string  `yaml:"backend"`
	SampleRate int     `yaml:"sample_rate"`
	Quantum    int     `yaml:"quantum"`
	Duration   float64 `yaml:"duration"`
	Realtime   bool    `yaml:"realtime"`
}

type ControllerConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	TrailLength    int           `yaml:"trail_length"`
	DirectoryRate  float64       `yaml:"directory_rate"`
	DirectoryBurst int           `yaml:"directory_burst"`
}

type LoggerConfig struct {
	Level       string      `yaml:"level"`
	Format      string      `yaml:"format"`
	ServiceName string      `yaml:"service_name"`
	AddSource   bool        `yaml:"add_source"`
	LogFile     string      `yaml:"log_file,omitempty"`
	MaxSize     int         `yaml:"max_size"`
	MaxBackups  int         `yaml:"max_backups"`
	MaxAge      int         `yaml:"max_age"`
	Compress    bool        `yaml:"compress"`
	Colors      ColorConfig `yaml:"colors"`
}

type ColorConfig struct {
	Debug  string `yaml:"debug"`
	Info   string `yaml:"info"`
	Warn   string `yaml:"warn"`
	Error  string `yaml:"error"`
	DPanic string `yaml:"dpanic"`
	Panic  string `yaml:"panic"`
	Fatal  string `yaml:"fatal"`
}

func DefaultConfig() *Config {
	canvas := modulation.DefaultCanvas()
	return &Config{
		Strategy: DefaultStrategy,
		Engine: EngineConfig{
			WrapThreshold: trajectory.DefaultWrapThreshold,
			CanvasWidth:   canvas.Width,
			CanvasHeight:  canvas.Height,
		},
		Port: port.DefaultConfig(),
		Host: HostConfig{
			Backend:    "virtual",
			SampleRate: DefaultSampleRate,
			Quantum:    DefaultQuantum,
			Duration:   DefaultDuration,
		},
		Controller: ControllerConfig{
			PollInterval:   DefaultPollInterval,
			TrailLength:    DefaultTrailLength,
			DirectoryRate:  DefaultDirectoryRate,
			DirectoryBurst: 1,
		},
		Inputs: params.Defaults(),
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "orbiter",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      28,
			Colors: ColorConfig{
				Debug: "cyan", Info: "green", Warn: "yellow",
				Error: "red", DPanic: "magenta", Panic: "magenta", Fatal: "magenta",
			},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) StrategyKind() (modulation.Kind, error) {
	return modulation.ParseKind(c.Strategy)
}

func (c *Config) Canvas() modulation.Canvas {
	return modulation.Canvas{Width: c.Engine.CanvasWidth, Height: c.Engine.CanvasHeight}
}

func (c *Config) RoutingBindings() (routing.Bindings, error) {
	return routing.FromMap(c.Bindings)
}

// QuantumSeconds is the wall time covered by one rendering quantum.
func (c *Config) QuantumSeconds() float64 {
	if c.Host.SampleRate <= 0 || c.Host.Quantum <= 0 {
		return float64(DefaultQuantum) / DefaultSampleRate
	}
	return float64(c.Host.Quantum) / float64(c.Host.SampleRate)
}

func (c *Config) Validate() error {
	kind, err := c.StrategyKind()
	if err != nil {
		return err
	}
	b, err := c.RoutingBindings()
	if err != nil {
		return err
	}
	strat, err := modulation.New(kind, c.Canvas())
	if err != nil {
		return err
	}
	for i, target := range b {
		ch := modulation.Channel(i)
		if target != "" && !slices.Contains(strat.Channels(), ch) {
			return fmt.Errorf("config: %s strategy has no %s channel: %w", kind, ch, modulation.ErrUnknownChannel)
		}
	}
	if c.Host.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %d", c.Host.SampleRate)
	}
	if c.Host.Quantum <= 0 {
		return fmt.Errorf("config: quantum must be positive, got %d", c.Host.Quantum)
	}
	if c.Host.Duration < 0 {
		return fmt.Errorf("config: duration must not be negative, got %g", c.Host.Duration)
	}
	switch c.Host.Backend {
	case "", "virtual", "portaudio":
	default:
		return fmt.Errorf("config: unknown host backend %q", c.Host.Backend)
	}
	return nil
}
