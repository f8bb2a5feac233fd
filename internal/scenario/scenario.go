package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/san-kum/orbiter/internal/directory"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted timeline of control changes.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step fires once host time reaches At seconds.
type Step struct {
	At       float64            `yaml:"at"`
	Label    string             `yaml:"label,omitempty"`
	Inputs   map[string]float64 `yaml:"inputs,omitempty"`
	Bind     map[string]string  `yaml:"bind,omitempty"`
	Instance string             `yaml:"instance,omitempty"`
	Destroy  bool               `yaml:"destroy,omitempty"`
}

// Target is what a scenario drives. The controller satisfies it.
type Target interface {
	SetInput(name string, value float64) error
	SetTarget(ch modulation.Channel, targetID string) error
	SetTargetInstance(ctx context.Context, instanceID string) (directory.Snapshot, error)
	Destroy()
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario, ordering steps by time.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].At < s.Steps[j].At })
	return &s, nil
}

func (s *Scenario) Validate() error {
	var errs []error
	for i, step := range s.Steps {
		if step.At < 0 {
			errs = append(errs, fmt.Errorf("step %d: negative time %g", i+1, step.At))
		}
		for name := range step.Inputs {
			if name == params.Destroyed {
				errs = append(errs, fmt.Errorf("step %d: use destroy instead of the %s input", i+1, name))
				continue
			}
			if _, ok := params.Lookup(name); !ok {
				errs = append(errs, fmt.Errorf("step %d: %w: %s", i+1, params.ErrUnknownInput, name))
			}
		}
		for ch := range step.Bind {
			if _, err := modulation.ParseChannel(ch); err != nil {
				errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Duration is the time of the last step.
func (s *Scenario) Duration() float64 {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].At
}

// Player walks a scenario forward as time advances.
type Player struct {
	s      *Scenario
	next   int
	logger *zap.Logger
}

func NewPlayer(s *Scenario, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{s: s, logger: logger.Named("scenario")}
}

// Advance applies every step due at now and returns how many ran. It stops
// at the first step that fails; that step is not retried.
func (p *Player) Advance(ctx context.Context, now float64, t Target) (int, error) {
	applied := 0
	for p.next < len(p.s.Steps) && p.s.Steps[p.next].At <= now {
		step := p.s.Steps[p.next]
		p.next++
		if err := apply(ctx, step, t); err != nil {
			return applied, fmt.Errorf("step %d at %gs: %w", p.next, step.At, err)
		}
		applied++
		p.logger.Debug("step applied", zap.Int("step", p.next), zap.Float64("at", step.At), zap.String("label", step.Label))
	}
	return applied, nil
}

func apply(ctx context.Context, step Step, t Target) error {
	if step.Instance != "" {
		if _, err := t.SetTargetInstance(ctx, step.Instance); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(step.Inputs) {
		if err := t.SetInput(name, step.Inputs[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(step.Bind) {
		ch, err := modulation.ParseChannel(name)
		if err != nil {
			return err
		}
		if err := t.SetTarget(ch, step.Bind[name]); err != nil {
			return err
		}
	}
	if step.Destroy {
		t.Destroy()
	}
	return nil
}

func (p *Player) Done() bool { return p.next >= len(p.s.Steps) }

func (p *Player) Reset() { p.next = 0 }

// Run plays the scenario against wall-clock time, checking every interval.
func (p *Player) Run(ctx context.Context, t Target, interval time.Duration) error {
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for !p.Done() {
		if _, err := p.Advance(ctx, time.Since(start).Seconds(), t); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
