package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/config"
	"github.com/san-kum/orbiter/internal/directory"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func singleConfig(duration float64) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Strategy = "single"
	cfg.Bindings = map[string]string{"main": "cutoff"}
	cfg.Host.Duration = duration
	return cfg
}

func TestNewSelectsInstance(t *testing.T) {
	cfg := singleConfig(1)
	cfg.TargetInstance = DemoInstance

	s, err := New(context.Background(), cfg, automation.NewRecorder(8), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"cutoff", "drive", "mix", "pan", "resonance"}, s.Snapshot.IDs())
	assert.Equal(t, DemoInstance, s.Controller.TargetInstance())
	assert.Equal(t, modulation.SingleAxis, s.Strategy.Kind())
	assert.Nil(t, s.Player)
}

func TestNewUsesConfiguredDirectory(t *testing.T) {
	cfg := singleConfig(1)
	cfg.Directory = map[string]directory.Snapshot{"fx": {"wet": {Min: 0, Max: 1}}}
	cfg.TargetInstance = DemoInstance

	_, err := New(context.Background(), cfg, nil, nil)
	assert.ErrorIs(t, err, directory.ErrUnknownInstance)
}

func TestDirectoryFallsBackToDemo(t *testing.T) {
	assert.Equal(t, []string{DemoInstance}, Directory(singleConfig(1)).Instances())

	cfg := singleConfig(1)
	cfg.Directory = map[string]directory.Snapshot{"fx": {"wet": {Min: 0, Max: 1}}}
	assert.Equal(t, []string{"fx"}, Directory(cfg).Instances())
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := singleConfig(1)
	cfg.Strategy = "hexagon"
	_, err := New(context.Background(), cfg, nil, nil)
	assert.ErrorIs(t, err, modulation.ErrUnknownStrategy)

	cfg = singleConfig(1)
	cfg.Bindings = map[string]string{"middle": "cutoff"}
	_, err = New(context.Background(), cfg, nil, nil)
	assert.ErrorIs(t, err, modulation.ErrUnknownChannel)
}

func TestRunHeadless(t *testing.T) {
	res, err := RunHeadless(context.Background(), singleConfig(0.5), nil)
	require.NoError(t, err)

	// 0.5s at 48kHz in quanta of 128 frames.
	assert.EqualValues(t, 188, res.Cycles)
	assert.Equal(t, 188, res.Events())
	assert.Len(t, res.Capture.Telemetry, 188)
	assert.Len(t, res.Capture.Readout, 188)
	assert.Zero(t, res.Overflow)
	assert.EqualValues(t, 188, res.Emitted)
	assert.Zero(t, res.Dropped)
	assert.Equal(t, float64(188), res.Metrics["emitted_events"])

	assert.Equal(t, "single", res.Meta.Strategy)
	assert.Equal(t, map[string]string{"main": "cutoff"}, res.Meta.Bindings)
	assert.Equal(t, res.EngineID, res.Meta.EngineID)
	for _, ev := range res.Capture.Events {
		assert.Equal(t, "cutoff", ev.TargetID)
		assert.True(t, ev.Normalized)
		assert.GreaterOrEqual(t, ev.Value, 0.0)
		assert.LessOrEqual(t, ev.Value, 1.0)
	}
}

func TestRunHeadlessIsReproducible(t *testing.T) {
	a, err := RunHeadless(context.Background(), singleConfig(0.2), nil)
	require.NoError(t, err)
	b, err := RunHeadless(context.Background(), singleConfig(0.2), nil)
	require.NoError(t, err)
	assert.Equal(t, a.Capture.Telemetry, b.Capture.Telemetry)
	assert.NotEqual(t, a.EngineID, b.EngineID)
}

func TestRunHeadlessScenarioDestroy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: stop
steps:
  - at: 0.1
    destroy: true
  - at: 0.05
    inputs:
      freqX: 3
`), 0644))

	cfg := singleConfig(1)
	cfg.Scenario = path
	res, err := RunHeadless(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 38, res.Cycles)
	assert.Equal(t, 38, res.Events())
	assert.Equal(t, 3.0, res.Meta.Inputs["freqX"])
	assert.Equal(t, 1.0, res.Meta.Inputs["destroyed"])
}

func TestRunHeadlessErrors(t *testing.T) {
	_, err := RunHeadless(context.Background(), singleConfig(0), nil)
	assert.ErrorIs(t, err, ErrNoDuration)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunHeadless(ctx, singleConfig(1), nil)
	assert.ErrorIs(t, err, context.Canceled)

	cfg := singleConfig(1)
	cfg.Host.SampleRate = 0
	_, err = RunHeadless(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "sample_rate must be positive")

	cfg = singleConfig(1)
	cfg.Bindings = map[string]string{"top_left": "cutoff"}
	_, err = New(context.Background(), cfg, nil, nil)
	assert.ErrorIs(t, err, modulation.ErrUnknownChannel)
}

func TestBatchValidatesEachConfig(t *testing.T) {
	bad := singleConfig(0.1)
	bad.Host.Quantum = 0
	_, err := NewBatch(1, nil).Run(context.Background(), []*config.Config{singleConfig(0.1), bad})
	assert.ErrorContains(t, err, "quantum must be positive")
}

func TestBatchKeepsOrder(t *testing.T) {
	var cfgs []*config.Config
	for _, strat := range []string{"quad", "single", "xy"} {
		cfg := singleConfig(0.1)
		cfg.Strategy = strat
		cfg.Bindings = nil
		cfgs = append(cfgs, cfg)
	}

	results, err := NewBatch(2, nil).Run(context.Background(), cfgs)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, modulation.QuadCorner, results[0].Strategy)
	assert.Equal(t, modulation.SingleAxis, results[1].Strategy)
	assert.Equal(t, modulation.PositionOffset, results[2].Strategy)
	for _, r := range results {
		assert.Zero(t, r.Events(), "nothing was bound")
	}
}

func TestBatchStopsOnError(t *testing.T) {
	cfgs := []*config.Config{singleConfig(0.1), singleConfig(0)}
	_, err := NewBatch(1, nil).Run(context.Background(), cfgs)
	assert.ErrorIs(t, err, ErrNoDuration)
}
