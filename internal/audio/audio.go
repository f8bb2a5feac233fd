// Package audio runs the engine from a real PortAudio output callback, so
// cycles are paced by the sound card the way a browser audio graph paces them.
package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/san-kum/orbiter/internal/engine"
	"github.com/san-kum/orbiter/internal/host"
	"github.com/san-kum/orbiter/internal/params"
	"go.uber.org/zap"
)

const (
	SampleRate = 48000
	BufferSize = 128
)

// Host opens an output-only stream and calls Process once per buffer. It
// writes silence: the engine produces automation, not samples.
type Host struct {
	proc   host.Processor
	inputs *params.Atomic
	clock  host.Clock
	logger *zap.Logger

	stream   *portaudio.Stream
	cycles   atomic.Uint64
	finished atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

func NewHost(proc host.Processor, inputs *params.Atomic, sampleRate, bufferSize int, logger *zap.Logger) *Host {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	if bufferSize <= 0 {
		bufferSize = BufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		proc:   proc,
		inputs: inputs,
		clock:  host.Clock{SampleRate: sampleRate, Quantum: bufferSize},
		logger: logger.Named("audio"),
		done:   make(chan struct{}),
	}
}

func (h *Host) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	// Output only: duplex streams often fail on Linux when devices differ.
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(h.clock.SampleRate), h.clock.Quantum, h.callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start stream: %w", err)
	}
	h.stream = stream
	h.logger.Info("audio host started",
		zap.Int("sample_rate", h.clock.SampleRate),
		zap.Int("buffer", h.clock.Quantum))
	return nil
}

func (h *Host) Stop() error {
	if h.stream == nil {
		return nil
	}
	err := h.stream.Stop()
	if cerr := h.stream.Close(); err == nil {
		err = cerr
	}
	h.stream = nil
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	h.logger.Info("audio host stopped", zap.Uint64("cycles", h.cycles.Load()))
	return err
}

func (h *Host) callback(out [][]float32) {
	for _, ch := range out {
		for i := range ch {
			ch[i] = 0
		}
	}
	if h.finished.Load() {
		return
	}
	now := h.clock.Step()
	if !h.proc.Process(engine.Cycle{Now: now, Inputs: h.inputs.Load()}) {
		h.finished.Store(true)
		h.doneOnce.Do(func() { close(h.done) })
		return
	}
	h.cycles.Add(1)
}

// Run starts the stream and blocks until duration seconds pass (zero means
// no limit), the engine completes, or ctx is done.
func (h *Host) Run(ctx context.Context, duration float64) error {
	if err := h.Start(); err != nil {
		return err
	}
	defer h.Stop()

	var timeout <-chan time.Time
	if duration > 0 {
		t := time.NewTimer(time.Duration(duration * float64(time.Second)))
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return host.ErrCompleted
	case <-timeout:
		return nil
	}
}

func (h *Host) Done() <-chan struct{} { return h.done }

func (h *Host) Cycles() uint64 { return h.cycles.Load() }
