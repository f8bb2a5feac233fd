package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/directory"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/port"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrNoDirectory = errors.New("controller: no target directory configured")
	ErrDestroyed   = errors.New("controller: engine destroyed")
)

const DefaultPollInterval = 33 * time.Millisecond

// Listener receives engine output on the controller goroutine. It must not
// call back into Poll.
type Listener func(port.Outbound)

// Destroyer is the part of the engine the controller may touch directly.
type Destroyer interface {
	Destroy()
}

type subscription struct {
	id uint64
	fn Listener
}

// Controller is the non-real-time half of the engine. It sends routing
// directives, writes control inputs, and turns engine output into log lines,
// trail samples and listener callbacks.
type Controller struct {
	port    *port.Port
	inputs  *params.Atomic
	engine  Destroyer
	dir     directory.Directory
	limiter *rate.Limiter
	logger  *zap.Logger
	trail   *Trail
	poll    time.Duration

	mu        sync.Mutex
	subs      []subscription
	nextID    uint64
	readout   float64
	instance  string
	destroyed bool
	stats     Stats
}

// Stats counts what Poll has delivered.
type Stats struct {
	Telemetry  uint64
	Modulation uint64
	Logs       uint64
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithDirectory enables SetTargetInstance. Lookups are limited to perSecond,
// with the given burst.
func WithDirectory(dir directory.Directory, perSecond float64, burst int) Option {
	return func(c *Controller) {
		c.dir = dir
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithEngine(d Destroyer) Option {
	return func(c *Controller) { c.engine = d }
}

func WithTrailLength(n int) Option {
	return func(c *Controller) { c.trail = NewTrail(n) }
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) { c.poll = d }
}

func New(p *port.Port, inputs *params.Atomic, opts ...Option) *Controller {
	c := &Controller{
		port:   p,
		inputs: inputs,
		logger: zap.NewNop(),
		trail:  NewTrail(1),
		poll:   DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.poll <= 0 {
		c.poll = DefaultPollInterval
	}
	c.logger = c.logger.Named("controller")
	return c
}

func (c *Controller) send(msg port.Inbound) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}
	return c.port.Controller().Send(msg)
}

// SetTarget binds ch to a target parameter. An empty id clears the binding.
func (c *Controller) SetTarget(ch modulation.Channel, targetID string) error {
	if !ch.Valid() {
		return fmt.Errorf("%w: %d", modulation.ErrUnknownChannel, ch)
	}
	return c.send(port.SetTarget(ch, targetID))
}

// SetDefaultTarget binds the strategy's primary channel.
func (c *Controller) SetDefaultTarget(targetID string) error {
	return c.send(port.SetDefaultTarget(targetID))
}

func (c *Controller) ClearTarget(ch modulation.Channel) error {
	return c.SetTarget(ch, "")
}

// SetTargetInstance asks the directory for the parameters of instanceID and
// forwards a private copy to the engine. Lookups wait on the rate limiter.
func (c *Controller) SetTargetInstance(ctx context.Context, instanceID string) (directory.Snapshot, error) {
	if c.dir == nil {
		return nil, ErrNoDirectory
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	snap, err := c.dir.ListParameters(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("list parameters of %s: %w", instanceID, err)
	}
	if err := c.send(port.SetAvailableParams(snap)); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.instance = instanceID
	c.mu.Unlock()
	c.logger.Debug("target instance selected", zap.String("instance", instanceID), zap.Int("params", len(snap)))
	return snap.Clone(), nil
}

func (c *Controller) TargetInstance() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instance
}

// AttachBus hands the engine a new automation bus; nil detaches.
func (c *Controller) AttachBus(bus automation.Bus) error {
	return c.send(port.AttachBus(bus))
}

func (c *Controller) SetInput(name string, value float64) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}
	if name == params.Destroyed {
		return fmt.Errorf("%w: use Destroy", params.ErrUnknownInput)
	}
	return c.inputs.Set(name, value)
}

// SetInputs replaces every control input except the lifecycle flag.
func (c *Controller) SetInputs(in params.Inputs) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}
	return c.inputs.Update(func(cur *params.Inputs) error {
		in.Destroyed = cur.Destroyed
		*cur = in
		return nil
	})
}

func (c *Controller) Inputs() params.Inputs { return c.inputs.Load() }

// Subscribe registers fn for every outbound message. Listeners run in
// subscription order. The returned func removes fn and is safe to call twice.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscription{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Poll drains everything the engine has posted and returns the count.
func (c *Controller) Poll() int {
	c.mu.Lock()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	var st Stats
	var readout float64
	var haveReadout bool
	n := c.port.Controller().Receive(func(m port.Outbound) {
		switch m.Kind {
		case port.KindLog:
			st.Logs++
			c.logEngine(m.Log)
		case port.KindModulationValue:
			st.Modulation++
			readout, haveReadout = m.Modulation.Value, true
		case port.KindTelemetry:
			st.Telemetry++
			c.trail.Push(m.Telemetry)
		}
		for _, s := range subs {
			s.fn(m)
		}
	})

	c.mu.Lock()
	c.stats.Logs += st.Logs
	c.stats.Modulation += st.Modulation
	c.stats.Telemetry += st.Telemetry
	if haveReadout {
		c.readout = readout
	}
	c.mu.Unlock()
	return n
}

func (c *Controller) logEngine(l port.Log) {
	fields := []zap.Field{zap.Float64("t", l.Time)}
	switch l.Event {
	case port.LogTargetSet, port.LogTargetCleared:
		fields = append(fields, zap.Stringer("channel", l.Channel))
	}
	switch l.Event {
	case port.LogBusUnavailable, port.LogMalformed:
		c.logger.Warn(l.String(), fields...)
	default:
		c.logger.Info(l.String(), fields...)
	}
}

// Run polls until ctx is done, then drains once more.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Poll()
			return nil
		case <-ticker.C:
			c.Poll()
		}
	}
}

// Destroy raises the lifecycle flag on the input block and the engine, and
// drops every listener. Further directives fail with ErrDestroyed.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.subs = nil
	c.mu.Unlock()

	_ = c.inputs.Set(params.Destroyed, 1)
	if c.engine != nil {
		c.engine.Destroy()
	}
	c.logger.Info(port.Log{Event: port.LogDestroyed}.String())
}

func (c *Controller) isDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

func (c *Controller) Trail() *Trail { return c.trail }

// Readout is the most recent modulation value seen by Poll.
func (c *Controller) Readout() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readout
}

func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
