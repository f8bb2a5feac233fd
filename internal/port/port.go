package port

import (
	"errors"
	"sync"
	"sync/atomic"
)

var ErrQueueFull = errors.New("port: inbound queue full")

const (
	DefaultInboundCapacity    = 64
	DefaultTelemetryCapacity  = 256
	DefaultModulationCapacity = 256
	DefaultLogCapacity        = 64
)

// State of the inbound direction.
type State uint8

const (
	Idle State = iota
	MessagePending
)

func (s State) String() string {
	if s == MessagePending {
		return "MessagePending"
	}
	return "Idle"
}

type Config struct {
	Inbound    int `yaml:"inbound"`
	Telemetry  int `yaml:"telemetry"`
	Modulation int `yaml:"modulation"`
	Log        int `yaml:"log"`
}

func DefaultConfig() Config {
	return Config{
		Inbound:    DefaultInboundCapacity,
		Telemetry:  DefaultTelemetryCapacity,
		Modulation: DefaultModulationCapacity,
		Log:        DefaultLogCapacity,
	}
}

// Port is the only path between the real-time engine and the controller.
// Each direction and each outbound kind has its own ring, so delivery is
// FIFO within a kind and unordered across kinds.
//
// The engine side never locks. The controller side serializes its own
// producers and consumers with mutexes the engine never touches.
type Port struct {
	inbound    *Ring[Inbound]
	telemetry  *Ring[Telemetry]
	modulation *Ring[ModulationValue]
	logs       *Ring[Log]

	dropped [3]atomic.Uint64

	sendMu sync.Mutex
	recvMu sync.Mutex
}

func New(cfg Config) *Port {
	def := DefaultConfig()
	if cfg.Inbound <= 0 {
		cfg.Inbound = def.Inbound
	}
	if cfg.Telemetry <= 0 {
		cfg.Telemetry = def.Telemetry
	}
	if cfg.Modulation <= 0 {
		cfg.Modulation = def.Modulation
	}
	if cfg.Log <= 0 {
		cfg.Log = def.Log
	}
	return &Port{
		inbound:    NewRing[Inbound](cfg.Inbound),
		telemetry:  NewRing[Telemetry](cfg.Telemetry),
		modulation: NewRing[ModulationValue](cfg.Modulation),
		logs:       NewRing[Log](cfg.Log),
	}
}

// State reports whether a directive is waiting to be applied.
func (p *Port) State() State {
	if p.inbound.Len() > 0 {
		return MessagePending
	}
	return Idle
}

// Dropped returns how many outbound messages of kind were lost to a full ring.
func (p *Port) Dropped(kind OutboundKind) uint64 {
	i := int(kind) - 1
	if i < 0 || i >= len(p.dropped) {
		return 0
	}
	return p.dropped[i].Load()
}

func (p *Port) Engine() EngineSide         { return EngineSide{p: p} }
func (p *Port) Controller() ControllerSide { return ControllerSide{p: p} }

// EngineSide is the real-time view: it consumes directives and produces
// telemetry. None of its methods block or allocate.
type EngineSide struct {
	p *Port
}

// Next pops the oldest pending directive.
func (e EngineSide) Next() (Inbound, bool) {
	return e.p.inbound.Pop()
}

// InboundCapacity bounds how many directives one drain may apply.
func (e EngineSide) InboundCapacity() int {
	return e.p.inbound.Cap()
}

func (e EngineSide) PostTelemetry(t Telemetry) bool {
	if e.p.telemetry.Push(t) {
		return true
	}
	e.p.dropped[KindTelemetry-1].Add(1)
	return false
}

func (e EngineSide) PostModulation(m ModulationValue) bool {
	if e.p.modulation.Push(m) {
		return true
	}
	e.p.dropped[KindModulationValue-1].Add(1)
	return false
}

func (e EngineSide) PostLog(l Log) bool {
	if e.p.logs.Push(l) {
		return true
	}
	e.p.dropped[KindLog-1].Add(1)
	return false
}

// ControllerSide is the non-real-time view.
type ControllerSide struct {
	p *Port
}

// Send enqueues a directive without blocking. The engine applies it at the
// start of its next cycle.
func (c ControllerSide) Send(msg Inbound) error {
	c.p.sendMu.Lock()
	defer c.p.sendMu.Unlock()
	if !c.p.inbound.Push(msg) {
		return ErrQueueFull
	}
	return nil
}

// Receive drains every outbound ring and hands each message to fn. Logs are
// delivered first, then modulation values, then telemetry.
func (c ControllerSide) Receive(fn func(Outbound)) int {
	c.p.recvMu.Lock()
	defer c.p.recvMu.Unlock()

	n := 0
	for {
		l, ok := c.p.logs.Pop()
		if !ok {
			break
		}
		fn(Outbound{Kind: KindLog, Log: l})
		n++
	}
	for {
		m, ok := c.p.modulation.Pop()
		if !ok {
			break
		}
		fn(Outbound{Kind: KindModulationValue, Modulation: m})
		n++
	}
	for {
		t, ok := c.p.telemetry.Pop()
		if !ok {
			break
		}
		fn(Outbound{Kind: KindTelemetry, Telemetry: t})
		n++
	}
	return n
}

func (c ControllerSide) State() State { return c.p.State() }
