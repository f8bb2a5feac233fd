package port

import (
	"fmt"

	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/directory"
	"github.com/san-kum/orbiter/internal/modulation"
)

// InboundKind tags controller → engine messages.
type InboundKind uint8

const (
	KindSetTarget InboundKind = iota + 1
	KindSetAvailableParams
	KindAttachBus
)

// Inbound is a routing directive for the engine. Only the fields relevant to
// Kind are set. Everything it references is owned by the engine once sent.
type Inbound struct {
	Kind InboundKind

	// SetTarget. Without HasChannel the engine picks its default channel.
	Channel    modulation.Channel
	HasChannel bool
	TargetID   string

	// SetAvailableParams
	Params directory.Snapshot

	// AttachBus; nil detaches.
	Bus automation.Bus
}

func SetTarget(ch modulation.Channel, targetID string) Inbound {
	return Inbound{Kind: KindSetTarget, Channel: ch, HasChannel: true, TargetID: targetID}
}

// SetDefaultTarget binds the strategy's default channel.
func SetDefaultTarget(targetID string) Inbound {
	return Inbound{Kind: KindSetTarget, TargetID: targetID}
}

func SetAvailableParams(params directory.Snapshot) Inbound {
	return Inbound{Kind: KindSetAvailableParams, Params: params.Clone()}
}

func AttachBus(bus automation.Bus) Inbound {
	return Inbound{Kind: KindAttachBus, Bus: bus}
}

// Telemetry is the trajectory position in canvas coordinates.
type Telemetry struct {
	X, Y float64
	Time float64
}

// ModulationValue is the display readout of the current cycle.
type ModulationValue struct {
	Value float64
	Time  float64
}

// LogEvent enumerates what the engine reports. The engine sends structured
// log records so the real-time side never formats strings.
type LogEvent uint8

const (
	LogStarted LogEvent = iota + 1
	LogTargetSet
	LogTargetCleared
	LogParamsUpdated
	LogBusAttached
	LogBusDetached
	LogBusUnavailable
	LogBusRestored
	LogMalformed
	LogDestroyed
)

type Log struct {
	Event    LogEvent
	Channel  modulation.Channel
	TargetID string
	Count    int
	Time     float64
}

func (l Log) String() string {
	switch l.Event {
	case LogStarted:
		return "engine initialized"
	case LogTargetSet:
		return fmt.Sprintf("target parameter for %s set to: %s", l.Channel, l.TargetID)
	case LogTargetCleared:
		return fmt.Sprintf("target parameter for %s cleared", l.Channel)
	case LogParamsUpdated:
		return fmt.Sprintf("available parameters updated: %d params", l.Count)
	case LogBusAttached:
		return "automation bus attached"
	case LogBusDetached:
		return "automation bus detached"
	case LogBusUnavailable:
		return fmt.Sprintf("automation bus unavailable, dropping %d bound channels", l.Count)
	case LogBusRestored:
		return "automation bus available again"
	case LogMalformed:
		return fmt.Sprintf("ignored malformed message (kind %d)", l.Count)
	case LogDestroyed:
		return "engine destroyed"
	}
	return fmt.Sprintf("log event %d", l.Event)
}

// OutboundKind tags engine → controller messages delivered to listeners.
type OutboundKind uint8

const (
	KindTelemetry OutboundKind = iota + 1
	KindModulationValue
	KindLog
)

func (k OutboundKind) String() string {
	switch k {
	case KindTelemetry:
		return "telemetry"
	case KindModulationValue:
		return "modulationValue"
	case KindLog:
		return "log"
	}
	return fmt.Sprintf("outbound(%d)", uint8(k))
}

type Outbound struct {
	Kind       OutboundKind
	Telemetry  Telemetry
	Modulation ModulationValue
	Log        Log
}
