package port

import (
	"errors"
	"sync"
	"testing"

	"github.com/san-kum/orbiter/internal/directory"
	"github.com/san-kum/orbiter/internal/modulation"
)

func TestRingFIFO(t *testing.T) {
	r := NewRing[int](4)
	for i := 0; i < 4; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	if r.Push(99) {
		t.Error("push into full ring should fail")
	}
	for i := 0; i < 4; i++ {
		v, ok := r.Pop()
		if !ok || v != i {
			t.Errorf("pop %d: got %d, %v", i, v, ok)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Error("pop from empty ring should fail")
	}
}

func TestRingCapacityRoundsUp(t *testing.T) {
	tests := []struct{ in, want int }{{0, 1}, {1, 1}, {3, 4}, {64, 64}, {100, 128}}
	for _, tt := range tests {
		if got := NewRing[int](tt.in).Cap(); got != tt.want {
			t.Errorf("NewRing(%d).Cap() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRingWrapAround(t *testing.T) {
	r := NewRing[int](2)
	for i := 0; i < 1000; i++ {
		r.Push(i)
		v, ok := r.Pop()
		if !ok || v != i {
			t.Fatalf("iteration %d: got %d, %v", i, v, ok)
		}
	}
	if r.Len() != 0 {
		t.Errorf("expected empty ring, len %d", r.Len())
	}
}

func TestRingConcurrentSPSC(t *testing.T) {
	const n = 100000
	r := NewRing[int](64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if r.Push(i) {
				i++
			}
		}
	}()

	next := 0
	for next < n {
		v, ok := r.Pop()
		if !ok {
			continue
		}
		if v != next {
			t.Fatalf("out of order: got %d, want %d", v, next)
		}
		next++
	}
	wg.Wait()
}

func TestPortStateMachine(t *testing.T) {
	p := New(Config{})
	if p.State() != Idle {
		t.Fatalf("new port should be idle, got %s", p.State())
	}

	if err := p.Controller().Send(SetTarget(modulation.TopLeft, "filterCutoff")); err != nil {
		t.Fatal(err)
	}
	if p.State() != MessagePending {
		t.Errorf("expected MessagePending, got %s", p.State())
	}

	msg, ok := p.Engine().Next()
	if !ok || msg.Kind != KindSetTarget || msg.Channel != modulation.TopLeft || msg.TargetID != "filterCutoff" {
		t.Errorf("unexpected message %+v", msg)
	}
	if p.State() != Idle {
		t.Errorf("expected Idle after drain, got %s", p.State())
	}
}

func TestSendQueueFull(t *testing.T) {
	p := New(Config{Inbound: 2})
	c := p.Controller()
	_ = c.Send(SetDefaultTarget("a"))
	_ = c.Send(SetDefaultTarget("b"))
	if err := c.Send(SetDefaultTarget("c")); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestSetAvailableParamsCopies(t *testing.T) {
	snap := directory.Snapshot{"cutoff": {Label: "Cutoff", Max: 1}}
	msg := SetAvailableParams(snap)
	snap["cutoff"] = directory.Descriptor{Label: "changed"}
	if msg.Params["cutoff"].Label != "Cutoff" {
		t.Error("message should own its snapshot")
	}
}

func TestReceiveOrderingAndDrops(t *testing.T) {
	p := New(Config{Telemetry: 2, Modulation: 4, Log: 4})
	e := p.Engine()

	for i := 0; i < 3; i++ {
		e.PostTelemetry(Telemetry{X: float64(i)})
	}
	e.PostModulation(ModulationValue{Value: 0.5})
	e.PostLog(Log{Event: LogStarted})

	if p.Dropped(KindTelemetry) != 1 {
		t.Errorf("expected 1 dropped telemetry, got %d", p.Dropped(KindTelemetry))
	}

	var kinds []OutboundKind
	var xs []float64
	n := p.Controller().Receive(func(m Outbound) {
		kinds = append(kinds, m.Kind)
		if m.Kind == KindTelemetry {
			xs = append(xs, m.Telemetry.X)
		}
	})
	if n != 4 {
		t.Fatalf("expected 4 messages, got %d", n)
	}
	want := []OutboundKind{KindLog, KindModulationValue, KindTelemetry, KindTelemetry}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("message %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
	if xs[0] != 0 || xs[1] != 1 {
		t.Errorf("telemetry not FIFO: %v", xs)
	}
}

func TestLogString(t *testing.T) {
	tests := []struct {
		log  Log
		want string
	}{
		{Log{Event: LogTargetSet, Channel: modulation.Main, TargetID: "cutoff"}, "target parameter for main set to: cutoff"},
		{Log{Event: LogParamsUpdated, Count: 3}, "available parameters updated: 3 params"},
		{Log{Event: LogDestroyed}, "engine destroyed"},
	}
	for _, tt := range tests {
		if got := tt.log.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEngineSideDoesNotAllocate(t *testing.T) {
	p := New(Config{})
	e := p.Engine()
	c := p.Controller()
	allocs := testing.AllocsPerRun(1000, func() {
		e.PostTelemetry(Telemetry{X: 1, Y: 2})
		e.PostModulation(ModulationValue{Value: 1})
		e.PostLog(Log{Event: LogBusRestored})
		_, _ = e.Next()
	})
	if allocs != 0 {
		t.Errorf("engine side allocated %.1f times", allocs)
	}
	c.Receive(func(Outbound) {})
}
