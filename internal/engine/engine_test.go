package engine_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/directory"
	"github.com/san-kum/orbiter/internal/engine"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/port"
	"github.com/san-kum/orbiter/internal/routing"
)

type collected struct {
	telemetry  []port.Telemetry
	modulation []port.ModulationValue
	logs       []port.Log
}

func drain(p *port.Port) collected {
	var c collected
	p.Controller().Receive(func(m port.Outbound) {
		switch m.Kind {
		case port.KindTelemetry:
			c.telemetry = append(c.telemetry, m.Telemetry)
		case port.KindModulationValue:
			c.modulation = append(c.modulation, m.Modulation)
		case port.KindLog:
			c.logs = append(c.logs, m.Log)
		}
	})
	return c
}

func strategy(kind modulation.Kind) modulation.Strategy {
	s, err := modulation.New(kind, modulation.DefaultCanvas())
	Expect(err).NotTo(HaveOccurred())
	return s
}

type countingObserver struct {
	cycles  int
	wrapped int
	emitted int
}

func (o *countingObserver) OnCycle(r *engine.Report) {
	o.cycles++
	o.emitted += r.Emitted
	if r.Wrapped {
		o.wrapped++
	}
}

var _ = Describe("Engine", func() {
	var (
		p   *port.Port
		rec *automation.Recorder
		in  params.Inputs
	)

	BeforeEach(func() {
		p = port.New(port.DefaultConfig())
		rec = automation.NewRecorder(64)
		in = params.Defaults()
	})

	It("announces itself on construction", func() {
		eng := engine.New(strategy(modulation.SingleAxis), rec, p, engine.WithID("unit-1"))
		Expect(eng.ID()).To(Equal("unit-1"))

		out := drain(p)
		Expect(out.logs).To(HaveLen(1))
		Expect(out.logs[0].Event).To(Equal(port.LogStarted))
	})

	It("generates an instance id when none is given", func() {
		a := engine.New(strategy(modulation.SingleAxis), rec, p)
		b := engine.New(strategy(modulation.SingleAxis), rec, p)
		Expect(a.ID()).NotTo(BeEmpty())
		Expect(a.ID()).NotTo(Equal(b.ID()))
	})

	Context("single axis", func() {
		It("emits center plus amplitude times x as a normalized event", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p)
			Expect(p.Controller().Send(port.SetDefaultTarget("cutoff"))).To(Succeed())

			in.CenterValue = 0.5
			in.AmpX = 0.8
			in.Phase = math.Asin(0.4)
			Expect(eng.Process(engine.Cycle{Now: 0, Inputs: in})).To(BeTrue())

			Expect(rec.Events()).To(HaveLen(1))
			ev := rec.Events()[0]
			Expect(ev.TargetID).To(Equal("cutoff"))
			Expect(ev.Value).To(BeNumerically("~", 0.82, 1e-9))
			Expect(ev.Normalized).To(BeTrue())

			out := drain(p)
			Expect(out.modulation).To(HaveLen(1))
			Expect(out.modulation[0].Value).To(BeNumerically("~", 0.32, 1e-9))
		})

		It("clamps the emitted value into the unit range", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p,
				engine.WithBindings(routing.Bindings{modulation.Main: "gain"}))

			in.CenterValue = 1
			in.AmpX = 1
			in.Phase = math.Pi / 2
			eng.Process(engine.Cycle{Now: 0, Inputs: in})

			Expect(rec.Events()).To(HaveLen(1))
			Expect(rec.Events()[0].Value).To(Equal(1.0))
		})
	})

	Context("routing", func() {
		It("applies a rebind on the cycle after it was sent", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p,
				engine.WithBindings(routing.Bindings{modulation.Main: "cutoff"}))

			eng.Process(engine.Cycle{Now: 0.01, Inputs: in})
			Expect(p.Controller().Send(port.SetDefaultTarget("resonance"))).To(Succeed())
			Expect(p.State()).To(Equal(port.MessagePending))
			eng.Process(engine.Cycle{Now: 0.02, Inputs: in})
			Expect(p.State()).To(Equal(port.Idle))

			events := rec.Events()
			Expect(events).To(HaveLen(2))
			Expect(events[0].TargetID).To(Equal("cutoff"))
			Expect(events[1].TargetID).To(Equal("resonance"))
			Expect(eng.Bindings()[modulation.Main]).To(Equal("resonance"))
		})

		It("keeps emitting telemetry with nothing bound", func() {
			eng := engine.New(strategy(modulation.QuadCorner), rec, p)
			drain(p)

			for i := 1; i <= 5; i++ {
				Expect(eng.Process(engine.Cycle{Now: float64(i) * 0.01, Inputs: in})).To(BeTrue())
			}

			Expect(rec.Events()).To(BeEmpty())
			out := drain(p)
			Expect(out.telemetry).To(HaveLen(5))
			Expect(out.modulation).To(BeEmpty())
		})

		It("emits only the bound quad corners", func() {
			eng := engine.New(strategy(modulation.QuadCorner), rec, p)
			c := p.Controller()
			Expect(c.Send(port.SetTarget(modulation.TopLeft, "cutoff"))).To(Succeed())
			Expect(c.Send(port.SetTarget(modulation.BottomRight, "drive"))).To(Succeed())

			eng.Process(engine.Cycle{Now: 0.01, Inputs: in})

			byTarget := rec.ByTarget()
			Expect(byTarget).To(HaveLen(2))
			Expect(byTarget).To(HaveKey("cutoff"))
			Expect(byTarget).To(HaveKey("drive"))
		})

		It("binds the first corner when no channel is named", func() {
			eng := engine.New(strategy(modulation.QuadCorner), rec, p)
			Expect(p.Controller().Send(port.SetDefaultTarget("cutoff"))).To(Succeed())
			eng.Process(engine.Cycle{Now: 0.01, Inputs: in})
			Expect(eng.Bindings()[modulation.TopLeft]).To(Equal("cutoff"))
		})

		It("logs binding changes and clears", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p)
			drain(p)
			c := p.Controller()
			Expect(c.Send(port.SetDefaultTarget("cutoff"))).To(Succeed())
			Expect(c.Send(port.SetDefaultTarget("cutoff"))).To(Succeed())
			Expect(c.Send(port.SetDefaultTarget(""))).To(Succeed())
			eng.Process(engine.Cycle{Now: 0.01, Inputs: in})

			out := drain(p)
			Expect(out.logs).To(HaveLen(2))
			Expect(out.logs[0].String()).To(Equal("target parameter for main set to: cutoff"))
			Expect(out.logs[1].Event).To(Equal(port.LogTargetCleared))
		})

		It("reports malformed directives and keeps running", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p)
			drain(p)
			Expect(p.Controller().Send(port.Inbound{Kind: port.KindSetTarget, HasChannel: true, Channel: 99, TargetID: "x"})).To(Succeed())
			Expect(p.Controller().Send(port.Inbound{Kind: 42})).To(Succeed())

			Expect(eng.Process(engine.Cycle{Now: 0.01, Inputs: in})).To(BeTrue())
			out := drain(p)
			Expect(out.logs).To(HaveLen(2))
			for _, l := range out.logs {
				Expect(l.Event).To(Equal(port.LogMalformed))
			}
			Expect(eng.Bindings().Count()).To(BeZero())
		})

		It("rejects a channel the strategy never fills", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p)
			drain(p)
			Expect(p.Controller().Send(port.SetTarget(modulation.TopLeft, "x"))).To(Succeed())

			eng.Process(engine.Cycle{Now: 0.01, Inputs: in})
			out := drain(p)
			Expect(out.logs).To(HaveLen(1))
			Expect(out.logs[0].Event).To(Equal(port.LogMalformed))
			Expect(eng.Bindings()[modulation.TopLeft]).To(BeEmpty())
			Expect(rec.Events()).To(BeEmpty())
		})

		It("stores the available parameter snapshot", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p)
			snap := directory.Snapshot{
				"cutoff":    {Label: "Cutoff", Max: 1},
				"resonance": {Label: "Resonance", Max: 1},
			}
			Expect(p.Controller().Send(port.SetAvailableParams(snap))).To(Succeed())
			eng.Process(engine.Cycle{Now: 0.01, Inputs: in})
			Expect(eng.AvailableParams().IDs()).To(ConsistOf("cutoff", "resonance"))
		})
	})

	Context("lifecycle", func() {
		It("stops all output once destroyed mid-run", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p,
				engine.WithBindings(routing.Bindings{modulation.Main: "cutoff"}))

			Expect(eng.Process(engine.Cycle{Now: 0.01, Inputs: in})).To(BeTrue())
			drain(p)
			before := len(rec.Events())

			in.Destroyed = 1
			Expect(eng.Process(engine.Cycle{Now: 0.02, Inputs: in})).To(BeFalse())

			in.Destroyed = 0
			Expect(eng.Process(engine.Cycle{Now: 0.03, Inputs: in})).To(BeFalse())

			Expect(rec.Events()).To(HaveLen(before))
			out := drain(p)
			Expect(out.telemetry).To(BeEmpty())
			Expect(out.modulation).To(BeEmpty())
			Expect(eng.Destroyed()).To(BeTrue())
		})

		It("stops on the first fractional destroyed value", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p,
				engine.WithBindings(routing.Bindings{modulation.Main: "cutoff"}))
			Expect(eng.Process(engine.Cycle{Now: 0.1, Inputs: in})).To(BeTrue())
			before := len(rec.Events())

			in.Destroyed = 0.3
			Expect(eng.Process(engine.Cycle{Now: 0.2, Inputs: in})).To(BeFalse())
			Expect(rec.Events()).To(HaveLen(before))
			Expect(eng.Destroyed()).To(BeTrue())
		})

		It("honours Destroy from another goroutine", func() {
			eng := engine.New(strategy(modulation.SingleAxis), rec, p)
			done := make(chan struct{})
			go func() {
				defer close(done)
				eng.Destroy()
			}()
			Eventually(done).Should(BeClosed())
			Expect(eng.Process(engine.Cycle{Now: 0.01, Inputs: in})).To(BeFalse())
		})
	})

	Context("automation bus", func() {
		It("keeps the trajectory running while the bus is unavailable", func() {
			gate := automation.NewGate(rec, false)
			eng := engine.New(strategy(modulation.SingleAxis), gate, p,
				engine.WithBindings(routing.Bindings{modulation.Main: "cutoff"}))
			drain(p)

			eng.Process(engine.Cycle{Now: 0.01, Inputs: in})
			eng.Process(engine.Cycle{Now: 0.02, Inputs: in})
			Expect(rec.Events()).To(BeEmpty())
			Expect(eng.Emitter().Dropped()).To(BeEquivalentTo(2))

			out := drain(p)
			Expect(out.telemetry).To(HaveLen(2))
			Expect(out.logs).To(HaveLen(1))
			Expect(out.logs[0].Event).To(Equal(port.LogBusUnavailable))

			gate.SetReady(true)
			eng.Process(engine.Cycle{Now: 0.03, Inputs: in})
			Expect(rec.Events()).To(HaveLen(1))
			out = drain(p)
			Expect(out.logs).To(HaveLen(1))
			Expect(out.logs[0].Event).To(Equal(port.LogBusRestored))
		})

		It("accepts a bus attached through the port", func() {
			eng := engine.New(strategy(modulation.SingleAxis), nil, p,
				engine.WithBindings(routing.Bindings{modulation.Main: "cutoff"}))
			eng.Process(engine.Cycle{Now: 0.01, Inputs: in})
			Expect(rec.Events()).To(BeEmpty())

			Expect(p.Controller().Send(port.AttachBus(rec))).To(Succeed())
			eng.Process(engine.Cycle{Now: 0.02, Inputs: in})
			Expect(rec.Events()).To(HaveLen(1))
		})
	})

	Context("observers", func() {
		It("sees every cycle and counts phase wraps", func() {
			obs := &countingObserver{}
			eng := engine.New(strategy(modulation.SingleAxis), rec, p,
				engine.WithObserver(obs),
				engine.WithWrapThreshold(1),
				engine.WithBindings(routing.Bindings{modulation.Main: "cutoff"}))

			for i := 1; i <= 10; i++ {
				eng.Process(engine.Cycle{Now: float64(i) * 0.25, Inputs: in})
			}
			Expect(obs.cycles).To(Equal(10))
			Expect(obs.emitted).To(Equal(10))
			Expect(obs.wrapped).To(BeNumerically(">=", 2))
			Expect(eng.Cycles()).To(BeEquivalentTo(10))
		})
	})
})
