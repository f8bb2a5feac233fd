// Package engine runs one modulation cycle per host rendering quantum.
//
// Each call to [Engine.Process]:
//
//   - checks the lifecycle guard and returns false once the engine is destroyed
//   - drains and applies pending routing directives from the [port.Port]
//   - clamps the control inputs and advances the [trajectory.Trajectory]
//   - derives channel values with the configured [modulation.Strategy]
//   - emits one automation event per bound channel
//   - posts a telemetry sample and the modulation readout
//
// # Example
//
//	p := port.New(port.DefaultConfig())
//	strat, _ := modulation.New(modulation.QuadCorner, modulation.DefaultCanvas())
//	eng := engine.New(strat, bus, p)
//	p.Controller().Send(port.SetTarget(modulation.TopLeft, "cutoff"))
//	eng.Process(engine.Cycle{Now: 0.003, Inputs: params.Defaults()})
//
// # Thread Safety
//
// Process must be called from a single goroutine (the host's real-time
// context). It never blocks, locks or allocates. The only other method that
// may be called concurrently is [Engine.Destroy]. Everything else talks to
// the engine through the port.
package engine
