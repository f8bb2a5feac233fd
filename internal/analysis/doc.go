// Package analysis inspects captured modulation output.
//
//   - [PowerSpectrum]: windowed magnitude spectrum of a uniformly sampled series
//   - [DominantFrequency]: strongest non-DC component of a series
//   - [ExpectedFrequencies]: the per-axis frequencies a set of inputs should produce
//   - [Summarize]: range, mean and RMS of a series
//
// # Checking a capture
//
// A headless run samples the trajectory once per quantum, so the telemetry
// series can be checked against the inputs that produced it:
//
//	rate := analysis.SampleRate(times)
//	got, _ := analysis.DominantFrequency(xs, rate)
//	want, _ := analysis.ExpectedFrequencies(inputs)
package analysis
