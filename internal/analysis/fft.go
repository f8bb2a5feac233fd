package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/san-kum/orbiter/internal/params"
)

var ErrTooShort = errors.New("analysis: series too short")

// Spectrum is a one-sided magnitude spectrum.
type Spectrum struct {
	Frequencies []float64
	Power       []float64
}

// PowerSpectrum removes the mean, applies a Hann window and returns the
// magnitudes of the positive-frequency bins.
func PowerSpectrum(data []float64, sampleRate float64) Spectrum {
	n := len(data)
	if n < 2 {
		return Spectrum{}
	}
	x := make([]float64, n)
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)
	for i, v := range data {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	bins := fft.FFTReal(x)
	half := n / 2
	s := Spectrum{
		Frequencies: make([]float64, half),
		Power:       make([]float64, half),
	}
	for i := 0; i < half; i++ {
		s.Frequencies[i] = float64(i) * sampleRate / float64(n)
		s.Power[i] = cmplx.Abs(bins[i])
	}
	return s
}

// DominantFrequency returns the frequency in Hz of the strongest bin above DC
// and its magnitude.
func DominantFrequency(data []float64, sampleRate float64) (float64, float64, error) {
	if len(data) < 4 {
		return 0, 0, ErrTooShort
	}
	s := PowerSpectrum(data, sampleRate)
	best := 1
	for i := 2; i < len(s.Power); i++ {
		if s.Power[i] > s.Power[best] {
			best = i
		}
	}
	return s.Frequencies[best], s.Power[best], nil
}

// SampleRate estimates the rate of a uniformly sampled time series.
func SampleRate(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	span := times[len(times)-1] - times[0]
	if span <= 0 {
		return 0
	}
	return float64(len(times)-1) / span
}

// ExpectedFrequencies converts the angular input frequencies to Hz.
func ExpectedFrequencies(in params.Inputs) (fx, fy float64) {
	in = in.Clamp()
	return in.FreqX / (2 * math.Pi), in.FreqY / (2 * math.Pi)
}

type Summary struct {
	Min, Max  float64
	Mean, RMS float64
	N         int
}

func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	s := Summary{Min: math.Inf(1), Max: math.Inf(-1), N: len(data)}
	sq := 0.0
	for _, v := range data {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		s.Mean += v
		sq += v * v
	}
	s.Mean /= float64(len(data))
	s.RMS = math.Sqrt(sq / float64(len(data)))
	return s
}
