package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/orbiter/internal/params"
)

func sine(n int, rate, hz float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.3 + math.Sin(2*math.Pi*hz*float64(i)/rate)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	const rate = 375.0
	got, power, err := DominantFrequency(sine(3000, rate, 2.5), rate)
	if err != nil {
		t.Fatal(err)
	}
	binWidth := rate / 3000
	if math.Abs(got-2.5) > binWidth {
		t.Errorf("expected ~2.5 Hz, got %f", got)
	}
	if power <= 0 {
		t.Error("expected positive power")
	}
}

func TestDominantFrequencyTooShort(t *testing.T) {
	if _, _, err := DominantFrequency([]float64{1, 2}, 10); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}

func TestPowerSpectrumRemovesDC(t *testing.T) {
	s := PowerSpectrum([]float64{5, 5, 5, 5, 5, 5, 5, 5}, 8)
	if len(s.Power) != 4 {
		t.Fatalf("expected 4 bins, got %d", len(s.Power))
	}
	for i, p := range s.Power {
		if p > 1e-9 {
			t.Errorf("bin %d should be empty, got %g", i, p)
		}
	}
	if s.Frequencies[1] != 1 {
		t.Errorf("expected 1 Hz bin spacing, got %f", s.Frequencies[1])
	}
}

func TestSampleRate(t *testing.T) {
	times := []float64{0, 0.01, 0.02, 0.03}
	if r := SampleRate(times); math.Abs(r-100) > 1e-9 {
		t.Errorf("expected 100, got %f", r)
	}
	if SampleRate([]float64{1}) != 0 {
		t.Error("single sample has no rate")
	}
}

func TestExpectedFrequencies(t *testing.T) {
	in := params.Defaults()
	in.FreqX = 2 * math.Pi
	in.FreqY = 50
	fx, fy := ExpectedFrequencies(in)
	if math.Abs(fx-1) > 1e-12 {
		t.Errorf("expected 1 Hz, got %f", fx)
	}
	if math.Abs(fy-10/(2*math.Pi)) > 1e-12 {
		t.Errorf("freq y should be clamped to 10, got %f Hz", fy)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{-1, 1, 3})
	if s.Min != -1 || s.Max != 3 || s.Mean != 1 || s.N != 3 {
		t.Errorf("unexpected summary %+v", s)
	}
	if math.Abs(s.RMS-math.Sqrt(11.0/3)) > 1e-12 {
		t.Errorf("unexpected rms %f", s.RMS)
	}
	if Summarize(nil).N != 0 {
		t.Error("empty series")
	}
}
