package params

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestDefaults(t *testing.T) {
	in := Defaults()
	if in.FreqX != 1.0 || in.FreqY != 1.0 {
		t.Errorf("expected unit frequencies, got %v/%v", in.FreqX, in.FreqY)
	}
	if in.AmpX != 0.5 || in.CenterValue != 0.5 {
		t.Errorf("unexpected defaults: %+v", in)
	}
	if in.IsDestroyed() {
		t.Error("defaults should not be destroyed")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		in    Inputs
		check func(Inputs) bool
	}{
		{"freq below min", Inputs{FreqX: 0}, func(o Inputs) bool { return o.FreqX == 0.1 }},
		{"freq above max", Inputs{FreqY: 50}, func(o Inputs) bool { return o.FreqY == 10 }},
		{"negative amp", Inputs{AmpX: -1}, func(o Inputs) bool { return o.AmpX == 0 }},
		{"phase above 2pi", Inputs{Phase: 7}, func(o Inputs) bool { return o.Phase == 2*math.Pi }},
		{"nan center", Inputs{CenterValue: math.NaN()}, func(o Inputs) bool { return o.CenterValue == 0.5 }},
		{"destroyed above 1", Inputs{Destroyed: 3}, func(o Inputs) bool { return o.Destroyed == 1 }},
		{"in range untouched", Inputs{FreqX: 2, AmpY: 0.8}, func(o Inputs) bool { return o.FreqX == 2 && o.AmpY == 0.8 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp(); !tt.check(got) {
				t.Errorf("Clamp() = %+v", got)
			}
		})
	}
}

func TestIsDestroyed(t *testing.T) {
	tests := []struct {
		value float64
		want  bool
	}{
		{0, false},
		{math.NaN(), false},
		{-0.2, false},
		{0.01, true},
		{0.3, true},
		{1, true},
	}

	for _, tt := range tests {
		if got := (Inputs{Destroyed: tt.value}).IsDestroyed(); got != tt.want {
			t.Errorf("IsDestroyed(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestSetGet(t *testing.T) {
	in := Defaults()
	if err := in.Set(FreqX, 3); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, err := in.Get(FreqX)
	if err != nil || v != 3 {
		t.Errorf("expected 3, got %v (%v)", v, err)
	}

	if err := in.Set("bogus", 1); !errors.Is(err, ErrUnknownInput) {
		t.Errorf("expected ErrUnknownInput, got %v", err)
	}
}

func TestDescriptorsCopy(t *testing.T) {
	ds := Descriptors()
	if len(ds) != 9 {
		t.Fatalf("expected 9 descriptors, got %d", len(ds))
	}
	ds[0].Max = 999
	if d, _ := Lookup(FreqX); d.Max != 10 {
		t.Error("Descriptors should return a copy")
	}
	for _, d := range ds {
		if d.Default < d.Min || d.Default > d.Max {
			t.Errorf("%s default outside range", d.Name)
		}
	}
}

func TestAtomicConcurrentSet(t *testing.T) {
	a := NewAtomic(Defaults())

	var wg sync.WaitGroup
	names := []string{FreqX, FreqY, AmpX, AmpY}
	for i, name := range names {
		wg.Add(1)
		go func(name string, v float64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = a.Set(name, v)
			}
		}(name, float64(i+2)/10)
	}
	wg.Wait()

	in := a.Load()
	if in.FreqX != 0.2 || in.FreqY != 0.3 || in.AmpX != 0.4 || in.AmpY != 0.5 {
		t.Errorf("lost update: %+v", in)
	}

	if err := a.Set("nope", 1); !errors.Is(err, ErrUnknownInput) {
		t.Errorf("expected ErrUnknownInput, got %v", err)
	}
}

func TestAtomicUpdate(t *testing.T) {
	a := NewAtomic(Defaults())
	if err := a.Update(func(in *Inputs) error {
		in.FreqX, in.FreqY = 3, 4
		return nil
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if in := a.Load(); in.FreqX != 3 || in.FreqY != 4 {
		t.Errorf("update not published: %+v", in)
	}

	boom := errors.New("boom")
	err := a.Update(func(in *Inputs) error {
		in.FreqX = 9
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if a.Load().FreqX != 3 {
		t.Error("failed update must not be published")
	}
}
