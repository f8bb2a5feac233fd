package params

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownInput is returned when a control input name is not declared.
var ErrUnknownInput = errors.New("params: unknown control input")

const (
	FreqX       = "freqX"
	FreqY       = "freqY"
	AmpX        = "ampX"
	AmpY        = "ampY"
	Phase       = "phase"
	CenterValue = "centerValue"
	PositionX   = "positionX"
	PositionY   = "positionY"
	Destroyed   = "destroyed"
)

// Descriptor declares a control input's default and valid range.
type Descriptor struct {
	Name    string
	Default float64
	Min     float64
	Max     float64
}

var descriptors = []Descriptor{
	{Name: FreqX, Default: 1.0, Min: 0.1, Max: 10},
	{Name: FreqY, Default: 1.0, Min: 0.1, Max: 10},
	{Name: AmpX, Default: 0.5, Min: 0, Max: 1},
	{Name: AmpY, Default: 0.5, Min: 0, Max: 1},
	{Name: Phase, Default: 0, Min: 0, Max: 2 * math.Pi},
	{Name: CenterValue, Default: 0.5, Min: 0, Max: 1},
	{Name: PositionX, Default: 0.5, Min: 0, Max: 1},
	{Name: PositionY, Default: 0.5, Min: 0, Max: 1},
	{Name: Destroyed, Default: 0, Min: 0, Max: 1},
}

// Descriptors returns the static list of control inputs the engine accepts.
// The returned slice is a copy.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Lookup returns the descriptor for name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Inputs is the set of control values handed to the engine each cycle.
type Inputs struct {
	FreqX       float64 `yaml:"freq_x"`
	FreqY       float64 `yaml:"freq_y"`
	AmpX        float64 `yaml:"amp_x"`
	AmpY        float64 `yaml:"amp_y"`
	Phase       float64 `yaml:"phase"`
	CenterValue float64 `yaml:"center_value"`
	PositionX   float64 `yaml:"position_x"`
	PositionY   float64 `yaml:"position_y"`
	Destroyed   float64 `yaml:"-"`
}

func Defaults() Inputs {
	var in Inputs
	for _, d := range descriptors {
		*in.field(d.Name) = d.Default
	}
	return in
}

// Clamp returns a copy with every input forced into its declared range.
// NaN falls back to the declared default.
func (in Inputs) Clamp() Inputs {
	in.FreqX = clamp(in.FreqX, descriptors[0])
	in.FreqY = clamp(in.FreqY, descriptors[1])
	in.AmpX = clamp(in.AmpX, descriptors[2])
	in.AmpY = clamp(in.AmpY, descriptors[3])
	in.Phase = clamp(in.Phase, descriptors[4])
	in.CenterValue = clamp(in.CenterValue, descriptors[5])
	in.PositionX = clamp(in.PositionX, descriptors[6])
	in.PositionY = clamp(in.PositionY, descriptors[7])
	in.Destroyed = clamp(in.Destroyed, descriptors[8])
	return in
}

// IsDestroyed reports whether the destroyed flag is raised. Any non-zero
// value counts; NaN does not.
func (in Inputs) IsDestroyed() bool {
	if math.IsNaN(in.Destroyed) {
		return false
	}
	return in.Destroyed > 0
}

// Get returns the named input.
func (in Inputs) Get(name string) (float64, error) {
	p := in.field(name)
	if p == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownInput, name)
	}
	return *p, nil
}

// Set assigns the named input. The value is stored as given; range
// enforcement happens in Clamp.
func (in *Inputs) Set(name string, value float64) error {
	p := in.field(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownInput, name)
	}
	*p = value
	return nil
}

// Map returns the inputs keyed by descriptor name.
func (in Inputs) Map() map[string]float64 {
	m := make(map[string]float64, len(descriptors))
	for _, d := range descriptors {
		m[d.Name] = *in.field(d.Name)
	}
	return m
}

func (in *Inputs) field(name string) *float64 {
	switch name {
	case FreqX:
		return &in.FreqX
	case FreqY:
		return &in.FreqY
	case AmpX:
		return &in.AmpX
	case AmpY:
		return &in.AmpY
	case Phase:
		return &in.Phase
	case CenterValue:
		return &in.CenterValue
	case PositionX:
		return &in.PositionX
	case PositionY:
		return &in.PositionY
	case Destroyed:
		return &in.Destroyed
	}
	return nil
}

func clamp(v float64, d Descriptor) float64 {
	if math.IsNaN(v) {
		return d.Default
	}
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}
