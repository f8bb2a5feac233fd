package config

import (
	"math"
	"sort"

	"github.com/san-kum/orbiter/internal/params"
)

// Presets are well-known Lissajous figures, grouped by strategy.
var Presets = map[string]map[string]*Config{
	"single": {
		"slow":   preset("single", 0.5, 1, 0.4, 0.5, 0),
		"wobble": preset("single", 6, 1, 0.2, 0.5, 0),
	},
	"xy": {
		"circle":  preset("xy", 1, 1, 0.8, 0.8, math.Pi/2),
		"figure8": preset("xy", 1, 2, 0.8, 0.8, 0),
	},
	"quad": {
		"circle":  preset("quad", 1, 1, 0.8, 0.8, math.Pi/2),
		"figure8": preset("quad", 1, 2, 0.8, 0.8, 0),
		"pretzel": preset("quad", 3, 2, 0.9, 0.9, math.Pi/2),
		"knot":    preset("quad", 5, 4, 0.9, 0.9, math.Pi/4),
		"demo":    preset("quad", 1, 1, 0.5, 0.5, 0),
	},
}

func preset(strategy string, fx, fy, ax, ay, phase float64) *Config {
	in := params.Defaults()
	in.FreqX, in.FreqY = fx, fy
	in.AmpX, in.AmpY = ax, ay
	in.Phase = phase
	return &Config{Strategy: strategy, Inputs: in}
}

// GetPreset returns a full config built from the named preset, or nil.
func GetPreset(strategy, name string) *Config {
	group, ok := Presets[strategy]
	if !ok {
		return nil
	}
	p, ok := group[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Strategy = p.Strategy
	cfg.Inputs = p.Inputs
	return cfg
}

func ListPresets(strategy string) []string {
	group, ok := Presets[strategy]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
