package config

import (
	"sort"

	"github.com/san-kum/aerosim/internal/segments"
)

var Presets = map[string]func() *Config{
	"regional": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "regional"
		cfg.Segments = []SegmentConfig{
			{Name: "climb", Kind: segments.ClimbConstantSpeedConstantRate, Params: map[string]float64{
				"altitude_start": 0, "altitude_end": 3000, "air_speed": 100, "climb_rate": 6,
			}},
			{Name: "cruise", Kind: segments.CruiseConstantSpeedConstantAltitude, Params: map[string]float64{
				"air_speed": 120, "distance": 250000,
			}},
			{Name: "descent", Kind: segments.DescentConstantSpeedConstantRate, Params: map[string]float64{
				"altitude_end": 500, "air_speed": 110, "descent_rate": 5,
			}},
		}
		return cfg
	},
	"electric_hop": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "electric_hop"
		cfg.Aircraft = "electric_trainer"
		cfg.Numerics.ControlPoints = 8
		cfg.Segments = []SegmentConfig{
			{Name: "climb", Kind: segments.ClimbConstantSpeedConstantRate, Params: map[string]float64{
				"altitude_start": 0, "altitude_end": 800, "air_speed": 40, "climb_rate": 3,
			}},
			{Name: "cruise", Kind: segments.CruiseConstantSpeedConstantAltitude, Params: map[string]float64{
				"distance": 30000,
			}},
		}
		return cfg
	},
	"trim": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "trim"
		cfg.Segments = []SegmentConfig{
			{Name: "trim", Kind: segments.SinglePoint, Params: map[string]float64{
				"altitude": 3000, "air_speed": 120,
			}},
		}
		return cfg
	},
	"acceleration": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "acceleration"
		cfg.Numerics.ControlPoints = 10
		cfg.Segments = []SegmentConfig{
			{Name: "accelerate", Kind: segments.CruiseConstantThrottleConstantAltitude, Params: map[string]float64{
				"altitude": 2000, "air_speed": 90, "throttle": 0.8, "duration": 120,
			}},
		}
		return cfg
	},
}

// GetPreset returns a fresh copy of a named mission, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
