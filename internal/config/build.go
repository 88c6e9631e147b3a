package config

import (
	"log/slog"

	"github.com/san-kum/aerosim/internal/mission"
	"github.com/san-kum/aerosim/internal/numerics"
	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/segments"
	"github.com/san-kum/aerosim/internal/solve"
	"github.com/san-kum/aerosim/internal/vehicle"
)

// Options carries the collaborators Build injects into every segment.
type Options struct {
	Registry *segments.Registry
	Cache    *vehicle.Cache
	Logger   *slog.Logger
}

// Build validates cfg and assembles its mission. Every call builds fresh
// segments.
func Build(cfg *Config, opts Options) (*mission.Mission, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v, err := cfg.ResolveVehicle()
	if err != nil {
		return nil, err
	}
	reg := opts.Registry
	if reg == nil {
		reg = segments.NewRegistry()
	}

	m := mission.New(cfg.Name)
	m.HaltOnFailure = cfg.HaltOnFailure
	for _, sc := range cfg.Segments {
		s, err := reg.Build(sc.Kind, sc.Name, v, cfg.settings(sc, opts))
		if err != nil {
			return nil, err
		}
		if err := m.Append(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (c *Config) settings(sc SegmentConfig, opts Options) *segment.Settings {
	st := segment.DefaultSettings()
	st.Numerics.ControlPoints = c.Numerics.ControlPoints
	if sc.ControlPoints > 0 {
		st.Numerics.ControlPoints = sc.ControlPoints
	}
	st.Numerics.Discretization = numerics.Kind(c.Numerics.Discretization)
	st.Solver = solve.Options{
		Tolerance:      c.Solver.Tolerance,
		MaxEvaluations: c.Solver.MaxEvaluations,
		StepSize:       c.Solver.StepSize,
	}
	for k, v := range sc.Params {
		st.SetParam(k, v)
	}
	st.Controls = sc.Controls
	st.Cache = opts.Cache
	if opts.Logger != nil {
		st.Logger = opts.Logger.With("mission", c.Name)
	}
	return st
}
