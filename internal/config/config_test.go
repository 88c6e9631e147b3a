package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/aerosim/internal/segments"
	"github.com/san-kum/aerosim/internal/vehicle"
)

const regionalYAML = `
name: short_hop
aircraft: regional_turboprop
numerics:
  control_points: 6
solver:
  max_evaluations: 400
segments:
  - name: climb
    kind: climb_constant_speed_constant_rate
    params:
      altitude_end: 1500
      air_speed: 100
      climb_rate: 5
  - name: cruise
    kind: cruise_constant_speed_constant_altitude
    control_points: 4
    params:
      air_speed: 115
      distance: 40000
    controls:
      throttle:
        initial_guess: [0.4]
`

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultAircraft, cfg.Aircraft)
	assert.Equal(t, DefaultControlPoints, cfg.Numerics.ControlPoints)
	assert.Equal(t, "chebyshev", cfg.Numerics.Discretization)
	assert.Positive(t, cfg.Solver.Tolerance)
	assert.Error(t, cfg.Validate(), "a mission without segments is invalid")
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(regionalYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "short_hop", cfg.Name)
	assert.Equal(t, 6, cfg.Numerics.ControlPoints)
	assert.Equal(t, "chebyshev", cfg.Numerics.Discretization)
	assert.Equal(t, 400, cfg.Solver.MaxEvaluations)
	assert.Equal(t, DefaultTolerance, cfg.Solver.Tolerance)
	require.Len(t, cfg.Segments, 2)
	assert.Equal(t, []float64{0.4}, cfg.Segments[1].Controls.Throttle.InitialGuess)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mission.yaml")
	want := GetPreset("electric_hop")
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing name", func(c *Config) { c.Name = "" }},
		{"bad discretization", func(c *Config) { c.Numerics.Discretization = "gauss" }},
		{"zero control points", func(c *Config) { c.Numerics.ControlPoints = 0 }},
		{"negative budget", func(c *Config) { c.Solver.MaxEvaluations = -1 }},
		{"unknown aircraft", func(c *Config) { c.Aircraft = "glider" }},
		{"no vehicle", func(c *Config) { c.Aircraft = "" }},
		{"segment without kind", func(c *Config) { c.Segments[0].Kind = "" }},
		{"duplicate segment", func(c *Config) { c.Segments[1].Name = c.Segments[0].Name }},
		{"invalid inline vehicle", func(c *Config) {
			v := vehicle.Turboprop()
			v.ReferenceArea = 0
			c.Vehicle = v
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetPreset("regional")
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestInlineVehicleWins(t *testing.T) {
	cfg := GetPreset("trim")
	cfg.Aircraft = ""
	cfg.Vehicle = vehicle.ElectricTrainer()
	v, err := cfg.ResolveVehicle()
	require.NoError(t, err)
	assert.Same(t, cfg.Vehicle, v)
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	require.NotEmpty(t, names)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			require.NotNil(t, cfg)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, name, cfg.Name)
		})
	}
	assert.Nil(t, GetPreset("nonexistent"))

	a, b := GetPreset("regional"), GetPreset("regional")
	a.Segments[0].Params["air_speed"] = 1
	assert.Equal(t, 100.0, b.Segments[0].Params["air_speed"])
}

func TestBuild(t *testing.T) {
	cfg, err := Parse([]byte(regionalYAML))
	require.NoError(t, err)
	cache := vehicle.NewCache()

	m, err := Build(cfg, Options{Cache: cache})
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	climb, err := m.Segment("climb")
	require.NoError(t, err)
	assert.Equal(t, segments.ClimbConstantSpeedConstantRate, climb.Kind)
	assert.Equal(t, 6, climb.Settings.Numerics.ControlPoints)
	assert.Same(t, cache, climb.Settings.Cache)

	cruise, err := m.Segment("cruise")
	require.NoError(t, err)
	assert.Equal(t, 4, cruise.Settings.Numerics.ControlPoints)
	assert.Equal(t, 400, cruise.Settings.Solver.MaxEvaluations)

	res, err := m.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Converged(), res.String())
	assert.Equal(t, 1, cache.Builds())
}

func TestBuildUnknownKind(t *testing.T) {
	cfg := GetPreset("trim")
	cfg.Segments[0].Kind = "loiter"
	_, err := Build(cfg, Options{})
	assert.ErrorContains(t, err, "unknown segment type: loiter")
}

func TestEnv(t *testing.T) {
	t.Setenv("AEROSIM_DATA_DIR", "/tmp/runs")
	t.Setenv("AEROSIM_MAX_EVALUATIONS", "50")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/runs", e.DataDir)
	assert.Equal(t, "info", e.LogLevel)
	assert.Equal(t, 4, e.Workers)

	cfg := DefaultConfig()
	e.Apply(cfg)
	assert.Equal(t, 50, cfg.Solver.MaxEvaluations)

	t.Setenv("AEROSIM_WORKERS", "many")
	_, err = LoadEnv()
	assert.Error(t, err)
}

func TestCloneAndSetParam(t *testing.T) {
	cfg := GetPreset("regional")
	c, err := cfg.Clone()
	require.NoError(t, err)
	require.NoError(t, c.SetParam("cruise", "air_speed", 140))

	assert.Equal(t, 140.0, c.Segments[1].Params["air_speed"])
	assert.Equal(t, 120.0, cfg.Segments[1].Params["air_speed"])
	assert.Error(t, c.SetParam("loiter", "duration", 600))
}
