// Package config reads mission files and turns them into missions.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/aerosim/internal/numerics"
	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/vehicle"
)

const (
	DefaultAircraft      = "regional_turboprop"
	DefaultControlPoints = segment.DefaultControlPoints
	DefaultTolerance     = segment.DefaultTolerance
	DefaultStepSize      = segment.DefaultStepSize
)

type Config struct {
	Name          string           `yaml:"name" validate:"required"`
	Aircraft      string           `yaml:"aircraft,omitempty"`
	Vehicle       *vehicle.Vehicle `yaml:"vehicle,omitempty"`
	HaltOnFailure bool             `yaml:"halt_on_failure"`
	Numerics      NumericsConfig   `yaml:"numerics"`
	Solver        SolverConfig     `yaml:"solver"`
	Segments      []SegmentConfig  `yaml:"segments" validate:"required,min=1,dive"`
}

type NumericsConfig struct {
	ControlPoints  int    `yaml:"control_points" validate:"gte=1"`
	Discretization string `yaml:"discretization" validate:"oneof=chebyshev linear"`
}

type SolverConfig struct {
	Tolerance      float64 `yaml:"tolerance" validate:"gt=0"`
	MaxEvaluations int     `yaml:"max_evaluations" validate:"gte=0"`
	StepSize       float64 `yaml:"step_size" validate:"gt=0"`
}

// SegmentConfig describes one segment. A zero ControlPoints inherits the
// mission numerics.
type SegmentConfig struct {
	Name          string             `yaml:"name" validate:"required"`
	Kind          string             `yaml:"kind" validate:"required"`
	ControlPoints int                `yaml:"control_points,omitempty" validate:"gte=0"`
	Params        map[string]float64 `yaml:"params,omitempty"`
	Controls      segment.Controls   `yaml:"controls,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "mission",
		Aircraft: DefaultAircraft,
		Numerics: NumericsConfig{
			ControlPoints:  DefaultControlPoints,
			Discretization: string(numerics.Chebyshev),
		},
		Solver: SolverConfig{
			Tolerance: DefaultTolerance,
			StepSize:  DefaultStepSize,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a mission file over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse mission file: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the vehicle resolves.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid mission %q: %w", c.Name, err)
	}
	if _, err := c.ResolveVehicle(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Segments))
	for _, s := range c.Segments {
		if seen[s.Name] {
			return fmt.Errorf("invalid mission %q: duplicate segment %q", c.Name, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

var errNoVehicle = errors.New("no vehicle: set aircraft or vehicle")

// ResolveVehicle returns the inline vehicle, or a fresh copy of the
// named aircraft.
func (c *Config) ResolveVehicle() (*vehicle.Vehicle, error) {
	if c.Vehicle != nil {
		if err := validate.Struct(c.Vehicle); err != nil {
			return nil, fmt.Errorf("invalid vehicle: %w", err)
		}
		return c.Vehicle, nil
	}
	if c.Aircraft == "" {
		return nil, errNoVehicle
	}
	v, ok := vehicle.Preset(c.Aircraft)
	if !ok {
		return nil, fmt.Errorf("unknown aircraft: %s", c.Aircraft)
	}
	return v, nil
}

// Clone deep-copies the config through its YAML form.
func (c *Config) Clone() (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// SetParam sets a parameter on the named segment.
func (c *Config) SetParam(segmentName, param string, value float64) error {
	for i := range c.Segments {
		if c.Segments[i].Name != segmentName {
			continue
		}
		if c.Segments[i].Params == nil {
			c.Segments[i].Params = make(map[string]float64)
		}
		c.Segments[i].Params[param] = value
		return nil
	}
	return fmt.Errorf("mission %q has no segment %q", c.Name, segmentName)
}
