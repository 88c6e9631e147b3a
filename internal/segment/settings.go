package segment

import (
	"context"
	"log/slog"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/numerics"
	"github.com/san-kum/aerosim/internal/process"
	"github.com/san-kum/aerosim/internal/solve"
	"github.com/san-kum/aerosim/internal/state"
	"github.com/san-kum/aerosim/internal/vehicle"
)

const (
	DefaultControlPoints = 16
	DefaultTolerance     = 1e-8
	DefaultStepSize      = 1e-7
)

type NumericsSettings struct {
	ControlPoints  int           `yaml:"control_points"`
	Discretization numerics.Kind `yaml:"discretization"`
}

// Settings is the per-segment configuration steps read. Params holds the
// user-supplied segment values (altitude_start, air_speed, ...); a value
// that is absent is taken from the previous segment where possible.
type Settings struct {
	Numerics NumericsSettings
	Solver   solve.Options
	Params   map[string]float64
	Flight   Flight
	Controls Controls

	// Cache is shared explicitly by segments that reuse derived data.
	Cache  *vehicle.Cache
	Logger *slog.Logger
}

func DefaultSettings() *Settings {
	return &Settings{
		Numerics: NumericsSettings{
			ControlPoints:  DefaultControlPoints,
			Discretization: numerics.Chebyshev,
		},
		Solver: solve.Options{
			Tolerance: DefaultTolerance,
			StepSize:  DefaultStepSize,
		},
		Params: make(map[string]float64),
		Logger: slog.Default(),
	}
}

func (s *Settings) Param(name string) (float64, bool) {
	v, ok := s.Params[name]
	return v, ok
}

func (s *Settings) SetParam(name string, v float64) {
	if s.Params == nil {
		s.Params = make(map[string]float64)
	}
	s.Params[name] = v
}

func (s *Settings) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Require returns a parameter or a ConfigurationError naming it.
func (s *Settings) Require(segment, name string) (float64, error) {
	v, ok := s.Params[name]
	if !ok {
		return 0, &dynamo.ConfigurationError{Segment: segment, Reason: "missing parameter " + name}
	}
	return v, nil
}

// Frame is the (State, Settings, System) triple threaded through every
// Step of a segment.
type Frame struct {
	Segment  string
	State    *state.State
	Settings *Settings
	System   *vehicle.Vehicle
}

type (
	Process  = process.Process[Frame]
	Stage    = process.Stage[Frame]
	StepFunc = process.Func[Frame]
)

// NewStep wraps fn so collaborator failures surface as PhysicsErrors.
// The step is found by fn in IndexFunc, ReplaceFunc and RemoveFunc.
func NewStep(name string, fn func(f Frame) error) *process.Step[Frame] {
	return process.NewStepFor(name, fn, func(_ context.Context, f Frame) (Frame, error) {
		if err := fn(f); err != nil {
			return f, dynamo.Physics(name, err)
		}
		return f, nil
	})
}

// NoOp is an identity step with the given name.
func NoOp(name string) *process.Step[Frame] {
	return process.NoOp[Frame](name)
}

// NewProcess builds a named process of frame stages.
func NewProcess(name string, stages ...Stage) *Process {
	return process.New(name, stages...)
}
