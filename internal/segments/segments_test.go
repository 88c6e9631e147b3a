package segments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/physics"
	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/vehicle"
)

func settings(points int, params map[string]float64) *segment.Settings {
	s := segment.DefaultSettings()
	s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.Numerics.ControlPoints = points
	for k, v := range params {
		s.SetParam(k, v)
	}
	return s
}

func column(t *testing.T, s *segment.Segment, path string) []float64 {
	t.Helper()
	a, err := s.State.Condition(path)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return a.Col(0)
}

func TestStandardProcessNames(t *testing.T) {
	s := Climb("climb", vehicle.Turboprop(), nil)
	tests := []struct {
		process *segment.Process
		want    []string
	}{
		{s.Process.Initialize, []string{"expand_state", "time", "weights", "energy", "inertial_position", "planet_position", "unknowns", "conditions"}},
		{s.Process.Converge, []string{"converge_root"}},
		{s.Process.Iterate, []string{"unknowns", "conditions", "atmosphere", "orientations", "aerodynamics", "propulsion", "weights", "forces", "residuals"}},
		{s.Process.PostProcess, []string{"inertial_position", "planet_position", "energy", "noise", "finalize"}},
	}
	for _, tt := range tests {
		t.Run(tt.process.Name(), func(t *testing.T) {
			got := tt.process.Names()
			if len(got) != len(tt.want) {
				t.Fatalf("names = %v", got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("stage %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReplaceStepByFunction(t *testing.T) {
	s := Cruise("cruise", vehicle.Turboprop(), settings(6, map[string]float64{
		"altitude":  3000,
		"air_speed": 120,
		"distance":  120000,
	}))

	i, err := s.Process.Iterate.IndexFunc(physics.Forces)
	if err != nil || i != 7 {
		t.Fatalf("IndexFunc(Forces) = %d, %v", i, err)
	}
	if i, err := s.Process.Iterate.IndexFunc(physics.Unknowns); err != nil || i != 0 {
		t.Fatalf("IndexFunc(Unknowns) = %d, %v", i, err)
	}

	calls := 0
	counted := func(f segment.Frame) error {
		calls++
		return physics.Forces(f)
	}
	if err := s.Process.Iterate.ReplaceFunc(physics.Forces, segment.NewStep("forces", counted)); err != nil {
		t.Fatal(err)
	}
	names := s.Process.Iterate.Names()
	if names[0] != "unknowns" || names[7] != "forces" {
		t.Fatalf("stages = %v", names)
	}
	if _, err := s.Process.Iterate.IndexFunc(physics.Forces); !errors.Is(err, dynamo.ErrLookup) {
		t.Errorf("replaced function still found: %v", err)
	}
	if i, err := s.Process.Iterate.IndexFunc(counted); err != nil || i != 7 {
		t.Errorf("IndexFunc(replacement) = %d, %v", i, err)
	}

	if err := s.Evaluate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Converged() || calls == 0 {
		t.Errorf("converged %v with %d forces calls", s.Converged(), calls)
	}
}

func TestRollMomentIsConfigurationError(t *testing.T) {
	st := settings(4, map[string]float64{
		"altitude":  3000,
		"air_speed": 120,
		"distance":  50000,
	})
	st.Flight.MomentX = true
	st.Controls.Elevator.Active = true
	s := Cruise("cruise", vehicle.Turboprop(), st)

	err := s.Evaluate(context.Background())
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if s.Converged() {
		t.Error("segment must not report convergence")
	}
}

func TestBuildersReturnFreshGraphs(t *testing.T) {
	r := NewRegistry()
	for _, kind := range r.Kinds() {
		t.Run(kind, func(t *testing.T) {
			a, err := r.Build(kind, "a", vehicle.Turboprop(), nil)
			if err != nil {
				t.Fatal(err)
			}
			b, _ := r.Build(kind, "b", vehicle.Turboprop(), nil)
			if a.Process.Iterate == b.Process.Iterate || a.Settings == b.Settings {
				t.Fatal("segments share mutable state")
			}
			if err := a.Disable("iterate.aerodynamics"); err != nil {
				t.Fatal(err)
			}
			stage, _ := b.Stage("iterate.aerodynamics")
			if step, ok := stage.(interface{ IsNoOp() bool }); !ok || step.IsNoOp() {
				t.Error("disabling one segment changed another")
			}
		})
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Build("loiter_holding_pattern", "hold", vehicle.Turboprop(), nil); err == nil {
		t.Error("expected error for unknown segment type")
	}
	if len(r.Kinds()) != 5 || !r.Has(SinglePoint) {
		t.Errorf("kinds = %v", r.Kinds())
	}
}

func TestClimbConverges(t *testing.T) {
	s := Climb("climb", vehicle.Turboprop(), settings(8, map[string]float64{
		"altitude_start": 0,
		"altitude_end":   3000,
		"air_speed":      100,
		"climb_rate":     5,
	}))
	if err := s.Evaluate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Converged() {
		t.Fatalf("climb did not converge: %s", s.State.Numerics.Message)
	}

	alt := column(t, s, segment.Altitude)
	tm := column(t, s, segment.Time)
	mass := column(t, s, segment.TotalMass)
	if alt[0] != 0 || math.Abs(alt[len(alt)-1]-3000) > 1e-9 {
		t.Errorf("altitude = %v", alt)
	}
	if math.Abs(tm[len(tm)-1]-600) > 1e-9 {
		t.Errorf("duration = %v", tm[len(tm)-1])
	}
	if mass[0] != 20000 || mass[len(mass)-1] >= mass[0] {
		t.Errorf("mass should decrease from takeoff: %v", mass)
	}
	for i, thr := range column(t, s, segment.ThrottleFamily+"_0") {
		if thr <= 0 || thr >= 1 {
			t.Errorf("throttle[%d] = %v", i, thr)
		}
	}
	pos, _ := s.State.Condition(segment.PositionVector)
	if pos.At(pos.Rows()-1, 0) <= 0 || pos.At(pos.Rows()-1, 2) != -3000 {
		t.Errorf("position = %v", pos.Last())
	}
	if s.Phase() != segment.PostProcessed {
		t.Errorf("phase = %v", s.Phase())
	}
}

func TestCruiseConverges(t *testing.T) {
	s := Cruise("cruise", vehicle.Turboprop(), settings(6, map[string]float64{
		"altitude":  3000,
		"air_speed": 120,
		"distance":  120000,
	}))
	if err := s.Evaluate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Converged() {
		t.Fatalf("cruise did not converge: %s", s.State.Numerics.Message)
	}
	lift := column(t, s, segment.Lift)
	mass := column(t, s, segment.TotalMass)
	for i := range lift {
		if math.Abs(lift[i]-mass[i]*vehicle.Gravity)/lift[i] > 1e-2 {
			t.Errorf("row %d: lift %v does not carry weight %v", i, lift[i], mass[i]*vehicle.Gravity)
		}
	}
	tm := column(t, s, segment.Time)
	if math.Abs(tm[len(tm)-1]-1000) > 1e-9 {
		t.Errorf("duration = %v", tm[len(tm)-1])
	}
	ld := column(t, s, segment.LiftToDrag)
	if ld[0] < 5 || ld[0] > 30 {
		t.Errorf("lift to drag = %v", ld[0])
	}
}

func TestCruiseConstantThrottleHoldsBoundary(t *testing.T) {
	s := CruiseConstantThrottle("cruise", vehicle.Turboprop(), settings(10, map[string]float64{
		"altitude":  3000,
		"air_speed": 120,
		"throttle":  0.3,
		"duration":  120,
	}))
	if err := s.Evaluate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Converged() {
		t.Fatalf("did not converge: %s", s.State.Numerics.Message)
	}
	speed := column(t, s, segment.Airspeed)
	if math.Abs(speed[0]-120) > 1e-4 {
		t.Errorf("initial airspeed = %v", speed[0])
	}
	if speed[len(speed)-1] <= speed[0] {
		t.Errorf("excess thrust should accelerate: %v", speed)
	}
}

func TestSinglePointTrim(t *testing.T) {
	s := Point("trim", vehicle.ElectricTrainer(), settings(16, map[string]float64{
		"altitude":  1000,
		"air_speed": 40,
	}))
	if err := s.Evaluate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Converged() || s.State.Points() != 1 {
		t.Fatalf("converged %v with %d points", s.Converged(), s.State.Points())
	}
	alpha := column(t, s, segment.AngleOfAttack)
	if alpha[0] <= 0 || alpha[0] > 0.2 {
		t.Errorf("trim alpha = %v", alpha[0])
	}
	power := column(t, s, segment.StorePower("battery"))
	if power[0] <= 0 {
		t.Errorf("power draw = %v", power[0])
	}
}

func TestDescentRejectsClimb(t *testing.T) {
	s := Descent("descent", vehicle.Turboprop(), settings(4, map[string]float64{
		"altitude_start": 1000,
		"altitude_end":   2000,
		"air_speed":      100,
		"descent_rate":   5,
	}))
	err := s.Evaluate(context.Background())
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestMissingParameter(t *testing.T) {
	s := Climb("climb", vehicle.Turboprop(), settings(4, map[string]float64{
		"altitude_end": 2000,
		"climb_rate":   5,
	}))
	err := s.Evaluate(context.Background())
	var cfg *dynamo.ConfigurationError
	if !errors.As(err, &cfg) || cfg.Reason != "missing parameter air_speed" {
		t.Errorf("expected missing air_speed, got %v", err)
	}
}

func TestSharedSurrogateCache(t *testing.T) {
	cache := vehicle.NewCache()
	for _, name := range []string{"first", "second"} {
		st := settings(4, map[string]float64{"altitude": 2000, "air_speed": 110, "distance": 50000})
		st.Cache = cache
		s := Cruise(name, vehicle.Turboprop(), st)
		if err := s.Evaluate(context.Background()); err != nil {
			t.Fatal(err)
		}
		if !s.Converged() {
			t.Errorf("%s did not converge", name)
		}
	}
	if cache.Builds() != 1 {
		t.Errorf("surrogate built %d times", cache.Builds())
	}
}
