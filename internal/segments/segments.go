// Package segments builds the standard flight segment types. Every
// builder call constructs a new process graph, so segments never share
// mutable pipelines across missions.
package segments

import (
	"fmt"
	"math"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/physics"
	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/state"
	"github.com/san-kum/aerosim/internal/vehicle"
)

const (
	ClimbConstantSpeedConstantRate         = "climb_constant_speed_constant_rate"
	DescentConstantSpeedConstantRate       = "descent_constant_speed_constant_rate"
	CruiseConstantSpeedConstantAltitude    = "cruise_constant_speed_constant_altitude"
	CruiseConstantThrottleConstantAltitude = "cruise_constant_throttle_constant_altitude"
	SinglePoint                            = "single_point"
)

// Builder constructs a configured segment. A nil settings selects the
// defaults.
type Builder func(name string, v *vehicle.Vehicle, settings *segment.Settings) *segment.Segment

// Standard returns a segment wired with the shared physics steps. The
// initialize and iterate "conditions" steps are left for the segment
// type to fill.
func Standard(name, kind string, v *vehicle.Vehicle, settings *segment.Settings) *segment.Segment {
	s := segment.New(name, kind, v, settings)
	step := segment.NewStep

	s.Process.Initialize.Append(
		step("time", physics.InitTime),
		step("weights", physics.InitWeights),
		step("energy", physics.InitEnergy),
		step("inertial_position", physics.InitInertialPosition),
		step("planet_position", physics.InitPlanetPosition),
		step("unknowns", physics.Unknowns),
		segment.NoOp("conditions"),
	)
	s.Process.Iterate.Append(
		step("unknowns", physics.Unknowns),
		step("conditions", physics.Kinematics),
		step("atmosphere", physics.Atmosphere),
		step("orientations", physics.Orientations),
		step("aerodynamics", physics.Aerodynamics),
		step("propulsion", physics.Propulsion),
		step("weights", physics.Weights),
		step("forces", physics.Forces),
		step("residuals", physics.Residuals),
	)
	s.Process.PostProcess.Append(
		step("inertial_position", physics.InertialPosition),
		step("planet_position", physics.PlanetPosition),
		step("energy", physics.Energy),
		segment.NoOp("noise"),
		step("finalize", physics.Finalize),
	)
	return s
}

// activate adds the builder's equations and controls to whatever the
// caller configured, keeping caller guesses and assignments.
func activate(settings *segment.Settings, flight segment.Flight, controls ...*segment.Control) {
	f := &settings.Flight
	f.ForceX = f.ForceX || flight.ForceX
	f.ForceY = f.ForceY || flight.ForceY
	f.ForceZ = f.ForceZ || flight.ForceZ
	f.MomentX = f.MomentX || flight.MomentX
	f.MomentY = f.MomentY || flight.MomentY
	f.MomentZ = f.MomentZ || flight.MomentZ
	for _, c := range controls {
		c.Active = true
	}
}

func orDefault(settings *segment.Settings) *segment.Settings {
	if settings == nil {
		return segment.DefaultSettings()
	}
	return settings
}

var longitudinal = segment.Flight{ForceX: true, ForceZ: true}

// Climb holds airspeed and rate of climb from altitude_start (or the
// previous segment) to altitude_end, solving throttle and body angle.
func Climb(name string, v *vehicle.Vehicle, settings *segment.Settings) *segment.Segment {
	settings = orDefault(settings)
	activate(settings, longitudinal, &settings.Controls.Throttle, &settings.Controls.BodyAngle)
	s := Standard(name, ClimbConstantSpeedConstantRate, v, settings)
	mustReplace(s, "initialize.conditions", segment.NewStep("conditions", constantRate(1, "climb_rate")))
	return s
}

// Descent mirrors Climb with a positive descent_rate.
func Descent(name string, v *vehicle.Vehicle, settings *segment.Settings) *segment.Segment {
	settings = orDefault(settings)
	activate(settings, longitudinal, &settings.Controls.Throttle, &settings.Controls.BodyAngle)
	s := Standard(name, DescentConstantSpeedConstantRate, v, settings)
	mustReplace(s, "initialize.conditions", segment.NewStep("conditions", constantRate(-1, "descent_rate")))
	return s
}

// Cruise flies a distance at constant airspeed and altitude.
func Cruise(name string, v *vehicle.Vehicle, settings *segment.Settings) *segment.Segment {
	settings = orDefault(settings)
	activate(settings, longitudinal, &settings.Controls.Throttle, &settings.Controls.BodyAngle)
	s := Standard(name, CruiseConstantSpeedConstantAltitude, v, settings)
	mustReplace(s, "initialize.conditions", segment.NewStep("conditions", cruiseConditions))
	return s
}

// CruiseConstantThrottle holds altitude and a fixed throttle for a
// duration; airspeed is free to evolve from its starting value.
func CruiseConstantThrottle(name string, v *vehicle.Vehicle, settings *segment.Settings) *segment.Segment {
	settings = orDefault(settings)
	activate(settings, longitudinal, &settings.Controls.Velocity, &settings.Controls.BodyAngle)
	s := Standard(name, CruiseConstantThrottleConstantAltitude, v, settings)
	mustReplace(s, "initialize.conditions", segment.NewStep("conditions", constantThrottleConditions))
	mustReplace(s, "iterate.residuals", segment.NewStep("residuals", constantThrottleResiduals))
	return s
}

// Point trims the vehicle at a single flight condition.
func Point(name string, v *vehicle.Vehicle, settings *segment.Settings) *segment.Segment {
	settings = orDefault(settings)
	settings.Numerics.ControlPoints = 1
	activate(settings, longitudinal, &settings.Controls.Throttle, &settings.Controls.BodyAngle)
	s := Standard(name, SinglePoint, v, settings)
	mustReplace(s, "initialize.conditions", segment.NewStep("conditions", pointConditions))
	return s
}

func mustReplace(s *segment.Segment, path string, stage segment.Stage) {
	if err := s.Replace(path, stage); err != nil {
		panic(fmt.Sprintf("segments: %v", err))
	}
}

func invalid(f segment.Frame, format string, args ...any) error {
	return &dynamo.ConfigurationError{Segment: f.Segment, Reason: fmt.Sprintf(format, args...)}
}

// velocity writes a constant inertial velocity with the given climb rate.
func velocity(st *state.State, speed, climb float64) {
	n := st.Points()
	vel := state.NewArray(n, 3)
	horizontal := math.Sqrt(speed*speed - climb*climb)
	for i := 0; i < n; i++ {
		vel.Set(i, 0, horizontal)
		vel.Set(i, 2, -climb)
	}
	st.SetCondition(segment.VelocityVector, vel)
}

func startTime(st *state.State) float64 {
	t, err := st.Condition(segment.Time)
	if err != nil || t.Rows() == 0 {
		return 0
	}
	return t.At(0, 0)
}

func constantRate(sign float64, rateParam string) func(segment.Frame) error {
	return func(f segment.Frame) error {
		st := f.State
		alt0 := physics.Start(f, "altitude_start", segment.Altitude, 0)
		alt1, err := f.Settings.Require(f.Segment, "altitude_end")
		if err != nil {
			return err
		}
		speed, err := f.Settings.Require(f.Segment, "air_speed")
		if err != nil {
			return err
		}
		rate, err := f.Settings.Require(f.Segment, rateParam)
		if err != nil {
			return err
		}
		if rate <= 0 || speed <= rate {
			return invalid(f, "%s must be positive and below air_speed", rateParam)
		}
		if (alt1-alt0)*sign <= 0 {
			return invalid(f, "altitude_end %.1f m does not follow altitude_start %.1f m", alt1, alt0)
		}

		t0 := startTime(st)
		physics.Spread(st, segment.Altitude, alt0, alt1)
		physics.Spread(st, segment.Time, t0, t0+math.Abs(alt1-alt0)/rate)
		velocity(st, speed, sign*rate)
		return nil
	}
}

func cruiseConditions(f segment.Frame) error {
	st := f.State
	alt := physics.Start(f, "altitude", segment.Altitude, 0)
	speed := physics.Start(f, "air_speed", segment.Airspeed, 0)
	if speed <= 0 {
		return invalid(f, "missing parameter air_speed")
	}
	distance, err := f.Settings.Require(f.Segment, "distance")
	if err != nil {
		return err
	}
	if distance <= 0 {
		return invalid(f, "distance must be positive")
	}

	t0 := startTime(st)
	physics.Spread(st, segment.Altitude, alt, alt)
	physics.Spread(st, segment.Time, t0, t0+distance/speed)
	velocity(st, speed, 0)
	return nil
}

func constantThrottleConditions(f segment.Frame) error {
	st := f.State
	alt := physics.Start(f, "altitude", segment.Altitude, 0)
	speed := physics.Start(f, "air_speed", segment.Airspeed, 0)
	if speed <= 0 {
		return invalid(f, "missing parameter air_speed")
	}
	if _, err := f.Settings.Require(f.Segment, "throttle"); err != nil {
		return err
	}
	duration, err := f.Settings.Require(f.Segment, "duration")
	if err != nil {
		return err
	}
	if duration <= 0 {
		return invalid(f, "duration must be positive")
	}

	t0 := startTime(st)
	physics.Spread(st, segment.Altitude, alt, alt)
	physics.Spread(st, segment.Time, t0, t0+duration)
	velocity(st, speed, 0)
	u, err := st.Get("unknowns." + segment.Velocity)
	if err != nil {
		return err
	}
	u.Fill(speed)
	return nil
}

// constantThrottleResiduals replaces the first force_x row with the
// initial airspeed boundary condition.
func constantThrottleResiduals(f segment.Frame) error {
	if err := physics.Residuals(f); err != nil {
		return err
	}
	speed := physics.Start(f, "air_speed", segment.Airspeed, 0)
	u, err := f.State.Get("unknowns." + segment.Velocity)
	if err != nil {
		return err
	}
	r, err := f.State.Get("residuals." + segment.ForceX)
	if err != nil {
		return err
	}
	r.Set(0, 0, (u.At(0, 0)-speed)/speed)
	return nil
}

func pointConditions(f segment.Frame) error {
	st := f.State
	alt := physics.Start(f, "altitude", segment.Altitude, 0)
	speed := physics.Start(f, "air_speed", segment.Airspeed, 0)
	if speed <= 0 {
		return invalid(f, "missing parameter air_speed")
	}
	climb, _ := f.Settings.Param("climb_rate")
	if math.Abs(climb) >= speed {
		return invalid(f, "climb_rate must be below air_speed")
	}
	physics.Spread(st, segment.Altitude, alt, alt)
	velocity(st, speed, climb)
	return nil
}
