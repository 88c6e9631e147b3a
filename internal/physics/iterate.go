package physics

import (
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/state"
	"github.com/san-kum/aerosim/internal/vehicle"
)

// Unknowns copies the solver's unknowns into the conditions they drive.
// Inactive controls take their segment parameter or a neutral value.
func Unknowns(f segment.Frame) error {
	st := f.State
	c := f.Settings.Controls
	n := st.Points()

	groups := len(c.Throttle.Groups(nil))
	for i := 0; i < groups; i++ {
		if err := control(f, c.Throttle, segment.Throttle, segment.ThrottleFamily, i, paramOr(f, "throttle", 1)); err != nil {
			return err
		}
	}
	if c.RPM.Active {
		for i := 0; i < len(c.RPM.Groups(nil)); i++ {
			if err := control(f, c.RPM, segment.RPM, segment.RPMFamily, i, 0); err != nil {
				return err
			}
		}
	}
	for i := 0; i < max(len(c.Elevator.Assigned), 1); i++ {
		if err := control(f, c.Elevator, segment.Elevator, segment.ElevatorFamily, i, paramOr(f, "elevator", 0)); err != nil {
			return err
		}
	}

	theta := []float64{paramOr(f, "body_angle", 0)}
	if c.BodyAngle.Active {
		u, err := st.Get("unknowns." + segment.BodyAngle)
		if err != nil {
			return err
		}
		theta = u.Col(0)
	}
	if err := vector(st, segment.BodyRotations).SetCol(1, theta); err != nil {
		return err
	}

	if c.FlightPathAngle.Active {
		u, err := st.Get("unknowns." + segment.FlightPathAngle)
		if err != nil {
			return err
		}
		put(st, segment.FlightPath, u.Col(0))
	}
	if !c.Velocity.Active && !c.FlightPathAngle.Active {
		return nil
	}

	vel := vector(st, segment.VelocityVector)
	speed := make([]float64, n)
	for i := range speed {
		speed[i] = norm3(vel.RowAt(i))
	}
	if c.Velocity.Active {
		u, err := st.Get("unknowns." + segment.Velocity)
		if err != nil {
			return err
		}
		speed = u.Col(0)
	}
	gamma, err := column(st, segment.FlightPath)
	if err != nil {
		gamma = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		vel.Set(i, 0, speed[i]*math.Cos(gamma[i]))
		vel.Set(i, 1, 0)
		vel.Set(i, 2, -speed[i]*math.Sin(gamma[i]))
	}
	return nil
}

// control writes family_i from the matching unknown, or fixed when the
// family is inactive.
func control(f segment.Frame, ctl segment.Control, family, path string, i int, fixed float64) error {
	name := segment.UnknownName(family, i)
	dst := path + "_" + itoa(i)
	if !ctl.Active {
		fill(f.State, dst, fixed)
		return nil
	}
	u, err := f.State.Get("unknowns." + name)
	if err != nil {
		return err
	}
	put(f.State, dst, u.Col(0))
	return nil
}

func paramOr(f segment.Frame, name string, fallback float64) float64 {
	if v, ok := f.Settings.Param(name); ok {
		return v
	}
	return fallback
}

// Kinematics derives airspeed and inertial acceleration from the
// velocity profile.
func Kinematics(f segment.Frame) error {
	st := f.State
	vel, err := st.Condition(segment.VelocityVector)
	if err != nil {
		return err
	}
	n := vel.Rows()
	speed := make([]float64, n)
	for i := range speed {
		speed[i] = norm3(vel.RowAt(i))
	}
	put(st, segment.Airspeed, speed)

	acc := vector(st, segment.AccelerationVector)
	dur := Duration(st)
	for c := 0; c < 3; c++ {
		a := make([]float64, n)
		if dur > 0 {
			a = st.Numerics.Differentiate.Apply(vel.Col(c))
			for i := range a {
				a[i] /= dur
			}
		}
		if err := acc.SetCol(c, a); err != nil {
			return err
		}
	}
	return nil
}

func Atmosphere(f segment.Frame) error {
	st := f.State
	alt, err := column(st, segment.Altitude)
	if err != nil {
		return err
	}
	speed, err := column(st, segment.Airspeed)
	if err != nil {
		return err
	}
	dT := paramOr(f, "temperature_deviation", 0)

	n := len(alt)
	rho, p, temp, a, mach, q := make([]float64, n), make([]float64, n), make([]float64, n),
		make([]float64, n), make([]float64, n), make([]float64, n)
	for i, h := range alt {
		atm := vehicle.ISA(h, dT)
		rho[i], p[i], temp[i], a[i] = atm.Density, atm.Pressure, atm.Temperature, atm.SpeedOfSound
		mach[i] = speed[i] / atm.SpeedOfSound
		q[i] = 0.5 * atm.Density * speed[i] * speed[i]
	}
	put(st, segment.Density, rho)
	put(st, segment.Pressure, p)
	put(st, segment.Temperature, temp)
	put(st, segment.SpeedOfSound, a)
	put(st, segment.Mach, mach)
	put(st, segment.DynamicPressure, q)
	return nil
}

// Orientations computes flight path angle and angle of attack.
func Orientations(f segment.Frame) error {
	st := f.State
	vel, err := st.Condition(segment.VelocityVector)
	if err != nil {
		return err
	}
	rot, err := st.Condition(segment.BodyRotations)
	if err != nil {
		return err
	}
	n := vel.Rows()
	gamma, alpha := make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		gamma[i] = math.Atan2(-vel.At(i, 2), vel.At(i, 0))
		alpha[i] = rot.At(i, 1) - gamma[i]
	}
	put(st, segment.FlightPath, gamma)
	put(st, segment.AngleOfAttack, alpha)
	return nil
}

// Aerodynamics evaluates the polar, through the shared surrogate when
// the settings carry a cache.
func Aerodynamics(f segment.Frame) error {
	if err := f.System.RequireAerodynamics(); err != nil {
		return err
	}
	st := f.State
	alpha, err := column(st, segment.AngleOfAttack)
	if err != nil {
		return err
	}
	q, err := column(st, segment.DynamicPressure)
	if err != nil {
		return err
	}
	elevator := meanFamily(st, segment.ElevatorFamily, len(alpha))

	coeffs := f.System.Aerodynamics.Coefficients
	if f.Settings.Cache != nil {
		coeffs = f.Settings.Cache.Surrogate(f.System).Coefficients
	}

	n := len(alpha)
	cl, cd, cm := make([]float64, n), make([]float64, n), make([]float64, n)
	lift, drag, moment := make([]float64, n), make([]float64, n), make([]float64, n)
	s, c := f.System.ReferenceArea, f.System.MeanChord
	for i := range alpha {
		cl[i], cd[i], cm[i] = coeffs(alpha[i], elevator[i])
		lift[i] = q[i] * s * cl[i]
		drag[i] = q[i] * s * cd[i]
		moment[i] = q[i] * s * c * cm[i]
	}
	put(st, segment.LiftCoefficient, cl)
	put(st, segment.DragCoefficient, cd)
	put(st, segment.MomentCoefficient, cm)
	put(st, segment.Lift, lift)
	put(st, segment.Drag, drag)
	put(st, segment.Moment, moment)
	return nil
}

// meanFamily averages family_0, family_1, ... row by row.
func meanFamily(st *state.State, family string, n int) []float64 {
	out := make([]float64, n)
	count := 0
	for i := 0; ; i++ {
		v, err := column(st, family+"_"+itoa(i))
		if err != nil {
			break
		}
		for r := range out {
			out[r] += v[r]
		}
		count++
	}
	if count > 1 {
		for r := range out {
			out[r] /= float64(count)
		}
	}
	return out
}

// Propulsion sums thrust and fuel flow over every propulsor and books
// electric power against its energy store.
func Propulsion(f segment.Frame) error {
	st := f.State
	v := f.System
	if len(v.Propulsors) == 0 {
		return errMissing("propulsors")
	}
	rho, err := column(st, segment.Density)
	if err != nil {
		return err
	}
	speed, err := column(st, segment.Airspeed)
	if err != nil {
		return err
	}

	names := make([]string, len(v.Propulsors))
	for i, p := range v.Propulsors {
		names[i] = p.Name
	}
	c := f.Settings.Controls
	throttleOf := groupIndex(c.Throttle.Groups(names))
	rpmOf := map[string]int{}
	if c.RPM.Active {
		rpmOf = groupIndex(c.RPM.Groups(names))
	}

	n := len(rho)
	thrust, fuel := make([]float64, n), make([]float64, n)
	power := map[string][]float64{}
	for _, s := range v.Stores {
		power[s.Name] = make([]float64, n)
	}

	for _, p := range v.Propulsors {
		g, ok := throttleOf[p.Name]
		if !ok {
			continue
		}
		thr, err := column(st, segment.ThrottleFamily+"_"+itoa(g))
		if err != nil {
			return err
		}
		var rpm []float64
		if r, ok := rpmOf[p.Name]; ok {
			if rpm, err = column(st, segment.RPMFamily+"_"+itoa(r)); err != nil {
				return err
			}
		}
		var draw []float64
		if p.Store != "" {
			if _, err := v.Store(p.Store); err != nil {
				return err
			}
			draw = power[p.Store]
		}
		for i := 0; i < n; i++ {
			frac := 0.0
			if rpm != nil {
				frac = rpm[i]
			}
			t := p.Thrust(thr[i], rho[i]/vehicle.SeaLevelRho, frac)
			thrust[i] += t
			fuel[i] += p.FuelFlow(t)
			if draw != nil {
				draw[i] += p.Power(t, speed[i])
			}
		}
	}
	put(st, segment.Thrust, thrust)
	put(st, segment.FuelFlow, fuel)
	for name, p := range power {
		put(st, segment.StorePower(name), p)
	}
	return nil
}

func groupIndex(groups [][]string) map[string]int {
	idx := make(map[string]int)
	for g, names := range groups {
		for _, name := range names {
			if _, dup := idx[name]; !dup {
				idx[name] = g
			}
		}
	}
	return idx
}

// Weights integrates the fuel burned from the segment's starting mass.
func Weights(f segment.Frame) error {
	st := f.State
	mass, err := column(st, segment.TotalMass)
	if err != nil {
		return err
	}
	fuel, err := column(st, segment.FuelFlow)
	if err != nil {
		return err
	}
	rate := make([]float64, len(fuel))
	for i, ff := range fuel {
		rate[i] = -ff
	}
	put(st, segment.MassRate, rate)
	put(st, segment.TotalMass, integrate(st, mass[0], rate))
	return nil
}

// Forces sums thrust along the body axis, lift and drag in the wind
// frame and weight in the inertial frame.
func Forces(f segment.Frame) error {
	st := f.State
	var err error
	get := func(path string) []float64 {
		if err != nil {
			return nil
		}
		var v []float64
		v, err = column(st, path)
		return v
	}
	thrust, lift, drag := get(segment.Thrust), get(segment.Lift), get(segment.Drag)
	gamma, mass := get(segment.FlightPath), get(segment.TotalMass)
	if err != nil {
		return err
	}
	rot, err := st.Condition(segment.BodyRotations)
	if err != nil {
		return err
	}

	grav := vector(st, segment.GravityForce)
	total := vector(st, segment.TotalForce)
	for i := range thrust {
		theta := rot.At(i, 1)
		sg, cg := math.Sincos(gamma[i])
		w := mass[i] * vehicle.Gravity
		grav.Set(i, 0, 0)
		grav.Set(i, 1, 0)
		grav.Set(i, 2, w)
		total.Set(i, 0, thrust[i]*math.Cos(theta)-lift[i]*sg-drag[i]*cg)
		total.Set(i, 1, 0)
		total.Set(i, 2, -thrust[i]*math.Sin(theta)-lift[i]*cg+drag[i]*sg+w)
	}
	return nil
}

// Residuals writes every declared residual: force balances normalized
// by weight and the pitching moment coefficient. The point-mass model
// has no roll or yaw moment, so those equations are a configuration
// error.
func Residuals(f segment.Frame) error {
	st := f.State
	res := st.Residuals()
	force, err := st.Condition(segment.TotalForce)
	if err != nil {
		return err
	}
	acc, err := st.Condition(segment.AccelerationVector)
	if err != nil {
		return err
	}
	mass, err := column(st, segment.TotalMass)
	if err != nil {
		return err
	}

	for _, name := range res.Keys() {
		r, _ := res.Array(name)
		switch name {
		case segment.ForceX, segment.ForceY, segment.ForceZ:
			c := map[string]int{segment.ForceX: 0, segment.ForceY: 1, segment.ForceZ: 2}[name]
			for i := 0; i < r.Rows(); i++ {
				w := mass[i] * vehicle.Gravity
				r.Set(i, 0, (force.At(i, c)-mass[i]*acc.At(i, c))/w)
			}
		case segment.MomentY:
			cm, err := column(st, segment.MomentCoefficient)
			if err != nil {
				return err
			}
			if err := r.SetCol(0, cm); err != nil {
				return err
			}
		default:
			return &dynamo.ConfigurationError{
				Segment: f.Segment,
				Reason:  fmt.Sprintf("no residual model for equation %q", name),
			}
		}
	}
	return nil
}

func itoa(i int) string { return strconv.Itoa(i) }

func errMissing(what string) error {
	return fmt.Errorf("%w: %s", vehicle.ErrMissingProperty, what)
}
