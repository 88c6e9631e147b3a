package segment

import (
	"fmt"
)

// Residual equation names.
const (
	ForceX  = "force_x"
	ForceY  = "force_y"
	ForceZ  = "force_z"
	MomentX = "moment_x"
	MomentY = "moment_y"
	MomentZ = "moment_z"
)

// Flight selects which force and moment balances a segment enforces.
// Each active flag is one degree of freedom.
type Flight struct {
	ForceX  bool `yaml:"force_x"`
	ForceY  bool `yaml:"force_y"`
	ForceZ  bool `yaml:"force_z"`
	MomentX bool `yaml:"moment_x"`
	MomentY bool `yaml:"moment_y"`
	MomentZ bool `yaml:"moment_z"`
}

// Equations lists the active residual names in a fixed order.
func (f Flight) Equations() []string {
	var eqs []string
	for _, e := range []struct {
		on   bool
		name string
	}{
		{f.ForceX, ForceX}, {f.ForceY, ForceY}, {f.ForceZ, ForceZ},
		{f.MomentX, MomentX}, {f.MomentY, MomentY}, {f.MomentZ, MomentZ},
	} {
		if e.on {
			eqs = append(eqs, e.name)
		}
	}
	return eqs
}

func (f Flight) DOF() int { return len(f.Equations()) }

// Control is one solver-controlled variable family. Indexed families
// (throttle, elevator, rpm) get one unknown per Assigned group, named
// <family>_<i>; scalar families get a single unknown.
type Control struct {
	Active       bool       `yaml:"active"`
	InitialGuess []float64  `yaml:"initial_guess"`
	Assigned     [][]string `yaml:"assigned"`
}

// Controls holds every control family a segment may activate.
type Controls struct {
	Throttle        Control `yaml:"throttle"`
	Elevator        Control `yaml:"elevator"`
	RPM             Control `yaml:"rpm"`
	BodyAngle       Control `yaml:"body_angle"`
	Velocity        Control `yaml:"velocity"`
	FlightPathAngle Control `yaml:"flight_path_angle"`
}

// Unknown is a declared solver variable and its initial guess.
type Unknown struct {
	Name   string
	Family string
	Index  int
	Guess  float64
}

// Control family names.
const (
	Throttle        = "throttle"
	Elevator        = "elevator"
	RPM             = "rpm"
	BodyAngle       = "body_angle"
	Velocity        = "velocity"
	FlightPathAngle = "flight_path_angle"
)

var defaultGuess = map[string]float64{
	Throttle:        0.5,
	Elevator:        0,
	RPM:             0.8,
	BodyAngle:       0.05,
	Velocity:        100,
	FlightPathAngle: 0,
}

// Unknowns expands the active controls into named unknowns in a stable
// order.
func (c Controls) Unknowns() ([]Unknown, error) {
	var out []Unknown
	for _, fam := range []struct {
		name    string
		ctl     Control
		indexed bool
	}{
		{Throttle, c.Throttle, true},
		{BodyAngle, c.BodyAngle, false},
		{Elevator, c.Elevator, true},
		{RPM, c.RPM, true},
		{Velocity, c.Velocity, false},
		{FlightPathAngle, c.FlightPathAngle, false},
	} {
		if !fam.ctl.Active {
			continue
		}
		count := 1
		if fam.indexed && len(fam.ctl.Assigned) > 0 {
			count = len(fam.ctl.Assigned)
		}
		guesses := fam.ctl.InitialGuess
		if len(guesses) > 1 && len(guesses) != count {
			return nil, fmt.Errorf("control %s: %d initial guesses for %d unknowns", fam.name, len(guesses), count)
		}
		for i := 0; i < count; i++ {
			g := defaultGuess[fam.name]
			switch len(guesses) {
			case 0:
			case 1:
				g = guesses[0]
			default:
				g = guesses[i]
			}
			name := fam.name
			if fam.indexed {
				name = UnknownName(fam.name, i)
			}
			out = append(out, Unknown{Name: name, Family: fam.name, Index: i, Guess: g})
		}
	}
	return out, nil
}

// UnknownName builds an indexed unknown key such as throttle_0.
func UnknownName(family string, i int) string {
	return fmt.Sprintf("%s_%d", family, i)
}

// Groups returns the propulsor groups a throttle or rpm family drives.
// An unassigned family drives every propulsor as group 0.
func (c Control) Groups(all []string) [][]string {
	if len(c.Assigned) > 0 {
		return c.Assigned
	}
	return [][]string{all}
}
