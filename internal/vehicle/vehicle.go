// Package vehicle describes the aircraft a mission is flown with and the
// physics collaborators segment steps call: atmosphere, aerodynamic
// polar, propulsors and energy stores.
//
// A Vehicle is read-mostly shared configuration. Steps never mutate it;
// derived data worth reusing across segments goes through an explicitly
// injected [Cache].
package vehicle

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingProperty indicates a vehicle lacks a value a physics step needs.
var ErrMissingProperty = errors.New("vehicle: missing required property")

const (
	KindTurbofan = "turbofan"
	KindElectric = "electric"
)

type Vehicle struct {
	Name          string        `yaml:"name" validate:"required"`
	MassTakeoff   float64       `yaml:"mass_takeoff" validate:"gt=0"`
	ReferenceArea float64       `yaml:"reference_area" validate:"gt=0"`
	MeanChord     float64       `yaml:"mean_chord" validate:"gte=0"`
	Aerodynamics  Polar         `yaml:"aerodynamics"`
	Propulsors    []Propulsor   `yaml:"propulsors" validate:"required,min=1,dive"`
	Stores        []EnergyStore `yaml:"energy_stores" validate:"dive"`
}

// Polar is a linear lift curve with a parabolic drag polar and a linear
// pitching moment.
type Polar struct {
	CL0        float64 `yaml:"cl0"`
	CLAlpha    float64 `yaml:"cl_alpha" validate:"gt=0"`
	CLElevator float64 `yaml:"cl_elevator"`
	CD0        float64 `yaml:"cd0" validate:"gte=0"`
	K          float64 `yaml:"k" validate:"gte=0"`
	Cm0        float64 `yaml:"cm0"`
	CmAlpha    float64 `yaml:"cm_alpha"`
	CmElevator float64 `yaml:"cm_elevator"`
}

type Propulsor struct {
	Name      string  `yaml:"name" validate:"required"`
	Kind      string  `yaml:"kind" validate:"oneof=turbofan electric"`
	MaxThrust float64 `yaml:"max_thrust" validate:"gt=0"`
	// ThrustLapse is the exponent on the density ratio.
	ThrustLapse float64 `yaml:"thrust_lapse" validate:"gte=0"`
	// TSFC is fuel flow per unit thrust, kg/(N s).
	TSFC       float64 `yaml:"tsfc" validate:"gte=0"`
	Efficiency float64 `yaml:"efficiency" validate:"gte=0,lte=1"`
	Store      string  `yaml:"store"`
	RPMMax     float64 `yaml:"rpm_max" validate:"gte=0"`
}

type EnergyStore struct {
	Name     string  `yaml:"name" validate:"required"`
	Capacity float64 `yaml:"capacity" validate:"gt=0"`
}

func (v *Vehicle) Propulsor(name string) (*Propulsor, error) {
	for i := range v.Propulsors {
		if v.Propulsors[i].Name == name {
			return &v.Propulsors[i], nil
		}
	}
	return nil, fmt.Errorf("%w: propulsor %q", ErrMissingProperty, name)
}

func (v *Vehicle) Store(name string) (*EnergyStore, error) {
	for i := range v.Stores {
		if v.Stores[i].Name == name {
			return &v.Stores[i], nil
		}
	}
	return nil, fmt.Errorf("%w: energy store %q", ErrMissingProperty, name)
}

// RequireAerodynamics checks the properties aerodynamic steps divide by.
func (v *Vehicle) RequireAerodynamics() error {
	if v.ReferenceArea <= 0 {
		return fmt.Errorf("%w: reference_area", ErrMissingProperty)
	}
	if v.Aerodynamics.CLAlpha <= 0 {
		return fmt.Errorf("%w: aerodynamics.cl_alpha", ErrMissingProperty)
	}
	return nil
}

// Coefficients evaluates lift, drag and moment coefficients.
func (p Polar) Coefficients(alpha, elevator float64) (cl, cd, cm float64) {
	cl = p.CL0 + p.CLAlpha*alpha + p.CLElevator*elevator
	cd = p.CD0 + p.K*cl*cl
	cm = p.Cm0 + p.CmAlpha*alpha + p.CmElevator*elevator
	return cl, cd, cm
}

// Thrust at a throttle setting and density ratio. A positive rpm
// fraction scales thrust quadratically.
func (p Propulsor) Thrust(throttle, sigma, rpmFraction float64) float64 {
	lapse := 1.0
	if p.ThrustLapse > 0 {
		lapse = math.Pow(math.Max(sigma, 0), p.ThrustLapse)
	}
	t := throttle * p.MaxThrust * lapse
	if rpmFraction > 0 {
		t *= rpmFraction * rpmFraction
	}
	return t
}

// FuelFlow in kg/s; electric propulsors burn no fuel.
func (p Propulsor) FuelFlow(thrust float64) float64 {
	if p.Kind == KindElectric {
		return 0
	}
	return p.TSFC * math.Max(thrust, 0)
}

// Power drawn from the energy store in W.
func (p Propulsor) Power(thrust, speed float64) float64 {
	if p.Kind != KindElectric {
		return 0
	}
	eta := p.Efficiency
	if eta <= 0 {
		eta = 1
	}
	return math.Max(thrust, 0) * speed / eta
}
