package vehicle

import "sort"

// Turboprop is a 20 t regional transport with two fuel-burning propulsors.
func Turboprop() *Vehicle {
	return &Vehicle{
		Name:          "regional_turboprop",
		MassTakeoff:   20000,
		ReferenceArea: 60,
		MeanChord:     2.3,
		Aerodynamics: Polar{
			CL0:        0.3,
			CLAlpha:    5.5,
			CLElevator: 0.4,
			CD0:        0.025,
			K:          0.045,
			Cm0:        0.05,
			CmAlpha:    -1.2,
			CmElevator: -1.5,
		},
		Propulsors: []Propulsor{
			{Name: "left", Kind: KindTurbofan, MaxThrust: 40000, ThrustLapse: 0.7, TSFC: 1.5e-5},
			{Name: "right", Kind: KindTurbofan, MaxThrust: 40000, ThrustLapse: 0.7, TSFC: 1.5e-5},
		},
	}
}

// ElectricTrainer is a two-seat battery-electric aircraft.
func ElectricTrainer() *Vehicle {
	return &Vehicle{
		Name:          "electric_trainer",
		MassTakeoff:   600,
		ReferenceArea: 10,
		MeanChord:     1.2,
		Aerodynamics: Polar{
			CL0:        0.35,
			CLAlpha:    5.0,
			CLElevator: 0.3,
			CD0:        0.03,
			K:          0.05,
			Cm0:        0.04,
			CmAlpha:    -0.9,
			CmElevator: -1.1,
		},
		Propulsors: []Propulsor{
			{Name: "motor", Kind: KindElectric, MaxThrust: 2500, Efficiency: 0.8, Store: "battery", RPMMax: 2700},
		},
		Stores: []EnergyStore{
			{Name: "battery", Capacity: 90e6},
		},
	}
}

var presets = map[string]func() *Vehicle{
	"regional_turboprop": Turboprop,
	"electric_trainer":   ElectricTrainer,
}

// Preset returns a fresh copy of a named built-in vehicle.
func Preset(name string) (*Vehicle, bool) {
	fn, ok := presets[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
