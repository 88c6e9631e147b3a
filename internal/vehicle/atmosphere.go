package vehicle

import "math"

const (
	Gravity       = 9.80665
	SeaLevelRho   = 1.225
	seaLevelT     = 288.15
	seaLevelP     = 101325.0
	lapseRate     = 0.0065
	tropopause    = 11000.0
	gasConstant   = 287.05287
	heatRatio     = 1.4
	stratosphereT = 216.65
	EarthRadius   = 6371000.0
)

type Atmosphere struct {
	Temperature  float64
	Pressure     float64
	Density      float64
	SpeedOfSound float64
}

// ISA evaluates the standard atmosphere up to 20 km with a temperature
// offset dT in kelvin.
func ISA(altitude, dT float64) Atmosphere {
	h := math.Max(altitude, -500)
	var t, p float64
	if h <= tropopause {
		t = seaLevelT - lapseRate*h
		p = seaLevelP * math.Pow(t/seaLevelT, Gravity/(gasConstant*lapseRate))
	} else {
		pt := seaLevelP * math.Pow(stratosphereT/seaLevelT, Gravity/(gasConstant*lapseRate))
		t = stratosphereT
		p = pt * math.Exp(-Gravity*(h-tropopause)/(gasConstant*stratosphereT))
	}
	t += dT
	rho := p / (gasConstant * t)
	return Atmosphere{
		Temperature:  t,
		Pressure:     p,
		Density:      rho,
		SpeedOfSound: math.Sqrt(heatRatio * gasConstant * t),
	}
}
