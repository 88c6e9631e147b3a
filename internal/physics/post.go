package physics

import (
	"math"

	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/vehicle"
)

// InertialPosition integrates the horizontal track and pins z to the
// altitude profile.
func InertialPosition(f segment.Frame) error {
	st := f.State
	vel, err := st.Condition(segment.VelocityVector)
	if err != nil {
		return err
	}
	alt, err := column(st, segment.Altitude)
	if err != nil {
		return err
	}
	pos := vector(st, segment.PositionVector)
	for c := 0; c < 2; c++ {
		if err := pos.SetCol(c, integrate(st, pos.At(0, c), vel.Col(c))); err != nil {
			return err
		}
	}
	z := make([]float64, len(alt))
	for i, h := range alt {
		z[i] = -h
	}
	return pos.SetCol(2, z)
}

// PlanetPosition converts the inertial track to latitude and longitude
// on a spherical earth, flying along x as due north and y as due east.
func PlanetPosition(f segment.Frame) error {
	st := f.State
	pos, err := st.Condition(segment.PositionVector)
	if err != nil {
		return err
	}
	lat, err := column(st, segment.Latitude)
	if err != nil {
		return err
	}
	lon, err := column(st, segment.Longitude)
	if err != nil {
		return err
	}
	lat0, lon0 := lat[0], lon[0]
	x0, y0 := pos.At(0, 0), pos.At(0, 1)
	deg := 180 / math.Pi
	for i := range lat {
		lat[i] = lat0 + (pos.At(i, 0)-x0)/vehicle.EarthRadius*deg
		cos := math.Cos(lat[i] / deg)
		if math.Abs(cos) < 1e-9 {
			cos = 1e-9
		}
		lon[i] = lon0 + (pos.At(i, 1)-y0)/(vehicle.EarthRadius*cos)*deg
	}
	put(st, segment.Latitude, lat)
	put(st, segment.Longitude, lon)
	return nil
}

// Energy drains each store by its integrated power draw.
func Energy(f segment.Frame) error {
	st := f.State
	for _, s := range f.System.Stores {
		e, err := column(st, segment.StoreEnergy(s.Name))
		if err != nil {
			return err
		}
		p, err := column(st, segment.StorePower(s.Name))
		if err != nil {
			return err
		}
		draw := make([]float64, len(p))
		for i, v := range p {
			draw[i] = -v
		}
		put(st, segment.StoreEnergy(s.Name), integrate(st, e[0], draw))
	}
	return nil
}

// Finalize records lift-to-drag ratio and cumulative fuel burned.
func Finalize(f segment.Frame) error {
	st := f.State
	lift, err := column(st, segment.Lift)
	if err != nil {
		return err
	}
	drag, err := column(st, segment.Drag)
	if err != nil {
		return err
	}
	mass, err := column(st, segment.TotalMass)
	if err != nil {
		return err
	}
	ld := make([]float64, len(lift))
	burned := make([]float64, len(mass))
	for i := range lift {
		if drag[i] != 0 {
			ld[i] = lift[i] / drag[i]
		}
		burned[i] = mass[0] - mass[i]
	}
	put(st, segment.LiftToDrag, ld)
	put(st, segment.FuelBurned, burned)
	return nil
}
