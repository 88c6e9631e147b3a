package physics

import (
	"github.com/san-kum/aerosim/internal/segment"
)

// InitTime seeds every row with the starting time; segment conditions
// spread it over the segment duration.
func InitTime(f segment.Frame) error {
	fill(f.State, segment.Time, Start(f, "time_start", segment.Time, 0))
	return nil
}

// InitWeights carries total mass forward, defaulting to takeoff mass.
func InitWeights(f segment.Frame) error {
	m0 := Start(f, "mass_start", segment.TotalMass, f.System.MassTakeoff)
	fill(f.State, segment.TotalMass, m0)
	fill(f.State, segment.MassRate, 0)
	return nil
}

// InitEnergy carries each store's energy forward, defaulting to a full
// store.
func InitEnergy(f segment.Frame) error {
	for _, s := range f.System.Stores {
		e0 := Start(f, "energy_start."+s.Name, segment.StoreEnergy(s.Name), s.Capacity)
		fill(f.State, segment.StoreEnergy(s.Name), e0)
		fill(f.State, segment.StorePower(s.Name), 0)
	}
	return nil
}

func InitInertialPosition(f segment.Frame) error {
	row := StartRow(f, segment.PositionVector, []float64{0, 0, 0})
	pos := vector(f.State, segment.PositionVector)
	for c, v := range row {
		if err := pos.SetCol(c, []float64{v}); err != nil {
			return err
		}
	}
	return nil
}

func InitPlanetPosition(f segment.Frame) error {
	fill(f.State, segment.Latitude, Start(f, "latitude", segment.Latitude, 0))
	fill(f.State, segment.Longitude, Start(f, "longitude", segment.Longitude, 0))
	return nil
}
