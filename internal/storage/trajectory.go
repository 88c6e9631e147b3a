package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/san-kum/aerosim/internal/mission"
	"github.com/san-kum/aerosim/internal/segment"
)

var nan = math.NaN()

// Field maps a trajectory column to a condition path and component.
type Field struct {
	Name   string
	Path   string
	Column int
}

// Fields are the columns written to trajectory.csv, after the segment
// name.
var Fields = []Field{
	{"time", segment.Time, 0},
	{"range", segment.PositionVector, 0},
	{"altitude", segment.Altitude, 0},
	{"airspeed", segment.Airspeed, 0},
	{"mach", segment.Mach, 0},
	{"flight_path_angle", segment.FlightPath, 0},
	{"body_angle", segment.BodyRotations, 1},
	{"angle_of_attack", segment.AngleOfAttack, 0},
	{"lift_coefficient", segment.LiftCoefficient, 0},
	{"drag_coefficient", segment.DragCoefficient, 0},
	{"lift_to_drag", segment.LiftToDrag, 0},
	{"throttle", segment.ThrottleFamily + "_0", 0},
	{"thrust", segment.Thrust, 0},
	{"fuel_flow", segment.FuelFlow, 0},
	{"mass", segment.TotalMass, 0},
	{"fuel_burned", segment.FuelBurned, 0},
	{"latitude", segment.Latitude, 0},
	{"longitude", segment.Longitude, 0},
}

// Trajectory is a mission flattened to one row per control point.
// Values a segment does not carry are NaN.
type Trajectory struct {
	Columns  []string
	Segments []string
	Rows     [][]float64
}

// NewTrajectory flattens every evaluated segment of res.
func NewTrajectory(res *mission.Results) *Trajectory {
	t := &Trajectory{Columns: make([]string, len(Fields))}
	for i, f := range Fields {
		t.Columns[i] = f.Name
	}
	for _, r := range res.Segments {
		if r.State == nil {
			continue
		}
		for i := 0; i < r.State.Points(); i++ {
			row := make([]float64, len(Fields))
			for j, f := range Fields {
				row[j] = nan
				a, err := r.State.Condition(f.Path)
				if err != nil || i >= a.Rows() || f.Column >= a.Cols() {
					continue
				}
				row[j] = a.At(i, f.Column)
			}
			t.Segments = append(t.Segments, r.Name)
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

func (t *Trajectory) Len() int { return len(t.Rows) }

// Column returns one named column.
func (t *Trajectory) Column(name string) ([]float64, error) {
	for j, c := range t.Columns {
		if c != name {
			continue
		}
		out := make([]float64, len(t.Rows))
		for i, row := range t.Rows {
			out[i] = row[j]
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown trajectory field: %s", name)
}

func writeTrajectory(path string, t *Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"segment"}, t.Columns...)); err != nil {
		return err
	}
	for i, row := range t.Rows {
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, t.Segments[i])
		for _, v := range row {
			if math.IsNaN(v) {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
