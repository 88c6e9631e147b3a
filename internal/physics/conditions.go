package physics

import (
	"math"

	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/state"
)

// Start resolves a scalar starting value: the named parameter, then the
// previous segment's terminal row at path, then fallback. An empty param
// skips the parameter lookup.
func Start(f segment.Frame, param, path string, fallback float64) float64 {
	if param != "" {
		if v, ok := f.Settings.Param(param); ok {
			return v
		}
	}
	if prev := f.State.Initials(); prev != nil {
		if v, ok := prev.LastScalar(path); ok {
			return v
		}
	}
	return fallback
}

// StartRow is Start for vector conditions, without a parameter.
func StartRow(f segment.Frame, path string, fallback []float64) []float64 {
	if prev := f.State.Initials(); prev != nil {
		if row, err := prev.Last(path); err == nil && len(row) == len(fallback) {
			return row
		}
	}
	return append([]float64(nil), fallback...)
}

func column(st *state.State, path string) ([]float64, error) {
	a, err := st.Condition(path)
	if err != nil {
		return nil, err
	}
	return a.Col(0), nil
}

func put(st *state.State, path string, vals []float64) {
	st.SetCondition(path, state.Column(vals...))
}

func fill(st *state.State, path string, v float64) {
	st.SetCondition(path, state.Full(st.Points(), 1, v))
}

// vector returns the n x 3 array at path, creating it when absent or
// sized for another point count.
func vector(st *state.State, path string) *state.Array {
	n := st.Points()
	if a, err := st.Condition(path); err == nil && a.Rows() == n && a.Cols() == 3 {
		return a
	}
	a := state.NewArray(n, 3)
	st.SetCondition(path, a)
	return a
}

// Duration is the elapsed time across the segment.
func Duration(st *state.State) float64 {
	t, err := column(st, segment.Time)
	if err != nil || len(t) == 0 {
		return 0
	}
	return t[len(t)-1] - t[0]
}

// Spread fills path with start + points*(end-start).
func Spread(st *state.State, path string, start, end float64) {
	pts := st.Numerics.Points
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = start + p*(end-start)
	}
	put(st, path, out)
}

// integrate returns x0 + T * I . rate.
func integrate(st *state.State, x0 float64, rate []float64) []float64 {
	dur := Duration(st)
	out := st.Numerics.Integrate.Apply(rate)
	for i := range out {
		out[i] = x0 + dur*out[i]
	}
	return out
}

func norm3(row []float64) float64 {
	return math.Sqrt(row[0]*row[0] + row[1]*row[1] + row[2]*row[2])
}
