package state

import (
	"fmt"
	"math"

	"github.com/san-kum/aerosim/internal/dynamo"
)

// Array is a dense row-major 2D block of values. Rows are control points,
// columns are vector components; scalar fields have one column.
type Array struct {
	rows  int
	cols  int
	data  []float64
	fixed bool
}

func NewArray(rows, cols int) *Array {
	if rows < 0 {
		rows = 0
	}
	if cols < 1 {
		cols = 1
	}
	return &Array{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Scalar returns a 1x1 array; expansion broadcasts it to every point.
func Scalar(v float64) *Array {
	a := NewArray(1, 1)
	a.data[0] = v
	return a
}

// Row returns a single-row array with one column per value.
func Row(vals ...float64) *Array {
	a := NewArray(1, len(vals))
	copy(a.data, vals)
	return a
}

// Column returns a one-column array with one row per value.
func Column(vals ...float64) *Array {
	a := NewArray(len(vals), 1)
	copy(a.data, vals)
	return a
}

func Full(rows, cols int, v float64) *Array {
	a := NewArray(rows, cols)
	a.Fill(v)
	return a
}

func FromRows(rows [][]float64) (*Array, error) {
	if len(rows) == 0 {
		return NewArray(0, 1), nil
	}
	cols := len(rows[0])
	a := NewArray(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, &dynamo.ShapeError{Path: fmt.Sprintf("row %d", i), Want: cols, Got: len(r)}
		}
		copy(a.data[i*cols:], r)
	}
	return a, nil
}

func (a *Array) Rows() int { return a.rows }
func (a *Array) Cols() int { return a.cols }
func (a *Array) Len() int  { return len(a.data) }

// Data exposes the backing slice in row-major order.
func (a *Array) Data() []float64 { return a.data }

func (a *Array) At(r, c int) float64     { return a.data[r*a.cols+c] }
func (a *Array) Set(r, c int, v float64) { a.data[r*a.cols+c] = v }

// RowAt returns a copy of row r.
func (a *Array) RowAt(r int) []float64 {
	out := make([]float64, a.cols)
	copy(out, a.data[r*a.cols:(r+1)*a.cols])
	return out
}

// Last returns a copy of the terminal row, or nil for an empty array.
func (a *Array) Last() []float64 {
	if a.rows == 0 {
		return nil
	}
	return a.RowAt(a.rows - 1)
}

// Col returns a copy of column c.
func (a *Array) Col(c int) []float64 {
	out := make([]float64, a.rows)
	for r := 0; r < a.rows; r++ {
		out[r] = a.data[r*a.cols+c]
	}
	return out
}

// SetCol assigns column c. A single value is broadcast down the column.
func (a *Array) SetCol(c int, vals []float64) error {
	if c < 0 || c >= a.cols {
		return &dynamo.ShapeError{Path: fmt.Sprintf("column %d", c), Want: a.cols, Got: c + 1}
	}
	switch len(vals) {
	case 1:
		for r := 0; r < a.rows; r++ {
			a.data[r*a.cols+c] = vals[0]
		}
	case a.rows:
		for r := 0; r < a.rows; r++ {
			a.data[r*a.cols+c] = vals[r]
		}
	default:
		return &dynamo.ShapeError{Path: fmt.Sprintf("column %d", c), Want: a.rows, Got: len(vals)}
	}
	return nil
}

func (a *Array) Fill(v float64) {
	for i := range a.data {
		a.data[i] = v
	}
}

// Assign copies src into a, requiring identical shape.
func (a *Array) Assign(src *Array) error {
	if src.rows != a.rows || src.cols != a.cols {
		return &dynamo.ShapeError{Path: "assign", Want: a.Len(), Got: src.Len()}
	}
	copy(a.data, src.data)
	return nil
}

func (a *Array) Clone() *Array {
	c := &Array{rows: a.rows, cols: a.cols, fixed: a.fixed, data: make([]float64, len(a.data))}
	copy(c.data, a.data)
	return c
}

// Fix freezes the row count; expanding to a different size then fails.
func (a *Array) Fix()          { a.fixed = true }
func (a *Array) IsFixed() bool { return a.fixed }

func (a *Array) IsValid() bool {
	for _, v := range a.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// expand resizes the row dimension to n. A single row (or an empty
// array) is broadcast; a multi-row array keeps its rows and pads with
// its last row.
func (a *Array) expand(path string, n int) error {
	if a.rows == n {
		return nil
	}
	if a.fixed {
		return &dynamo.ShapeError{Path: path, Want: n, Got: a.rows}
	}
	data := make([]float64, n*a.cols)
	if a.rows > 0 {
		for r := 0; r < n; r++ {
			src := r
			if src >= a.rows {
				src = a.rows - 1
			}
			copy(data[r*a.cols:(r+1)*a.cols], a.data[src*a.cols:(src+1)*a.cols])
		}
	}
	a.rows = n
	a.data = data
	return nil
}
