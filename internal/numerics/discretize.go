// Package numerics builds the control-point grids and the linear
// operators used to differentiate and integrate segment profiles.
package numerics

import (
	"fmt"
	"math"
)

type Kind string

const (
	Chebyshev Kind = "chebyshev"
	Linear    Kind = "linear"
)

// Matrix is a dense square operator in row-major [][]float64 form.
type Matrix [][]float64

// Apply returns m*v.
func (m Matrix) Apply(v []float64) []float64 {
	out := make([]float64, len(m))
	for i, row := range m {
		sum := 0.0
		for j, a := range row {
			sum += a * v[j]
		}
		out[i] = sum
	}
	return out
}

// Discretization holds dimensionless control points on [0, 1] together
// with the derivative and cumulative-integral operators on those points.
type Discretization struct {
	Kind          Kind
	Points        []float64
	Differentiate Matrix
	Integrate     Matrix
}

func (d *Discretization) N() int { return len(d.Points) }

// Discretize lays out n control points of the given kind.
func Discretize(n int, kind Kind) (*Discretization, error) {
	if n < 1 {
		return nil, fmt.Errorf("number of control points must be positive, got %d", n)
	}
	if kind == "" {
		kind = Chebyshev
	}

	var pts []float64
	switch kind {
	case Chebyshev:
		pts = chebyshevPoints(n)
	case Linear:
		pts = linearPoints(n)
	default:
		return nil, fmt.Errorf("unknown discretization: %s", kind)
	}

	d := &Discretization{Kind: kind, Points: pts}
	if kind == Chebyshev {
		d.Differentiate = barycentricDerivative(pts)
	} else {
		d.Differentiate = finiteDifference(pts)
	}
	d.Integrate = trapezoid(pts)
	return d, nil
}

func chebyshevPoints(n int) []float64 {
	pts := make([]float64, n)
	if n == 1 {
		return pts
	}
	for j := 0; j < n; j++ {
		pts[j] = 0.5 * (1 - math.Cos(math.Pi*float64(j)/float64(n-1)))
	}
	return pts
}

func linearPoints(n int) []float64 {
	pts := make([]float64, n)
	if n == 1 {
		return pts
	}
	for j := 0; j < n; j++ {
		pts[j] = float64(j) / float64(n-1)
	}
	return pts
}

func zeros(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// barycentricDerivative differentiates the interpolating polynomial
// through pts exactly.
func barycentricDerivative(pts []float64) Matrix {
	n := len(pts)
	d := zeros(n)
	if n == 1 {
		return d
	}

	w := make([]float64, n)
	for j := range pts {
		w[j] = 1
		for k := range pts {
			if k != j {
				w[j] /= pts[j] - pts[k]
			}
		}
	}

	for i := 0; i < n; i++ {
		diag := 0.0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d[i][j] = (w[j] / w[i]) / (pts[i] - pts[j])
			diag -= d[i][j]
		}
		d[i][i] = diag
	}
	return d
}

// finiteDifference is second order inside and first order at the ends.
func finiteDifference(pts []float64) Matrix {
	n := len(pts)
	d := zeros(n)
	if n == 1 {
		return d
	}
	for i := 0; i < n; i++ {
		switch i {
		case 0:
			h := pts[1] - pts[0]
			d[0][0], d[0][1] = -1/h, 1/h
		case n - 1:
			h := pts[n-1] - pts[n-2]
			d[i][i-1], d[i][i] = -1/h, 1/h
		default:
			h := pts[i+1] - pts[i-1]
			d[i][i-1], d[i][i+1] = -1/h, 1/h
		}
	}
	return d
}

// trapezoid integrates from the first point to each point.
func trapezoid(pts []float64) Matrix {
	n := len(pts)
	m := zeros(n)
	for i := 1; i < n; i++ {
		copy(m[i], m[i-1])
		h := pts[i] - pts[i-1]
		m[i][i-1] += h / 2
		m[i][i] += h / 2
	}
	return m
}
