// Package solve defines the root-finder contract used by segment
// convergence and provides a damped Newton implementation.
package solve

import (
	"context"
	"fmt"

	"github.com/san-kum/aerosim/internal/dynamo"
)

// Func evaluates residuals at a trial point. Implementations must not
// retain x.
type Func func(x []float64) ([]float64, error)

type Options struct {
	// Tolerance bounds the largest absolute residual at a solution.
	Tolerance float64
	// MaxEvaluations caps residual evaluations; zero selects 200*(n+1).
	MaxEvaluations int
	// StepSize is the finite-difference step for the Jacobian.
	StepSize float64
}

func DefaultOptions() Options {
	return Options{
		Tolerance:      1e-8,
		MaxEvaluations: 0,
		StepSize:       1e-7,
	}
}

func (o Options) budget(n int) int {
	if o.MaxEvaluations > 0 {
		return o.MaxEvaluations
	}
	return 200 * (n + 1)
}

type Status int

const (
	Converged Status = iota + 1
	MaxEvaluations
	NoProgress
	Singular
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxEvaluations:
		return "max evaluations reached"
	case NoProgress:
		return "no progress"
	case Singular:
		return "singular jacobian"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type Info struct {
	Evaluations int
	Iterations  int
	Residual    dynamo.Vector
	Norm        float64
}

// Result carries the solution point, diagnostics, status and message.
// X is always a point that was evaluated with finite residuals.
type Result struct {
	X       dynamo.Vector
	Info    Info
	Status  Status
	Message string
}

func (r *Result) Converged() bool { return r.Status == Converged }

// RootFinder solves f(x) = 0. A returned error means f itself failed or
// the context ended; failing to converge is reported through Status.
type RootFinder interface {
	Solve(ctx context.Context, f Func, x0 dynamo.Vector, opts Options) (*Result, error)
}

// SolverFunc adapts a function to RootFinder.
type SolverFunc func(ctx context.Context, f Func, x0 dynamo.Vector, opts Options) (*Result, error)

func (fn SolverFunc) Solve(ctx context.Context, f Func, x0 dynamo.Vector, opts Options) (*Result, error) {
	return fn(ctx, f, x0, opts)
}
