package solve

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/aerosim/internal/dynamo"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Newton is a damped Newton-Raphson solver with a forward-difference
// Jacobian and backtracking on the residual norm.
type Newton struct {
	MaxBacktracks int
	Armijo        float64
}

func NewNewton() *Newton {
	return &Newton{MaxBacktracks: 12, Armijo: 1e-4}
}

var _ RootFinder = (*Newton)(nil)

type evaluator struct {
	f     Func
	n     int
	evals int
	limit int
	err   error
}

func (e *evaluator) eval(x []float64) (dynamo.Vector, error) {
	r, err := e.f(x)
	e.evals++
	if err != nil {
		return nil, err
	}
	if len(r) != e.n {
		return nil, &dynamo.ShapeError{Path: "residuals", Want: e.n, Got: len(r)}
	}
	return dynamo.Vector(r).Clone(), nil
}

func (e *evaluator) exhausted(extra int) bool { return e.evals+extra > e.limit }

func (s *Newton) Solve(ctx context.Context, f Func, x0 dynamo.Vector, opts Options) (*Result, error) {
	n := len(x0)
	if n == 0 {
		return nil, fmt.Errorf("solve: empty unknown vector")
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("solve: initial guess is not finite")
	}
	ev := &evaluator{f: f, n: n, limit: opts.budget(n)}

	x := x0.Clone()
	fx, err := ev.eval(x)
	if err != nil {
		return nil, err
	}

	res := &Result{X: x.Clone()}
	finish := func(status Status, msg string, iters int) *Result {
		res.Status = status
		res.Message = msg
		res.Info = Info{Evaluations: ev.evals, Iterations: iters, Residual: fx.Clone(), Norm: fx.MaxAbs()}
		res.X = x.Clone()
		return res
	}

	if !fx.IsValid() {
		return finish(NoProgress, "residuals not finite at initial guess", 0), nil
	}

	jac := mat.NewDense(n, n, nil)
	for iter := 0; ; iter++ {
		if fx.MaxAbs() <= opts.Tolerance {
			return finish(Converged, "residuals within tolerance", iter), nil
		}
		if err := ctx.Err(); err != nil {
			return finish(NoProgress, err.Error(), iter), err
		}
		if ev.exhausted(n + 1) {
			return finish(MaxEvaluations, fmt.Sprintf("evaluation budget of %d exhausted", ev.limit), iter), nil
		}

		s.jacobian(jac, ev, x, fx, opts.StepSize)
		if ev.err != nil {
			return finish(NoProgress, ev.err.Error(), iter), ev.err
		}

		dx, ok := newtonStep(jac, fx)
		if !ok {
			return finish(Singular, "jacobian is singular", iter), nil
		}

		accepted := false
		lambda := 1.0
		norm := fx.Norm()
		for k := 0; k <= s.MaxBacktracks; k++ {
			if ev.exhausted(1) {
				break
			}
			xt := x.Add(dx.Scale(lambda))
			ft, err := ev.eval(xt)
			if err != nil {
				return finish(NoProgress, err.Error(), iter), err
			}
			if ft.IsValid() && ft.Norm() <= (1-s.Armijo*lambda)*norm {
				x, fx = xt, ft
				accepted = true
				break
			}
			lambda /= 2
		}
		if !accepted {
			if ev.exhausted(1) {
				return finish(MaxEvaluations, fmt.Sprintf("evaluation budget of %d exhausted", ev.limit), iter+1), nil
			}
			return finish(NoProgress, "line search failed to reduce residuals", iter+1), nil
		}
	}
}

func (s *Newton) jacobian(dst *mat.Dense, ev *evaluator, x, fx dynamo.Vector, step float64) {
	if step <= 0 {
		step = DefaultOptions().StepSize
	}
	ev.err = nil
	fd.Jacobian(dst, func(y, xt []float64) {
		if ev.err != nil {
			fillNaN(y)
			return
		}
		r, err := ev.eval(xt)
		if err != nil {
			ev.err = err
			fillNaN(y)
			return
		}
		copy(y, r)
	}, x, &fd.JacobianSettings{
		Formula:     fd.Forward,
		OriginValue: fx,
		Step:        step,
	})
}

func newtonStep(jac *mat.Dense, fx dynamo.Vector) (dynamo.Vector, bool) {
	n := len(fx)
	var lu mat.LU
	lu.Factorize(jac)

	rhs := mat.NewVecDense(n, fx.Scale(-1))
	var dx mat.VecDense
	if err := lu.SolveVecTo(&dx, false, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, false
		}
	}

	out := make(dynamo.Vector, n)
	for i := range out {
		out[i] = dx.AtVec(i)
	}
	if !out.IsValid() {
		return nil, false
	}
	return out, true
}

func fillNaN(y []float64) {
	for i := range y {
		y[i] = math.NaN()
	}
}
