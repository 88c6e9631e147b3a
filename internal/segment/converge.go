package segment

import (
	"context"
	"fmt"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/solve"
	"github.com/san-kum/aerosim/internal/state"
)

// evaluation is the explicit context handed to the residual function.
// The solver only ever sees packed copies; unpacking copies the trial
// vector into the state so the two buffers never alias.
type evaluation struct {
	ctx     context.Context
	iterate *Process
	frame   Frame
	count   int
}

func (e *evaluation) residuals(x []float64) ([]float64, error) {
	st := e.frame.State
	if err := st.Unpack(state.Unknowns, x); err != nil {
		return nil, err
	}
	if _, err := e.iterate.Run(e.ctx, e.frame); err != nil {
		return nil, err
	}
	e.count++
	return st.Pack(state.Residuals)
}

// converge drives the root finder against the iterate process. The
// solver's final point (on failure, the last accepted Newton point) is
// left in the unknowns and iterate is re-run once so the conditions
// describe it. That re-run falls outside the evaluation budget and is not
// counted in Numerics.Evaluations. Non-convergence is recorded on the
// state.
func (s *Segment) converge(ctx context.Context, f Frame) (Frame, error) {
	st := f.State
	x0, err := st.Pack(state.Unknowns)
	if err != nil {
		return f, err
	}
	ev := &evaluation{ctx: ctx, iterate: s.Process.Iterate, frame: f}

	if len(x0) == 0 {
		if _, err := ev.residuals(x0); err != nil {
			return f, err
		}
		st.Numerics.Converged = true
		st.Numerics.Evaluations = ev.count
		st.Numerics.Message = "no unknowns"
		return f, nil
	}

	solver := s.Solver
	if solver == nil {
		solver = solve.NewNewton()
	}
	res, err := solver.Solve(ctx, ev.residuals, x0, solverOptions(f.Settings.Solver))
	if err != nil {
		return f, err
	}
	if res == nil {
		return f, fmt.Errorf("root finder returned no result")
	}

	if _, err := ev.residuals(res.X); err != nil {
		return f, err
	}

	num := &st.Numerics
	num.Converged = res.Converged()
	num.Evaluations = res.Info.Evaluations
	num.Residual = res.Info.Norm
	num.Message = res.Message
	if !num.Converged {
		s.failure = &dynamo.ConvergenceError{
			Segment:     s.Name,
			Evaluations: res.Info.Evaluations,
			Norm:        res.Info.Norm,
			Message:     res.Message,
		}
	}
	return f, nil
}

func solverOptions(o solve.Options) solve.Options {
	def := solve.DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = def.Tolerance
	}
	if o.StepSize <= 0 {
		o.StepSize = def.StepSize
	}
	return o
}
