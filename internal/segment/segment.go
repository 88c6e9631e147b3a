// Package segment runs one flight phase: a State, its Settings, the
// vehicle being flown and four processes.
//
// Evaluation walks a fixed state machine:
//
//	Uninitialized -> Expanded -> ConditionsInitialized -> (Converged | Failed) -> PostProcessed
//
// The initialize process expands the state to the segment's control
// points and seeds the unknowns; the converge process drives the iterate
// process with a root finder until the residuals vanish; post_process
// derives trajectory quantities whether or not the solve converged.
package segment

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/numerics"
	"github.com/san-kum/aerosim/internal/process"
	"github.com/san-kum/aerosim/internal/solve"
	"github.com/san-kum/aerosim/internal/state"
	"github.com/san-kum/aerosim/internal/vehicle"
)

type Phase int

const (
	Uninitialized Phase = iota
	Expanded
	ConditionsInitialized
	Converged
	Failed
	PostProcessed
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Expanded:
		return "expanded"
	case ConditionsInitialized:
		return "conditions_initialized"
	case Converged:
		return "converged"
	case Failed:
		return "failed"
	case PostProcessed:
		return "post_processed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Process names addressable through Segment paths.
const (
	Initialize  = "initialize"
	Converge    = "converge"
	Iterate     = "iterate"
	PostProcess = "post_process"
)

type Processes struct {
	Initialize  *Process
	Converge    *Process
	Iterate     *Process
	PostProcess *Process
}

type Segment struct {
	Name     string
	Kind     string
	State    *state.State
	Settings *Settings
	System   *vehicle.Vehicle
	Process  Processes
	Solver   solve.RootFinder

	unknowns  []Unknown
	equations []string
	phase     Phase
	failure   error
}

// New returns a segment whose initialize process only expands the state
// and whose converge process only runs the root finder. Builders add the
// physics.
func New(name, kind string, system *vehicle.Vehicle, settings *Settings) *Segment {
	if settings == nil {
		settings = DefaultSettings()
	}
	s := &Segment{
		Name:     name,
		Kind:     kind,
		State:    state.New(),
		Settings: settings,
		System:   system,
		Solver:   solve.NewNewton(),
	}
	s.Process = Processes{
		Initialize:  NewProcess(Initialize, NewStep("expand_state", s.expand)),
		Converge:    NewProcess(Converge, process.NewStep("converge_root", s.converge)),
		Iterate:     NewProcess(Iterate),
		PostProcess: NewProcess(PostProcess),
	}
	return s
}

func (s *Segment) Phase() Phase { return s.phase }

// Failure returns the recorded ConvergenceError or fatal error, if any.
func (s *Segment) Failure() error { return s.failure }

func (s *Segment) Converged() bool { return s.State.Numerics.Converged }

// Unknowns returns the unknowns of the last Configure.
func (s *Segment) Unknowns() []Unknown { return append([]Unknown(nil), s.unknowns...) }

func (s *Segment) Equations() []string { return append([]string(nil), s.equations...) }

// Configure resolves the active controls and equations and enforces the
// degrees-of-freedom gate.
func (s *Segment) Configure() error {
	unknowns, err := s.Settings.Controls.Unknowns()
	if err != nil {
		return &dynamo.ConfigurationError{Segment: s.Name, Reason: err.Error()}
	}
	eqs := s.Settings.Flight.Equations()
	if len(eqs) != len(unknowns) {
		return &dynamo.ConfigurationError{Segment: s.Name, Equations: len(eqs), Unknowns: len(unknowns)}
	}
	s.unknowns, s.equations = unknowns, eqs
	return nil
}

// Evaluate runs initialize, converge and post_process. A convergence
// failure is recorded, not returned; every other error aborts the
// segment and is returned.
func (s *Segment) Evaluate(ctx context.Context) error {
	log := s.Settings.logger().With("segment", s.Name, "kind", s.Kind)
	s.phase, s.failure = Uninitialized, nil
	s.State.Numerics = state.Numerics{}

	if err := s.Configure(); err != nil {
		return s.fail(err)
	}

	f := s.frame()
	if _, err := s.Process.Initialize.Run(ctx, f); err != nil {
		return s.fail(err)
	}
	s.phase = ConditionsInitialized

	if _, err := s.Process.Converge.Run(ctx, f); err != nil {
		return s.fail(err)
	}
	if s.State.Numerics.Converged {
		s.phase = Converged
	} else {
		s.phase = Failed
		log.Warn("segment did not converge",
			"evaluations", s.State.Numerics.Evaluations,
			"residual", s.State.Numerics.Residual,
			"message", s.State.Numerics.Message)
	}

	if s.Process.PostProcess.Len() > 0 {
		if _, err := s.Process.PostProcess.Run(ctx, f); err != nil {
			return s.fail(err)
		}
	}
	s.phase = PostProcessed
	log.Debug("segment evaluated", "converged", s.Converged(), "evaluations", s.State.Numerics.Evaluations)
	return nil
}

func (s *Segment) fail(err error) error {
	s.phase = Failed
	s.failure = err
	return fmt.Errorf("segment %q: %w", s.Name, err)
}

func (s *Segment) frame() Frame {
	return Frame{Segment: s.Name, State: s.State, Settings: s.Settings, System: s.System}
}

// expand discretizes the segment, declares the unknowns and residuals
// and brings every existing array to the control-point count.
func (s *Segment) expand(f Frame) error {
	n := s.Settings.Numerics.ControlPoints
	if n == 0 {
		n = DefaultControlPoints
	}
	d, err := numerics.Discretize(n, s.Settings.Numerics.Discretization)
	if err != nil {
		return &dynamo.ConfigurationError{Segment: s.Name, Reason: err.Error()}
	}
	st := f.State
	st.Numerics.Discretization = d

	root := st.Root()
	root.Remove(state.Unknowns)
	root.Remove(state.Residuals)
	for _, u := range s.unknowns {
		st.Unknowns().Put(u.Name, state.Full(n, 1, u.Guess))
	}
	for _, eq := range s.equations {
		st.Residuals().Put(eq, state.NewArray(n, 1))
	}
	if err := st.ExpandRows(n); err != nil {
		return err
	}
	if err := st.Declare(state.Unknowns); err != nil {
		return err
	}
	if err := st.Declare(state.Residuals); err != nil {
		return err
	}
	s.phase = Expanded
	return nil
}

// processFor splits a segment path into its top-level process and the
// remaining stage path.
func (s *Segment) processFor(path string) (*Process, string, error) {
	head, rest, _ := strings.Cut(path, ".")
	var p *Process
	switch head {
	case Initialize:
		p = s.Process.Initialize
	case Converge:
		p = s.Process.Converge
	case Iterate:
		p = s.Process.Iterate
	case PostProcess:
		p = s.Process.PostProcess
	}
	if p == nil || rest == "" {
		return nil, "", &dynamo.LookupError{Process: s.Name, Key: path}
	}
	return p, rest, nil
}

// Stage returns the stage at a path such as "iterate.forces".
func (s *Segment) Stage(path string) (Stage, error) {
	p, rest, err := s.processFor(path)
	if err != nil {
		return nil, err
	}
	return p.Get(rest)
}

// Disable swaps the stage at path for a NoOp with the same name.
func (s *Segment) Disable(path string) error {
	p, rest, err := s.processFor(path)
	if err != nil {
		return err
	}
	return p.Disable(rest)
}

func (s *Segment) Replace(path string, stage Stage) error {
	p, rest, err := s.processFor(path)
	if err != nil {
		return err
	}
	return p.Replace(rest, stage)
}

func (s *Segment) InsertAfter(path string, stage Stage) error {
	p, rest, err := s.processFor(path)
	if err != nil {
		return err
	}
	return p.InsertAfter(rest, stage)
}

func (s *Segment) InsertBefore(path string, stage Stage) error {
	p, rest, err := s.processFor(path)
	if err != nil {
		return err
	}
	return p.InsertBefore(rest, stage)
}
