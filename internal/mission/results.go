package mission

import (
	"fmt"
	"time"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/state"
)

// SegmentResult is the record one segment leaves in a mission result.
// Skipped entries were never evaluated because an earlier segment
// stopped the mission.
type SegmentResult struct {
	Name        string
	Kind        string
	Converged   bool
	Skipped     bool
	Evaluations int
	Residual    float64
	Message     string
	Duration    time.Duration
	State       *state.State
	Err         error
}

func newResult(s *segment.Segment, elapsed time.Duration, err error) SegmentResult {
	n := s.State.Numerics
	return SegmentResult{
		Name:        s.Name,
		Kind:        s.Kind,
		Converged:   err == nil && n.Converged,
		Evaluations: n.Evaluations,
		Residual:    n.Residual,
		Message:     n.Message,
		Duration:    elapsed,
		State:       s.State.Snapshot(),
		Err:         err,
	}
}

// Status is a short label for logs and metrics.
func (r SegmentResult) Status() string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Err != nil:
		return "error"
	case r.Converged:
		return "converged"
	default:
		return "not_converged"
	}
}

// Results holds one entry per mission segment, in mission order.
type Results struct {
	Mission  string
	Segments []SegmentResult
}

// Converged reports whether every segment was evaluated and converged.
func (r *Results) Converged() bool {
	for _, s := range r.Segments {
		if !s.Converged {
			return false
		}
	}
	return len(r.Segments) > 0
}

// Failed lists the segments that did not converge, including skipped
// and errored ones.
func (r *Results) Failed() []string {
	var names []string
	for _, s := range r.Segments {
		if !s.Converged {
			names = append(names, s.Name)
		}
	}
	return names
}

func (r *Results) Segment(name string) (SegmentResult, error) {
	for _, s := range r.Segments {
		if s.Name == name {
			return s, nil
		}
	}
	return SegmentResult{}, &dynamo.LookupError{Process: r.Mission, Key: name}
}

// Stack concatenates a condition's rows across every evaluated segment
// that carries it.
func (r *Results) Stack(path string) (*state.Array, error) {
	var rows [][]float64
	for _, s := range r.Segments {
		if s.State == nil {
			continue
		}
		a, err := s.State.Condition(path)
		if err != nil {
			continue
		}
		if len(rows) > 0 && a.Cols() != len(rows[0]) {
			return nil, &dynamo.ShapeError{Path: path, Want: len(rows[0]), Got: a.Cols()}
		}
		for i := 0; i < a.Rows(); i++ {
			rows = append(rows, a.RowAt(i))
		}
	}
	if len(rows) == 0 {
		return nil, &dynamo.LookupError{Process: r.Mission, Key: path}
	}
	return state.FromRows(rows)
}

// Final returns the terminal row of a condition in the last evaluated
// segment that carries it.
func (r *Results) Final(path string) ([]float64, error) {
	for i := len(r.Segments) - 1; i >= 0; i-- {
		s := r.Segments[i]
		if s.State == nil {
			continue
		}
		if a, err := s.State.Condition(path); err == nil && a.Rows() > 0 {
			return a.Last(), nil
		}
	}
	return nil, &dynamo.LookupError{Process: r.Mission, Key: path}
}

func (r *Results) String() string {
	return fmt.Sprintf("mission %q: %d segments, %d failed", r.Mission, len(r.Segments), len(r.Failed()))
}
