package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for segment configuration and evaluation.
var (
	// ErrConfiguration indicates a segment whose unknowns do not match its equations.
	ErrConfiguration = errors.New("dynamo: invalid segment configuration")

	// ErrShape indicates an array or packed vector with the wrong size.
	ErrShape = errors.New("dynamo: shape mismatch")

	// ErrLookup indicates a Step or Process addressed by an absent key.
	ErrLookup = errors.New("dynamo: stage not found")

	// ErrEmptyProcess indicates a Process executed without any stage.
	ErrEmptyProcess = errors.New("dynamo: process has no stages")

	// ErrConvergence indicates the root finder did not reach the tolerance.
	ErrConvergence = errors.New("dynamo: segment did not converge")

	// ErrPhysics indicates an external physics collaborator failed.
	ErrPhysics = errors.New("dynamo: physics evaluation failed")
)

// ShapeError reports a size mismatch on a state path.
type ShapeError struct {
	Path string
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %q wants %d, got %d", ErrShape, e.Path, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error { return ErrShape }

// LookupError reports a missing stage inside a named process.
type LookupError struct {
	Process string
	Key     string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %q in process %q", ErrLookup, e.Key, e.Process)
}

func (e *LookupError) Unwrap() error { return ErrLookup }

// ConfigurationError reports a segment that cannot be solved as declared.
type ConfigurationError struct {
	Segment   string
	Equations int
	Unknowns  int
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: segment %q: %s", ErrConfiguration, e.Segment, e.Reason)
	}
	return fmt.Sprintf("%s: segment %q has %d active equations but %d control unknowns",
		ErrConfiguration, e.Segment, e.Equations, e.Unknowns)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ConvergenceError describes a failed solve. Segments record it rather
// than returning it; it is the only recoverable kind.
type ConvergenceError struct {
	Segment     string
	Evaluations int
	Norm        float64
	Message     string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: segment %q after %d evaluations (|r|=%.3e): %s",
		ErrConvergence, e.Segment, e.Evaluations, e.Norm, e.Message)
}

func (e *ConvergenceError) Unwrap() error { return ErrConvergence }

// PhysicsError wraps a failure raised by a collaborator inside a Step.
type PhysicsError struct {
	Step    string
	Wrapped error
}

func (e *PhysicsError) Error() string {
	return fmt.Sprintf("%s: step %q: %v", ErrPhysics, e.Step, e.Wrapped)
}

// Unwrap exposes both the kind and the collaborator's own error.
func (e *PhysicsError) Unwrap() []error { return []error{ErrPhysics, e.Wrapped} }

// Physics wraps err as a PhysicsError unless it already carries one of
// the package kinds.
func Physics(step string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrConfiguration, ErrShape, ErrLookup, ErrEmptyProcess, ErrPhysics} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return &PhysicsError{Step: step, Wrapped: err}
}
