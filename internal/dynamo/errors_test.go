package dynamo

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"shape", &ShapeError{Path: "unknowns", Want: 4, Got: 3}, ErrShape},
		{"lookup", &LookupError{Process: "iterate", Key: "forces"}, ErrLookup},
		{"configuration", &ConfigurationError{Segment: "climb", Equations: 3, Unknowns: 2}, ErrConfiguration},
		{"convergence", &ConvergenceError{Segment: "cruise", Evaluations: 10}, ErrConvergence},
		{"physics", &PhysicsError{Step: "aerodynamics", Wrapped: errors.New("no wing")}, ErrPhysics},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("segment evaluation: %w", tt.err)
			if !errors.Is(wrapped, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.kind)
			}
		})
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Segment: "climb", Equations: 3, Unknowns: 2}
	expected := `dynamo: invalid segment configuration: segment "climb" has 3 active equations but 2 control unknowns`
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestPhysics(t *testing.T) {
	if Physics("aero", nil) != nil {
		t.Fatal("expected nil for nil error")
	}

	cause := errors.New("missing wing area")
	err := Physics("aerodynamics", cause)
	if !errors.Is(err, ErrPhysics) || !errors.Is(err, cause) {
		t.Errorf("expected physics error wrapping cause, got %v", err)
	}

	var pe *PhysicsError
	if !errors.As(err, &pe) || pe.Step != "aerodynamics" {
		t.Errorf("expected PhysicsError for step aerodynamics, got %v", err)
	}

	shape := &ShapeError{Path: "x", Want: 1, Got: 2}
	if got := Physics("unknowns", shape); got != error(shape) {
		t.Errorf("expected shape error passed through, got %v", got)
	}
}
