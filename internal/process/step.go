package process

import (
	"context"
	"fmt"
	"reflect"
)

// Func is the signature every pluggable computation conforms to.
type Func[T any] func(ctx context.Context, in T) (T, error)

// Stage is the capability shared by Step and Process.
type Stage[T any] interface {
	Name() string
	Run(ctx context.Context, in T) (T, error)
}

// Step wraps a single named function and caches its last output.
type Step[T any] struct {
	name string
	fn   Func[T]
	id   uintptr
	last T
	ran  bool
}

// NewStep panics on a nil function; use NoOp for an identity stage.
func NewStep[T any](name string, fn Func[T]) *Step[T] {
	return NewStepFor(name, fn, fn)
}

// NewStepFor builds a step that runs fn but is looked up by source, the
// function fn adapts. Adapters built from one literal would otherwise
// all share a single identity.
func NewStepFor[T any](name string, source any, fn Func[T]) *Step[T] {
	if fn == nil {
		panic(fmt.Sprintf("process: step %q has nil function", name))
	}
	id := Identity(source)
	if id == 0 {
		panic(fmt.Sprintf("process: step %q has no source function", name))
	}
	return &Step[T]{name: name, fn: fn, id: id}
}

// NoOp returns a step that passes its input through unchanged.
func NoOp[T any](name string) *Step[T] {
	return &Step[T]{name: name}
}

func (s *Step[T]) Name() string  { return s.name }
func (s *Step[T]) IsNoOp() bool  { return s.fn == nil }
func (s *Step[T]) Func() Func[T] { return s.fn }

// ID is the identity IndexFunc matches against; zero for a NoOp.
func (s *Step[T]) ID() uintptr { return s.id }

func (s *Step[T]) Run(ctx context.Context, in T) (T, error) {
	if s.fn == nil {
		s.last, s.ran = in, true
		return in, nil
	}
	out, err := s.fn(ctx, in)
	if err != nil {
		return out, err
	}
	s.last, s.ran = out, true
	return out, nil
}

// Last returns the output of the most recent successful run.
func (s *Step[T]) Last() (T, bool) { return s.last, s.ran }

// Identity is the code address of a function value, or zero for nil and
// non-function values. Closures created by the same literal share it.
func Identity(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	return v.Pointer()
}
