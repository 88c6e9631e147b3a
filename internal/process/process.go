package process

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/aerosim/internal/dynamo"
)

// Process runs its stages in order, threading each output into the next
// stage. Lookup indexes are rebuilt on every mutation.
type Process[T any] struct {
	name    string
	stages  []Stage[T]
	byName  map[string]int
	byFunc  map[uintptr][]int
	results []T
}

func New[T any](name string, stages ...Stage[T]) *Process[T] {
	p := &Process[T]{name: name}
	p.stages = append(p.stages, stages...)
	p.reindex()
	return p
}

func (p *Process[T]) Name() string { return p.name }
func (p *Process[T]) Len() int     { return len(p.stages) }

// Stages returns a copy of the stage list.
func (p *Process[T]) Stages() []Stage[T] {
	out := make([]Stage[T], len(p.stages))
	copy(out, p.stages)
	return out
}

func (p *Process[T]) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

func (p *Process[T]) reindex() {
	p.byName = make(map[string]int, len(p.stages))
	p.byFunc = make(map[uintptr][]int, len(p.stages))
	for i, s := range p.stages {
		if _, dup := p.byName[s.Name()]; !dup {
			p.byName[s.Name()] = i
		}
		if step, ok := s.(*Step[T]); ok && step.id != 0 {
			p.byFunc[step.id] = append(p.byFunc[step.id], i)
		}
	}
	p.results = nil
}

func (p *Process[T]) notFound(key string) error {
	return &dynamo.LookupError{Process: p.name, Key: key}
}

// Index returns the position of the first stage called name.
func (p *Process[T]) Index(name string) (int, error) {
	i, ok := p.byName[name]
	if !ok {
		return -1, p.notFound(name)
	}
	return i, nil
}

// IndexFunc returns the position of the step built from fn, either the
// Func itself or the source passed to NewStepFor. A function shared by
// several steps is ambiguous and fails the lookup.
func (p *Process[T]) IndexFunc(fn any) (int, error) {
	id := Identity(fn)
	at := p.byFunc[id]
	switch {
	case id == 0 || len(at) == 0:
		return -1, p.notFound(fmt.Sprintf("func@%#x", id))
	case len(at) > 1:
		return -1, p.notFound(fmt.Sprintf("func@%#x (shared by %d steps)", id, len(at)))
	}
	return at[0], nil
}

// Get resolves a dotted path through nested processes.
func (p *Process[T]) Get(path string) (Stage[T], error) {
	parent, stage, err := p.resolve(path)
	if err != nil {
		return nil, err
	}
	return parent.stages[stage], nil
}

// resolve walks a dotted path to the process holding the final stage.
func (p *Process[T]) resolve(path string) (*Process[T], int, error) {
	parts := strings.Split(path, ".")
	cur := p
	for depth, part := range parts {
		i, ok := cur.byName[part]
		if !ok {
			return nil, -1, &dynamo.LookupError{Process: cur.name, Key: path}
		}
		if depth == len(parts)-1 {
			return cur, i, nil
		}
		next, ok := cur.stages[i].(*Process[T])
		if !ok {
			return nil, -1, &dynamo.LookupError{Process: cur.name, Key: path}
		}
		cur = next
	}
	return nil, -1, p.notFound(path)
}

// Process returns the nested process at path.
func (p *Process[T]) Process(path string) (*Process[T], error) {
	s, err := p.Get(path)
	if err != nil {
		return nil, err
	}
	sub, ok := s.(*Process[T])
	if !ok {
		return nil, p.notFound(path)
	}
	return sub, nil
}

func (p *Process[T]) Append(stages ...Stage[T]) {
	p.stages = append(p.stages, stages...)
	p.reindex()
}

// Insert places stage at position i, shifting later stages.
func (p *Process[T]) Insert(i int, stage Stage[T]) error {
	if i < 0 || i > len(p.stages) {
		return p.notFound(fmt.Sprintf("index %d", i))
	}
	p.stages = append(p.stages, nil)
	copy(p.stages[i+1:], p.stages[i:])
	p.stages[i] = stage
	p.reindex()
	return nil
}

func (p *Process[T]) InsertBefore(path string, stage Stage[T]) error {
	parent, i, err := p.resolve(path)
	if err != nil {
		return err
	}
	return parent.Insert(i, stage)
}

func (p *Process[T]) InsertAfter(path string, stage Stage[T]) error {
	parent, i, err := p.resolve(path)
	if err != nil {
		return err
	}
	return parent.Insert(i+1, stage)
}

// Replace swaps the stage at path, keeping its position.
func (p *Process[T]) Replace(path string, stage Stage[T]) error {
	parent, i, err := p.resolve(path)
	if err != nil {
		return err
	}
	parent.stages[i] = stage
	parent.reindex()
	return nil
}

// ReplaceFunc swaps the step built from fn in this process.
func (p *Process[T]) ReplaceFunc(fn any, stage Stage[T]) error {
	i, err := p.IndexFunc(fn)
	if err != nil {
		return err
	}
	p.stages[i] = stage
	p.reindex()
	return nil
}

// Disable replaces the stage at path with a NoOp of the same name, so
// the structure and ordering of the process are unchanged.
func (p *Process[T]) Disable(path string) error {
	s, err := p.Get(path)
	if err != nil {
		return err
	}
	return p.Replace(path, NoOp[T](s.Name()))
}

func (p *Process[T]) Remove(path string) error {
	parent, i, err := p.resolve(path)
	if err != nil {
		return err
	}
	parent.stages = append(parent.stages[:i], parent.stages[i+1:]...)
	parent.reindex()
	return nil
}

func (p *Process[T]) RemoveFunc(fn any) error {
	i, err := p.IndexFunc(fn)
	if err != nil {
		return err
	}
	p.stages = append(p.stages[:i], p.stages[i+1:]...)
	p.reindex()
	return nil
}

// Run executes every stage from the first.
func (p *Process[T]) Run(ctx context.Context, in T) (T, error) {
	return p.RunFrom(ctx, in, 0)
}

// RunFrom executes stages starting at index start and returns the
// output of the last one. Errors abort the remaining stages.
func (p *Process[T]) RunFrom(ctx context.Context, in T, start int) (T, error) {
	if len(p.stages) == 0 {
		return in, fmt.Errorf("%w: %q", dynamo.ErrEmptyProcess, p.name)
	}
	if start < 0 || start >= len(p.stages) {
		return in, p.notFound(fmt.Sprintf("index %d", start))
	}

	p.results = make([]T, len(p.stages))
	out := in
	for i := start; i < len(p.stages); i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		stage := p.stages[i]
		next, err := stage.Run(ctx, out)
		if err != nil {
			return out, fmt.Errorf("%s.%s: %w", p.name, stage.Name(), err)
		}
		out = next
		p.results[i] = out
	}
	return out, nil
}

// RunAt executes stages starting at the named stage.
func (p *Process[T]) RunAt(ctx context.Context, in T, name string) (T, error) {
	i, err := p.Index(name)
	if err != nil {
		return in, err
	}
	return p.RunFrom(ctx, in, i)
}

// Results returns the cached stage outputs of the most recent run. Stages
// skipped by a partial run hold the zero value.
func (p *Process[T]) Results() []T {
	out := make([]T, len(p.results))
	copy(out, p.results)
	return out
}
