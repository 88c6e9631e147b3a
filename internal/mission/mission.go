// Package mission chains segments into a flight.
//
// Segments run strictly in order. Before segment i initializes, its
// state receives a read-only reference to segment i-1's state, from
// which initialize steps take the terminal row of every value the
// segment was not given explicitly: time, mass, stored energy, inertial
// and planetary position. Unknowns, residuals and control deflections
// are not carried.
//
// A segment that fails to converge still propagates its terminal row;
// its result entry carries the flag. With HaltOnFailure set, the mission
// stops instead. Any other error stops the mission: the failing entry
// records the error and every later entry is marked skipped.
package mission

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/segment"
)

type Mission struct {
	Name          string
	HaltOnFailure bool

	segments  []*segment.Segment
	index     map[string]int
	observers []Observer
}

func New(name string) *Mission {
	return &Mission{Name: name, index: make(map[string]int)}
}

// Append adds segments in flight order. Names must be unique.
func (m *Mission) Append(segs ...*segment.Segment) error {
	for _, s := range segs {
		if _, dup := m.index[s.Name]; dup {
			return fmt.Errorf("mission %q: duplicate segment %q", m.Name, s.Name)
		}
		m.index[s.Name] = len(m.segments)
		m.segments = append(m.segments, s)
	}
	return nil
}

func (m *Mission) Segment(name string) (*segment.Segment, error) {
	i, ok := m.index[name]
	if !ok {
		return nil, &dynamo.LookupError{Process: m.Name, Key: name}
	}
	return m.segments[i], nil
}

func (m *Mission) Segments() []*segment.Segment {
	return append([]*segment.Segment(nil), m.segments...)
}

func (m *Mission) Len() int { return len(m.segments) }

func (m *Mission) AddObserver(o Observer) { m.observers = append(m.observers, o) }

// Evaluate flies every segment in order and returns one entry per
// segment. The error is non-nil when the mission stopped early.
func (m *Mission) Evaluate(ctx context.Context) (*Results, error) {
	obs := CompositeObserver(m.observers)
	res := &Results{Mission: m.Name, Segments: make([]SegmentResult, 0, len(m.segments))}

	var stop error
	var prev *segment.Segment
	for _, s := range m.segments {
		if stop != nil {
			r := SegmentResult{Name: s.Name, Kind: s.Kind, Skipped: true}
			res.Segments = append(res.Segments, r)
			obs.OnSegmentEnd(m.Name, r)
			continue
		}

		if prev != nil {
			s.State.SetInitials(prev.State)
		}
		obs.OnSegmentStart(m.Name, s)
		start := time.Now()
		err := s.Evaluate(ctx)
		r := newResult(s, time.Since(start), err)
		res.Segments = append(res.Segments, r)
		obs.OnSegmentEnd(m.Name, r)

		switch {
		case err != nil:
			stop = fmt.Errorf("mission %q: %w", m.Name, err)
		case !r.Converged && m.HaltOnFailure:
			stop = fmt.Errorf("mission %q halted: %w", m.Name, s.Failure())
		}
		prev = s
	}
	return res, stop
}
