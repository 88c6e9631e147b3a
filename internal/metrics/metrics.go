// Package metrics reduces mission results to scalar figures of merit and
// exports segment outcomes to Prometheus.
package metrics

import (
	"github.com/san-kum/aerosim/internal/mission"
	"github.com/san-kum/aerosim/internal/segment"
)

// Metric accumulates one figure of merit over the segments it observes.
type Metric interface {
	Name() string
	Observe(r mission.SegmentResult)
	Value() float64
	Reset()
}

// Defaults returns one instance of every built-in metric.
func Defaults() []Metric {
	return []Metric{
		NewFuelBurned(),
		NewBlockTime(),
		NewRange(),
		NewEvaluations(),
		NewConvergence(),
	}
}

// Summarize feeds every segment of res to each metric, from a reset
// state, and returns the values by name.
func Summarize(res *mission.Results, ms ...Metric) map[string]float64 {
	if len(ms) == 0 {
		ms = Defaults()
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for _, r := range res.Segments {
			m.Observe(r)
		}
		out[m.Name()] = m.Value()
	}
	return out
}

func column(r mission.SegmentResult, path string) []float64 {
	if r.State == nil {
		return nil
	}
	a, err := r.State.Condition(path)
	if err != nil || a.Rows() == 0 {
		return nil
	}
	return a.Col(0)
}

// FuelBurned sums the mass each segment lost.
type FuelBurned struct {
	sum float64
}

func NewFuelBurned() *FuelBurned { return &FuelBurned{} }

func (f *FuelBurned) Name() string { return "fuel_burned" }

func (f *FuelBurned) Observe(r mission.SegmentResult) {
	m := column(r, segment.TotalMass)
	if len(m) == 0 {
		return
	}
	f.sum += m[0] - m[len(m)-1]
}

func (f *FuelBurned) Value() float64 { return f.sum }
func (f *FuelBurned) Reset()         { f.sum = 0 }

// BlockTime spans the earliest to the latest mission time observed.
type BlockTime struct {
	first, last float64
	seen        bool
}

func NewBlockTime() *BlockTime { return &BlockTime{} }

func (b *BlockTime) Name() string { return "block_time" }

func (b *BlockTime) Observe(r mission.SegmentResult) {
	t := column(r, segment.Time)
	if len(t) == 0 {
		return
	}
	if !b.seen {
		b.first = t[0]
		b.seen = true
	}
	b.last = t[len(t)-1]
}

func (b *BlockTime) Value() float64 {
	if !b.seen {
		return 0
	}
	return b.last - b.first
}

func (b *BlockTime) Reset() { *b = BlockTime{} }

// Range is the inertial x distance covered.
type Range struct {
	first, last float64
	seen        bool
}

func NewRange() *Range { return &Range{} }

func (g *Range) Name() string { return "range" }

func (g *Range) Observe(r mission.SegmentResult) {
	x := column(r, segment.PositionVector)
	if len(x) == 0 {
		return
	}
	if !g.seen {
		g.first = x[0]
		g.seen = true
	}
	g.last = x[len(x)-1]
}

func (g *Range) Value() float64 {
	if !g.seen {
		return 0
	}
	return g.last - g.first
}

func (g *Range) Reset() { *g = Range{} }

// Evaluations totals residual evaluations across segments.
type Evaluations struct {
	total int
}

func NewEvaluations() *Evaluations { return &Evaluations{} }

func (e *Evaluations) Name() string                    { return "evaluations" }
func (e *Evaluations) Observe(r mission.SegmentResult) { e.total += r.Evaluations }
func (e *Evaluations) Value() float64                  { return float64(e.total) }
func (e *Evaluations) Reset()                          { e.total = 0 }

// Convergence is the fraction of segments that converged. Skipped
// segments count against it.
type Convergence struct {
	converged int
	samples   int
}

func NewConvergence() *Convergence { return &Convergence{} }

func (c *Convergence) Name() string { return "convergence" }

func (c *Convergence) Observe(r mission.SegmentResult) {
	c.samples++
	if r.Converged {
		c.converged++
	}
}

func (c *Convergence) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return float64(c.converged) / float64(c.samples)
}

func (c *Convergence) Reset() {
	c.converged = 0
	c.samples = 0
}
