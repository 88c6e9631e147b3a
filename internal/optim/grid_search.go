// Package optim searches mission parameters for the best figure of merit.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/aerosim/internal/config"
	"github.com/san-kum/aerosim/internal/metrics"
	"github.com/san-kum/aerosim/internal/mission"
)

var ErrNoFeasible = errors.New("optim: no grid point converged")

// Axis varies one segment parameter over fixed values.
type Axis struct {
	Segment string
	Param   string
	Values  []float64
}

func (a Axis) key() string { return a.Segment + "." + a.Param }

// Point is one evaluated grid point, keyed by "segment.param".
type Point struct {
	Params    map[string]float64
	Value     float64
	Converged bool
	Err       error
}

type GridSearch struct {
	axes []Axis
}

func NewGridSearch(axes ...Axis) *GridSearch {
	return &GridSearch{axes: axes}
}

// Points enumerates the grid with the last axis varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.enumerate(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.axes) {
		*out = append(*out, current)
		return
	}
	axis := g.axes[depth]
	for _, val := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[axis.key()] = val
		g.enumerate(depth+1, next, out)
	}
}

// Search flies base once per grid point, with up to workers missions in
// flight, and returns the converged point with the smallest metric along
// with every evaluated point.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string, opts config.Options, workers int) (Point, []Point, error) {
	if !knownMetric(metric) {
		return Point{}, nil, fmt.Errorf("optim: unknown metric %q", metric)
	}
	grid := g.Points()
	missions := make([]*mission.Mission, len(grid))
	for i, params := range grid {
		cfg, err := base.Clone()
		if err != nil {
			return Point{}, nil, err
		}
		cfg.Name = fmt.Sprintf("%s#%d", base.Name, i)
		for _, axis := range g.axes {
			if err := cfg.SetParam(axis.Segment, axis.Param, params[axis.key()]); err != nil {
				return Point{}, nil, err
			}
		}
		missions[i], err = config.Build(cfg, opts)
		if err != nil {
			return Point{}, nil, err
		}
	}

	results, _ := mission.RunAll(ctx, missions, workers)
	if err := ctx.Err(); err != nil {
		return Point{}, nil, err
	}

	best := Point{Value: math.Inf(1)}
	points := make([]Point, len(grid))
	for i, res := range results {
		p := Point{Params: grid[i], Value: math.NaN()}
		if res != nil {
			p.Converged = res.Converged()
			p.Value = metrics.Summarize(res)[metric]
			for _, s := range res.Segments {
				if s.Err != nil {
					p.Err = s.Err
				}
			}
		}
		points[i] = p
		if p.Converged && p.Value < best.Value {
			best = p
		}
	}
	if best.Params == nil {
		return Point{}, points, ErrNoFeasible
	}
	return best, points, nil
}

func knownMetric(name string) bool {
	for _, m := range metrics.Defaults() {
		if m.Name() == name {
			return true
		}
	}
	return false
}
