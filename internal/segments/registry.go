package segments

import (
	"fmt"
	"sort"

	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/vehicle"
)

type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.Register(ClimbConstantSpeedConstantRate, Climb)
	r.Register(DescentConstantSpeedConstantRate, Descent)
	r.Register(CruiseConstantSpeedConstantAltitude, Cruise)
	r.Register(CruiseConstantThrottleConstantAltitude, CruiseConstantThrottle)
	r.Register(SinglePoint, Point)
	return r
}

func (r *Registry) Register(kind string, b Builder) {
	r.builders[kind] = b
}

func (r *Registry) Build(kind, name string, v *vehicle.Vehicle, settings *segment.Settings) (*segment.Segment, error) {
	b, ok := r.builders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown segment type: %s", kind)
	}
	return b(name, v, settings), nil
}

func (r *Registry) Has(kind string) bool {
	_, ok := r.builders[kind]
	return ok
}

func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.builders))
	for k := range r.builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
