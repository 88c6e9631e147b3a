package vehicle

import (
	"math"
	"sync"
)

// Surrogate tabulates the polar over angle of attack so repeated
// evaluations interpolate instead of recomputing.
type Surrogate struct {
	alphaMin, alphaMax float64
	step               float64
	cl, cd, cm         []float64
	polar              Polar
}

const (
	surrogateMin    = -0.35
	surrogateMax    = 0.35
	surrogateSample = 141
)

func BuildSurrogate(p Polar) *Surrogate {
	s := &Surrogate{
		alphaMin: surrogateMin,
		alphaMax: surrogateMax,
		step:     (surrogateMax - surrogateMin) / float64(surrogateSample-1),
		cl:       make([]float64, surrogateSample),
		cd:       make([]float64, surrogateSample),
		cm:       make([]float64, surrogateSample),
		polar:    p,
	}
	for i := 0; i < surrogateSample; i++ {
		s.cl[i], s.cd[i], s.cm[i] = p.Coefficients(s.alphaMin+float64(i)*s.step, 0)
	}
	return s
}

// Coefficients interpolates the clean polar in alpha and adds the
// elevator increments analytically. Outside the table it falls back to
// the polar itself.
func (s *Surrogate) Coefficients(alpha, elevator float64) (cl, cd, cm float64) {
	if alpha < s.alphaMin || alpha > s.alphaMax || math.IsNaN(alpha) {
		return s.polar.Coefficients(alpha, elevator)
	}
	x := (alpha - s.alphaMin) / s.step
	i := int(x)
	if i >= surrogateSample-1 {
		i = surrogateSample - 2
	}
	frac := x - float64(i)
	cl = s.cl[i]*(1-frac) + s.cl[i+1]*frac
	cm = s.cm[i]*(1-frac) + s.cm[i+1]*frac
	if elevator == 0 {
		cd = s.cd[i]*(1-frac) + s.cd[i+1]*frac
		return cl, cd, cm
	}
	cl += s.polar.CLElevator * elevator
	cm += s.polar.CmElevator * elevator
	cd = s.polar.CD0 + s.polar.K*cl*cl
	return cl, cd, cm
}

// Cache holds surrogates keyed by vehicle name. It is passed explicitly
// to every segment that should share it and is safe for concurrent use
// by independent missions.
type Cache struct {
	mu         sync.Mutex
	surrogates map[string]*Surrogate
	builds     int
}

func NewCache() *Cache {
	return &Cache{surrogates: make(map[string]*Surrogate)}
}

// Surrogate returns the vehicle's surrogate, building it on first use.
func (c *Cache) Surrogate(v *Vehicle) *Surrogate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.surrogates[v.Name]; ok {
		return s
	}
	s := BuildSurrogate(v.Aerodynamics)
	c.surrogates[v.Name] = s
	c.builds++
	return s
}

// Builds reports how many surrogates were constructed.
func (c *Cache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
