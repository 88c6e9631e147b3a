// Package export renders saved trajectories for use outside the terminal.
package export

import (
	"fmt"
	"math"
	"strings"
)

// ProfileSVG plots y against x as a single polyline. Points where either
// coordinate is NaN break the line.
func ProfileSVG(x, y []float64, width, height int, strokeColor string) (string, error) {
	if len(x) != len(y) {
		return "", fmt.Errorf("profile: %d x values for %d y values", len(x), len(y))
	}
	var xs, ys []float64
	for i := range x {
		if !math.IsNaN(x[i]) && !math.IsNaN(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	if len(xs) < 2 {
		return "", fmt.Errorf("profile: need at least two points, have %d", len(xs))
	}

	minX, maxX := bounds(xs)
	minY, maxY := bounds(ys)

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, strokeColor))

	cmd := "M"
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			cmd = "M"
			continue
		}
		px := (x[i] - minX) / rangeX * float64(width)
		py := float64(height) - (y[i]-minY)/rangeY*float64(height)
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, px, py))
		cmd = "L"
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String(), nil
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}
