// Package analysis provides the built-in numeric collaborators of the state
// engine: an integrator, a peak picker and a range picker. They work on plain
// slices so they can be swapped for other implementations.
package analysis

import "github.com/goliatone/go-spectra/pkg/scale"

// Grid is a regularly sampled 2D surface. Rows run along y, columns along x.
type Grid struct {
	MinX float64     `json:"minX"`
	MaxX float64     `json:"maxX"`
	MinY float64     `json:"minY"`
	MaxY float64     `json:"maxY"`
	Z    [][]float64 `json:"z"`
}

// Peak is a detected local maximum.
type Peak struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

// PeakOptions tune LocalMaxima. MinIntensity is a fraction of the largest
// absolute intensity; zero selects DefaultPeakThreshold.
type PeakOptions struct {
	MinIntensity float64 `json:"minIntensity"`
	MaxCount     int     `json:"maxCount"`
	Negative     bool    `json:"negative"`
}

// RangeOptions tune Clusters. MinIntensity is a fraction of the largest
// intensity; zero selects DefaultRangeThreshold. Windows closer than MergeGap
// (in x units) are joined.
type RangeOptions struct {
	MinIntensity float64 `json:"minIntensity"`
	MergeGap     float64 `json:"mergeGap"`
}

// Window is a detected integration interval.
type Window struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

const (
	DefaultPeakThreshold  = 0.1
	DefaultRangeThreshold = 0.05
)

// ascending returns x and y ordered by increasing x. The inputs are copied
// only when they run the other way.
func ascending(x, y []float64) ([]float64, []float64) {
	if len(x) < 2 || x[0] <= x[len(x)-1] {
		return x, y
	}
	rx := make([]float64, len(x))
	ry := make([]float64, len(y))
	for i := range x {
		rx[len(x)-1-i] = x[i]
		ry[len(y)-1-i] = y[i]
	}
	return rx, ry
}

func axis(min, max float64, n int) func(int) float64 {
	if n < 2 {
		return func(int) float64 { return min }
	}
	step := (max - min) / float64(n-1)
	return func(i int) float64 { return min + float64(i)*step }
}

func within(d scale.Domain, v float64) bool {
	return v >= d[0] && v <= d[1]
}
