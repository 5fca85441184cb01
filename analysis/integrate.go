package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/goliatone/go-spectra/pkg/scale"
)

// Trapezoid integrates with the composite trapezoidal rule.
type Trapezoid struct{}

// Integrate returns the signed area under y between from and to.
func (Trapezoid) Integrate(x, y []float64, from, to float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	lo, hi := math.Min(from, to), math.Max(from, to)
	x, y = ascending(x, y)

	var xs, ys []float64
	for i, v := range x {
		if v >= lo && v <= hi {
			xs = append(xs, v)
			ys = append(ys, y[i])
		}
	}
	if len(xs) < 2 {
		return 0
	}
	return integrate.Trapezoidal(xs, ys)
}

// IntegrateZone sums the surface inside the x/y window, weighted by the cell
// area.
func (Trapezoid) IntegrateZone(grid Grid, x, y scale.Domain) float64 {
	rows := len(grid.Z)
	if rows == 0 || len(grid.Z[0]) == 0 {
		return 0
	}
	cols := len(grid.Z[0])
	xAt := axis(grid.MinX, grid.MaxX, cols)
	yAt := axis(grid.MinY, grid.MaxY, rows)

	cell := 1.0
	if cols > 1 {
		cell *= math.Abs(grid.MaxX-grid.MinX) / float64(cols-1)
	}
	if rows > 1 {
		cell *= math.Abs(grid.MaxY-grid.MinY) / float64(rows-1)
	}

	x, y = x.Sorted(), y.Sorted()
	total := 0.0
	for r, row := range grid.Z {
		if !within(y, yAt(r)) {
			continue
		}
		first, last := -1, -1
		for c := range row {
			if within(x, xAt(c)) {
				if first < 0 {
					first = c
				}
				last = c
			}
		}
		if first >= 0 {
			total += floats.Sum(row[first : last+1])
		}
	}
	return total * cell
}
