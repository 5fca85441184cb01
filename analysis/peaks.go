package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// LocalMaxima reports samples higher than both neighbours and above a
// fraction of the tallest sample.
type LocalMaxima struct{}

func (LocalMaxima) PickPeaks(x, y []float64, opts PeakOptions) ([]Peak, error) {
	if len(x) != len(y) || len(y) < 3 {
		return nil, nil
	}
	values := y
	if opts.Negative {
		values = make([]float64, len(y))
		copy(values, y)
		floats.Scale(-1, values)
	}

	threshold := opts.MinIntensity
	if threshold <= 0 {
		threshold = DefaultPeakThreshold
	}
	top := floats.Max(values)
	if top <= 0 {
		return nil, nil
	}
	threshold *= top

	var peaks []Peak
	for i := 1; i < len(values)-1; i++ {
		v := values[i]
		if v < threshold || v <= values[i-1] || v < values[i+1] {
			continue
		}
		peaks = append(peaks, Peak{X: x[i], Y: y[i], Width: halfWidth(x, values, i)})
	}

	if opts.MaxCount > 0 && len(peaks) > opts.MaxCount {
		sort.SliceStable(peaks, func(i, j int) bool { return math.Abs(peaks[i].Y) > math.Abs(peaks[j].Y) })
		peaks = peaks[:opts.MaxCount]
	}
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].X < peaks[j].X })
	return peaks, nil
}

// halfWidth walks outward from i until the signal falls below half height.
func halfWidth(x, y []float64, i int) float64 {
	half := y[i] / 2
	left, right := i, i
	for left > 0 && y[left-1] > half {
		left--
	}
	for right < len(y)-1 && y[right+1] > half {
		right++
	}
	return math.Abs(x[right] - x[left])
}
