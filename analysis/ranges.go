package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Clusters groups consecutive samples above a threshold into windows.
type Clusters struct{}

func (Clusters) PickRanges(x, y []float64, opts RangeOptions) ([]Window, error) {
	if len(x) != len(y) || len(y) < 2 {
		return nil, nil
	}
	x, y = ascending(x, y)

	threshold := opts.MinIntensity
	if threshold <= 0 {
		threshold = DefaultRangeThreshold
	}
	top := floats.Max(y)
	if top <= 0 {
		return nil, nil
	}
	threshold *= top

	var windows []Window
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			windows = append(windows, Window{From: x[start], To: x[end]})
		}
		start = -1
	}
	for i, v := range y {
		if v >= threshold {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i - 1)
	}
	flush(len(y) - 1)

	return mergeWindows(windows, opts.MergeGap), nil
}

func mergeWindows(windows []Window, gap float64) []Window {
	if len(windows) < 2 {
		return windows
	}
	sort.SliceStable(windows, func(i, j int) bool { return windows[i].From < windows[j].From })
	out := []Window{windows[0]}
	for _, w := range windows[1:] {
		last := &out[len(out)-1]
		if w.From-last.To <= gap {
			if w.To > last.To {
				last.To = w.To
			}
			continue
		}
		out = append(out, w)
	}
	return out
}
