package analysis

import (
	"math"
	"testing"

	"github.com/goliatone/go-spectra/pkg/scale"
)

func linspace(from, to float64, n int) []float64 {
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func gaussian(x []float64, center, height, sigma float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = height * math.Exp(-(v-center)*(v-center)/(2*sigma*sigma))
	}
	return out
}

func add(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func TestTrapezoidIntegrate(t *testing.T) {
	x := linspace(0, 10, 101)
	y := make([]float64, len(x))
	for i := range y {
		y[i] = 2
	}
	if got := (Trapezoid{}).Integrate(x, y, 1.95, 4.05); math.Abs(got-4) > 1e-9 {
		t.Fatalf("expected area 4, got %v", got)
	}
	if got := (Trapezoid{}).Integrate(x, y, 4.05, 1.95); math.Abs(got-4) > 1e-9 {
		t.Fatalf("reversed bounds: expected 4, got %v", got)
	}
}

func TestTrapezoidIntegrateDescendingAxis(t *testing.T) {
	x := linspace(10, 0, 101)
	y := make([]float64, len(x))
	for i := range y {
		y[i] = 1
	}
	if got := (Trapezoid{}).Integrate(x, y, -1, 11); math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected area 10, got %v", got)
	}
	if x[0] != 10 {
		t.Fatalf("input slice was reordered")
	}
}

func TestTrapezoidIntegrateTooFewSamples(t *testing.T) {
	x := linspace(0, 10, 11)
	y := make([]float64, len(x))
	if got := (Trapezoid{}).Integrate(x, y, 2.1, 2.2); got != 0 {
		t.Fatalf("expected 0 for an empty window, got %v", got)
	}
}

func TestIntegrateZone(t *testing.T) {
	grid := Grid{MinX: 0, MaxX: 3, MinY: 0, MaxY: 3, Z: [][]float64{
		{1, 1, 1, 1},
		{1, 2, 2, 1},
		{1, 2, 2, 1},
		{1, 1, 1, 1},
	}}
	got := (Trapezoid{}).IntegrateZone(grid, scale.Domain{1, 2}, scale.Domain{2, 1})
	if got != 8 {
		t.Fatalf("expected 8, got %v", got)
	}
}

func TestLocalMaxima(t *testing.T) {
	x := linspace(0, 10, 1001)
	y := add(gaussian(x, 3, 10, 0.1), gaussian(x, 7, 4, 0.1))

	peaks, err := (LocalMaxima{}).PickPeaks(x, y, PeakOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d: %#v", len(peaks), peaks)
	}
	if math.Abs(peaks[0].X-3) > 1e-6 || math.Abs(peaks[1].X-7) > 1e-6 {
		t.Fatalf("unexpected peak positions: %#v", peaks)
	}
	// full width at half maximum of a gaussian is 2.3548 sigma
	if math.Abs(peaks[0].Width-0.235) > 0.03 {
		t.Fatalf("unexpected width %v", peaks[0].Width)
	}

	limited, _ := (LocalMaxima{}).PickPeaks(x, y, PeakOptions{MaxCount: 1})
	if len(limited) != 1 || math.Abs(limited[0].X-3) > 1e-6 {
		t.Fatalf("expected only the tallest peak, got %#v", limited)
	}

	strict, _ := (LocalMaxima{}).PickPeaks(x, y, PeakOptions{MinIntensity: 0.5})
	if len(strict) != 1 {
		t.Fatalf("expected threshold to drop the small peak, got %#v", strict)
	}
}

func TestLocalMaximaFlatSignal(t *testing.T) {
	x := linspace(0, 1, 10)
	peaks, err := (LocalMaxima{}).PickPeaks(x, make([]float64, 10), PeakOptions{})
	if err != nil || len(peaks) != 0 {
		t.Fatalf("expected no peaks, got %#v err=%v", peaks, err)
	}
}

func TestClusters(t *testing.T) {
	x := linspace(0, 10, 1001)
	y := add(gaussian(x, 3, 10, 0.1), gaussian(x, 7, 4, 0.1))

	windows, err := (Clusters{}).PickRanges(x, y, RangeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %#v", windows)
	}
	for i, center := range []float64{3, 7} {
		if windows[i].From >= center || windows[i].To <= center {
			t.Fatalf("window %d does not contain %v: %#v", i, center, windows[i])
		}
	}

	merged, _ := (Clusters{}).PickRanges(x, y, RangeOptions{MergeGap: 5})
	if len(merged) != 1 {
		t.Fatalf("expected merged window, got %#v", merged)
	}
}
