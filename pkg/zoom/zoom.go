// Package zoom turns wheel deltas into bounded scale factors and scale
// factors into rescaled view domains.
//
// The package is stateless: speed smoothing is expressed as a Sample value
// that the caller carries from one event to the next.
package zoom

import (
	"math"
	"time"

	"github.com/goliatone/go-spectra/pkg/scale"
)

// DeltaMode mirrors the unit a wheel delta is expressed in.
type DeltaMode int

const (
	DeltaPixel DeltaMode = iota
	DeltaLine
	DeltaPage
)

const (
	linePixels = 40.0
	pagePixels = 800.0
	// notchPixels is the pixel delta of one wheel notch on common devices.
	notchPixels = 100.0
)

// MinEffectiveScale bounds the divisor used when rescaling so that a scale
// of zero still yields a finite domain.
const MinEffectiveScale = 1e-6

// IntegralFloor is the minimum scale of the integral overlay.
const IntegralFloor = 0.05

// Speed classifies an interaction.
type Speed int

const (
	Slow Speed = iota
	Fast
)

func (s Speed) String() string {
	if s == Fast {
		return "fast"
	}
	return "slow"
}

// Settings are the user-configurable step parameters.
type Settings struct {
	SpeedThreshold float64 `json:"speedThreshold" yaml:"speed_threshold"`
	SlowStep       float64 `json:"slowStep" yaml:"slow_step"`
	FastStep       float64 `json:"fastStep" yaml:"fast_step"`
}

// DefaultSettings returns the built-in step parameters.
func DefaultSettings() Settings {
	return Settings{
		SpeedThreshold: 3,
		SlowStep:       0.05,
		FastStep:       0.2,
	}
}

// Normalize converts a raw wheel delta into wheel notches.
func Normalize(delta float64, mode DeltaMode) float64 {
	switch mode {
	case DeltaLine:
		delta *= linePixels
	case DeltaPage:
		delta *= pagePixels
	}
	return delta / notchPixels
}

// Classify returns Fast when magnitude exceeds threshold.
func Classify(magnitude, threshold float64) Speed {
	if math.Abs(magnitude) > threshold {
		return Fast
	}
	return Slow
}

// StepFor returns the signed scale adjustment for one wheel event. Negative
// deltas zoom in (positive step), positive deltas zoom out.
func StepFor(delta float64, mode DeltaMode, s Settings) float64 {
	return stepForMagnitude(delta, math.Abs(Normalize(delta, mode)), s)
}

// StepForSample is StepFor with the speed classified on a smoothed sample
// instead of the single event.
func StepForSample(delta float64, sample Sample, s Settings) float64 {
	return stepForMagnitude(delta, sample.Magnitude, s)
}

func stepForMagnitude(delta, magnitude float64, s Settings) float64 {
	if delta == 0 || math.IsNaN(delta) {
		return 0
	}
	step := s.SlowStep
	if Classify(magnitude, s.SpeedThreshold) == Fast {
		step = s.FastStep
	}
	step = math.Abs(step)
	if delta > 0 {
		return -step
	}
	return step
}

// Next applies step to current and clamps the result at floor.
func Next(current, step, floor float64) float64 {
	next := current + step
	if math.IsNaN(next) || next < floor {
		return floor
	}
	return next
}

// Sample is the explicit smoothing state carried between wheel events.
type Sample struct {
	Magnitude float64
	At        time.Time
}

// Smooth folds one event of the given raw delta into prev. The previous
// magnitude decays by half every halfLife; a zero prev or a non-positive
// halfLife starts from scratch.
func Smooth(prev Sample, delta float64, mode DeltaMode, at time.Time, halfLife time.Duration) Sample {
	magnitude := math.Abs(Normalize(delta, mode))
	if prev.At.IsZero() || halfLife <= 0 {
		return Sample{Magnitude: magnitude, At: at}
	}
	elapsed := at.Sub(prev.At)
	if elapsed < 0 {
		elapsed = 0
	}
	decay := math.Pow(0.5, float64(elapsed)/float64(halfLife))
	return Sample{Magnitude: magnitude + prev.Magnitude*decay, At: at}
}

// Margin describes the plot padding in pixels.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Frame is the pixel geometry of the plot.
type Frame struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

// YRange returns the pixel range of the y axis (bottom to top).
func (f Frame) YRange() scale.Domain {
	return scale.Domain{f.Height - f.Margin.Bottom, f.Margin.Top}
}

// XRange returns the pixel range of the x axis. NMR x axes run right to
// left.
func (f Frame) XRange() scale.Domain {
	return scale.Domain{f.Width - f.Margin.Right, f.Margin.Left}
}

// Rescale zooms origin by factor around the data-space anchor value and
// returns the resulting view domain.
func Rescale(origin scale.Domain, factor float64, frame Frame, anchor float64) scale.Domain {
	lin := scale.NewLinear(origin, frame.YRange())
	pivot := lin.Map(anchor)
	return rescaleAround(lin, pivot, factor)
}

// RescaleFromBottom zooms origin around the plot's bottom margin.
func RescaleFromBottom(origin scale.Domain, factor float64, frame Frame) scale.Domain {
	lin := scale.NewLinear(origin, frame.YRange())
	return rescaleAround(lin, frame.Height-frame.Margin.Bottom, factor)
}

func rescaleAround(lin scale.Linear, pivot, factor float64) scale.Domain {
	k := factor
	if math.IsNaN(k) || k < MinEffectiveScale {
		k = MinEffectiveScale
	}
	rng := lin.Range()
	lo := lin.Invert(pivot + (rng[0]-pivot)/k)
	hi := lin.Invert(pivot + (rng[1]-pivot)/k)
	return scale.Guard(scale.Domain{lo, hi}.Sorted())
}

// ClosestToZero returns the sample nearest to zero, the per-spectrum
// baseline used as zoom anchor. An empty slice yields 0.
func ClosestToZero(values []float64) float64 {
	best := 0.0
	bestAbs := math.Inf(1)
	for _, v := range values {
		if a := math.Abs(v); a < bestAbs {
			best, bestAbs = v, a
		}
	}
	return best
}

// Engine is one independently scaled zoom target.
type Engine struct {
	Floor float64
}

var (
	// Spectra scales spectrum amplitudes; scale may reach zero.
	Spectra = Engine{Floor: 0}
	// Integrals scales the integral overlay and never collapses it.
	Integrals = Engine{Floor: IntegralFloor}
)

// Apply returns the next scale for one wheel event.
func (e Engine) Apply(current, delta float64, mode DeltaMode, s Settings) float64 {
	return e.Step(current, StepFor(delta, mode, s))
}

// Step applies an already classified step to current.
func (e Engine) Step(current, step float64) float64 {
	if current < e.Floor {
		current = e.Floor
	}
	return Next(current, step, e.Floor)
}
