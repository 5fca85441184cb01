// Package filters ships the built-in processing filters: apodization, zero
// filling, Fourier transform, phase correction, baseline correction, x shift
// and x range cropping.
//
// Every filter takes its parameters as a typed options struct, a pointer to
// one, or any JSON-shaped value (as found in saved sessions).
package filters

import (
	"errors"
	"fmt"
	"slices"

	spectra "github.com/goliatone/go-spectra"
	"github.com/goliatone/go-spectra/internal/hydrate"
)

// Filter names.
const (
	NameApodization        = "apodization"
	NameZeroFilling        = "zeroFilling"
	NameFFT                = "fft"
	NamePhaseCorrection    = "phaseCorrection"
	NameBaselineCorrection = "baselineCorrection"
	NameShiftX             = "shiftX"
	NameFromTo             = "fromTo"
)

var (
	ErrInvalidValue = errors.New("filters: invalid value")
	ErrTooFewPoints = errors.New("filters: not enough points")
)

// All returns one instance of every built-in filter.
func All() []spectra.Filter {
	return []spectra.Filter{
		Apodization{},
		ZeroFilling{},
		FFT{},
		PhaseCorrection{},
		BaselineCorrection{},
		ShiftX{},
		FromTo{},
	}
}

// Registry returns a registry holding every built-in filter.
func Registry() *spectra.FilterRegistry {
	r, err := spectra.NewFilterRegistry(All()...)
	if err != nil {
		// names are unique constants
		panic(err)
	}
	return r
}

// Rules returns the applicability expression of every built-in filter, keyed
// by filter name, for use with spectra.WithFilterRule.
func Rules() map[string]string {
	return map[string]string{
		NameApodization:        "dimension == 1 && isFid && !isFt",
		NameZeroFilling:        "dimension == 1 && isFid && !isFt",
		NameFFT:                "dimension == 1 && isFid && !isFt",
		NamePhaseCorrection:    "dimension == 1 && isFt && isComplex",
		NameBaselineCorrection: "dimension == 1 && isFt",
		NameFromTo:             "dimension == 1",
	}
}

// Options returns the engine options registering every built-in filter and
// its rule.
func Options() []spectra.Option {
	opts := []spectra.Option{spectra.WithFilterRegistry(Registry())}
	rules := Rules()
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		opts = append(opts, spectra.WithFilterRule(name, rules[name]))
	}
	return opts
}

func decode[T any](name string, value any) (T, error) {
	out, err := hydrate.NewDecoder[T]().DecodeValue(hydrate.Context{Kind: name, Source: "filter"}, value)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return out, nil
}

func is1D(sp *spectra.Spectrum) bool {
	return sp != nil && !sp.Is2D() && sp.Data.Len() >= 2
}

// imaginary returns the imaginary part of d, zero filled when absent.
func imaginary(d spectra.Data) []float64 {
	if len(d.Im) == len(d.Re) {
		return slices.Clone(d.Im)
	}
	return make([]float64, len(d.Re))
}
