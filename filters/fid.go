package filters

import (
	"fmt"
	"math"
	"math/cmplx"
	"slices"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	spectra "github.com/goliatone/go-spectra"
)

// ApodizationOptions select the window applied to an FID.
type ApodizationOptions struct {
	// LineBroadening in Hz.
	LineBroadening float64 `json:"lineBroadening"`
	// Shape is "exponential" (default) or "gaussian".
	Shape string `json:"shape,omitempty"`
}

// Apodization multiplies an FID by a decaying window.
type Apodization struct{}

func (Apodization) Name() string  { return NameApodization }
func (Apodization) Label() string { return "Apodization" }

func (Apodization) IsApplicable(sp *spectra.Spectrum) bool {
	return is1D(sp) && sp.Info.IsFid
}

func (Apodization) DomainUpdateRule() spectra.DomainUpdateRule {
	return spectra.DomainUpdateRule{UpdatesYDomain: true}
}

func (Apodization) Apply(sp *spectra.Spectrum, value any) (spectra.Data, error) {
	opts, err := decode[ApodizationOptions](NameApodization, value)
	if err != nil {
		return spectra.Data{}, err
	}
	x := sp.Data.X
	window := make([]float64, len(x))
	for i := range x {
		t := x[i] - x[0]
		switch opts.Shape {
		case "", "exponential":
			window[i] = math.Exp(-math.Pi * opts.LineBroadening * t)
		case "gaussian":
			a := math.Pi * opts.LineBroadening * t
			window[i] = math.Exp(-(a * a) / (4 * math.Ln2))
		default:
			return spectra.Data{}, fmt.Errorf("%w: unknown apodization shape %q", ErrInvalidValue, opts.Shape)
		}
	}
	re := slices.Clone(sp.Data.Re)
	im := imaginary(sp.Data)
	floats.Mul(re, window)
	floats.Mul(im, window)
	return spectra.Data{X: slices.Clone(x), Re: re, Im: im}, nil
}

// ZeroFillingOptions sets the final number of points. Zero selects the next
// power of two at or above twice the current size.
type ZeroFillingOptions struct {
	Size int `json:"size"`
}

// ZeroFilling pads (or truncates) an FID to a given size.
type ZeroFilling struct{}

func (ZeroFilling) Name() string  { return NameZeroFilling }
func (ZeroFilling) Label() string { return "Zero filling" }

func (ZeroFilling) IsApplicable(sp *spectra.Spectrum) bool {
	return is1D(sp) && sp.Info.IsFid
}

func (ZeroFilling) DomainUpdateRule() spectra.DomainUpdateRule {
	return spectra.DomainUpdateRule{UpdatesXDomain: true}
}

func (ZeroFilling) Apply(sp *spectra.Spectrum, value any) (spectra.Data, error) {
	opts, err := decode[ZeroFillingOptions](NameZeroFilling, value)
	if err != nil {
		return spectra.Data{}, err
	}
	n := sp.Data.Len()
	size := opts.Size
	if size < 0 {
		return spectra.Data{}, fmt.Errorf("%w: negative size %d", ErrInvalidValue, size)
	}
	if size == 0 {
		size = nextPowerOfTwo(2 * n)
	}
	if size < 2 {
		return spectra.Data{}, fmt.Errorf("%w: size %d", ErrTooFewPoints, size)
	}

	dt := sp.Data.X[1] - sp.Data.X[0]
	x := make([]float64, size)
	for i := range x {
		x[i] = sp.Data.X[0] + float64(i)*dt
	}
	re := make([]float64, size)
	im := make([]float64, size)
	copy(re, sp.Data.Re)
	copy(im, imaginary(sp.Data))
	return spectra.Data{X: x, Re: re, Im: im}, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// FFT turns an FID into a frequency domain spectrum. The x axis becomes ppm
// when the spectrometer frequency is known, Hz otherwise.
type FFT struct{}

func (FFT) Name() string  { return NameFFT }
func (FFT) Label() string { return "FFT" }

func (FFT) IsApplicable(sp *spectra.Spectrum) bool {
	return is1D(sp) && sp.Info.IsFid
}

func (FFT) DomainUpdateRule() spectra.DomainUpdateRule {
	return spectra.DomainUpdateRule{UpdatesXDomain: true, UpdatesYDomain: true}
}

func (FFT) TransformInfo(info spectra.Info, _ any) spectra.Info {
	info.IsFid = false
	info.IsFt = true
	info.IsComplex = true
	return info
}

func (FFT) Apply(sp *spectra.Spectrum, _ any) (spectra.Data, error) {
	n := sp.Data.Len()
	dt := sp.Data.X[1] - sp.Data.X[0]
	if dt <= 0 {
		return spectra.Data{}, fmt.Errorf("%w: FID time axis must increase", ErrInvalidValue)
	}

	im := imaginary(sp.Data)
	signal := make([]complex128, n)
	for i, re := range sp.Data.Re {
		signal[i] = complex(re, im[i])
	}
	spectrum := fft.FFT(signal)

	width := 1 / dt
	unit := 1.0
	if sp.Info.Frequency > 0 {
		unit = sp.Info.Frequency
	}
	out := spectra.Data{X: make([]float64, n), Re: make([]float64, n), Im: make([]float64, n)}
	half := n / 2
	for i := 0; i < n; i++ {
		c := spectrum[(i+half)%n]
		out.X[i] = (-width/2 + float64(i)*width/float64(n)) / unit
		out.Re[i] = real(c)
		out.Im[i] = imag(c)
		if cmplx.IsNaN(c) {
			return spectra.Data{}, fmt.Errorf("%w: transform produced NaN", ErrInvalidValue)
		}
	}
	return out, nil
}
