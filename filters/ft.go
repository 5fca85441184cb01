package filters

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	spectra "github.com/goliatone/go-spectra"
)

// PhaseCorrectionOptions are the zero and first order phases in degrees.
type PhaseCorrectionOptions struct {
	PH0 float64 `json:"ph0"`
	PH1 float64 `json:"ph1"`
}

// PhaseCorrection rotates the real and imaginary parts of a spectrum.
type PhaseCorrection struct{}

func (PhaseCorrection) Name() string  { return NamePhaseCorrection }
func (PhaseCorrection) Label() string { return "Phase correction" }

func (PhaseCorrection) IsApplicable(sp *spectra.Spectrum) bool {
	return is1D(sp) && len(sp.Data.Im) == len(sp.Data.Re)
}

func (PhaseCorrection) DomainUpdateRule() spectra.DomainUpdateRule {
	return spectra.DomainUpdateRule{UpdatesYDomain: true}
}

func (PhaseCorrection) Apply(sp *spectra.Spectrum, value any) (spectra.Data, error) {
	opts, err := decode[PhaseCorrectionOptions](NamePhaseCorrection, value)
	if err != nil {
		return spectra.Data{}, err
	}
	n := sp.Data.Len()
	out := spectra.Data{X: slices.Clone(sp.Data.X), Re: make([]float64, n), Im: make([]float64, n)}
	for i := 0; i < n; i++ {
		phi := (opts.PH0 + opts.PH1*float64(i)/float64(n-1)) * math.Pi / 180
		sin, cos := math.Sincos(phi)
		re, im := sp.Data.Re[i], sp.Data.Im[i]
		out.Re[i] = re*cos - im*sin
		out.Im[i] = re*sin + im*cos
	}
	return out, nil
}

// BaselineCorrectionOptions select the degree of the fitted polynomial.
// Zero selects a straight line.
type BaselineCorrectionOptions struct {
	Degree int `json:"degree"`
}

const (
	maxBaselineDegree     = 6
	baselineIterations    = 4
	baselineOutlierSigmas = 2
)

// BaselineCorrection fits a polynomial to the signal-free part of the
// spectrum and subtracts it.
type BaselineCorrection struct{}

func (BaselineCorrection) Name() string  { return NameBaselineCorrection }
func (BaselineCorrection) Label() string { return "Baseline correction" }

func (BaselineCorrection) IsApplicable(sp *spectra.Spectrum) bool {
	return is1D(sp)
}

func (BaselineCorrection) DomainUpdateRule() spectra.DomainUpdateRule {
	return spectra.DomainUpdateRule{UpdatesYDomain: true}
}

func (BaselineCorrection) Apply(sp *spectra.Spectrum, value any) (spectra.Data, error) {
	opts, err := decode[BaselineCorrectionOptions](NameBaselineCorrection, value)
	if err != nil {
		return spectra.Data{}, err
	}
	degree := opts.Degree
	if degree <= 0 {
		degree = 1
	}
	if degree > maxBaselineDegree {
		return spectra.Data{}, fmt.Errorf("%w: degree %d above %d", ErrInvalidValue, degree, maxBaselineDegree)
	}
	n := sp.Data.Len()
	if n <= degree {
		return spectra.Data{}, fmt.Errorf("%w: %d points for degree %d", ErrTooFewPoints, n, degree)
	}

	// fit on a normalized axis for conditioning
	t := make([]float64, n)
	lo, hi := floats.Min(sp.Data.X), floats.Max(sp.Data.X)
	for i, v := range sp.Data.X {
		if hi > lo {
			t[i] = 2*(v-lo)/(hi-lo) - 1
		}
	}

	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	var coeffs *mat.VecDense
	for iter := 0; iter < baselineIterations; iter++ {
		c, err := fitPolynomial(t, sp.Data.Re, keep, degree)
		if err != nil {
			return spectra.Data{}, err
		}
		coeffs = c
		residuals := make([]float64, 0, n)
		for i := range t {
			if keep[i] {
				residuals = append(residuals, sp.Data.Re[i]-evalPolynomial(coeffs, t[i]))
			}
		}
		limit := baselineOutlierSigmas * stat.StdDev(residuals, nil)
		if !(limit > 1e-12) {
			// exact fit, nothing left to reject
			break
		}
		kept := 0
		for i := range t {
			keep[i] = sp.Data.Re[i]-evalPolynomial(coeffs, t[i]) <= limit
			if keep[i] {
				kept++
			}
		}
		if kept <= degree {
			break
		}
	}

	out := spectra.Data{X: slices.Clone(sp.Data.X), Re: make([]float64, n)}
	if len(sp.Data.Im) == n {
		out.Im = slices.Clone(sp.Data.Im)
	}
	for i := range t {
		out.Re[i] = sp.Data.Re[i] - evalPolynomial(coeffs, t[i])
	}
	return out, nil
}

func fitPolynomial(t, y []float64, keep []bool, degree int) (*mat.VecDense, error) {
	var rows []int
	for i := range t {
		if keep[i] {
			rows = append(rows, i)
		}
	}
	if len(rows) <= degree {
		return nil, fmt.Errorf("%w: %d baseline points for degree %d", ErrTooFewPoints, len(rows), degree)
	}
	a := mat.NewDense(len(rows), degree+1, nil)
	b := mat.NewVecDense(len(rows), nil)
	for r, i := range rows {
		p := 1.0
		for c := 0; c <= degree; c++ {
			a.Set(r, c, p)
			p *= t[i]
		}
		b.SetVec(r, y[i])
	}
	var coeffs mat.VecDense
	if err := coeffs.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("filters: baseline fit: %w", err)
	}
	return &coeffs, nil
}

func evalPolynomial(coeffs *mat.VecDense, t float64) float64 {
	sum := 0.0
	for c := coeffs.Len() - 1; c >= 0; c-- {
		sum = sum*t + coeffs.AtVec(c)
	}
	return sum
}

// ShiftXOptions move the x axis by Shift units.
type ShiftXOptions struct {
	Shift float64 `json:"shift"`
}

// ShiftX translates the x axis. It also applies to 2D spectra.
type ShiftX struct{}

func (ShiftX) Name() string  { return NameShiftX }
func (ShiftX) Label() string { return "Shift X" }

func (ShiftX) IsApplicable(sp *spectra.Spectrum) bool {
	return sp != nil && (sp.Data.Len() > 0 || sp.Data.Matrix != nil)
}

func (ShiftX) DomainUpdateRule() spectra.DomainUpdateRule {
	return spectra.DomainUpdateRule{UpdatesXDomain: true}
}

func (ShiftX) Apply(sp *spectra.Spectrum, value any) (spectra.Data, error) {
	opts, err := decode[ShiftXOptions](NameShiftX, value)
	if err != nil {
		return spectra.Data{}, err
	}
	out := spectra.Data{
		X:  slices.Clone(sp.Data.X),
		Re: slices.Clone(sp.Data.Re),
		Im: slices.Clone(sp.Data.Im),
	}
	floats.AddConst(opts.Shift, out.X)
	if m := sp.Data.Matrix; m != nil {
		shifted := *m
		shifted.MinX += opts.Shift
		shifted.MaxX += opts.Shift
		shifted.Z = make([][]float64, len(m.Z))
		for i, row := range m.Z {
			shifted.Z[i] = slices.Clone(row)
		}
		out.Matrix = &shifted
	}
	return out, nil
}

// FromToOptions crop the spectrum to [From, To] (either order).
type FromToOptions struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// FromTo keeps only the samples inside an x window.
type FromTo struct{}

func (FromTo) Name() string  { return NameFromTo }
func (FromTo) Label() string { return "From to" }

func (FromTo) IsApplicable(sp *spectra.Spectrum) bool {
	return is1D(sp)
}

func (FromTo) DomainUpdateRule() spectra.DomainUpdateRule {
	return spectra.DomainUpdateRule{UpdatesXDomain: true, UpdatesYDomain: true}
}

func (FromTo) Apply(sp *spectra.Spectrum, value any) (spectra.Data, error) {
	opts, err := decode[FromToOptions](NameFromTo, value)
	if err != nil {
		return spectra.Data{}, err
	}
	lo, hi := math.Min(opts.From, opts.To), math.Max(opts.From, opts.To)
	hasIm := len(sp.Data.Im) == sp.Data.Len()
	var out spectra.Data
	for i, x := range sp.Data.X {
		if x < lo || x > hi {
			continue
		}
		out.X = append(out.X, x)
		out.Re = append(out.Re, sp.Data.Re[i])
		if hasIm {
			out.Im = append(out.Im, sp.Data.Im[i])
		}
	}
	if out.Len() < 2 {
		return spectra.Data{}, fmt.Errorf("%w: %d samples in [%g, %g]", ErrTooFewPoints, out.Len(), lo, hi)
	}
	return out, nil
}
