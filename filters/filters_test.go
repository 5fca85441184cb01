package filters_test

import (
	"errors"
	"math"
	"testing"

	spectra "github.com/goliatone/go-spectra"
	"github.com/goliatone/go-spectra/filters"
)

func fid(n int, dt, freq, decay float64) spectra.Data {
	d := spectra.Data{X: make([]float64, n), Re: make([]float64, n), Im: make([]float64, n)}
	for i := 0; i < n; i++ {
		t := float64(i) * dt
		d.X[i] = t
		amp := math.Exp(-t * decay)
		d.Re[i] = amp * math.Cos(2*math.Pi*freq*t)
		d.Im[i] = amp * math.Sin(2*math.Pi*freq*t)
	}
	return d
}

func fidSpectrum(data spectra.Data) *spectra.Spectrum {
	return &spectra.Spectrum{
		ID:   "s1",
		Info: spectra.Info{Nucleus: []string{"1H"}, Dimension: 1, IsFid: true, IsComplex: true},
		Data: data,
	}
}

func TestApodizationDecays(t *testing.T) {
	data := fid(64, 0.01, 0, 0)
	sp := fidSpectrum(data)
	out, err := filters.Apodization{}.Apply(sp, map[string]any{"lineBroadening": 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Re[0] != 1 {
		t.Fatalf("first point must keep its value, got %v", out.Re[0])
	}
	want := math.Exp(-math.Pi * 1 * data.X[10])
	if math.Abs(out.Re[10]-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, out.Re[10])
	}
	if data.Re[10] != 1 {
		t.Fatalf("input data was modified")
	}

	if _, err := (filters.Apodization{}).Apply(sp, filters.ApodizationOptions{Shape: "triangle"}); !errors.Is(err, filters.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestZeroFillingDefaultSize(t *testing.T) {
	sp := fidSpectrum(fid(100, 0.01, 5, 1))
	out, err := filters.ZeroFilling{}.Apply(sp, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 256 || len(out.Re) != 256 || len(out.Im) != 256 {
		t.Fatalf("expected 256 points, got %d", out.Len())
	}
	if out.Re[150] != 0 || math.Abs(out.X[255]-2.55) > 1e-9 {
		t.Fatalf("unexpected padding: re=%v x=%v", out.Re[150], out.X[255])
	}

	explicit, err := filters.ZeroFilling{}.Apply(sp, &filters.ZeroFillingOptions{Size: 128})
	if err != nil || explicit.Len() != 128 {
		t.Fatalf("expected 128 points, got %d err=%v", explicit.Len(), err)
	}
}

func TestFFTFindsFrequency(t *testing.T) {
	const n, dt, freq = 256, 0.001, 125.0
	sp := fidSpectrum(fid(n, dt, freq, 5))
	sp.Info.Frequency = 0
	out, err := filters.FFT{}.Apply(sp, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x, _, ok := out.MaxIn(out.XDomain())
	if !ok {
		t.Fatalf("expected a maximum")
	}
	resolution := 1 / (n * dt)
	if math.Abs(x-freq) > resolution {
		t.Fatalf("expected peak at %v Hz, got %v", freq, x)
	}

	info := filters.FFT{}.TransformInfo(sp.Info, nil)
	if info.IsFid || !info.IsFt || !info.IsComplex {
		t.Fatalf("unexpected info after transform: %#v", info)
	}
}

func TestPhaseCorrectionRotates(t *testing.T) {
	sp := &spectra.Spectrum{Data: spectra.Data{X: []float64{0, 1, 2}, Re: []float64{1, 1, 1}, Im: []float64{0, 0, 0}}}
	out, err := filters.PhaseCorrection{}.Apply(sp, filters.PhaseCorrectionOptions{PH0: 90})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range out.Re {
		if math.Abs(out.Re[i]) > 1e-12 || math.Abs(out.Im[i]-1) > 1e-12 {
			t.Fatalf("point %d: expected (0, 1), got (%v, %v)", i, out.Re[i], out.Im[i])
		}
	}
}

func TestBaselineCorrectionRemovesLine(t *testing.T) {
	n := 200
	d := spectra.Data{X: make([]float64, n), Re: make([]float64, n)}
	for i := 0; i < n; i++ {
		x := float64(i) / 10
		d.X[i] = x
		d.Re[i] = 0.5*x + 3
		if i == 100 {
			d.Re[i] += 50
		}
	}
	out, err := filters.BaselineCorrection{}.Apply(&spectra.Spectrum{Data: d}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(out.Re[10]) > 1e-6 || math.Abs(out.Re[190]) > 1e-6 {
		t.Fatalf("baseline not removed: %v %v", out.Re[10], out.Re[190])
	}
	if math.Abs(out.Re[100]-50) > 1e-6 {
		t.Fatalf("peak altered: %v", out.Re[100])
	}
}

func TestShiftXAndFromTo(t *testing.T) {
	sp := &spectra.Spectrum{Data: spectra.Data{X: []float64{0, 1, 2, 3}, Re: []float64{1, 2, 3, 4}}}
	shifted, err := filters.ShiftX{}.Apply(sp, map[string]any{"shift": 0.5})
	if err != nil || shifted.X[0] != 0.5 || shifted.X[3] != 3.5 {
		t.Fatalf("unexpected shift: %#v err=%v", shifted.X, err)
	}
	if sp.Data.X[0] != 0 {
		t.Fatalf("input was modified")
	}

	cropped, err := filters.FromTo{}.Apply(sp, filters.FromToOptions{From: 2.5, To: 0.5})
	if err != nil || cropped.Len() != 2 || cropped.X[0] != 1 {
		t.Fatalf("unexpected crop: %#v err=%v", cropped, err)
	}
	if _, err := (filters.FromTo{}).Apply(sp, filters.FromToOptions{From: 10, To: 11}); !errors.Is(err, filters.ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
}

func TestShiftX2D(t *testing.T) {
	sp := &spectra.Spectrum{
		Info: spectra.Info{Nucleus: []string{"1H", "13C"}, Dimension: 2},
		Data: spectra.Data{Matrix: &spectra.Matrix{MinX: 0, MaxX: 10, MinY: 0, MaxY: 100, Z: [][]float64{{1, 2}, {3, 4}}}},
	}
	out, err := filters.ShiftX{}.Apply(sp, filters.ShiftXOptions{Shift: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Matrix.MinX != -1 || out.Matrix.MaxX != 9 || sp.Data.Matrix.MinX != 0 {
		t.Fatalf("unexpected matrix shift: %#v", out.Matrix)
	}
}

func TestPipelineThroughEngine(t *testing.T) {
	engine, err := spectra.NewEngine(filters.Options()...)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	state := engine.Reduce(nil, spectra.LoadSpectra{Spectra: []spectra.SpectrumInput{{
		ID:   "fid",
		Info: spectra.Info{Nucleus: []string{"1H"}, Dimension: 1, Frequency: 400, IsFid: true, IsComplex: true},
		Data: fid(128, 0.0005, 200, 10),
	}}})

	state = engine.Reduce(state, spectra.AddFilter{SpectrumID: "fid", Name: filters.NameFFT})
	sp, _ := state.Spectrum("fid")
	if !sp.Info.IsFt || sp.Info.IsFid {
		t.Fatalf("expected transformed info, got %#v", sp.Info)
	}
	if sp.Filters[0].Error != nil {
		t.Fatalf("unexpected filter error: %v", sp.Filters[0].Error)
	}

	// a second transform is refused by its rule and recorded on the entry
	state = engine.Reduce(state, spectra.AddFilter{SpectrumID: "fid", Name: filters.NameFFT})
	sp, _ = state.Spectrum("fid")
	if len(sp.Filters) != 2 || !errors.Is(sp.Filters[1].Error, spectra.ErrInapplicableFilter) {
		t.Fatalf("expected inapplicable entry, got %#v", sp.Filters[1].Error)
	}

	state = engine.Reduce(state, spectra.AddFilter{SpectrumID: "fid", Name: filters.NamePhaseCorrection, Value: map[string]any{"ph0": 10}})
	sp, _ = state.Spectrum("fid")
	if sp.Filters[2].Error != nil {
		t.Fatalf("phase correction should apply after fft: %v", sp.Filters[2].Error)
	}
}
