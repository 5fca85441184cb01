package spectra

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/goliatone/go-spectra/analysis"
	"github.com/goliatone/go-spectra/pkg/assignment"
)

// ErrCollaboratorPanic wraps a panic raised by a picker or integrator.
var ErrCollaboratorPanic = errors.New("spectra: collaborator panicked")

func errCollaboratorPanic(r any) error {
	return fmt.Errorf("%w: %v", ErrCollaboratorPanic, r)
}

func (e *Engine) integrate(data Data, from, to float64) (area float64) {
	defer func() {
		if recover() != nil {
			area = 0
		}
	}()
	if data.Len() < 2 {
		return 0
	}
	return e.cfg.integrator.Integrate(data.X, data.Re, math.Min(from, to), math.Max(from, to))
}

func (e *Engine) integrateZone(data Data, x, y Domain) (area float64) {
	defer func() {
		if recover() != nil {
			area = 0
		}
	}()
	if data.Matrix == nil {
		return 0
	}
	return e.cfg.integrator.IntegrateZone(analysis.Grid(*data.Matrix), x.Sorted(), y.Sorted())
}

// refreshAnnotations re-derives intensities and areas after the data of sp
// changed, then renormalises. With keepAbsolute, stored non-zero areas are
// trusted, as when restoring a saved session.
func (e *Engine) refreshAnnotations(sp *Spectrum, keepAbsolute bool) {
	if len(sp.Peaks.Values) > 0 {
		peaks := slices.Clone(sp.Peaks.Values)
		for i := range peaks {
			if sp.Data.Len() > 0 {
				peaks[i].Y = sp.Data.ValueAt(peaks[i].X)
			}
		}
		sp.Peaks = Peaks{Values: peaks}
	}
	if len(sp.Integrals.Values) > 0 {
		values := slices.Clone(sp.Integrals.Values)
		for i := range values {
			if !keepAbsolute || values[i].Absolute == 0 {
				values[i].Absolute = e.integrate(sp.Data, values[i].From, values[i].To)
			}
		}
		sp.Integrals.Values = normalizeIntegrals(values, sp.Integrals.Options.Sum)
	}
	if len(sp.Ranges.Values) > 0 {
		values := slices.Clone(sp.Ranges.Values)
		for i := range values {
			if !keepAbsolute || values[i].Absolute == 0 {
				values[i].Absolute = e.integrate(sp.Data, values[i].From, values[i].To)
			}
		}
		sp.Ranges.Values = normalizeRanges(values, sp.Ranges.Options.Sum)
	}
	if len(sp.Zones.Values) > 0 {
		values := slices.Clone(sp.Zones.Values)
		for i := range values {
			if !keepAbsolute || values[i].Absolute == 0 {
				values[i].Absolute = e.integrateZone(sp.Data, values[i].X, values[i].Y)
			}
		}
		sp.Zones.Values = normalizeZones(values, sp.Zones.Options.Sum)
	}
}

// sumFactor returns the multiplier turning absolute areas into integrals
// that add up to sum.
func sumFactor(total, sum float64) float64 {
	if total == 0 || math.IsNaN(total) {
		return 0
	}
	return sum / total
}

// normalizeIntegrals rewrites values in place and returns it.
func normalizeIntegrals(values []Integral, sum float64) []Integral {
	total := 0.0
	for _, v := range values {
		total += v.Absolute
	}
	factor := sumFactor(total, sum)
	for i := range values {
		values[i].Integral = values[i].Absolute * factor
	}
	return values
}

// normalizeRanges rewrites values in place. Only signal ranges count toward
// the total; every range is scaled by the same factor.
func normalizeRanges(values []Range, sum float64) []Range {
	total := 0.0
	for _, v := range values {
		if v.Kind == RangeSignal {
			total += v.Absolute
		}
	}
	factor := sumFactor(total, sum)
	for i := range values {
		values[i].Integral = values[i].Absolute * factor
	}
	return values
}

func normalizeZones(values []Zone, sum float64) []Zone {
	total := 0.0
	for _, v := range values {
		if v.Kind == RangeSignal {
			total += v.Absolute
		}
	}
	factor := sumFactor(total, sum)
	for i := range values {
		values[i].Integral = values[i].Absolute * factor
	}
	return values
}

// idSet returns the ids to delete, or nil meaning all.
func idSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func inSet(set map[string]struct{}, id string) bool {
	if set == nil {
		return true
	}
	_, ok := set[id]
	return ok
}

// unlinkFeatures drops every assignment pointing at the removed features.
func unlinkFeatures(g assignment.Graph, spectrumID string, featureIDs []string) assignment.Graph {
	for _, id := range featureIDs {
		g = g.RemoveFeature(spectrumID, id)
	}
	return g
}

// featureExists reports whether ref points at a live feature, and at a live
// signal when it names one.
func (s *State) featureExists(ref assignment.Ref) bool {
	sp, ok := s.Spectrum(ref.SpectrumID)
	if !ok || ref.FeatureID == "" {
		return false
	}
	switch ref.Kind {
	case assignment.KindPeak:
		if ref.SignalID != "" || ref.Axis != assignment.AxisNone {
			return false
		}
		return slices.ContainsFunc(sp.Peaks.Values, func(p Peak) bool { return p.ID == ref.FeatureID })
	case assignment.KindRange:
		if ref.Axis != assignment.AxisNone {
			return false
		}
		i := slices.IndexFunc(sp.Ranges.Values, func(r Range) bool { return r.ID == ref.FeatureID })
		if i < 0 {
			return false
		}
		return ref.SignalID == "" || slices.ContainsFunc(sp.Ranges.Values[i].Signals, func(sig Signal) bool { return sig.ID == ref.SignalID })
	case assignment.KindZone:
		i := slices.IndexFunc(sp.Zones.Values, func(z Zone) bool { return z.ID == ref.FeatureID })
		if i < 0 {
			return false
		}
		return ref.SignalID == "" || slices.ContainsFunc(sp.Zones.Values[i].Signals, func(sig Signal2D) bool { return sig.ID == ref.SignalID })
	}
	return false
}
