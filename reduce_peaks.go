package spectra

import (
	"slices"

	"github.com/goliatone/go-spectra/analysis"
)

func (e *Engine) addPeak(state *State, a AddPeak) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok || sp.Is2D() || sp.Data.Len() == 0 || !sp.Data.XDomain().Contains(a.X) {
		return state
	}
	idx := sp.Data.ClosestIndex(a.X)
	x := sp.Data.X[idx]
	if slices.ContainsFunc(sp.Peaks.Values, func(p Peak) bool { return p.X == x }) {
		return state
	}
	next := state.next(KindAddPeak)
	updated := sp.clone()
	peak := Peak{ID: e.newID(next, "peak"), X: x, Y: sp.Data.ValueAt(x)}
	updated.Peaks = Peaks{Values: append(slices.Clone(sp.Peaks.Values), peak)}
	next.setSpectrum(i, updated)
	return next
}

func (e *Engine) deletePeaks(state *State, a DeletePeaks) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok {
		return state
	}
	set := idSet(a.IDs)
	var kept []Peak
	var removed []string
	for _, p := range sp.Peaks.Values {
		if inSet(set, p.ID) {
			removed = append(removed, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	if len(removed) == 0 {
		return state
	}
	next := state.next(KindDeletePeaks)
	updated := sp.clone()
	updated.Peaks = Peaks{Values: kept}
	next.setSpectrum(i, updated)
	next.Assignments = unlinkFeatures(state.Assignments, sp.ID, removed)
	return next
}

func (e *Engine) shiftPeak(state *State, a ShiftPeak) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok || sp.Data.Len() == 0 {
		return state
	}
	j := slices.IndexFunc(sp.Peaks.Values, func(p Peak) bool { return p.ID == a.PeakID })
	if j < 0 || sp.Peaks.Values[j].X == a.X {
		return state
	}
	next := state.next(KindShiftPeak)
	updated := sp.clone()
	peaks := slices.Clone(sp.Peaks.Values)
	peaks[j].X = a.X
	peaks[j].Y = sp.Data.ValueAt(a.X)
	updated.Peaks = Peaks{Values: peaks}
	next.setSpectrum(i, updated)
	return next
}

func (e *Engine) autoPeakPicking(state *State, a AutoPeakPicking) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok || sp.Is2D() || e.cfg.peakPicker == nil || sp.Data.Len() == 0 {
		return state
	}
	picked, err := e.pickPeaks(sp.Data, a)
	if err != nil {
		return state
	}
	next := state.next(KindAutoPeakPicking)
	peaks := make([]Peak, 0, len(picked))
	for _, p := range picked {
		peaks = append(peaks, Peak{ID: e.newID(next, "peak"), X: p.X, Y: p.Y, Width: p.Width})
	}
	removed := make([]string, 0, len(sp.Peaks.Values))
	for _, p := range sp.Peaks.Values {
		removed = append(removed, p.ID)
	}
	updated := sp.clone()
	updated.Peaks = Peaks{Values: peaks}
	next.setSpectrum(i, updated)
	next.Assignments = unlinkFeatures(state.Assignments, sp.ID, removed)
	return next
}

func (e *Engine) pickPeaks(data Data, a AutoPeakPicking) (peaks []analysis.Peak, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errCollaboratorPanic(r)
		}
	}()
	return e.cfg.peakPicker.PickPeaks(data.X, data.Re, a.Options)
}
