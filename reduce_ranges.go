package spectra

import (
	"math"
	"slices"
	"sort"

	"github.com/goliatone/go-spectra/analysis"
)

// defaultMultiplicity marks a signal whose multiplet has not been analysed.
const defaultMultiplicity = "m"

func (e *Engine) newRange(next *State, data Data, from, to float64) Range {
	delta := (from + to) / 2
	if x, _, ok := data.MaxIn(Domain{from, to}); ok {
		delta = x
	}
	return Range{
		ID:       e.newID(next, "range"),
		From:     from,
		To:       to,
		Absolute: e.integrate(data, from, to),
		Kind:     RangeSignal,
		Signals: []Signal{{
			ID:           e.newID(next, "signal"),
			Delta:        delta,
			Multiplicity: defaultMultiplicity,
		}},
	}
}

func sortRanges(values []Range) []Range {
	sort.SliceStable(values, func(i, j int) bool { return values[i].From < values[j].From })
	return values
}

func (e *Engine) withRanges(next *State, i int, sp *Spectrum, values []Range, opts SumOptions) *State {
	updated := sp.clone()
	updated.Ranges = Ranges{Values: normalizeRanges(values, opts.Sum), Options: opts}
	next.setSpectrum(i, updated)
	next.deriveViews()
	return next
}

func (e *Engine) addRange(state *State, a AddRange) *State {
	i, sp, ok := state.target(a.SpectrumID)
	from, to := math.Min(a.From, a.To), math.Max(a.From, a.To)
	if !ok || sp.Is2D() || to-from <= 0 {
		return state
	}
	next := state.next(KindAddRange)
	values := append(slices.Clone(sp.Ranges.Values), e.newRange(next, sp.Data, from, to))
	return e.withRanges(next, i, sp, sortRanges(values), sp.Ranges.Options)
}

func (e *Engine) deleteRanges(state *State, a DeleteRanges) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok {
		return state
	}
	set := idSet(a.IDs)
	var kept []Range
	var removed []string
	for _, r := range sp.Ranges.Values {
		if inSet(set, r.ID) {
			removed = append(removed, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	if len(removed) == 0 {
		return state
	}
	next := state.next(KindDeleteRanges)
	next.Assignments = unlinkFeatures(state.Assignments, sp.ID, removed)
	return e.withRanges(next, i, sp, kept, sp.Ranges.Options)
}

func (e *Engine) resizeRange(state *State, a ResizeRange) *State {
	i, sp, ok := state.target(a.SpectrumID)
	from, to := math.Min(a.From, a.To), math.Max(a.From, a.To)
	if !ok || to-from <= 0 {
		return state
	}
	j := slices.IndexFunc(sp.Ranges.Values, func(r Range) bool { return r.ID == a.RangeID })
	if j < 0 || (sp.Ranges.Values[j].From == from && sp.Ranges.Values[j].To == to) {
		return state
	}
	next := state.next(KindResizeRange)
	values := slices.Clone(sp.Ranges.Values)
	values[j].From, values[j].To = from, to
	values[j].Absolute = e.integrate(sp.Data, from, to)
	return e.withRanges(next, i, sp, sortRanges(values), sp.Ranges.Options)
}

func (e *Engine) changeRangeKind(state *State, a ChangeRangeKind) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok || !a.RangeKind.Valid() {
		return state
	}
	j := slices.IndexFunc(sp.Ranges.Values, func(r Range) bool { return r.ID == a.RangeID })
	if j < 0 || sp.Ranges.Values[j].Kind == a.RangeKind {
		return state
	}
	next := state.next(KindChangeRangeKind)
	values := slices.Clone(sp.Ranges.Values)
	values[j].Kind = a.RangeKind
	return e.withRanges(next, i, sp, values, sp.Ranges.Options)
}

func (e *Engine) changeRangeSignal(state *State, a ChangeRangeSignal) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok {
		return state
	}
	j := slices.IndexFunc(sp.Ranges.Values, func(r Range) bool { return r.ID == a.RangeID })
	if j < 0 {
		return state
	}
	k := slices.IndexFunc(sp.Ranges.Values[j].Signals, func(s Signal) bool { return s.ID == a.SignalID })
	if k < 0 {
		return state
	}
	current := sp.Ranges.Values[j].Signals[k]
	multiplicity := current.Multiplicity
	if a.Multiplicity != "" {
		multiplicity = a.Multiplicity
	}
	if current.Delta == a.Delta && current.Multiplicity == multiplicity {
		return state
	}
	next := state.next(KindChangeRangeSignal)
	values := slices.Clone(sp.Ranges.Values)
	signals := slices.Clone(values[j].Signals)
	signals[k].Delta = a.Delta
	signals[k].Multiplicity = multiplicity
	values[j].Signals = signals
	return e.withRanges(next, i, sp, values, sp.Ranges.Options)
}

// changeRangesSum takes the total from the molecule when one is named,
// counting its atoms of the spectrum's first nucleus.
func (e *Engine) changeRangesSum(state *State, a ChangeRangesSum) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok {
		return state
	}
	opts := SumOptions{Sum: a.Sum}
	if a.MoleculeID != "" {
		m, found := state.Molecule(a.MoleculeID)
		if !found || len(sp.Info.Nucleus) == 0 {
			return state
		}
		count := m.AtomCount(sp.Info.Nucleus[0])
		if count <= 0 {
			return state
		}
		opts = SumOptions{Sum: float64(count), SumAuto: true, MoleculeID: m.ID}
	}
	if opts.Sum <= 0 || opts == sp.Ranges.Options {
		return state
	}
	next := state.next(KindChangeRangesSum)
	return e.withRanges(next, i, sp, slices.Clone(sp.Ranges.Values), opts)
}

func (e *Engine) autoRangesDetection(state *State, a AutoRangesDetection) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok || sp.Is2D() || e.cfg.rangePicker == nil || sp.Data.Len() == 0 {
		return state
	}
	windows, err := e.pickRanges(sp.Data, a.Options)
	if err != nil {
		return state
	}
	next := state.next(KindAutoRangesDetection)
	values := make([]Range, 0, len(windows))
	for _, w := range windows {
		from, to := math.Min(w.From, w.To), math.Max(w.From, w.To)
		if to-from <= 0 {
			continue
		}
		values = append(values, e.newRange(next, sp.Data, from, to))
	}
	removed := make([]string, 0, len(sp.Ranges.Values))
	for _, r := range sp.Ranges.Values {
		removed = append(removed, r.ID)
	}
	next.Assignments = unlinkFeatures(state.Assignments, sp.ID, removed)
	return e.withRanges(next, i, sp, sortRanges(values), sp.Ranges.Options)
}

func (e *Engine) pickRanges(data Data, opts analysis.RangeOptions) (windows []analysis.Window, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errCollaboratorPanic(r)
		}
	}()
	return e.cfg.rangePicker.PickRanges(data.X, data.Re, opts)
}
