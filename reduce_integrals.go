package spectra

import (
	"math"
	"slices"
)

func (e *Engine) addIntegral(state *State, a AddIntegral) *State {
	i, sp, ok := state.target(a.SpectrumID)
	from, to := math.Min(a.From, a.To), math.Max(a.From, a.To)
	if !ok || sp.Is2D() || to-from <= 0 {
		return state
	}
	next := state.next(KindAddIntegral)
	integral := Integral{
		ID:       e.newID(next, "integral"),
		From:     from,
		To:       to,
		Absolute: e.integrate(sp.Data, from, to),
	}
	updated := sp.clone()
	values := append(slices.Clone(sp.Integrals.Values), integral)
	updated.Integrals = Integrals{Values: normalizeIntegrals(values, sp.Integrals.Options.Sum), Options: sp.Integrals.Options}
	next.setSpectrum(i, updated)
	next.deriveViews()
	return next
}

func (e *Engine) deleteIntegrals(state *State, a DeleteIntegrals) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok {
		return state
	}
	set := idSet(a.IDs)
	var kept []Integral
	for _, v := range sp.Integrals.Values {
		if !inSet(set, v.ID) {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(sp.Integrals.Values) {
		return state
	}
	next := state.next(KindDeleteIntegrals)
	updated := sp.clone()
	updated.Integrals = Integrals{Values: normalizeIntegrals(kept, sp.Integrals.Options.Sum), Options: sp.Integrals.Options}
	next.setSpectrum(i, updated)
	next.deriveViews()
	return next
}

func (e *Engine) resizeIntegral(state *State, a ResizeIntegral) *State {
	i, sp, ok := state.target(a.SpectrumID)
	from, to := math.Min(a.From, a.To), math.Max(a.From, a.To)
	if !ok || to-from <= 0 {
		return state
	}
	j := slices.IndexFunc(sp.Integrals.Values, func(v Integral) bool { return v.ID == a.IntegralID })
	if j < 0 || (sp.Integrals.Values[j].From == from && sp.Integrals.Values[j].To == to) {
		return state
	}
	next := state.next(KindResizeIntegral)
	values := slices.Clone(sp.Integrals.Values)
	values[j].From, values[j].To = from, to
	values[j].Absolute = e.integrate(sp.Data, from, to)
	updated := sp.clone()
	updated.Integrals = Integrals{Values: normalizeIntegrals(values, sp.Integrals.Options.Sum), Options: sp.Integrals.Options}
	next.setSpectrum(i, updated)
	next.deriveViews()
	return next
}

func (e *Engine) changeIntegralsSum(state *State, a ChangeIntegralsSum) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok || a.Sum <= 0 || a.Sum == sp.Integrals.Options.Sum {
		return state
	}
	next := state.next(KindChangeIntegralsSum)
	opts := SumOptions{Sum: a.Sum}
	updated := sp.clone()
	updated.Integrals = Integrals{
		Values:  normalizeIntegrals(slices.Clone(sp.Integrals.Values), opts.Sum),
		Options: opts,
	}
	next.setSpectrum(i, updated)
	return next
}
