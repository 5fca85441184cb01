package spectra

import (
	"math"
	"slices"
)

// matrixMaxIn locates the largest intensity of m inside the x/y window.
func matrixMaxIn(m *Matrix, x, y Domain) (float64, float64, bool) {
	if m == nil || len(m.Z) == 0 || len(m.Z[0]) == 0 {
		return 0, 0, false
	}
	rows, cols := len(m.Z), len(m.Z[0])
	stepX := 0.0
	if cols > 1 {
		stepX = (m.MaxX - m.MinX) / float64(cols-1)
	}
	stepY := 0.0
	if rows > 1 {
		stepY = (m.MaxY - m.MinY) / float64(rows-1)
	}
	best := math.Inf(-1)
	var bx, by float64
	found := false
	for r, row := range m.Z {
		yv := m.MinY + float64(r)*stepY
		if !y.Contains(yv) {
			continue
		}
		for c, z := range row {
			xv := m.MinX + float64(c)*stepX
			if !x.Contains(xv) || z <= best {
				continue
			}
			best, bx, by, found = z, xv, yv, true
		}
	}
	return bx, by, found
}

func (e *Engine) withZones(next *State, i int, sp *Spectrum, values []Zone, opts SumOptions) *State {
	updated := sp.clone()
	updated.Zones = Zones{Values: normalizeZones(values, opts.Sum), Options: opts}
	next.setSpectrum(i, updated)
	return next
}

func (e *Engine) addZone(state *State, a AddZone) *State {
	i, sp, ok := state.target(a.SpectrumID)
	x, y := a.X.Sorted(), a.Y.Sorted()
	if !ok || !sp.Is2D() || sp.Data.Matrix == nil || x.Width() <= 0 || y.Width() <= 0 {
		return state
	}
	next := state.next(KindAddZone)
	dx, dy, found := matrixMaxIn(sp.Data.Matrix, x, y)
	if !found {
		dx, dy = (x[0]+x[1])/2, (y[0]+y[1])/2
	}
	zone := Zone{
		ID:       e.newID(next, "zone"),
		X:        x,
		Y:        y,
		Absolute: e.integrateZone(sp.Data, x, y),
		Kind:     RangeSignal,
		Signals: []Signal2D{{
			ID: e.newID(next, "signal"),
			X:  AxisSignal{Delta: dx},
			Y:  AxisSignal{Delta: dy},
		}},
	}
	values := append(slices.Clone(sp.Zones.Values), zone)
	return e.withZones(next, i, sp, values, sp.Zones.Options)
}

func (e *Engine) deleteZones(state *State, a DeleteZones) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok {
		return state
	}
	set := idSet(a.IDs)
	var kept []Zone
	var removed []string
	for _, z := range sp.Zones.Values {
		if inSet(set, z.ID) {
			removed = append(removed, z.ID)
			continue
		}
		kept = append(kept, z)
	}
	if len(removed) == 0 {
		return state
	}
	next := state.next(KindDeleteZones)
	next.Assignments = unlinkFeatures(state.Assignments, sp.ID, removed)
	return e.withZones(next, i, sp, kept, sp.Zones.Options)
}

func (e *Engine) changeZoneSignal(state *State, a ChangeZoneSignal) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok || (a.X == nil && a.Y == nil) {
		return state
	}
	j := slices.IndexFunc(sp.Zones.Values, func(z Zone) bool { return z.ID == a.ZoneID })
	if j < 0 {
		return state
	}
	k := slices.IndexFunc(sp.Zones.Values[j].Signals, func(s Signal2D) bool { return s.ID == a.SignalID })
	if k < 0 {
		return state
	}
	sig := sp.Zones.Values[j].Signals[k]
	changed := sig
	if a.X != nil {
		changed.X.Delta = *a.X
	}
	if a.Y != nil {
		changed.Y.Delta = *a.Y
	}
	if changed == sig {
		return state
	}
	next := state.next(KindChangeZoneSignal)
	values := slices.Clone(sp.Zones.Values)
	signals := slices.Clone(values[j].Signals)
	signals[k] = changed
	values[j].Signals = signals
	return e.withZones(next, i, sp, values, sp.Zones.Options)
}

func (e *Engine) changeZonesSum(state *State, a ChangeZonesSum) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok || a.Sum <= 0 || a.Sum == sp.Zones.Options.Sum {
		return state
	}
	next := state.next(KindChangeZonesSum)
	return e.withZones(next, i, sp, slices.Clone(sp.Zones.Values), SumOptions{Sum: a.Sum})
}
