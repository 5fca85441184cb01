package spectra

import (
	"slices"

	"github.com/goliatone/go-spectra/pkg/assignment"
)

func (e *Engine) loadSpectra(state *State, a LoadSpectra) *State {
	if len(a.Spectra) == 0 && len(a.Molecules) == 0 && len(a.Correlations) == 0 && len(a.Assignments) == 0 && !a.Replace {
		return state
	}
	next := state.next(KindLoadSpectra)
	if a.Replace {
		next.Spectra = nil
		next.Molecules = nil
		next.Correlations = nil
		next.ActiveTab = ""
		next.ActiveSpectra = map[string]string{}
		next.Domains = Domains{Origin: map[string]AxisDomains{}}
		next.Zoom = ZoomState{Aggregate: 1}
		next.Assignments = assignment.Graph{}
		next.FilterSnapshot = nil
	}

	spectra := slices.Clone(next.Spectra)
	origins := cloneMap(next.Domains.Origin)
	for _, in := range a.Spectra {
		sp := e.buildSpectrum(next, in)
		if i := slices.IndexFunc(spectra, func(s *Spectrum) bool { return s.ID == sp.ID }); i >= 0 {
			spectra[i] = sp
		} else {
			spectra = append(spectra, sp)
		}
		origins[sp.ID] = originFor(sp)
	}
	next.Spectra = spectra
	next.Domains.Origin = origins

	if len(a.Molecules) > 0 {
		molecules := slices.Clone(next.Molecules)
		for _, m := range a.Molecules {
			m = cloneMolecule(m)
			if m.ID == "" {
				m.ID = e.newID(next, "molecule")
			}
			if i := slices.IndexFunc(molecules, func(o Molecule) bool { return o.ID == m.ID }); i >= 0 {
				molecules[i] = m
			} else {
				molecules = append(molecules, m)
			}
		}
		next.Molecules = molecules
	}
	if len(a.Correlations) > 0 {
		next.Correlations = slices.Clone(a.Correlations)
	}

	graph := next.Assignments
	for _, link := range a.Assignments {
		if !next.featureExists(link.Feature) {
			continue
		}
		linked, err := graph.Link(link.Atoms, link.Feature)
		if err != nil {
			if next.Condition == nil {
				next.Condition = conditionFromError(err)
				if next.Condition != nil {
					next.Condition.Kind = ConditionLinksSkipped
				}
			}
			continue
		}
		graph = linked
	}
	next.Assignments = graph

	if !slices.Contains(next.Tabs(), next.ActiveTab) {
		next.ActiveTab = ""
		if tabs := next.Tabs(); len(tabs) > 0 {
			next.ActiveTab = tabs[0]
		}
	}
	next.deriveViews()
	return next
}

// buildSpectrum creates a spectrum from load input, replaying its filters
// and restoring its annotations.
func (e *Engine) buildSpectrum(next *State, in SpectrumInput) *Spectrum {
	id := in.ID
	if id == "" {
		id = e.newID(next, "spectrum")
	}
	info := in.Info.clone()
	if info.Dimension == 0 {
		info.Dimension = 1
		if in.Data.Matrix != nil {
			info.Dimension = 2
		}
	}
	sp := &Spectrum{
		ID:         id,
		Info:       info,
		SourceInfo: info,
		Source:     in.Data,
		Data:       in.Data,
		Hidden:     in.Hidden,
	}

	entries := make([]FilterEntry, 0, len(in.Filters))
	for _, fi := range in.Filters {
		if fi.Name == "" {
			continue
		}
		entry := e.newEntry(next, fi.Name, fi.Value)
		if fi.ID != "" {
			entry.ID = fi.ID
		}
		if fi.Enabled != nil {
			entry.Enabled = *fi.Enabled
		}
		entries = append(entries, entry)
	}
	sp.Filters = entries
	sp.Data, sp.Info, sp.Filters, _ = e.runPipeline(sp, "")

	peaks := make([]Peak, 0, len(in.Peaks))
	for _, p := range in.Peaks {
		if p.ID == "" {
			p.ID = e.newID(next, "peak")
		}
		peaks = append(peaks, p)
	}
	sp.Peaks = Peaks{Values: peaks}

	integrals := make([]Integral, 0, len(in.Integrals))
	for _, v := range in.Integrals {
		if v.ID == "" {
			v.ID = e.newID(next, "integral")
		}
		integrals = append(integrals, v)
	}
	sp.Integrals = Integrals{Values: integrals, Options: sumOptionsOrDefault(in.IntegralsOptions)}

	ranges := make([]Range, 0, len(in.Ranges))
	for _, r := range in.Ranges {
		if r.ID == "" {
			r.ID = e.newID(next, "range")
		}
		if !r.Kind.Valid() {
			r.Kind = RangeSignal
		}
		signals := make([]Signal, 0, len(r.Signals))
		for _, sig := range r.Signals {
			if sig.ID == "" {
				sig.ID = e.newID(next, "signal")
			}
			signals = append(signals, sig)
		}
		r.Signals = signals
		ranges = append(ranges, r)
	}
	sp.Ranges = Ranges{Values: ranges, Options: sumOptionsOrDefault(in.RangesOptions)}

	zones := make([]Zone, 0, len(in.Zones))
	for _, z := range in.Zones {
		if z.ID == "" {
			z.ID = e.newID(next, "zone")
		}
		if !z.Kind.Valid() {
			z.Kind = RangeSignal
		}
		signals := make([]Signal2D, 0, len(z.Signals))
		for _, sig := range z.Signals {
			if sig.ID == "" {
				sig.ID = e.newID(next, "signal")
			}
			signals = append(signals, sig)
		}
		z.Signals = signals
		zones = append(zones, z)
	}
	sp.Zones = Zones{Values: zones, Options: sumOptionsOrDefault(in.ZonesOptions)}

	e.refreshAnnotations(sp, true)
	return sp
}

func sumOptionsOrDefault(opts *SumOptions) SumOptions {
	if opts == nil || opts.Sum == 0 {
		return defaultSumOptions()
	}
	return *opts
}

func cloneMolecule(m Molecule) Molecule {
	m.DiaIDs = slices.Clone(m.DiaIDs)
	if m.Atoms != nil {
		m.Atoms = cloneMap(m.Atoms)
	}
	return m
}

func (e *Engine) deleteSpectra(state *State, a DeleteSpectra) *State {
	drop := map[string]struct{}{}
	for _, id := range a.IDs {
		if state.spectrumIndex(id) >= 0 {
			drop[id] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return state
	}
	next := state.next(KindDeleteSpectra)
	spectra := make([]*Spectrum, 0, len(state.Spectra)-len(drop))
	for _, sp := range state.Spectra {
		if _, gone := drop[sp.ID]; !gone {
			spectra = append(spectra, sp)
		}
	}
	next.Spectra = spectra

	origins := cloneMap(state.Domains.Origin)
	factors := cloneMap(state.Zoom.Spectra)
	integrals := cloneMap(state.Zoom.Integrals)
	active := cloneMap(state.ActiveSpectra)
	graph := state.Assignments
	for id := range drop {
		delete(origins, id)
		delete(factors, id)
		delete(integrals, id)
		graph = graph.RemoveSpectrum(id)
	}
	for tab, id := range active {
		if _, gone := drop[id]; gone {
			delete(active, tab)
		}
	}
	next.Domains.Origin = origins
	next.Zoom.Spectra = factors
	next.Zoom.Integrals = integrals
	next.ActiveSpectra = active
	next.Assignments = graph
	if snap := state.FilterSnapshot; snap != nil {
		if _, gone := drop[snap.SpectrumID]; gone {
			next.FilterSnapshot = nil
		}
	}
	if tabs := next.Tabs(); !slices.Contains(tabs, next.ActiveTab) {
		next.ActiveTab = ""
		next.Zoom.XWindow, next.Zoom.YWindow = nil, nil
		if len(tabs) > 0 {
			next.ActiveTab = tabs[0]
		}
	}
	next.deriveViews()
	return next
}

func (e *Engine) changeVisibility(state *State, a ChangeVisibility) *State {
	i := state.spectrumIndex(a.SpectrumID)
	if i < 0 || state.Spectra[i].Hidden == a.Hidden {
		return state
	}
	next := state.next(KindChangeVisibility)
	sp := state.Spectra[i].clone()
	sp.Hidden = a.Hidden
	next.setSpectrum(i, sp)
	return next
}

func (e *Engine) selectTab(state *State, a SelectTab) *State {
	if a.Tab == state.ActiveTab || !slices.Contains(state.Tabs(), a.Tab) {
		return state
	}
	next := state.next(KindSelectTab)
	next.ActiveTab = a.Tab
	next.Zoom.XWindow, next.Zoom.YWindow = nil, nil
	next.deriveViews()
	return next
}

func (e *Engine) selectSpectrum(state *State, a SelectSpectrum) *State {
	if a.SpectrumID == "" {
		if state.ActiveSpectra[state.ActiveTab] == "" {
			return state
		}
		next := state.next(KindSelectSpectrum)
		active := cloneMap(state.ActiveSpectra)
		delete(active, state.ActiveTab)
		next.ActiveSpectra = active
		return next
	}
	sp, ok := state.Spectrum(a.SpectrumID)
	if !ok {
		return state
	}
	tab := sp.Info.Tab()
	if state.ActiveTab == tab && state.ActiveSpectra[tab] == sp.ID {
		return state
	}
	next := state.next(KindSelectSpectrum)
	active := cloneMap(state.ActiveSpectra)
	active[tab] = sp.ID
	next.ActiveSpectra = active
	if tab != state.ActiveTab {
		next.ActiveTab = tab
		next.Zoom.XWindow, next.Zoom.YWindow = nil, nil
		next.deriveViews()
	}
	return next
}
