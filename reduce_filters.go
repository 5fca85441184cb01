package spectra

import (
	"fmt"
	"slices"
)

func (e *Engine) newEntry(next *State, name string, value any) FilterEntry {
	entry := FilterEntry{
		ID:              e.newID(next, "filter"),
		Name:            name,
		Label:           name,
		Value:           value,
		Enabled:         true,
		IsDeleteAllowed: true,
	}
	if f, ok := e.cfg.filters.Lookup(name); ok {
		entry.Label = filterLabel(f)
		entry.IsDeleteAllowed = filterDeleteAllowed(f)
	}
	return entry
}

// runPipeline derives data and info from the spectrum's source by running
// every enabled filter in order, stopping after stopAfter when it is set.
// Entries come back with their error payloads recomputed. The returned rule
// is the union of the rules of the filters that ran.
func (e *Engine) runPipeline(sp *Spectrum, stopAfter string) (Data, Info, []FilterEntry, DomainUpdateRule) {
	data := sp.Source
	info := sp.SourceInfo.clone()
	entries := slices.Clone(sp.Filters)
	var rule DomainUpdateRule

	for i := range entries {
		entry := &entries[i]
		entry.Error = nil
		if !entry.Enabled {
			if entry.ID == stopAfter {
				break
			}
			continue
		}
		f, ok := e.cfg.filters.Lookup(entry.Name)
		if !ok {
			entry.Error = &FilterError{Kind: FilterUnknown, Message: fmt.Sprintf("no filter registered as %q", entry.Name)}
		} else {
			current := &Spectrum{
				ID:         sp.ID,
				Info:       info,
				SourceInfo: sp.SourceInfo,
				Source:     sp.Source,
				Data:       data,
				Filters:    entries[:i],
			}
			out, err := runFilter(f, current, entry.Value)
			switch {
			case err != nil:
				entry.Error = err
			default:
				data = out
				if t, ok := f.(InfoTransformer); ok {
					info = t.TransformInfo(info, entry.Value)
				}
				rule = rule.Or(f.DomainUpdateRule())
			}
		}
		if entry.ID == stopAfter {
			break
		}
	}
	return data, info, entries, rule
}

// runFilter calls through the filter contract, converting refusals, errors
// and panics into a FilterError.
func runFilter(f Filter, sp *Spectrum, value any) (out Data, ferr *FilterError) {
	defer func() {
		if r := recover(); r != nil {
			ferr = &FilterError{Kind: FilterFailed, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()
	if !f.IsApplicable(sp) {
		return Data{}, &FilterError{Kind: FilterInapplicable, Message: fmt.Sprintf("%s cannot run on the current spectrum", f.Name())}
	}
	data, err := f.Apply(sp, value)
	if err != nil {
		return Data{}, &FilterError{Kind: FilterFailed, Message: err.Error()}
	}
	return data, nil
}

func (e *Engine) filterRule(name string) DomainUpdateRule {
	if f, ok := e.cfg.filters.Lookup(name); ok {
		return f.DomainUpdateRule()
	}
	return DomainUpdateRule{}
}

// rederive recomputes sp from its source and publishes it at index i,
// refreshing the origin axes selected by rule once.
func (e *Engine) rederive(next *State, i int, sp *Spectrum, rule DomainUpdateRule) *State {
	sp.Data, sp.Info, sp.Filters, _ = e.runPipeline(sp, "")
	e.refreshAnnotations(sp, false)
	next.setSpectrum(i, sp)
	next.refreshOrigin(sp, rule)
	if next.FilterSnapshot != nil && next.FilterSnapshot.SpectrumID == sp.ID {
		next.FilterSnapshot = nil
	}
	next.deriveViews()
	return next
}

func filterIndex(entries []FilterEntry, id string) int {
	return slices.IndexFunc(entries, func(f FilterEntry) bool { return f.ID == id })
}

func (e *Engine) addFilter(state *State, a AddFilter) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok || a.Name == "" {
		return state
	}
	next := state.next(KindAddFilter)
	updated := sp.clone()
	updated.Filters = append(slices.Clone(sp.Filters), e.newEntry(next, a.Name, a.Value))
	return e.rederive(next, i, updated, e.filterRule(a.Name))
}

func (e *Engine) toggleFilter(state *State, a ToggleFilter) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok {
		return state
	}
	j := filterIndex(sp.Filters, a.FilterID)
	if j < 0 || sp.Filters[j].Enabled == a.Enabled {
		return state
	}
	next := state.next(KindToggleFilter)
	updated := sp.clone()
	updated.Filters = slices.Clone(sp.Filters)
	updated.Filters[j].Enabled = a.Enabled
	return e.rederive(next, i, updated, e.filterRule(sp.Filters[j].Name))
}

func (e *Engine) deleteFilter(state *State, a DeleteFilter) *State {
	i, sp, ok := state.target(a.SpectrumID)
	if !ok {
		return state
	}
	j := filterIndex(sp.Filters, a.FilterID)
	if j < 0 || !sp.Filters[j].IsDeleteAllowed {
		return state
	}
	next := state.next(KindDeleteFilter)
	updated := sp.clone()
	updated.Filters = slices.Delete(slices.Clone(sp.Filters), j, j+1)
	return e.rederive(next, i, updated, e.filterRule(sp.Filters[j].Name))
}

func (e *Engine) snapshotFilter(state *State, a SnapshotFilter) *State {
	if a.FilterID == nil {
		if state.FilterSnapshot == nil {
			return state
		}
		next := state.next(KindSnapshotFilter)
		next.FilterSnapshot = nil
		return next
	}
	_, sp, ok := state.target(a.SpectrumID)
	if !ok || filterIndex(sp.Filters, *a.FilterID) < 0 {
		return state
	}
	data, info, _, _ := e.runPipeline(sp, *a.FilterID)
	next := state.next(KindSnapshotFilter)
	next.FilterSnapshot = &FilterSnapshot{
		SpectrumID: sp.ID,
		FilterID:   *a.FilterID,
		Data:       data,
		Info:       info,
	}
	return next
}
