package spectra

import (
	"github.com/goliatone/go-spectra/pkg/preferences"
	"github.com/goliatone/go-spectra/pkg/zoom"
)

func (e *Engine) zoom(state *State, a Zoom) *State {
	var tabSpectra []*Spectrum
	for _, sp := range state.SpectraInTab(state.ActiveTab) {
		if !sp.Is2D() {
			tabSpectra = append(tabSpectra, sp)
		}
	}
	if len(tabSpectra) == 0 {
		return state
	}
	settings := state.Preferences.Zoom
	step := zoom.StepFor(a.Delta, a.Mode, settings)
	if a.Sample != nil {
		step = zoom.StepForSample(a.Delta, *a.Sample, settings)
	}

	active := a.SpectrumID
	if active == "" {
		active = state.ActiveSpectra[state.ActiveTab]
	}
	targets := tabSpectra
	if active != "" {
		targets = nil
		for _, sp := range tabSpectra {
			if sp.ID == active {
				targets = append(targets, sp)
			}
		}
		if len(targets) == 0 {
			return state
		}
	}

	if a.Target == ZoomIntegrals {
		scales := cloneMap(state.Zoom.Integrals)
		changed := false
		for _, sp := range targets {
			current := state.Zoom.integralScale(sp.ID)
			if nextScale := zoom.Integrals.Step(current, step); nextScale != current {
				scales[sp.ID] = nextScale
				changed = true
			}
		}
		if !changed {
			return state
		}
		next := state.next(KindZoom)
		next.Zoom.Integrals = scales
		next.deriveViews()
		return next
	}

	factors := cloneMap(state.Zoom.Spectra)
	aggregate := state.Zoom.Aggregate
	if active != "" {
		f := state.Zoom.factor(active)
		factors[active] = ZoomFactor{Scale: zoom.Spectra.Step(f.Scale, step), Anchor: AnchorBaseline}
	} else {
		aggregate = zoom.Spectra.Step(state.Zoom.Aggregate, step)
		for _, sp := range tabSpectra {
			factors[sp.ID] = ZoomFactor{Scale: aggregate, Anchor: AnchorBottom}
		}
	}
	if aggregate == state.Zoom.Aggregate && sameFactors(factors, state.Zoom.Spectra) {
		return state
	}
	next := state.next(KindZoom)
	next.Zoom.Aggregate = aggregate
	next.Zoom.Spectra = factors
	next.deriveViews()
	return next
}

func sameFactors(a, b map[string]ZoomFactor) bool {
	if len(a) != len(b) {
		return false
	}
	for id, f := range a {
		if g, ok := b[id]; !ok || g != f {
			return false
		}
	}
	return true
}

func (e *Engine) setDomain(state *State, a SetDomain) *State {
	tabSpectra := state.SpectraInTab(state.ActiveTab)
	if len(tabSpectra) == 0 || (a.X == nil && a.Y == nil) {
		return state
	}
	xWindow, yWindow := state.Zoom.XWindow, state.Zoom.YWindow
	changed := false
	if a.X != nil {
		if w, ok := windowFor(state.Domains.TabOrigin.X, *a.X); ok {
			xWindow, changed = w, true
		}
	}
	if a.Y != nil && tabSpectra[0].Is2D() {
		if w, ok := windowFor(state.Domains.TabOrigin.Y, *a.Y); ok {
			yWindow, changed = w, true
		}
	}
	if !changed {
		return state
	}
	next := state.next(KindSetDomain)
	next.Zoom.XWindow, next.Zoom.YWindow = xWindow, yWindow
	next.deriveViews()
	return next
}

func (e *Engine) resetZoom(state *State) *State {
	z := state.Zoom
	if z.Aggregate == 1 && len(z.Spectra) == 0 && len(z.Integrals) == 0 && z.XWindow == nil && z.YWindow == nil {
		return state
	}
	next := state.next(KindResetZoom)
	next.Zoom = ZoomState{Aggregate: 1}
	next.deriveViews()
	return next
}

func (e *Engine) setDimensions(state *State, a SetDimensions) *State {
	if a.Frame == state.Frame || a.Frame.Width <= 0 || a.Frame.Height <= 0 {
		return state
	}
	next := state.next(KindSetDimensions)
	next.Frame = a.Frame
	next.deriveViews()
	return next
}

func (e *Engine) setLoading(state *State, a SetLoading) *State {
	if state.Loading == a.Loading {
		return state
	}
	next := state.next(KindSetLoading)
	next.Loading = a.Loading
	return next
}

func (e *Engine) setPreferences(state *State, a SetPreferences) *State {
	if a.Change == nil {
		return state
	}
	prefs := preferences.Reduce(state.Preferences, a.Change)
	if preferences.Equal(prefs, state.Preferences) {
		return state
	}
	next := state.next(KindSetPreferences)
	next.Preferences = prefs
	return next
}
