package spectra

import (
	"math"

	"github.com/goliatone/go-spectra/pkg/scale"
	"github.com/goliatone/go-spectra/pkg/zoom"
)

func originFor(sp *Spectrum) AxisDomains {
	return AxisDomains{
		X: scale.Guard(sp.Data.XDomain()),
		Y: scale.Guard(sp.Data.YDomain()),
	}
}

// refreshOrigin recomputes the origin axes selected by rule from the
// spectrum's current data. A spectrum without an origin gets both axes.
func (s *State) refreshOrigin(sp *Spectrum, rule DomainUpdateRule) {
	fresh := originFor(sp)
	origin, ok := s.Domains.Origin[sp.ID]
	if ok {
		if rule.UpdatesXDomain {
			origin.X = fresh.X
		}
		if rule.UpdatesYDomain {
			origin.Y = fresh.Y
		}
	} else {
		origin = fresh
	}
	if ok && origin == s.Domains.Origin[sp.ID] {
		return
	}
	origins := cloneMap(s.Domains.Origin)
	origins[sp.ID] = origin
	s.Domains.Origin = origins
}

// deriveViews recomputes every view domain from the origin domains, the zoom
// state and the frame. It must only be called on a state returned by next.
func (s *State) deriveViews() {
	tabSpectra := s.SpectraInTab(s.ActiveTab)
	is2D := len(tabSpectra) > 0 && tabSpectra[0].Is2D()

	var xs, ys []Domain
	for _, sp := range tabSpectra {
		if origin, ok := s.Domains.Origin[sp.ID]; ok {
			xs = append(xs, origin.X)
			ys = append(ys, origin.Y)
		}
	}
	tabOrigin := AxisDomains{X: scale.Union(xs...), Y: scale.Union(ys...)}
	tabView := AxisDomains{X: s.Zoom.XWindow.apply(tabOrigin.X)}
	if is2D {
		tabView.Y = s.Zoom.YWindow.apply(tabOrigin.Y)
	} else {
		tabView.Y = zoom.RescaleFromBottom(tabOrigin.Y, s.Zoom.Aggregate, s.Frame)
	}
	if len(xs) == 0 {
		tabOrigin, tabView = AxisDomains{}, AxisDomains{}
	}

	views := make(map[string]AxisDomains, len(s.Spectra))
	var integralOrigin, integralView map[string]Domain
	for _, sp := range s.Spectra {
		origin, ok := s.Domains.Origin[sp.ID]
		if !ok {
			continue
		}
		inTab := sp.Info.Tab() == s.ActiveTab
		view := origin
		if inTab {
			view.X = tabView.X
		}
		switch {
		case sp.Is2D():
			if inTab {
				view.Y = tabView.Y
			}
		default:
			f := s.Zoom.factor(sp.ID)
			if f.Anchor == AnchorBottom {
				view.Y = zoom.RescaleFromBottom(origin.Y, f.Scale, s.Frame)
			} else {
				view.Y = zoom.Rescale(origin.Y, f.Scale, s.Frame, zoom.ClosestToZero(sp.Data.Re))
			}
		}
		views[sp.ID] = view

		if io, ok := integralOriginFor(sp); ok {
			if integralOrigin == nil {
				integralOrigin = map[string]Domain{}
				integralView = map[string]Domain{}
			}
			integralOrigin[sp.ID] = io
			integralView[sp.ID] = zoom.RescaleFromBottom(io, s.Zoom.integralScale(sp.ID), s.Frame)
		}
	}

	s.Domains.TabOrigin = tabOrigin
	s.Domains.TabView = tabView
	s.Domains.View = views
	s.Domains.IntegralOrigin = integralOrigin
	s.Domains.IntegralView = integralView
}

// integralOriginFor spans zero to the largest absolute area of the
// spectrum's integrals and ranges.
func integralOriginFor(sp *Spectrum) (Domain, bool) {
	if sp.Is2D() || (len(sp.Integrals.Values) == 0 && len(sp.Ranges.Values) == 0) {
		return Domain{}, false
	}
	peak := 0.0
	for _, v := range sp.Integrals.Values {
		peak = math.Max(peak, math.Abs(v.Absolute))
	}
	for _, v := range sp.Ranges.Values {
		peak = math.Max(peak, math.Abs(v.Absolute))
	}
	return scale.Guard(Domain{0, peak}), true
}

// windowFor expresses d as fractions of origin, clamped to [0, 1].
func windowFor(origin, d Domain) (*Window, bool) {
	origin, d = origin.Sorted(), d.Sorted()
	width := origin.Width()
	if width <= 0 {
		return nil, false
	}
	from := clamp01((d[0] - origin[0]) / width)
	to := clamp01((d[1] - origin[0]) / width)
	if to-from < scale.MinWidth {
		return nil, false
	}
	return &Window{From: from, To: to}, true
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
