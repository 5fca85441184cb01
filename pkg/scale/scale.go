// Package scale maps data-space intervals to pixel-space intervals and back.
//
// All functions are pure. A zero-width (degenerate) domain is widened to
// MinWidth before use so callers never observe NaN or Inf results.
package scale

import (
	"math"
)

// MinWidth is the smallest domain width the linear scale accepts. Narrower
// domains are widened symmetrically around their centre.
const MinWidth = 1e-9

// Domain is a closed [min, max] interval on one axis.
type Domain [2]float64

// Min returns the lower bound.
func (d Domain) Min() float64 { return d[0] }

// Max returns the upper bound.
func (d Domain) Max() float64 { return d[1] }

// Width returns max - min.
func (d Domain) Width() float64 { return d[1] - d[0] }

// IsDegenerate reports whether the domain has (near) zero width or holds
// non-finite bounds.
func (d Domain) IsDegenerate() bool {
	if !isFinite(d[0]) || !isFinite(d[1]) {
		return true
	}
	return math.Abs(d.Width()) < MinWidth
}

// Contains reports whether v lies within the domain, regardless of bound
// order.
func (d Domain) Contains(v float64) bool {
	lo, hi := d[0], d[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

// Sorted returns the domain with min <= max.
func (d Domain) Sorted() Domain {
	if d[0] > d[1] {
		return Domain{d[1], d[0]}
	}
	return d
}

// Guard widens a degenerate domain to MinWidth around its centre. Non-finite
// bounds collapse to [0, MinWidth].
func Guard(d Domain) Domain {
	if !isFinite(d[0]) || !isFinite(d[1]) {
		return Domain{0, MinWidth}
	}
	if math.Abs(d.Width()) >= MinWidth {
		return d
	}
	centre := (d[0] + d[1]) / 2
	return Domain{centre - MinWidth/2, centre + MinWidth/2}
}

// Extent returns the [min, max] of values. An empty slice yields [0, 0].
func Extent(values []float64) Domain {
	if len(values) == 0 {
		return Domain{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return Domain{}
	}
	return Domain{lo, hi}
}

// Union returns the smallest domain covering every input. An empty input
// yields [0, 0].
func Union(domains ...Domain) Domain {
	if len(domains) == 0 {
		return Domain{}
	}
	out := domains[0].Sorted()
	for _, d := range domains[1:] {
		d = d.Sorted()
		out[0] = math.Min(out[0], d[0])
		out[1] = math.Max(out[1], d[1])
	}
	return out
}

// Linear is an affine mapping from a domain onto a pixel range.
type Linear struct {
	domain Domain
	rng    Domain
}

// NewLinear builds a linear scale. A degenerate domain is guarded first.
func NewLinear(domain, rng Domain) Linear {
	return Linear{domain: Guard(domain), rng: rng}
}

// Domain returns the (guarded) data domain of the scale.
func (l Linear) Domain() Domain { return l.domain }

// Range returns the pixel range of the scale.
func (l Linear) Range() Domain { return l.rng }

// Map projects a data value into pixel space.
func (l Linear) Map(v float64) float64 {
	t := (v - l.domain[0]) / l.domain.Width()
	return l.rng[0] + t*l.rng.Width()
}

// Invert projects a pixel value back into data space. A zero-width range
// maps every pixel onto the domain minimum.
func (l Linear) Invert(px float64) float64 {
	w := l.rng.Width()
	if w == 0 {
		return l.domain[0]
	}
	t := (px - l.rng[0]) / w
	return l.domain[0] + t*l.domain.Width()
}

// For returns the forward mapping as a function value.
func For(domain, rng Domain) func(float64) float64 {
	return NewLinear(domain, rng).Map
}

// InverseFor returns the inverse mapping as a function value.
func InverseFor(domain, rng Domain) func(float64) float64 {
	return NewLinear(domain, rng).Invert
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
