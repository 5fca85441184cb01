package spectra

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrInapplicableFilter marks a filter that cannot run on the spectrum's
	// current state.
	ErrInapplicableFilter = errors.New("spectra: inapplicable filter")
	// ErrUnknownFilter marks an entry whose name is not registered.
	ErrUnknownFilter = errors.New("spectra: unknown filter")
	// ErrFilterFailed marks a filter whose Apply returned an error or panicked.
	ErrFilterFailed = errors.New("spectra: filter failed")
)

// DomainUpdateRule declares which display axes a filter invalidates.
type DomainUpdateRule struct {
	UpdatesXDomain bool `json:"updateXDomain"`
	UpdatesYDomain bool `json:"updateYDomain"`
}

// Or returns the union of both rules.
func (r DomainUpdateRule) Or(other DomainUpdateRule) DomainUpdateRule {
	return DomainUpdateRule{
		UpdatesXDomain: r.UpdatesXDomain || other.UpdatesXDomain,
		UpdatesYDomain: r.UpdatesYDomain || other.UpdatesYDomain,
	}
}

// Filter is a registered, deterministic transform of spectrum data. The
// engine only calls through this contract. Implementations must treat the
// spectrum as read-only and return fresh slices.
type Filter interface {
	Name() string
	Apply(spectrum *Spectrum, value any) (Data, error)
	IsApplicable(spectrum *Spectrum) bool
	DomainUpdateRule() DomainUpdateRule
}

// InfoTransformer is implemented by filters that change spectrum metadata,
// e.g. a Fourier transform turning an FID into a frequency spectrum.
type InfoTransformer interface {
	TransformInfo(info Info, value any) Info
}

// Labeler provides the display label of new entries.
type Labeler interface {
	Label() string
}

// DeletePolicy lets a filter forbid deletion of its entries.
type DeletePolicy interface {
	DeleteAllowed() bool
}

// FilterErrorKind classifies a FilterError.
type FilterErrorKind string

const (
	FilterInapplicable FilterErrorKind = "inapplicable"
	FilterUnknown      FilterErrorKind = "unknown"
	FilterFailed       FilterErrorKind = "failed"
)

// FilterError is recorded on a FilterEntry instead of being returned, so the
// entry stays visible and correctable.
type FilterError struct {
	Kind    FilterErrorKind `json:"kind"`
	Message string          `json:"message"`
}

func (e *FilterError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("spectra: filter %s: %s", e.Kind, e.Message)
}

func (e *FilterError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case FilterInapplicable:
		return target == ErrInapplicableFilter
	case FilterUnknown:
		return target == ErrUnknownFilter
	case FilterFailed:
		return target == ErrFilterFailed
	}
	return false
}

// FilterRegistry stores filters keyed by name.
type FilterRegistry struct {
	mu      sync.RWMutex
	filters map[string]Filter
}

// NewFilterRegistry builds a registry holding filters.
func NewFilterRegistry(filters ...Filter) (*FilterRegistry, error) {
	r := &FilterRegistry{filters: make(map[string]Filter, len(filters))}
	for _, f := range filters {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register stores f guarding against duplicates.
func (r *FilterRegistry) Register(f Filter) error {
	if f == nil {
		return fmt.Errorf("spectra: filter is nil")
	}
	name := f.Name()
	if name == "" {
		return fmt.Errorf("spectra: filter name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filters == nil {
		r.filters = make(map[string]Filter)
	}
	if _, exists := r.filters[name]; exists {
		return fmt.Errorf("spectra: filter %q already registered", name)
	}
	r.filters[name] = f
	return nil
}

// Replace stores f, overwriting any filter of the same name.
func (r *FilterRegistry) Replace(f Filter) {
	if f == nil || f.Name() == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filters == nil {
		r.filters = make(map[string]Filter)
	}
	r.filters[f.Name()] = f
}

// Lookup returns the filter registered under name.
func (r *FilterRegistry) Lookup(name string) (Filter, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// Names returns registered filter names sorted alphabetically.
func (r *FilterRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of the registry.
func (r *FilterRegistry) Clone() *FilterRegistry {
	if r == nil {
		return &FilterRegistry{filters: map[string]Filter{}}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FilterRegistry{filters: make(map[string]Filter, len(r.filters))}
	for name, f := range r.filters {
		clone.filters[name] = f
	}
	return clone
}

// FilterFunc adapts plain functions to Filter.
type FilterFunc struct {
	FilterName  string
	FilterLabel string
	Rule        DomainUpdateRule
	ApplyFunc   func(spectrum *Spectrum, value any) (Data, error)
	Applicable  func(spectrum *Spectrum) bool
	Transform   func(info Info, value any) Info
}

func (f FilterFunc) Name() string { return f.FilterName }

func (f FilterFunc) Label() string {
	if f.FilterLabel != "" {
		return f.FilterLabel
	}
	return f.FilterName
}

func (f FilterFunc) Apply(spectrum *Spectrum, value any) (Data, error) {
	if f.ApplyFunc == nil {
		return spectrum.Data, nil
	}
	return f.ApplyFunc(spectrum, value)
}

func (f FilterFunc) IsApplicable(spectrum *Spectrum) bool {
	if f.Applicable == nil {
		return true
	}
	return f.Applicable(spectrum)
}

func (f FilterFunc) DomainUpdateRule() DomainUpdateRule { return f.Rule }

func (f FilterFunc) TransformInfo(info Info, value any) Info {
	if f.Transform == nil {
		return info
	}
	return f.Transform(info, value)
}

func filterLabel(f Filter) string {
	if l, ok := f.(Labeler); ok && l.Label() != "" {
		return l.Label()
	}
	return f.Name()
}

func filterDeleteAllowed(f Filter) bool {
	if p, ok := f.(DeletePolicy); ok {
		return p.DeleteAllowed()
	}
	return true
}
