// Package assignment links atom identifiers (diaIDs) to spectral features.
//
// A Graph is an immutable value: every method that changes links returns a
// new Graph. An atom id maps to at most one feature reference at any time.
package assignment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAlreadyAssigned reports that an atom is linked to a different feature.
var ErrAlreadyAssigned = errors.New("assignment: atom already assigned")

// Kind names the feature collection a reference points into.
type Kind string

const (
	KindPeak  Kind = "peak"
	KindRange Kind = "range"
	KindZone  Kind = "zone"
)

// Axis selects one dimension of a 2D signal.
type Axis string

const (
	AxisNone Axis = ""
	AxisX    Axis = "x"
	AxisY    Axis = "y"
)

// Level discriminates whole-feature from single-signal granularity.
type Level string

const (
	LevelFeature Level = "feature"
	LevelSignal  Level = "signal"
)

// Ref identifies a spectral feature, optionally narrowed to one signal and
// axis.
type Ref struct {
	SpectrumID string `json:"spectrumId"`
	Kind       Kind   `json:"kind"`
	FeatureID  string `json:"featureId"`
	SignalID   string `json:"signalId,omitempty"`
	Axis       Axis   `json:"axis,omitempty"`
}

// Level returns the granularity of the reference.
func (r Ref) Level() Level {
	if r.SignalID != "" || r.Axis != AxisNone {
		return LevelSignal
	}
	return LevelFeature
}

// IsZero reports whether the reference names no feature.
func (r Ref) IsZero() bool {
	return r.SpectrumID == "" && r.FeatureID == ""
}

func (r Ref) String() string {
	parts := []string{r.SpectrumID, string(r.Kind), r.FeatureID}
	if r.SignalID != "" {
		parts = append(parts, r.SignalID)
	}
	if r.Axis != AxisNone {
		parts = append(parts, string(r.Axis))
	}
	return strings.Join(parts, "/")
}

// Matches reports whether other falls under r at the given level. At
// LevelFeature any signal of the same feature matches; at LevelSignal the
// signal id and axis must match as well.
func (r Ref) Matches(other Ref, level Level) bool {
	if r.SpectrumID != other.SpectrumID || r.FeatureID != other.FeatureID {
		return false
	}
	if level == LevelFeature {
		return true
	}
	return r.SignalID == other.SignalID && r.Axis == other.Axis
}

// ConflictError lists the atoms that block a link request.
type ConflictError struct {
	Requested Ref
	Existing  map[string]Ref
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	atoms := make([]string, 0, len(e.Existing))
	for atom := range e.Existing {
		atoms = append(atoms, atom)
	}
	sort.Strings(atoms)
	return fmt.Sprintf("%s: atoms %s cannot be linked to %s", ErrAlreadyAssigned, strings.Join(atoms, ","), e.Requested)
}

// Atoms returns the conflicting atom ids, sorted.
func (e *ConflictError) Atoms() []string {
	if e == nil {
		return nil
	}
	atoms := make([]string, 0, len(e.Existing))
	for atom := range e.Existing {
		atoms = append(atoms, atom)
	}
	sort.Strings(atoms)
	return atoms
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyAssigned
}

// Link groups the atoms assigned to one reference.
type Link struct {
	Atoms   []string `json:"atoms"`
	Feature Ref      `json:"feature"`
}

// Graph maps atom ids to feature references.
type Graph struct {
	links map[string]Ref
}

// FromLinks rebuilds a graph from grouped links. It fails when an atom is
// listed under two different references.
func FromLinks(links []Link) (Graph, error) {
	g := Graph{}
	for _, link := range links {
		next, err := g.Link(link.Atoms, link.Feature)
		if err != nil {
			return Graph{}, err
		}
		g = next
	}
	return g, nil
}

// Len returns the number of linked atoms.
func (g Graph) Len() int {
	return len(g.links)
}

// Lookup returns the reference an atom is linked to.
func (g Graph) Lookup(atom string) (Ref, bool) {
	ref, ok := g.links[atom]
	return ref, ok
}

// Toggle links atom to ref, or unlinks it when it is already linked to the
// same ref. Linking an atom that points elsewhere fails with a
// *ConflictError and returns g unchanged.
func (g Graph) Toggle(atom string, ref Ref) (Graph, error) {
	if atom == "" || ref.IsZero() {
		return g, nil
	}
	if existing, ok := g.links[atom]; ok {
		if existing == ref {
			return g.UnlinkAtoms(atom), nil
		}
		return g, &ConflictError{Requested: ref, Existing: map[string]Ref{atom: existing}}
	}
	next := g.clone()
	next.links[atom] = ref
	return next, nil
}

// Link assigns every atom in atoms to ref. Either all atoms are linked or,
// when any of them already points to a different reference, none are.
func (g Graph) Link(atoms []string, ref Ref) (Graph, error) {
	if ref.IsZero() {
		return g, nil
	}
	var conflicts map[string]Ref
	pending := make([]string, 0, len(atoms))
	for _, atom := range atoms {
		if atom == "" {
			continue
		}
		existing, ok := g.links[atom]
		switch {
		case !ok:
			pending = append(pending, atom)
		case existing != ref:
			if conflicts == nil {
				conflicts = map[string]Ref{}
			}
			conflicts[atom] = existing
		}
	}
	if len(conflicts) > 0 {
		return g, &ConflictError{Requested: ref, Existing: conflicts}
	}
	if len(pending) == 0 {
		return g, nil
	}
	next := g.clone()
	for _, atom := range pending {
		next.links[atom] = ref
	}
	return next, nil
}

// Unlink removes every atom linked under ref at the given level.
func (g Graph) Unlink(ref Ref, level Level) Graph {
	return g.without(func(_ string, linked Ref) bool {
		return ref.Matches(linked, level)
	})
}

// UnlinkAtoms removes the links of the given atoms.
func (g Graph) UnlinkAtoms(atoms ...string) Graph {
	if len(atoms) == 0 {
		return g
	}
	set := make(map[string]struct{}, len(atoms))
	for _, atom := range atoms {
		set[atom] = struct{}{}
	}
	return g.without(func(atom string, _ Ref) bool {
		_, ok := set[atom]
		return ok
	})
}

// RemoveFeature drops every link pointing at the feature.
func (g Graph) RemoveFeature(spectrumID, featureID string) Graph {
	return g.Unlink(Ref{SpectrumID: spectrumID, FeatureID: featureID}, LevelFeature)
}

// RemoveSpectrum drops every link pointing into the spectrum.
func (g Graph) RemoveSpectrum(spectrumID string) Graph {
	return g.without(func(_ string, linked Ref) bool {
		return linked.SpectrumID == spectrumID
	})
}

// AtomsFor returns the atoms linked under ref at level, sorted.
func (g Graph) AtomsFor(ref Ref, level Level) []string {
	var atoms []string
	for atom, linked := range g.links {
		if ref.Matches(linked, level) {
			atoms = append(atoms, atom)
		}
	}
	sort.Strings(atoms)
	return atoms
}

// HighlightsFor returns the distinct references currently linked to any of
// atoms. It never changes the graph.
func (g Graph) HighlightsFor(atoms []string) []Ref {
	seen := map[Ref]struct{}{}
	var refs []Ref
	for _, atom := range atoms {
		ref, ok := g.links[atom]
		if !ok {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	sortRefs(refs)
	return refs
}

// Links returns the graph grouped by reference, in deterministic order.
func (g Graph) Links() []Link {
	grouped := map[Ref][]string{}
	for atom, ref := range g.links {
		grouped[ref] = append(grouped[ref], atom)
	}
	refs := make([]Ref, 0, len(grouped))
	for ref := range grouped {
		refs = append(refs, ref)
	}
	sortRefs(refs)
	out := make([]Link, 0, len(refs))
	for _, ref := range refs {
		atoms := grouped[ref]
		sort.Strings(atoms)
		out = append(out, Link{Atoms: atoms, Feature: ref})
	}
	return out
}

// Equal reports whether both graphs hold the same links.
func (g Graph) Equal(other Graph) bool {
	if len(g.links) != len(other.links) {
		return false
	}
	for atom, ref := range g.links {
		if o, ok := other.links[atom]; !ok || o != ref {
			return false
		}
	}
	return true
}

func (g Graph) clone() Graph {
	links := make(map[string]Ref, len(g.links)+1)
	for atom, ref := range g.links {
		links[atom] = ref
	}
	return Graph{links: links}
}

func (g Graph) without(drop func(atom string, ref Ref) bool) Graph {
	removed := false
	for atom, ref := range g.links {
		if drop(atom, ref) {
			removed = true
			break
		}
	}
	if !removed {
		return g
	}
	links := make(map[string]Ref, len(g.links))
	for atom, ref := range g.links {
		if !drop(atom, ref) {
			links[atom] = ref
		}
	}
	return Graph{links: links}
}

func sortRefs(refs []Ref) {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
}
