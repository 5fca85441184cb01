package spectra

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/goliatone/go-spectra/internal/hydrate"
	"github.com/goliatone/go-spectra/pkg/assignment"
	"github.com/goliatone/go-spectra/pkg/preferences"
	"github.com/goliatone/go-spectra/pkg/zoom"
)

// DocumentVersion is the version written by State.Export.
const DocumentVersion = 1

// ErrDocumentVersion reports a session document newer than this package.
var ErrDocumentVersion = errors.New("spectra: unsupported document version")

// Document is the plain persisted form of a state. Spectra carry their
// source data and filter list; derived data is rebuilt on load. Assignments
// are stored as diaIDs on the features they point to.
type Document struct {
	Version      int                     `json:"version"`
	// Sequence is the id counter of the exported state. Loading resumes
	// from it so new features never reuse a saved id.
	Sequence     uint64                  `json:"sequence,omitempty"`
	Spectra      []SpectrumDocument      `json:"spectra"`
	Molecules    []Molecule              `json:"molecules"`
	Correlations json.RawMessage         `json:"correlations,omitempty"`
	View         ViewDocument            `json:"view"`
	Preferences  preferences.Preferences `json:"preferences"`
}

type ViewDocument struct {
	ActiveTab     string            `json:"activeTab,omitempty"`
	ActiveSpectra map[string]string `json:"activeSpectra,omitempty"`
	Frame         zoom.Frame        `json:"frame"`
}

type SpectrumDocument struct {
	ID        string         `json:"id"`
	Info      Info           `json:"info"`
	Data      Data           `json:"data"`
	Filters   []FilterInput  `json:"filters"`
	Peaks     PeaksDocument  `json:"peaks"`
	Integrals Integrals      `json:"integrals"`
	Ranges    RangesDocument `json:"ranges"`
	Zones     ZonesDocument  `json:"zones"`
	Hidden    bool           `json:"hidden,omitempty"`
}

type PeaksDocument struct {
	Values []AssignedPeak `json:"values"`
}

type AssignedPeak struct {
	Peak
	DiaIDs []string `json:"diaIDs,omitempty"`
}

type RangesDocument struct {
	Values  []AssignedRange `json:"values"`
	Options SumOptions      `json:"options"`
}

type AssignedRange struct {
	Range
	DiaIDs  []string         `json:"diaIDs,omitempty"`
	Signals []AssignedSignal `json:"signals,omitempty"`
}

type AssignedSignal struct {
	Signal
	DiaIDs []string `json:"diaIDs,omitempty"`
}

type ZonesDocument struct {
	Values  []AssignedZone `json:"values"`
	Options SumOptions     `json:"options"`
}

type AssignedZone struct {
	Zone
	DiaIDs  []string           `json:"diaIDs,omitempty"`
	Signals []AssignedSignal2D `json:"signals,omitempty"`
}

type AssignedSignal2D struct {
	ID     string       `json:"id"`
	X      AssignedAxis `json:"x"`
	Y      AssignedAxis `json:"y"`
	DiaIDs []string     `json:"diaIDs,omitempty"`
}

type AssignedAxis struct {
	Delta  float64  `json:"delta"`
	DiaIDs []string `json:"diaIDs,omitempty"`
}

// Export builds the persisted form of s.
func (s *State) Export() Document {
	atoms := map[assignment.Ref][]string{}
	for _, link := range s.Assignments.Links() {
		atoms[link.Feature] = link.Atoms
	}

	doc := Document{
		Version:      DocumentVersion,
		Sequence:     s.Sequence,
		Spectra:      make([]SpectrumDocument, 0, len(s.Spectra)),
		Molecules:    make([]Molecule, 0, len(s.Molecules)),
		Correlations: slices.Clone(s.Correlations),
		View: ViewDocument{
			ActiveTab:     s.ActiveTab,
			ActiveSpectra: cloneMap(s.ActiveSpectra),
			Frame:         s.Frame,
		},
		Preferences: s.Preferences.Clone(),
	}
	for _, m := range s.Molecules {
		doc.Molecules = append(doc.Molecules, cloneMolecule(m))
	}
	for _, sp := range s.Spectra {
		doc.Spectra = append(doc.Spectra, exportSpectrum(sp, atoms))
	}
	return doc
}

// MarshalJSON encodes the state as its exported document.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Export())
}

func exportSpectrum(sp *Spectrum, atoms map[assignment.Ref][]string) SpectrumDocument {
	ref := func(kind assignment.Kind, featureID, signalID string, axis assignment.Axis) []string {
		return atoms[assignment.Ref{SpectrumID: sp.ID, Kind: kind, FeatureID: featureID, SignalID: signalID, Axis: axis}]
	}

	out := SpectrumDocument{
		ID:        sp.ID,
		Info:      sp.SourceInfo.clone(),
		Data:      sp.Source,
		Filters:   make([]FilterInput, 0, len(sp.Filters)),
		Integrals: sp.Integrals,
		Hidden:    sp.Hidden,
	}
	for _, f := range sp.Filters {
		enabled := f.Enabled
		out.Filters = append(out.Filters, FilterInput{ID: f.ID, Name: f.Name, Value: f.Value, Enabled: &enabled})
	}

	out.Peaks.Values = make([]AssignedPeak, 0, len(sp.Peaks.Values))
	for _, p := range sp.Peaks.Values {
		out.Peaks.Values = append(out.Peaks.Values, AssignedPeak{Peak: p, DiaIDs: ref(assignment.KindPeak, p.ID, "", assignment.AxisNone)})
	}

	out.Ranges.Options = sp.Ranges.Options
	out.Ranges.Values = make([]AssignedRange, 0, len(sp.Ranges.Values))
	for _, r := range sp.Ranges.Values {
		ar := AssignedRange{Range: r, DiaIDs: ref(assignment.KindRange, r.ID, "", assignment.AxisNone)}
		ar.Range.Signals = nil
		for _, sig := range r.Signals {
			ar.Signals = append(ar.Signals, AssignedSignal{Signal: sig, DiaIDs: ref(assignment.KindRange, r.ID, sig.ID, assignment.AxisNone)})
		}
		out.Ranges.Values = append(out.Ranges.Values, ar)
	}

	out.Zones.Options = sp.Zones.Options
	out.Zones.Values = make([]AssignedZone, 0, len(sp.Zones.Values))
	for _, z := range sp.Zones.Values {
		az := AssignedZone{Zone: z, DiaIDs: ref(assignment.KindZone, z.ID, "", assignment.AxisNone)}
		az.Zone.Signals = nil
		for _, sig := range z.Signals {
			az.Signals = append(az.Signals, AssignedSignal2D{
				ID:     sig.ID,
				X:      AssignedAxis{Delta: sig.X.Delta, DiaIDs: ref(assignment.KindZone, z.ID, sig.ID, assignment.AxisX)},
				Y:      AssignedAxis{Delta: sig.Y.Delta, DiaIDs: ref(assignment.KindZone, z.ID, sig.ID, assignment.AxisY)},
				DiaIDs: ref(assignment.KindZone, z.ID, sig.ID, assignment.AxisNone),
			})
		}
		out.Zones.Values = append(out.Zones.Values, az)
	}
	return out
}

var documentDecoder = hydrate.NewDecoder(
	hydrate.WithPostHook[Document](func(_ hydrate.Context, doc *Document) error {
		if doc.Version > DocumentVersion {
			return fmt.Errorf("%w: %d", ErrDocumentVersion, doc.Version)
		}
		return nil
	}),
)

// DecodeDocument accepts a Document, raw JSON or a decoded JSON object.
func DecodeDocument(payload any) (Document, error) {
	return documentDecoder.DecodeValue(hydrate.Context{Kind: "document", Source: "session"}, payload)
}

// Actions returns the actions that rebuild the document on an empty state.
func (d Document) Actions() []Action {
	load := LoadSpectra{
		Replace:      true,
		Spectra:      make([]SpectrumInput, 0, len(d.Spectra)),
		Molecules:    d.Molecules,
		Correlations: d.Correlations,
	}
	for _, sp := range d.Spectra {
		in, links := sp.input()
		load.Spectra = append(load.Spectra, in)
		load.Assignments = append(load.Assignments, links...)
	}
	actions := []Action{load}

	tabs := make([]string, 0, len(d.View.ActiveSpectra))
	for tab := range d.View.ActiveSpectra {
		if tab != d.View.ActiveTab {
			tabs = append(tabs, tab)
		}
	}
	sort.Strings(tabs)
	if d.View.ActiveTab != "" {
		tabs = append(tabs, d.View.ActiveTab)
	}
	for _, tab := range tabs {
		if id := d.View.ActiveSpectra[tab]; id != "" {
			actions = append(actions, SelectSpectrum{SpectrumID: id})
		}
	}
	if d.View.ActiveTab != "" {
		actions = append(actions, SelectTab{Tab: d.View.ActiveTab})
	}
	if d.View.Frame.Width > 0 && d.View.Frame.Height > 0 {
		actions = append(actions, SetDimensions{Frame: d.View.Frame})
	}
	return actions
}

func (sd SpectrumDocument) input() (SpectrumInput, []assignment.Link) {
	var links []assignment.Link
	link := func(diaIDs []string, kind assignment.Kind, featureID, signalID string, axis assignment.Axis) {
		if len(diaIDs) == 0 {
			return
		}
		links = append(links, assignment.Link{
			Atoms:   slices.Clone(diaIDs),
			Feature: assignment.Ref{SpectrumID: sd.ID, Kind: kind, FeatureID: featureID, SignalID: signalID, Axis: axis},
		})
	}

	in := SpectrumInput{
		ID:               sd.ID,
		Info:             sd.Info,
		Data:             sd.Data,
		Filters:          sd.Filters,
		Integrals:        sd.Integrals.Values,
		IntegralsOptions: &sd.Integrals.Options,
		RangesOptions:    &sd.Ranges.Options,
		ZonesOptions:     &sd.Zones.Options,
		Hidden:           sd.Hidden,
	}
	for _, p := range sd.Peaks.Values {
		in.Peaks = append(in.Peaks, p.Peak)
		link(p.DiaIDs, assignment.KindPeak, p.ID, "", assignment.AxisNone)
	}
	for _, r := range sd.Ranges.Values {
		rng := r.Range
		rng.Signals = nil
		for _, sig := range r.Signals {
			rng.Signals = append(rng.Signals, sig.Signal)
			link(sig.DiaIDs, assignment.KindRange, r.ID, sig.ID, assignment.AxisNone)
		}
		in.Ranges = append(in.Ranges, rng)
		link(r.DiaIDs, assignment.KindRange, r.ID, "", assignment.AxisNone)
	}
	for _, z := range sd.Zones.Values {
		zone := z.Zone
		zone.Signals = nil
		for _, sig := range z.Signals {
			zone.Signals = append(zone.Signals, Signal2D{ID: sig.ID, X: AxisSignal{Delta: sig.X.Delta}, Y: AxisSignal{Delta: sig.Y.Delta}})
			link(sig.DiaIDs, assignment.KindZone, z.ID, sig.ID, assignment.AxisNone)
			link(sig.X.DiaIDs, assignment.KindZone, z.ID, sig.ID, assignment.AxisX)
			link(sig.Y.DiaIDs, assignment.KindZone, z.ID, sig.ID, assignment.AxisY)
		}
		in.Zones = append(in.Zones, zone)
		link(z.DiaIDs, assignment.KindZone, z.ID, "", assignment.AxisNone)
	}
	return in, links
}

// LoadSession decodes payload and rebuilds its state in a new session. The
// loaded state is the first history entry.
func (e *Engine) LoadSession(payload any) (Session, error) {
	doc, err := DecodeDocument(payload)
	if err != nil {
		return Session{}, err
	}
	state := NewState()
	for _, action := range doc.Actions() {
		state = e.Reduce(state, action)
	}
	if doc.Sequence > state.Sequence {
		state = state.next(state.ActionKind)
		state.Sequence = doc.Sequence
	}
	return e.NewSession(state), nil
}
