// Package spectra is a pure, immutable state engine for NMR spectra.
//
// An Engine reduces (state, action) pairs into new states. States are never
// modified once returned: every transition copies what it changes and shares
// the rest, so snapshots may be retained freely, e.g. by the undo history of
// a Session. Side effects such as persistence and change notification live
// in Store, a thin serialized wrapper around the Engine.
package spectra

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-spectra/pkg/assignment"
)

// Engine is the reducer. It holds only immutable configuration and is safe
// for concurrent use.
type Engine struct {
	cfg engineConfig
}

// NewEngine builds an engine. It fails when a filter rule does not compile
// or names an unregistered filter.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := applyOptions(opts)
	if cfg.filters == nil {
		cfg.filters = &FilterRegistry{filters: map[string]Filter{}}
	}
	if err := cfg.compileRules(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Filters returns the registry the pipeline resolves filter names against.
func (e *Engine) Filters() *FilterRegistry {
	return e.cfg.filters
}

// Reduce applies action to state and returns the resulting state. Unknown
// actions, actions missing required payload and actions that change nothing
// return state itself. Reduce never modifies state.
func (e *Engine) Reduce(state *State, action Action) (out *State) {
	if state == nil {
		state = NewState()
	}
	if action == nil {
		return state
	}
	defer func() {
		if recover() != nil {
			out = state
		}
	}()

	switch a := action.(type) {
	case LoadSpectra:
		return e.loadSpectra(state, a)
	case DeleteSpectra:
		return e.deleteSpectra(state, a)
	case ChangeVisibility:
		return e.changeVisibility(state, a)
	case SelectTab:
		return e.selectTab(state, a)
	case SelectSpectrum:
		return e.selectSpectrum(state, a)
	case AddFilter:
		return e.addFilter(state, a)
	case ToggleFilter:
		return e.toggleFilter(state, a)
	case DeleteFilter:
		return e.deleteFilter(state, a)
	case SnapshotFilter:
		return e.snapshotFilter(state, a)
	case AddPeak:
		return e.addPeak(state, a)
	case DeletePeaks:
		return e.deletePeaks(state, a)
	case ShiftPeak:
		return e.shiftPeak(state, a)
	case AutoPeakPicking:
		return e.autoPeakPicking(state, a)
	case AddIntegral:
		return e.addIntegral(state, a)
	case DeleteIntegrals:
		return e.deleteIntegrals(state, a)
	case ResizeIntegral:
		return e.resizeIntegral(state, a)
	case ChangeIntegralsSum:
		return e.changeIntegralsSum(state, a)
	case AddRange:
		return e.addRange(state, a)
	case DeleteRanges:
		return e.deleteRanges(state, a)
	case ResizeRange:
		return e.resizeRange(state, a)
	case ChangeRangeKind:
		return e.changeRangeKind(state, a)
	case ChangeRangeSignal:
		return e.changeRangeSignal(state, a)
	case ChangeRangesSum:
		return e.changeRangesSum(state, a)
	case AutoRangesDetection:
		return e.autoRangesDetection(state, a)
	case AddZone:
		return e.addZone(state, a)
	case DeleteZones:
		return e.deleteZones(state, a)
	case ChangeZoneSignal:
		return e.changeZoneSignal(state, a)
	case ChangeZonesSum:
		return e.changeZonesSum(state, a)
	case AddMolecule:
		return e.addMolecule(state, a)
	case DeleteMolecule:
		return e.deleteMolecule(state, a)
	case ToggleAssignment:
		return e.toggleAssignment(state, a)
	case LinkAtoms:
		return e.linkAtoms(state, a)
	case UnlinkAtoms:
		return e.unlinkAtoms(state, a)
	case Zoom:
		return e.zoom(state, a)
	case SetDomain:
		return e.setDomain(state, a)
	case ResetZoom:
		return e.resetZoom(state)
	case SetDimensions:
		return e.setDimensions(state, a)
	case SetLoading:
		return e.setLoading(state, a)
	case SetPreferences:
		return e.setPreferences(state, a)
	default:
		// Undo and Redo need a history; see Engine.Dispatch.
		return state
	}
}

// Highlights returns the features currently linked to any of atoms.
func (e *Engine) Highlights(state *State, atoms []string) []assignment.Ref {
	if state == nil {
		return nil
	}
	return state.Assignments.HighlightsFor(atoms)
}

// newID returns the next deterministic identifier not already held by s. It
// must only be called on a state returned by next.
func (e *Engine) newID(s *State, kind string) string {
	for {
		s.Sequence++
		id := uuid.NewSHA1(e.cfg.namespace, []byte(fmt.Sprintf("%s/%d", kind, s.Sequence))).String()
		if !s.holdsID(id) {
			return id
		}
	}
}

// target resolves the spectrum an annotation action addresses: the given id
// or the active spectrum.
func (s *State) target(id string) (int, *Spectrum, bool) {
	if id == "" {
		id = s.ActiveSpectra[s.ActiveTab]
	}
	if id == "" {
		return -1, nil, false
	}
	i := s.spectrumIndex(id)
	if i < 0 {
		return -1, nil, false
	}
	return i, s.Spectra[i], true
}
