package spectra

import (
	"slices"

	"github.com/goliatone/go-spectra/pkg/assignment"
)

func (e *Engine) toggleAssignment(state *State, a ToggleAssignment) *State {
	if a.Atom == "" || !state.featureExists(a.Feature) {
		return state
	}
	graph, err := state.Assignments.Toggle(a.Atom, a.Feature)
	next := state.next(KindToggleAssignment)
	if err != nil {
		next.Condition = conditionFromError(err)
		return next
	}
	next.Assignments = graph
	return next
}

func (e *Engine) linkAtoms(state *State, a LinkAtoms) *State {
	if len(a.Atoms) == 0 || !state.featureExists(a.Feature) {
		return state
	}
	graph, err := state.Assignments.Link(a.Atoms, a.Feature)
	if err != nil {
		next := state.next(KindLinkAtoms)
		next.Condition = conditionFromError(err)
		return next
	}
	if graph.Equal(state.Assignments) {
		return state
	}
	next := state.next(KindLinkAtoms)
	next.Assignments = graph
	return next
}

func (e *Engine) unlinkAtoms(state *State, a UnlinkAtoms) *State {
	var graph assignment.Graph
	switch {
	case len(a.Atoms) > 0:
		graph = state.Assignments.UnlinkAtoms(a.Atoms...)
	case !a.Feature.IsZero():
		level := a.Level
		if level == "" {
			level = a.Feature.Level()
		}
		graph = state.Assignments.Unlink(a.Feature, level)
	default:
		return state
	}
	if graph.Len() == state.Assignments.Len() {
		return state
	}
	next := state.next(KindUnlinkAtoms)
	next.Assignments = graph
	return next
}

func (e *Engine) addMolecule(state *State, a AddMolecule) *State {
	m := cloneMolecule(a.Molecule)
	if m.ID != "" {
		if _, exists := state.Molecule(m.ID); exists {
			return state
		}
	}
	next := state.next(KindAddMolecule)
	if m.ID == "" {
		m.ID = e.newID(next, "molecule")
	}
	next.Molecules = append(slices.Clone(state.Molecules), m)
	return next
}

// deleteMolecule removes the molecule, unlinks its atoms and detaches range
// sums that were taken from it.
func (e *Engine) deleteMolecule(state *State, a DeleteMolecule) *State {
	j := slices.IndexFunc(state.Molecules, func(m Molecule) bool { return m.ID == a.MoleculeID })
	if j < 0 {
		return state
	}
	next := state.next(KindDeleteMolecule)
	removed := state.Molecules[j]
	next.Molecules = slices.Delete(slices.Clone(state.Molecules), j, j+1)
	next.Assignments = state.Assignments.UnlinkAtoms(removed.DiaIDs...)
	for i, sp := range state.Spectra {
		if sp.Ranges.Options.MoleculeID != removed.ID {
			continue
		}
		updated := sp.clone()
		updated.Ranges.Options = SumOptions{Sum: sp.Ranges.Options.Sum}
		next.setSpectrum(i, updated)
	}
	return next
}
