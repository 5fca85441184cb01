package spectra

import (
	"encoding/json"

	"github.com/goliatone/go-spectra/analysis"
	"github.com/goliatone/go-spectra/pkg/assignment"
	"github.com/goliatone/go-spectra/pkg/history"
	"github.com/goliatone/go-spectra/pkg/preferences"
	"github.com/goliatone/go-spectra/pkg/zoom"
)

// Kind is the discriminant of an action. It is copied onto the resulting
// State so observers can decide whether to notify.
type Kind string

const (
	KindLoadSpectra         Kind = "LOAD_SPECTRA"
	KindDeleteSpectra       Kind = "DELETE_SPECTRA"
	KindChangeVisibility    Kind = "CHANGE_VISIBILITY"
	KindSelectTab           Kind = "SELECT_TAB"
	KindSelectSpectrum      Kind = "SELECT_SPECTRUM"
	KindAddFilter           Kind = "ADD_FILTER"
	KindToggleFilter        Kind = "TOGGLE_FILTER"
	KindDeleteFilter        Kind = "DELETE_FILTER"
	KindSnapshotFilter      Kind = "SNAPSHOT_FILTER"
	KindAddPeak             Kind = "ADD_PEAK"
	KindDeletePeaks         Kind = "DELETE_PEAKS"
	KindShiftPeak           Kind = "SHIFT_PEAK"
	KindAutoPeakPicking     Kind = "AUTO_PEAK_PICKING"
	KindAddIntegral         Kind = "ADD_INTEGRAL"
	KindDeleteIntegrals     Kind = "DELETE_INTEGRALS"
	KindResizeIntegral      Kind = "RESIZE_INTEGRAL"
	KindChangeIntegralsSum  Kind = "CHANGE_INTEGRALS_SUM"
	KindAddRange            Kind = "ADD_RANGE"
	KindDeleteRanges        Kind = "DELETE_RANGES"
	KindResizeRange         Kind = "RESIZE_RANGE"
	KindChangeRangeKind     Kind = "CHANGE_RANGE_KIND"
	KindChangeRangeSignal   Kind = "CHANGE_RANGE_SIGNAL"
	KindChangeRangesSum     Kind = "CHANGE_RANGES_SUM"
	KindAutoRangesDetection Kind = "AUTO_RANGES_DETECTION"
	KindAddZone             Kind = "ADD_ZONE"
	KindDeleteZones         Kind = "DELETE_ZONES"
	KindChangeZoneSignal    Kind = "CHANGE_ZONE_SIGNAL"
	KindChangeZonesSum      Kind = "CHANGE_ZONES_SUM"
	KindAddMolecule         Kind = "ADD_MOLECULE"
	KindDeleteMolecule      Kind = "DELETE_MOLECULE"
	KindToggleAssignment    Kind = "TOGGLE_ASSIGNMENT"
	KindLinkAtoms           Kind = "LINK_ATOMS"
	KindUnlinkAtoms         Kind = "UNLINK_ATOMS"
	KindZoom                Kind = "ZOOM"
	KindSetDomain           Kind = "SET_DOMAIN"
	KindResetZoom           Kind = "RESET_ZOOM"
	KindSetDimensions       Kind = "SET_DIMENSIONS"
	KindSetLoading          Kind = "SET_LOADING"
	KindSetPreferences      Kind = "SET_PREFERENCES"
	KindUndo                Kind = "UNDO"
	KindRedo                Kind = "REDO"
	// KindInitial marks the first history entry of a session.
	KindInitial Kind = "INITIAL"
)

// Scope is the "on change" discriminant of a transition.
type Scope string

const (
	ScopeData     Scope = "data"
	ScopeView     Scope = "view"
	ScopeSettings Scope = "settings"
)

var viewKinds = []Kind{
	KindSelectTab, KindSelectSpectrum, KindSnapshotFilter,
	KindZoom, KindSetDomain, KindResetZoom, KindSetDimensions, KindSetLoading,
}

// Scope returns the notification scope of k.
func (k Kind) Scope() Scope {
	if k == KindSetPreferences {
		return ScopeSettings
	}
	for _, v := range viewKinds {
		if k == v {
			return ScopeView
		}
	}
	return ScopeData
}

// DefaultHistoryIgnore lists the kinds never recorded in history: every view
// and settings transition.
func DefaultHistoryIgnore() history.IgnoreSet {
	kinds := make([]string, 0, len(viewKinds)+1)
	for _, k := range viewKinds {
		kinds = append(kinds, string(k))
	}
	kinds = append(kinds, string(KindSetPreferences))
	return history.NewIgnoreSet(kinds...)
}

// Action is a state transition request. The set of actions is closed; the
// reducer matches them exhaustively and ignores anything else.
type Action interface {
	Kind() Kind
	sealedAction()
}

type sealed struct{}

func (sealed) sealedAction() {}

// FilterInput describes a filter entry restored on load.
type FilterInput struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Value   any    `json:"value,omitempty"`
	Enabled *bool  `json:"flag,omitempty"`
}

// SpectrumInput describes one spectrum to load. Annotation fields restore a
// saved session and may be empty.
type SpectrumInput struct {
	ID               string        `json:"id,omitempty"`
	Info             Info          `json:"info"`
	Data             Data          `json:"data"`
	Filters          []FilterInput `json:"filters,omitempty"`
	Peaks            []Peak        `json:"peaks,omitempty"`
	Integrals        []Integral    `json:"integrals,omitempty"`
	IntegralsOptions *SumOptions   `json:"integralsOptions,omitempty"`
	Ranges           []Range       `json:"ranges,omitempty"`
	RangesOptions    *SumOptions   `json:"rangesOptions,omitempty"`
	Zones            []Zone        `json:"zones,omitempty"`
	ZonesOptions     *SumOptions   `json:"zonesOptions,omitempty"`
	Hidden           bool          `json:"hidden,omitempty"`
}

type LoadSpectra struct {
	sealed
	Spectra      []SpectrumInput   `json:"spectra"`
	Molecules    []Molecule        `json:"molecules,omitempty"`
	Correlations json.RawMessage   `json:"correlations,omitempty"`
	Assignments  []assignment.Link `json:"assignments,omitempty"`
	// Replace drops every loaded spectrum and molecule first.
	Replace bool `json:"replace,omitempty"`
}

type DeleteSpectra struct {
	sealed
	IDs []string `json:"ids"`
}

type ChangeVisibility struct {
	sealed
	SpectrumID string `json:"spectrumId"`
	Hidden     bool   `json:"hidden"`
}

type SelectTab struct {
	sealed
	Tab string `json:"tab"`
}

// SelectSpectrum makes a spectrum active and switches to its tab. An empty
// id clears the selection of the active tab.
type SelectSpectrum struct {
	sealed
	SpectrumID string `json:"spectrumId"`
}

type AddFilter struct {
	sealed
	SpectrumID string `json:"spectrumId,omitempty"`
	Name       string `json:"name"`
	Value      any    `json:"value,omitempty"`
}

type ToggleFilter struct {
	sealed
	SpectrumID string `json:"spectrumId,omitempty"`
	FilterID   string `json:"filterId"`
	Enabled    bool   `json:"flag"`
}

type DeleteFilter struct {
	sealed
	SpectrumID string `json:"spectrumId,omitempty"`
	FilterID   string `json:"filterId"`
}

// SnapshotFilter previews the spectrum right after FilterID. A nil FilterID
// clears the preview.
type SnapshotFilter struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	FilterID   *string `json:"filterId"`
}

type AddPeak struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	X          float64 `json:"x"`
}

// DeletePeaks removes the listed peaks, or every peak when IDs is empty.
type DeletePeaks struct {
	sealed
	SpectrumID string   `json:"spectrumId,omitempty"`
	IDs        []string `json:"ids,omitempty"`
}

type ShiftPeak struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	PeakID     string  `json:"peakId"`
	X          float64 `json:"x"`
}

type AutoPeakPicking struct {
	sealed
	SpectrumID string               `json:"spectrumId,omitempty"`
	Options    analysis.PeakOptions `json:"options"`
}

type AddIntegral struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	From       float64 `json:"from"`
	To         float64 `json:"to"`
}

type DeleteIntegrals struct {
	sealed
	SpectrumID string   `json:"spectrumId,omitempty"`
	IDs        []string `json:"ids,omitempty"`
}

type ResizeIntegral struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	IntegralID string  `json:"integralId"`
	From       float64 `json:"from"`
	To         float64 `json:"to"`
}

type ChangeIntegralsSum struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	Sum        float64 `json:"sum"`
}

type AddRange struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	From       float64 `json:"from"`
	To         float64 `json:"to"`
}

type DeleteRanges struct {
	sealed
	SpectrumID string   `json:"spectrumId,omitempty"`
	IDs        []string `json:"ids,omitempty"`
}

type ResizeRange struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	RangeID    string  `json:"rangeId"`
	From       float64 `json:"from"`
	To         float64 `json:"to"`
}

type ChangeRangeKind struct {
	sealed
	SpectrumID string    `json:"spectrumId,omitempty"`
	RangeID    string    `json:"rangeId"`
	RangeKind  RangeKind `json:"kind"`
}

type ChangeRangeSignal struct {
	sealed
	SpectrumID   string  `json:"spectrumId,omitempty"`
	RangeID      string  `json:"rangeId"`
	SignalID     string  `json:"signalId"`
	Delta        float64 `json:"delta"`
	Multiplicity string  `json:"multiplicity,omitempty"`
}

// ChangeRangesSum sets the normalisation total. A MoleculeID takes the total
// from the molecule's atom count for the spectrum's nucleus.
type ChangeRangesSum struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	Sum        float64 `json:"sum,omitempty"`
	MoleculeID string  `json:"moleculeId,omitempty"`
}

type AutoRangesDetection struct {
	sealed
	SpectrumID string                `json:"spectrumId,omitempty"`
	Options    analysis.RangeOptions `json:"options"`
}

type AddZone struct {
	sealed
	SpectrumID string `json:"spectrumId,omitempty"`
	X          Domain `json:"x"`
	Y          Domain `json:"y"`
}

type DeleteZones struct {
	sealed
	SpectrumID string   `json:"spectrumId,omitempty"`
	IDs        []string `json:"ids,omitempty"`
}

type ChangeZoneSignal struct {
	sealed
	SpectrumID string   `json:"spectrumId,omitempty"`
	ZoneID     string   `json:"zoneId"`
	SignalID   string   `json:"signalId"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
}

type ChangeZonesSum struct {
	sealed
	SpectrumID string  `json:"spectrumId,omitempty"`
	Sum        float64 `json:"sum"`
}

type AddMolecule struct {
	sealed
	Molecule Molecule `json:"molecule"`
}

type DeleteMolecule struct {
	sealed
	MoleculeID string `json:"moleculeId"`
}

type ToggleAssignment struct {
	sealed
	Atom    string         `json:"atom"`
	Feature assignment.Ref `json:"feature"`
}

type LinkAtoms struct {
	sealed
	Atoms   []string       `json:"atoms"`
	Feature assignment.Ref `json:"feature"`
}

// UnlinkAtoms removes the listed atoms, or every atom under Feature at
// Level when Atoms is empty.
type UnlinkAtoms struct {
	sealed
	Feature assignment.Ref   `json:"feature"`
	Level   assignment.Level `json:"level,omitempty"`
	Atoms   []string         `json:"atoms,omitempty"`
}

// ZoomTarget selects the spectra amplitudes or the integral overlay.
type ZoomTarget string

const (
	ZoomSpectra   ZoomTarget = "spectra"
	ZoomIntegrals ZoomTarget = "integrals"
)

type Zoom struct {
	sealed
	Target     ZoomTarget     `json:"target,omitempty"`
	Delta      float64        `json:"delta"`
	Mode       zoom.DeltaMode `json:"mode"`
	SpectrumID string         `json:"spectrumId,omitempty"`
	// Sample carries the caller's smoothed speed. When set it classifies
	// the step instead of the single event.
	Sample *zoom.Sample `json:"-"`
}

// SetDomain brushes the visible window of the active tab.
type SetDomain struct {
	sealed
	X *Domain `json:"x,omitempty"`
	Y *Domain `json:"y,omitempty"`
}

type ResetZoom struct {
	sealed
}

type SetDimensions struct {
	sealed
	Frame zoom.Frame `json:"frame"`
}

type SetLoading struct {
	sealed
	Loading bool `json:"loading"`
}

type SetPreferences struct {
	sealed
	Change preferences.Action `json:"-"`
}

type Undo struct {
	sealed
}

type Redo struct {
	sealed
}

// UnknownAction stands for an inbound type the engine does not know. It is
// always a no-op.
type UnknownAction struct {
	sealed
	Type string
}

func (LoadSpectra) Kind() Kind         { return KindLoadSpectra }
func (DeleteSpectra) Kind() Kind       { return KindDeleteSpectra }
func (ChangeVisibility) Kind() Kind    { return KindChangeVisibility }
func (SelectTab) Kind() Kind           { return KindSelectTab }
func (SelectSpectrum) Kind() Kind      { return KindSelectSpectrum }
func (AddFilter) Kind() Kind           { return KindAddFilter }
func (ToggleFilter) Kind() Kind        { return KindToggleFilter }
func (DeleteFilter) Kind() Kind        { return KindDeleteFilter }
func (SnapshotFilter) Kind() Kind      { return KindSnapshotFilter }
func (AddPeak) Kind() Kind             { return KindAddPeak }
func (DeletePeaks) Kind() Kind         { return KindDeletePeaks }
func (ShiftPeak) Kind() Kind           { return KindShiftPeak }
func (AutoPeakPicking) Kind() Kind     { return KindAutoPeakPicking }
func (AddIntegral) Kind() Kind         { return KindAddIntegral }
func (DeleteIntegrals) Kind() Kind     { return KindDeleteIntegrals }
func (ResizeIntegral) Kind() Kind      { return KindResizeIntegral }
func (ChangeIntegralsSum) Kind() Kind  { return KindChangeIntegralsSum }
func (AddRange) Kind() Kind            { return KindAddRange }
func (DeleteRanges) Kind() Kind        { return KindDeleteRanges }
func (ResizeRange) Kind() Kind         { return KindResizeRange }
func (ChangeRangeKind) Kind() Kind     { return KindChangeRangeKind }
func (ChangeRangeSignal) Kind() Kind   { return KindChangeRangeSignal }
func (ChangeRangesSum) Kind() Kind     { return KindChangeRangesSum }
func (AutoRangesDetection) Kind() Kind { return KindAutoRangesDetection }
func (AddZone) Kind() Kind             { return KindAddZone }
func (DeleteZones) Kind() Kind         { return KindDeleteZones }
func (ChangeZoneSignal) Kind() Kind    { return KindChangeZoneSignal }
func (ChangeZonesSum) Kind() Kind      { return KindChangeZonesSum }
func (AddMolecule) Kind() Kind         { return KindAddMolecule }
func (DeleteMolecule) Kind() Kind      { return KindDeleteMolecule }
func (ToggleAssignment) Kind() Kind    { return KindToggleAssignment }
func (LinkAtoms) Kind() Kind           { return KindLinkAtoms }
func (UnlinkAtoms) Kind() Kind         { return KindUnlinkAtoms }
func (Zoom) Kind() Kind                { return KindZoom }
func (SetDomain) Kind() Kind           { return KindSetDomain }
func (ResetZoom) Kind() Kind           { return KindResetZoom }
func (SetDimensions) Kind() Kind       { return KindSetDimensions }
func (SetLoading) Kind() Kind          { return KindSetLoading }
func (SetPreferences) Kind() Kind      { return KindSetPreferences }
func (Undo) Kind() Kind                { return KindUndo }
func (Redo) Kind() Kind                { return KindRedo }
func (a UnknownAction) Kind() Kind     { return Kind(a.Type) }
