package spectra

import (
	"encoding/json"
	"math"
	"slices"
	"strings"

	"github.com/goliatone/go-spectra/pkg/assignment"
	"github.com/goliatone/go-spectra/pkg/preferences"
	"github.com/goliatone/go-spectra/pkg/scale"
	"github.com/goliatone/go-spectra/pkg/zoom"
)

// Domain is a [min, max] interval on one axis.
type Domain = scale.Domain

// Info carries acquisition metadata of a spectrum.
type Info struct {
	Name      string   `json:"name,omitempty"`
	Nucleus   []string `json:"nucleus"`
	Dimension int      `json:"dimension"`
	Frequency float64  `json:"frequency,omitempty"`
	Solvent   string   `json:"solvent,omitempty"`
	IsFid     bool     `json:"isFid"`
	IsFt      bool     `json:"isFt"`
	IsComplex bool     `json:"isComplex"`
}

// Tab returns the display tab a spectrum belongs to: its nuclei joined with
// a comma.
func (i Info) Tab() string {
	return strings.Join(i.Nucleus, ",")
}

func (i Info) clone() Info {
	out := i
	out.Nucleus = slices.Clone(i.Nucleus)
	return out
}

// Matrix holds 2D intensities on a regular grid. Z is indexed [y][x].
type Matrix struct {
	MinX float64     `json:"minX"`
	MaxX float64     `json:"maxX"`
	MinY float64     `json:"minY"`
	MaxY float64     `json:"maxY"`
	Z    [][]float64 `json:"z"`
}

// Data holds the samples of a spectrum. 1D spectra use X/Re/Im, 2D spectra
// use Matrix. Slices are never modified after construction.
type Data struct {
	X      []float64 `json:"x,omitempty"`
	Re     []float64 `json:"re,omitempty"`
	Im     []float64 `json:"im,omitempty"`
	Matrix *Matrix   `json:"matrix,omitempty"`
}

// Len returns the number of 1D samples.
func (d Data) Len() int {
	return len(d.X)
}

// XDomain returns the extent of the x axis.
func (d Data) XDomain() Domain {
	if d.Matrix != nil {
		return Domain{d.Matrix.MinX, d.Matrix.MaxX}.Sorted()
	}
	return scale.Extent(d.X)
}

// YDomain returns the intensity extent for 1D data and the indirect axis
// extent for 2D data.
func (d Data) YDomain() Domain {
	if d.Matrix != nil {
		return Domain{d.Matrix.MinY, d.Matrix.MaxY}.Sorted()
	}
	return scale.Extent(d.Re)
}

// ClosestIndex returns the index of the sample whose x is nearest to x, or -1
// when there are no samples.
func (d Data) ClosestIndex(x float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, v := range d.X {
		if dist := math.Abs(v - x); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// ValueAt returns the real intensity nearest to x.
func (d Data) ValueAt(x float64) float64 {
	i := d.ClosestIndex(x)
	if i < 0 || i >= len(d.Re) {
		return 0
	}
	return d.Re[i]
}

// MaxIn returns the x and intensity of the largest real sample within
// window. ok is false when no sample falls inside.
func (d Data) MaxIn(window Domain) (x, y float64, ok bool) {
	window = window.Sorted()
	y = math.Inf(-1)
	for i, v := range d.X {
		if i >= len(d.Re) || !window.Contains(v) {
			continue
		}
		if d.Re[i] > y {
			x, y, ok = v, d.Re[i], true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}

// FilterEntry is one step of a spectrum's filter pipeline.
type FilterEntry struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Label           string       `json:"label"`
	Value           any          `json:"value,omitempty"`
	Enabled         bool         `json:"flag"`
	IsDeleteAllowed bool         `json:"isDeleteAllowed"`
	Error           *FilterError `json:"error,omitempty"`
}

// Peak is a picked maximum.
type Peak struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width,omitempty"`
}

// Peaks is the peak collection of a 1D spectrum.
type Peaks struct {
	Values []Peak `json:"values"`
}

// SumOptions controls normalisation of integrals, ranges and zones.
// SumAuto is set when Sum was taken from MoleculeID.
type SumOptions struct {
	Sum        float64 `json:"sum"`
	SumAuto    bool    `json:"sumAuto"`
	MoleculeID string  `json:"moleculeId,omitempty"`
}

// DefaultSum is the normalisation total used until a molecule provides one.
const DefaultSum = 100

func defaultSumOptions() SumOptions {
	return SumOptions{Sum: DefaultSum}
}

// Integral is a 1D integration window.
type Integral struct {
	ID       string  `json:"id"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
	Absolute float64 `json:"absolute"`
	Integral float64 `json:"integral"`
}

// Integrals is the integral collection of a 1D spectrum.
type Integrals struct {
	Values  []Integral `json:"values"`
	Options SumOptions `json:"options"`
}

// RangeKind classifies a range or zone. Only RangeSignal counts toward the
// sum.
type RangeKind string

const (
	RangeSignal    RangeKind = "signal"
	RangeImpurity  RangeKind = "impurity"
	RangeSolvent   RangeKind = "solvent"
	RangeReference RangeKind = "reference"
)

// Valid reports whether k is a known kind.
func (k RangeKind) Valid() bool {
	switch k {
	case RangeSignal, RangeImpurity, RangeSolvent, RangeReference:
		return true
	}
	return false
}

// Signal is one resonance within a range.
type Signal struct {
	ID           string  `json:"id"`
	Delta        float64 `json:"delta"`
	Multiplicity string  `json:"multiplicity,omitempty"`
}

// Range is a 1D interval with integration and signal metadata.
type Range struct {
	ID       string    `json:"id"`
	From     float64   `json:"from"`
	To       float64   `json:"to"`
	Absolute float64   `json:"absolute"`
	Integral float64   `json:"integral"`
	Kind     RangeKind `json:"kind"`
	Signals  []Signal  `json:"signals,omitempty"`
}

// Ranges is the range collection of a 1D spectrum.
type Ranges struct {
	Values  []Range    `json:"values"`
	Options SumOptions `json:"options"`
}

// AxisSignal is the position of a 2D signal on one axis.
type AxisSignal struct {
	Delta float64 `json:"delta"`
}

// Signal2D is one cross peak within a zone.
type Signal2D struct {
	ID string     `json:"id"`
	X  AxisSignal `json:"x"`
	Y  AxisSignal `json:"y"`
}

// Zone is a 2D rectangle with integration and signal metadata.
type Zone struct {
	ID       string     `json:"id"`
	X        Domain     `json:"x"`
	Y        Domain     `json:"y"`
	Absolute float64    `json:"absolute"`
	Integral float64    `json:"integral"`
	Kind     RangeKind  `json:"kind"`
	Signals  []Signal2D `json:"signals,omitempty"`
}

// Zones is the zone collection of a 2D spectrum.
type Zones struct {
	Values  []Zone     `json:"values"`
	Options SumOptions `json:"options"`
}

// Spectrum is one loaded dataset. A published Spectrum is never modified;
// transitions replace it with an updated copy.
type Spectrum struct {
	ID         string        `json:"id"`
	Info       Info          `json:"info"`
	SourceInfo Info          `json:"-"`
	Source     Data          `json:"-"`
	Data       Data          `json:"data"`
	Filters    []FilterEntry `json:"filters"`
	Peaks      Peaks         `json:"peaks"`
	Integrals  Integrals     `json:"integrals"`
	Ranges     Ranges        `json:"ranges"`
	Zones      Zones         `json:"zones"`
	Hidden     bool          `json:"hidden,omitempty"`
}

// Is2D reports whether the spectrum is two-dimensional.
func (s *Spectrum) Is2D() bool {
	return s.Info.Dimension == 2
}

func (s *Spectrum) clone() *Spectrum {
	out := *s
	return &out
}

// Molecule is a chemical structure whose atoms can be assigned.
type Molecule struct {
	ID      string `json:"id"`
	Label   string `json:"label,omitempty"`
	Molfile string `json:"molfile,omitempty"`
	// DiaIDs lists the diastereotopic atom ids owned by the molecule.
	DiaIDs []string `json:"diaIDs,omitempty"`
	// Atoms counts atoms per nucleus, e.g. {"1H": 12}.
	Atoms map[string]int `json:"atoms,omitempty"`
}

// AtomCount returns the number of atoms of the nucleus ("1H" or "H").
func (m Molecule) AtomCount(nucleus string) int {
	if n, ok := m.Atoms[nucleus]; ok {
		return n
	}
	element := strings.TrimLeft(nucleus, "0123456789")
	return m.Atoms[element]
}

// AxisDomains pairs the x and y domains of one view.
type AxisDomains struct {
	X Domain `json:"x"`
	Y Domain `json:"y"`
}

// Domains holds every display domain. View domains are always derived from
// the origin domains and the zoom state.
type Domains struct {
	Origin         map[string]AxisDomains `json:"origin"`
	View           map[string]AxisDomains `json:"view"`
	TabOrigin      AxisDomains            `json:"tabOrigin"`
	TabView        AxisDomains            `json:"tabView"`
	IntegralOrigin map[string]Domain      `json:"integralOrigin,omitempty"`
	IntegralView   map[string]Domain      `json:"integralView,omitempty"`
}

// Anchor selects the pivot a spectrum's y zoom rescales around.
type Anchor string

const (
	AnchorBaseline Anchor = "baseline"
	AnchorBottom   Anchor = "bottom"
)

// ZoomFactor is the y scale of one spectrum.
type ZoomFactor struct {
	Scale  float64 `json:"scale"`
	Anchor Anchor  `json:"anchor"`
}

// Window is a sub-interval of an origin domain expressed as fractions of its
// width, so a brushed view stays derivable from its origin.
type Window struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

func (w *Window) apply(origin Domain) Domain {
	if w == nil {
		return origin
	}
	width := origin.Width()
	return scale.Guard(Domain{origin[0] + w.From*width, origin[0] + w.To*width})
}

// ZoomState holds every scale factor.
type ZoomState struct {
	Aggregate float64               `json:"aggregate"`
	Spectra   map[string]ZoomFactor `json:"spectra,omitempty"`
	Integrals map[string]float64    `json:"integrals,omitempty"`
	XWindow   *Window               `json:"xWindow,omitempty"`
	YWindow   *Window               `json:"yWindow,omitempty"`
}

func (z ZoomState) factor(id string) ZoomFactor {
	if f, ok := z.Spectra[id]; ok {
		return f
	}
	return ZoomFactor{Scale: 1, Anchor: AnchorBaseline}
}

func (z ZoomState) integralScale(id string) float64 {
	if s, ok := z.Integrals[id]; ok {
		return s
	}
	return 1
}

// FilterSnapshot is a preview of a spectrum after a prefix of its filters.
type FilterSnapshot struct {
	SpectrumID string `json:"spectrumId"`
	FilterID   string `json:"filterId"`
	Data       Data   `json:"data"`
	Info       Info   `json:"info"`
}

// State is one immutable snapshot of the engine.
type State struct {
	Spectra        []*Spectrum             `json:"spectra"`
	Molecules      []Molecule              `json:"molecules"`
	Correlations   json.RawMessage         `json:"correlations,omitempty"`
	ActiveTab      string                  `json:"activeTab"`
	ActiveSpectra  map[string]string       `json:"activeSpectra"`
	Frame          zoom.Frame              `json:"frame"`
	Domains        Domains                 `json:"domains"`
	Zoom           ZoomState               `json:"zoom"`
	Assignments    assignment.Graph        `json:"-"`
	Preferences    preferences.Preferences `json:"preferences"`
	FilterSnapshot *FilterSnapshot         `json:"filterSnapshot,omitempty"`
	Loading        bool                    `json:"loading"`
	ActionKind     Kind                    `json:"actionKind"`
	Condition      *Condition              `json:"condition,omitempty"`
	Sequence       uint64                  `json:"sequence"`
}

// DefaultFrame is the plot geometry used until the caller reports one.
func DefaultFrame() zoom.Frame {
	return zoom.Frame{
		Width:  800,
		Height: 400,
		Margin: zoom.Margin{Top: 10, Right: 20, Bottom: 70, Left: 10},
	}
}

// NewState returns an empty state with default frame and preferences.
func NewState() *State {
	return &State{
		ActiveSpectra: map[string]string{},
		Frame:         DefaultFrame(),
		Domains:       Domains{Origin: map[string]AxisDomains{}, View: map[string]AxisDomains{}},
		Zoom:          ZoomState{Aggregate: 1},
		Preferences:   preferences.Defaults(),
	}
}

// Spectrum returns the spectrum with the given id.
func (s *State) Spectrum(id string) (*Spectrum, bool) {
	if i := s.spectrumIndex(id); i >= 0 {
		return s.Spectra[i], true
	}
	return nil, false
}

// ActiveSpectrum returns the selected spectrum of the active tab.
func (s *State) ActiveSpectrum() (*Spectrum, bool) {
	id, ok := s.ActiveSpectra[s.ActiveTab]
	if !ok || id == "" {
		return nil, false
	}
	return s.Spectrum(id)
}

// Tabs returns the distinct tabs in load order.
func (s *State) Tabs() []string {
	var tabs []string
	for _, sp := range s.Spectra {
		if tab := sp.Info.Tab(); !slices.Contains(tabs, tab) {
			tabs = append(tabs, tab)
		}
	}
	return tabs
}

// SpectraInTab returns the spectra of tab in load order.
func (s *State) SpectraInTab(tab string) []*Spectrum {
	var out []*Spectrum
	for _, sp := range s.Spectra {
		if sp.Info.Tab() == tab {
			out = append(out, sp)
		}
	}
	return out
}

// Molecule returns the molecule with the given id.
func (s *State) Molecule(id string) (Molecule, bool) {
	for _, m := range s.Molecules {
		if m.ID == id {
			return m, true
		}
	}
	return Molecule{}, false
}

// AssignedAtoms returns the atoms linked to ref at the level implied by ref.
func (s *State) AssignedAtoms(ref assignment.Ref) []string {
	return s.Assignments.AtomsFor(ref, ref.Level())
}

func (s *State) spectrumIndex(id string) int {
	for i, sp := range s.Spectra {
		if sp.ID == id {
			return i
		}
	}
	return -1
}

// next returns a shallow copy of s prepared for a transition of kind.
func (s *State) next(kind Kind) *State {
	out := *s
	out.ActionKind = kind
	out.Condition = nil
	return &out
}

// setSpectrum replaces the spectrum at index i. It must only be called on a
// state returned by next.
func (s *State) setSpectrum(i int, sp *Spectrum) {
	spectra := slices.Clone(s.Spectra)
	spectra[i] = sp
	s.Spectra = spectra
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// holdsID reports whether any spectrum, filter, annotation, signal or
// molecule of s uses id.
func (s *State) holdsID(id string) bool {
	for _, m := range s.Molecules {
		if m.ID == id {
			return true
		}
	}
	for _, sp := range s.Spectra {
		if sp.holdsID(id) {
			return true
		}
	}
	return false
}

func (sp *Spectrum) holdsID(id string) bool {
	if sp.ID == id {
		return true
	}
	for _, f := range sp.Filters {
		if f.ID == id {
			return true
		}
	}
	for _, p := range sp.Peaks.Values {
		if p.ID == id {
			return true
		}
	}
	for _, v := range sp.Integrals.Values {
		if v.ID == id {
			return true
		}
	}
	for _, r := range sp.Ranges.Values {
		if r.ID == id || slices.ContainsFunc(r.Signals, func(sig Signal) bool { return sig.ID == id }) {
			return true
		}
	}
	for _, z := range sp.Zones.Values {
		if z.ID == id || slices.ContainsFunc(z.Signals, func(sig Signal2D) bool { return sig.ID == id }) {
			return true
		}
	}
	return false
}
