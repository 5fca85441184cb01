package preferences

import (
	"maps"

	"github.com/goliatone/go-spectra/layering"
	"github.com/goliatone/go-spectra/pkg/zoom"
)

// DefaultWorkspace is selected when nothing else is configured.
const DefaultWorkspace = "default"

// Format holds the display format for one nucleus.
type Format struct {
	PPM string `json:"ppm,omitempty" yaml:"ppm"`
	Hz  string `json:"hz,omitempty" yaml:"hz"`
}

// Preferences is a value type; Reduce always returns a fresh copy when
// something changes.
type Preferences struct {
	Workspace  string            `json:"workspace" yaml:"workspace"`
	Zoom       zoom.Settings     `json:"zoom" yaml:"zoom"`
	Formatting map[string]Format `json:"formatting,omitempty" yaml:"formatting"`
}

// Defaults returns the built-in preferences.
func Defaults() Preferences {
	return Preferences{
		Workspace: DefaultWorkspace,
		Zoom:      zoom.DefaultSettings(),
		Formatting: map[string]Format{
			"1H":  {PPM: "0.00", Hz: "0.00"},
			"13C": {PPM: "0.00", Hz: "0.00"},
			"15N": {PPM: "0.00", Hz: "0.00"},
			"19F": {PPM: "0.00", Hz: "0.00"},
		},
	}
}

// FormatFor returns the format registered for nucleus, falling back to the
// built-in default.
func (p Preferences) FormatFor(nucleus string) Format {
	if f, ok := p.Formatting[nucleus]; ok {
		return layering.Merge(f, Format{PPM: "0.00", Hz: "0.00"})
	}
	return Format{PPM: "0.00", Hz: "0.00"}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	out := p
	out.Formatting = maps.Clone(p.Formatting)
	return out
}

// Equal reports whether a and b hold the same values. A nil and an empty
// formatting map are equal.
func Equal(a, b Preferences) bool {
	return a.Workspace == b.Workspace && a.Zoom == b.Zoom && maps.Equal(a.Formatting, b.Formatting)
}

// Kind names a preferences action.
type Kind string

const (
	KindSetWorkspace    Kind = "SET_WORKSPACE"
	KindSetZoomSettings Kind = "SET_ZOOM_SETTINGS"
	KindSetFormatting   Kind = "SET_FORMATTING"
	KindReset           Kind = "RESET_PREFERENCES"
)

// Action is the closed set of preferences changes.
type Action interface {
	Kind() Kind
	preferencesAction()
}

// SetWorkspace selects the named workspace.
type SetWorkspace struct {
	Workspace string `json:"workspace"`
}

// SetZoomSettings overrides the zoom step parameters. Zero fields keep the
// current value.
type SetZoomSettings struct {
	Settings zoom.Settings `json:"settings"`
}

// SetFormatting overrides the format of one nucleus. Empty fields keep the
// current value.
type SetFormatting struct {
	Nucleus string `json:"nucleus"`
	Format  Format `json:"format"`
}

// Reset restores the defaults for everything but the workspace name.
type Reset struct{}

func (SetWorkspace) Kind() Kind    { return KindSetWorkspace }
func (SetZoomSettings) Kind() Kind { return KindSetZoomSettings }
func (SetFormatting) Kind() Kind   { return KindSetFormatting }
func (Reset) Kind() Kind           { return KindReset }

func (SetWorkspace) preferencesAction()    {}
func (SetZoomSettings) preferencesAction() {}
func (SetFormatting) preferencesAction()   {}
func (Reset) preferencesAction()           {}

// Reduce applies a to p. p is never modified; when the action changes
// nothing the result is Equal to p.
func Reduce(p Preferences, a Action) Preferences {
	switch a := a.(type) {
	case SetWorkspace:
		if a.Workspace == "" || a.Workspace == p.Workspace {
			return p
		}
		out := p.Clone()
		out.Workspace = a.Workspace
		return out
	case SetZoomSettings:
		out := p.Clone()
		out.Zoom = layering.Merge(a.Settings, p.Zoom)
		return out
	case SetFormatting:
		if a.Nucleus == "" {
			return p
		}
		out := p.Clone()
		if out.Formatting == nil {
			out.Formatting = map[string]Format{}
		}
		out.Formatting[a.Nucleus] = layering.Merge(a.Format, p.Formatting[a.Nucleus])
		return out
	case Reset:
		out := Defaults()
		if p.Workspace != "" {
			out.Workspace = p.Workspace
		}
		return out
	default:
		return p
	}
}
