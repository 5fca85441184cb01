package activity

import (
	"strings"
	"time"
)

// Object types of emitted events.
const (
	ObjectSession     = "spectra.session"
	ObjectPreferences = "spectra.preferences"
)

// ChangeInput describes the common fields of a state change event.
type ChangeInput struct {
	ActorID   string
	UserID    string
	TenantID  string
	SessionID string
	Channel   string
	// Kind is the action kind that produced the change.
	Kind string
	// Scope is one of ScopeData, ScopeView or ScopeSettings.
	Scope string
	// Spectra lists the ids of the spectra whose data changed.
	Spectra    []string
	Condition  string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildChangeEvent constructs a normalized event for a state change. The verb
// is "spectra.<scope>.changed".
func BuildChangeEvent(input ChangeInput) Event {
	scope := strings.TrimSpace(input.Scope)
	if scope == "" {
		scope = ScopeData
	}
	return buildEvent("spectra."+scope+".changed", ObjectSession, scope, input)
}

// BuildPreferencesSavedEvent constructs an event for persisted preferences.
func BuildPreferencesSavedEvent(input ChangeInput, workspace string) Event {
	if workspace != "" {
		input.Metadata = cloneMap(input.Metadata)
		input.Metadata = ensureMetadata(input.Metadata)
		input.Metadata["workspace"] = workspace
	}
	return buildEvent("spectra.preferences.saved", ObjectPreferences, ScopeSettings, input)
}

func buildEvent(verb, objectType, scope string, input ChangeInput) Event {
	metadata := cloneMap(input.Metadata)
	if len(input.Spectra) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["spectra"] = append([]string{}, input.Spectra...)
	}
	if input.Condition != "" {
		metadata = ensureMetadata(metadata)
		metadata["condition"] = input.Condition
	}

	objectID := strings.TrimSpace(input.SessionID)
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		Scope:      scope,
		Kind:       strings.TrimSpace(input.Kind),
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
