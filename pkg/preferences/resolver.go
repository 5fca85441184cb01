package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-spectra/layering"
)

// WorkspaceKey stores the name of the last selected workspace.
const WorkspaceKey = "workspace"

var ErrDecode = errors.New("preferences: decode")

// WorkspaceKeyFor returns the key holding the snapshot of workspace name.
func WorkspaceKeyFor(name string) string {
	return "workspaces/" + name
}

// Resolver loads and saves preferences through a KV store. Both fields are
// optional.
type Resolver struct {
	KV KV
	// File holds the values read from a defaults file, layered above the
	// built-in defaults.
	File *Preferences
	// FileSource names File in the resolution chain.
	FileSource string
}

// Chain returns the weak layers: built-in defaults plus the defaults file.
func (r Resolver) Chain() layering.Chain[Preferences] {
	layers := []layering.Layer[Preferences]{{Level: layering.LevelDefaults, Value: Defaults()}}
	if r.File != nil {
		layers = append(layers, layering.Layer[Preferences]{Level: layering.LevelFile, Source: r.FileSource, Value: *r.File})
	}
	return layering.NewChain(layers...)
}

// Load resolves the preferences of the last selected workspace. When the
// store fails the weak layers are still returned together with the error.
func (r Resolver) Load(ctx context.Context) (Preferences, error) {
	name, err := r.selected(ctx)
	if err != nil {
		return r.Chain().Resolve(), err
	}
	return r.LoadWorkspace(ctx, name)
}

// LoadWorkspace resolves the preferences stored for the named workspace.
func (r Resolver) LoadWorkspace(ctx context.Context, name string) (Preferences, error) {
	chain, err := r.workspaceChain(ctx, name)
	return chain.Resolve(), err
}

// Explain maps every value set in the resolved preferences of workspace to
// the layer it comes from, e.g. "zoom.speedFactor" to "stored/workspaces/lab".
// An empty workspace explains the last selected one.
func (r Resolver) Explain(ctx context.Context, workspace string) (map[string]string, error) {
	if workspace == "" {
		name, err := r.selected(ctx)
		if err != nil {
			return r.Chain().Origins(), err
		}
		workspace = name
	}
	chain, err := r.workspaceChain(ctx, workspace)
	return chain.Origins(), err
}

func (r Resolver) selected(ctx context.Context) (string, error) {
	name := r.Chain().Resolve().Workspace
	if r.KV == nil {
		return name, nil
	}
	raw, ok, err := r.KV.Get(ctx, WorkspaceKey)
	if err != nil {
		return name, fmt.Errorf("preferences: load %q: %w", WorkspaceKey, err)
	}
	if ok && len(raw) > 0 {
		name = string(raw)
	}
	return name, nil
}

// workspaceChain returns the weak layers topped with the snapshot stored for
// name. On a store error the chain stops at the weak layers.
func (r Resolver) workspaceChain(ctx context.Context, name string) (layering.Chain[Preferences], error) {
	chain := r.Chain()
	if name == "" {
		return chain, nil
	}
	chain = chain.With(layering.Layer[Preferences]{Level: layering.LevelStored, Source: WorkspaceKey, Value: Preferences{Workspace: name}})
	if r.KV == nil {
		return chain, nil
	}

	key := WorkspaceKeyFor(name)
	raw, ok, err := r.KV.Get(ctx, key)
	if err != nil {
		return chain, fmt.Errorf("preferences: load %q: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return chain, nil
	}
	var stored Preferences
	if err := json.Unmarshal(raw, &stored); err != nil {
		return chain, fmt.Errorf("%w %q: %v", ErrDecode, key, err)
	}
	stored.Workspace = name
	return chain.With(layering.Layer[Preferences]{Level: layering.LevelStored, Source: key, Value: stored}), nil
}

// Save stores p under its workspace and selects that workspace.
func (r Resolver) Save(ctx context.Context, p Preferences) error {
	if r.KV == nil {
		return nil
	}
	name := p.Workspace
	if name == "" {
		name = DefaultWorkspace
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("preferences: encode: %w", err)
	}
	if err := r.KV.Set(ctx, WorkspaceKeyFor(name), payload); err != nil {
		return fmt.Errorf("preferences: save %q: %w", WorkspaceKeyFor(name), err)
	}
	if err := r.KV.Set(ctx, WorkspaceKey, []byte(name)); err != nil {
		return fmt.Errorf("preferences: save %q: %w", WorkspaceKey, err)
	}
	return nil
}

// ParseDefaults decodes a YAML defaults document.
func ParseDefaults(raw []byte) (Preferences, error) {
	var p Preferences
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Preferences{}, fmt.Errorf("%w defaults: %v", ErrDecode, err)
	}
	return p, nil
}

// LoadDefaultsFile reads a YAML defaults file into a Resolver-ready layer.
func LoadDefaultsFile(path string) (*Preferences, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preferences: read defaults: %w", err)
	}
	p, err := ParseDefaults(raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type rawAction struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeAction decodes a {"type": ..., "payload": ...} document.
func DecodeAction(raw []byte) (Action, error) {
	var envelope rawAction
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w action: %v", ErrDecode, err)
	}
	return DecodePayload(envelope.Type, envelope.Payload)
}

// DecodePayload decodes the payload of an action of the given kind.
func DecodePayload(kind Kind, payload []byte) (Action, error) {
	var action Action
	var err error
	switch kind {
	case KindSetWorkspace:
		action, err = decodeInto[SetWorkspace](payload)
	case KindSetZoomSettings:
		action, err = decodeInto[SetZoomSettings](payload)
	case KindSetFormatting:
		action, err = decodeInto[SetFormatting](payload)
	case KindReset:
		action = Reset{}
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrDecode, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, kind, err)
	}
	return action, nil
}

func decodeInto[T Action](payload []byte) (T, error) {
	var out T
	if len(payload) == 0 {
		return out, nil
	}
	err := json.Unmarshal(payload, &out)
	return out, err
}
