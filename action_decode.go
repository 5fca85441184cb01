package spectra

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-spectra/internal/hydrate"
	"github.com/goliatone/go-spectra/pkg/preferences"
)

// ErrDecodeAction reports an inbound action whose payload does not match its
// type.
var ErrDecodeAction = errors.New("spectra: decode action")

// RawAction is the inbound {type, payload} envelope.
type RawAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type actionDecoder func(hydrate.Context, json.RawMessage) (Action, error)

func decodeAs[T Action](opts ...hydrate.DecoderOption[T]) actionDecoder {
	decoder := hydrate.NewDecoder(opts...)
	return func(ctx hydrate.Context, raw json.RawMessage) (Action, error) {
		action, err := decoder.DecodeRaw(ctx, raw)
		if err != nil {
			return nil, err
		}
		return action, nil
	}
}

func emptyAction(a Action) actionDecoder {
	return func(hydrate.Context, json.RawMessage) (Action, error) {
		return a, nil
	}
}

var actionDecoders = map[Kind]actionDecoder{
	KindLoadSpectra:         decodeAs[LoadSpectra](),
	KindDeleteSpectra:       decodeAs[DeleteSpectra](),
	KindChangeVisibility:    decodeAs[ChangeVisibility](),
	KindSelectTab:           decodeAs[SelectTab](),
	KindSelectSpectrum:      decodeAs[SelectSpectrum](),
	KindAddFilter:           decodeAs[AddFilter](),
	KindToggleFilter:        decodeAs[ToggleFilter](),
	KindDeleteFilter:        decodeAs[DeleteFilter](),
	KindSnapshotFilter:      decodeAs[SnapshotFilter](),
	KindAddPeak:             decodeAs[AddPeak](),
	KindDeletePeaks:         decodeAs[DeletePeaks](),
	KindShiftPeak:           decodeAs[ShiftPeak](),
	KindAutoPeakPicking:     decodeAs[AutoPeakPicking](),
	KindAddIntegral:         decodeAs[AddIntegral](),
	KindDeleteIntegrals:     decodeAs[DeleteIntegrals](),
	KindResizeIntegral:      decodeAs[ResizeIntegral](),
	KindChangeIntegralsSum:  decodeAs[ChangeIntegralsSum](),
	KindAddRange:            decodeAs[AddRange](),
	KindDeleteRanges:        decodeAs[DeleteRanges](),
	KindResizeRange:         decodeAs[ResizeRange](),
	KindChangeRangeKind:     decodeAs[ChangeRangeKind](),
	KindChangeRangeSignal:   decodeAs[ChangeRangeSignal](),
	KindChangeRangesSum:     decodeAs[ChangeRangesSum](),
	KindAutoRangesDetection: decodeAs[AutoRangesDetection](),
	KindAddZone:             decodeAs[AddZone](),
	KindDeleteZones:         decodeAs[DeleteZones](),
	KindChangeZoneSignal:    decodeAs[ChangeZoneSignal](),
	KindChangeZonesSum:      decodeAs[ChangeZonesSum](),
	KindAddMolecule:         decodeAs[AddMolecule](),
	KindDeleteMolecule:      decodeAs[DeleteMolecule](),
	KindToggleAssignment:    decodeAs[ToggleAssignment](),
	KindLinkAtoms:           decodeAs[LinkAtoms](),
	KindUnlinkAtoms:         decodeAs[UnlinkAtoms](),
	KindZoom:                decodeAs[Zoom](hydrate.WithPostHook[Zoom](defaultZoomTarget)),
	KindSetDomain:           decodeAs[SetDomain](),
	KindResetZoom:           emptyAction(ResetZoom{}),
	KindSetDimensions:       decodeAs[SetDimensions](),
	KindSetLoading:          decodeAs[SetLoading](),
	KindSetPreferences:      decodeSetPreferences,
	KindUndo:                emptyAction(Undo{}),
	KindRedo:                emptyAction(Redo{}),
}

func defaultZoomTarget(_ hydrate.Context, z *Zoom) error {
	if z.Target == "" {
		z.Target = ZoomSpectra
	}
	return nil
}

// decodeSetPreferences expects a nested preferences envelope as payload,
// e.g. {"type": "SET_WORKSPACE", "payload": {"workspace": "lab"}}.
func decodeSetPreferences(ctx hydrate.Context, raw json.RawMessage) (Action, error) {
	change, err := preferences.DecodeAction(raw)
	if err != nil {
		return nil, fmt.Errorf("hydrate: decode %q: %w", ctx, err)
	}
	return SetPreferences{Change: change}, nil
}

// DecodeAction turns an inbound envelope into a typed action. Unknown types
// decode to UnknownAction, which every reducer ignores.
func DecodeAction(raw RawAction) (Action, error) {
	kind := Kind(strings.TrimSpace(raw.Type))
	decode, ok := actionDecoders[kind]
	if !ok {
		return UnknownAction{Type: raw.Type}, nil
	}
	action, err := decode(hydrate.Context{Kind: string(kind), Source: "dispatch"}, raw.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeAction, err)
	}
	return action, nil
}

// DecodeActionJSON decodes a {"type": ..., "payload": ...} document.
func DecodeActionJSON(data []byte) (Action, error) {
	var raw RawAction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeAction, err)
	}
	return DecodeAction(raw)
}

// DecodeActionLog decodes a JSON array of action envelopes.
func DecodeActionLog(data []byte) ([]Action, error) {
	var raws []RawAction
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: action log: %v", ErrDecodeAction, err)
	}
	actions := make([]Action, 0, len(raws))
	for i, raw := range raws {
		action, err := DecodeAction(raw)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}
