package spectra

import (
	"errors"
	"math"
	"testing"

	"github.com/goliatone/go-spectra/pkg/assignment"
	"github.com/goliatone/go-spectra/pkg/preferences"
	"github.com/goliatone/go-spectra/pkg/zoom"
)

func TestDecodeActionJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		check func(t *testing.T, a Action)
	}{
		{
			name:  "add peak",
			input: `{"type":"ADD_PEAK","payload":{"spectrumId":"s1","x":2.5}}`,
			check: func(t *testing.T, a Action) {
				if got, ok := a.(AddPeak); !ok || got.SpectrumID != "s1" || got.X != 2.5 {
					t.Fatalf("unexpected action %#v", a)
				}
			},
		},
		{
			name:  "zoom defaults target",
			input: `{"type":"ZOOM","payload":{"delta":-120,"mode":1}}`,
			check: func(t *testing.T, a Action) {
				got, ok := a.(Zoom)
				if !ok || got.Target != ZoomSpectra || got.Mode != zoom.DeltaLine || got.Delta != -120 {
					t.Fatalf("unexpected action %#v", a)
				}
			},
		},
		{
			name:  "zoom integrals",
			input: `{"type":"ZOOM","payload":{"target":"integrals","delta":100}}`,
			check: func(t *testing.T, a Action) {
				if got := a.(Zoom); got.Target != ZoomIntegrals {
					t.Fatalf("expected integrals target, got %q", got.Target)
				}
			},
		},
		{
			name:  "link atoms",
			input: `{"type":"LINK_ATOMS","payload":{"atoms":["1","2"],"feature":{"spectrumId":"s1","kind":"range","featureId":"r1"}}}`,
			check: func(t *testing.T, a Action) {
				got, ok := a.(LinkAtoms)
				want := assignment.Ref{SpectrumID: "s1", Kind: assignment.KindRange, FeatureID: "r1"}
				if !ok || len(got.Atoms) != 2 || got.Feature != want {
					t.Fatalf("unexpected action %#v", a)
				}
			},
		},
		{
			name:  "snapshot without filter clears",
			input: `{"type":"SNAPSHOT_FILTER","payload":{}}`,
			check: func(t *testing.T, a Action) {
				if got, ok := a.(SnapshotFilter); !ok || got.FilterID != nil {
					t.Fatalf("unexpected action %#v", a)
				}
			},
		},
		{
			name:  "reset zoom without payload",
			input: `{"type":"RESET_ZOOM"}`,
			check: func(t *testing.T, a Action) {
				if _, ok := a.(ResetZoom); !ok {
					t.Fatalf("unexpected action %#v", a)
				}
			},
		},
		{
			name:  "undo",
			input: `{"type":"UNDO"}`,
			check: func(t *testing.T, a Action) {
				if _, ok := a.(Undo); !ok {
					t.Fatalf("unexpected action %#v", a)
				}
			},
		},
		{
			name:  "nested preferences",
			input: `{"type":"SET_PREFERENCES","payload":{"type":"SET_WORKSPACE","payload":{"workspace":"lab"}}}`,
			check: func(t *testing.T, a Action) {
				got, ok := a.(SetPreferences)
				if !ok {
					t.Fatalf("unexpected action %#v", a)
				}
				if change, ok := got.Change.(preferences.SetWorkspace); !ok || change.Workspace != "lab" {
					t.Fatalf("unexpected preferences change %#v", got.Change)
				}
			},
		},
		{
			name:  "unknown type",
			input: `{"type":"WARP_DRIVE","payload":{"speed":9}}`,
			check: func(t *testing.T, a Action) {
				if got, ok := a.(UnknownAction); !ok || got.Type != "WARP_DRIVE" || got.Kind() != Kind("WARP_DRIVE") {
					t.Fatalf("unexpected action %#v", a)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, err := DecodeActionJSON([]byte(tc.input))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			tc.check(t, action)
		})
	}
}

func TestDecodeActionErrors(t *testing.T) {
	inputs := []string{
		`{"type":"ADD_PEAK","payload":{"x":"left"}}`,
		`{"type":"ADD_PEAK","payload":[1,2]}`,
		`{"type":"SET_PREFERENCES","payload":{"type":"SET_COLOUR"}}`,
		`not json`,
	}
	for _, input := range inputs {
		if _, err := DecodeActionJSON([]byte(input)); !errors.Is(err, ErrDecodeAction) {
			t.Fatalf("%s: expected ErrDecodeAction, got %v", input, err)
		}
	}
}

func TestDecodeActionLogReplays(t *testing.T) {
	log := []byte(`[
		{"type":"LOAD_SPECTRA","payload":{"spectra":[{"id":"s1","info":{"nucleus":["1H"],"dimension":1,"isFt":true},"data":{"x":[0,1,2,3,4],"re":[0,1,5,1,0]}}]}},
		{"type":"SELECT_SPECTRUM","payload":{"spectrumId":"s1"}},
		{"type":"ADD_PEAK","payload":{"x":2}},
		{"type":"SOMETHING_NEW"},
		{"type":"ADD_RANGE","payload":{"from":1,"to":3}}
	]`)
	actions, err := DecodeActionLog(log)
	if err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if len(actions) != 5 {
		t.Fatalf("expected 5 actions, got %d", len(actions))
	}

	engine := newTestEngine(t)
	state := reduceAll(engine, NewState(), actions...)
	sp, ok := state.Spectrum("s1")
	if !ok {
		t.Fatalf("spectrum not loaded")
	}
	if len(sp.Peaks.Values) != 1 || sp.Peaks.Values[0].X != 2 || sp.Peaks.Values[0].Y != 5 {
		t.Fatalf("unexpected peaks %+v", sp.Peaks.Values)
	}
	if len(sp.Ranges.Values) != 1 || math.Abs(sp.Ranges.Values[0].Integral-DefaultSum) > 1e-9 {
		t.Fatalf("a single range carries the whole sum, got %+v", sp.Ranges.Values)
	}
}

func TestDecodeActionLogReportsIndex(t *testing.T) {
	_, err := DecodeActionLog([]byte(`[{"type":"UNDO"},{"type":"ADD_PEAK","payload":{"x":true}}]`))
	if !errors.Is(err, ErrDecodeAction) {
		t.Fatalf("expected ErrDecodeAction, got %v", err)
	}
	if got := err.Error(); len(got) < 8 || got[:8] != "action 1" {
		t.Fatalf("expected the failing index in %q", got)
	}
}
