package preferences_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-spectra/pkg/preferences"
	"github.com/goliatone/go-spectra/pkg/zoom"
)

func TestReduceSetZoomSettingsKeepsZeroFields(t *testing.T) {
	base := preferences.Defaults()
	got := preferences.Reduce(base, preferences.SetZoomSettings{Settings: zoom.Settings{FastStep: 0.5}})
	if got.Zoom.FastStep != 0.5 {
		t.Fatalf("expected fast step 0.5, got %v", got.Zoom.FastStep)
	}
	if got.Zoom.SlowStep != base.Zoom.SlowStep || got.Zoom.SpeedThreshold != base.Zoom.SpeedThreshold {
		t.Fatalf("zero fields must keep current values: %#v", got.Zoom)
	}
	if base.Zoom.FastStep == 0.5 {
		t.Fatalf("input preferences were modified")
	}
}

func TestReduceSetFormattingDoesNotAlias(t *testing.T) {
	base := preferences.Defaults()
	got := preferences.Reduce(base, preferences.SetFormatting{Nucleus: "1H", Format: preferences.Format{PPM: "0.000"}})
	if got.Formatting["1H"].PPM != "0.000" || got.Formatting["1H"].Hz != "0.00" {
		t.Fatalf("unexpected formatting: %#v", got.Formatting["1H"])
	}
	if base.Formatting["1H"].PPM != "0.00" {
		t.Fatalf("input formatting map was modified")
	}
	if preferences.Equal(base, got) {
		t.Fatalf("expected preferences to differ")
	}
}

func TestReduceNoOps(t *testing.T) {
	base := preferences.Defaults()
	cases := []preferences.Action{
		preferences.SetWorkspace{},
		preferences.SetWorkspace{Workspace: base.Workspace},
		preferences.SetFormatting{},
		preferences.SetZoomSettings{},
	}
	for _, action := range cases {
		if got := preferences.Reduce(base, action); !preferences.Equal(base, got) {
			t.Fatalf("%s: expected no change, got %#v", action.Kind(), got)
		}
	}
}

func TestReduceResetKeepsWorkspace(t *testing.T) {
	p := preferences.Reduce(preferences.Defaults(), preferences.SetWorkspace{Workspace: "lab"})
	p = preferences.Reduce(p, preferences.SetZoomSettings{Settings: zoom.Settings{SlowStep: 0.3}})
	got := preferences.Reduce(p, preferences.Reset{})
	if got.Workspace != "lab" || got.Zoom != zoom.DefaultSettings() {
		t.Fatalf("unexpected reset result: %#v", got)
	}
}

func TestFormatForFallsBack(t *testing.T) {
	p := preferences.Defaults()
	if got := p.FormatFor("31P"); got.PPM != "0.00" {
		t.Fatalf("expected default format, got %#v", got)
	}
}

func TestResolverWithoutStoreReturnsDefaults(t *testing.T) {
	got, err := preferences.Resolver{}.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !preferences.Equal(got, preferences.Defaults()) {
		t.Fatalf("expected defaults, got %#v", got)
	}
}

func TestResolverSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := preferences.NewMemoryKV()
	resolver := preferences.Resolver{KV: kv}

	p := preferences.Reduce(preferences.Defaults(), preferences.SetWorkspace{Workspace: "lab"})
	p = preferences.Reduce(p, preferences.SetFormatting{Nucleus: "13C", Format: preferences.Format{PPM: "0.0"}})
	if err := resolver.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	keys := kv.Keys()
	if len(keys) != 2 || keys[0] != "workspace" || keys[1] != "workspaces/lab" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	got, err := resolver.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !preferences.Equal(got, p) {
		t.Fatalf("round trip mismatch:\nwant: %#v\n got: %#v", p, got)
	}
}

func TestResolverPrecedence(t *testing.T) {
	ctx := context.Background()
	file, err := preferences.ParseDefaults([]byte("zoom:\n  slow_step: 0.1\n  fast_step: 0.4\n"))
	if err != nil {
		t.Fatalf("parse defaults: %v", err)
	}
	kv := preferences.NewMemoryKV()
	if err := kv.Set(ctx, preferences.WorkspaceKeyFor("default"), []byte(`{"zoom":{"fastStep":0.9}}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := preferences.Resolver{KV: kv, File: &file, FileSource: "defaults.yaml"}.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := zoom.Settings{SpeedThreshold: zoom.DefaultSettings().SpeedThreshold, SlowStep: 0.1, FastStep: 0.9}
	if got.Zoom != want {
		t.Fatalf("unexpected zoom settings: %#v", got.Zoom)
	}
}

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingKV) Set(context.Context, string, []byte) error         { return f.err }

func TestResolverStoreErrorFallsBack(t *testing.T) {
	boom := errors.New("boom")
	got, err := preferences.Resolver{KV: failingKV{err: boom}}.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if !preferences.Equal(got, preferences.Defaults()) {
		t.Fatalf("expected defaults on failure, got %#v", got)
	}
}

func TestResolverCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := preferences.NewMemoryKV()
	_ = kv.Set(ctx, preferences.WorkspaceKeyFor("default"), []byte("{"))
	_, err := preferences.Resolver{KV: kv}.Load(ctx)
	if !errors.Is(err, preferences.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDecodeAction(t *testing.T) {
	action, err := preferences.DecodeAction([]byte(`{"type":"SET_FORMATTING","payload":{"nucleus":"1H","format":{"ppm":"0.000"}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := action.(preferences.SetFormatting)
	if !ok || got.Nucleus != "1H" || got.Format.PPM != "0.000" {
		t.Fatalf("unexpected action: %#v", action)
	}

	if _, err := preferences.DecodeAction([]byte(`{"type":"NOPE"}`)); !errors.Is(err, preferences.ErrDecode) {
		t.Fatalf("expected ErrDecode for unknown type, got %v", err)
	}
	if action, err := preferences.DecodeAction([]byte(`{"type":"RESET_PREFERENCES"}`)); err != nil || action.Kind() != preferences.KindReset {
		t.Fatalf("unexpected reset decode: %v %v", action, err)
	}
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	kv, err := preferences.OpenSQLite(filepath.Join(t.TempDir(), "prefs", "preferences.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "workspace", []byte("lab")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "workspace", []byte("bench")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := kv.Get(ctx, "workspace")
	if err != nil || !ok || string(value) != "bench" {
		t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}

	resolver := preferences.Resolver{KV: kv}
	p := preferences.Reduce(preferences.Defaults(), preferences.SetWorkspace{Workspace: "bench"})
	if err := resolver.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := resolver.Load(ctx)
	if err != nil || loaded.Workspace != "bench" {
		t.Fatalf("unexpected load %#v err=%v", loaded, err)
	}
}

func TestResolverExplain(t *testing.T) {
	ctx := context.Background()
	file, err := preferences.ParseDefaults([]byte("zoom:\n  slow_step: 0.1\n"))
	if err != nil {
		t.Fatalf("parse defaults: %v", err)
	}
	kv := preferences.NewMemoryKV()
	resolver := preferences.Resolver{KV: kv, File: &file, FileSource: "defaults.yaml"}
	if err := resolver.Save(ctx, preferences.Preferences{Workspace: "lab", Zoom: zoom.Settings{FastStep: 0.9}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	origins, err := resolver.Explain(ctx, "")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	want := map[string]string{
		"zoom.fast_step":       "stored/workspaces/lab",
		"zoom.slow_step":       "file/defaults.yaml",
		"zoom.speed_threshold": "defaults",
		"formatting.1H.ppm":    "defaults",
	}
	for path, id := range want {
		if origins[path] != id {
			t.Fatalf("%s: expected %q, got %q (all: %v)", path, id, origins[path], origins)
		}
	}
}
