package layering

import "testing"

func TestNewChainOrdersStrongestFirst(t *testing.T) {
	chain := NewChain(
		Layer[settings]{Level: LevelDefaults, Value: settings{Label: "defaults", Step: 1}},
		Layer[settings]{Level: LevelSession, Value: settings{Label: "session"}},
		Layer[settings]{Level: LevelUnknown, Value: settings{Label: "ignored"}},
		Layer[settings]{Level: LevelFile, Source: "prefs.yaml", Value: settings{Step: 2}},
		Layer[settings]{Level: LevelFile, Source: "prefs.yaml", Value: settings{Step: 3}},
	)

	ordered := chain.Ordered()
	if len(ordered) != 3 {
		t.Fatalf("expected 3 layers after filtering, got %d", len(ordered))
	}
	wantLevels := []Level{LevelSession, LevelFile, LevelDefaults}
	for i, level := range wantLevels {
		if ordered[i].Level != level {
			t.Fatalf("layer %d: expected %s, got %s", i, level, ordered[i].Level)
		}
	}
	if chain.Strongest().Level != LevelSession || chain.Weakest().Level != LevelDefaults {
		t.Fatalf("unexpected ends: %s / %s", chain.Strongest().Level, chain.Weakest().Level)
	}

	got := chain.Resolve()
	if got.Label != "session" || got.Step != 2 {
		t.Fatalf("unexpected resolution: %#v", got)
	}
}

func TestChainWithAddsLayer(t *testing.T) {
	base := NewChain(Layer[settings]{Level: LevelDefaults, Value: settings{Step: 1}})
	next := base.With(Layer[settings]{Level: LevelStored, Source: "workspace", Value: settings{Step: 4}})
	if base.Len() != 1 || next.Len() != 2 {
		t.Fatalf("With must not modify the receiver: %d / %d", base.Len(), next.Len())
	}
	if got := next.Resolve().Step; got != 4 {
		t.Fatalf("expected stored layer to win, got %v", got)
	}
}

func TestEmptyChain(t *testing.T) {
	var chain Chain[settings]
	if chain.Strongest().Level != LevelUnknown || chain.Weakest().Level != LevelUnknown {
		t.Fatalf("expected zero layers for empty chain")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"defaults": LevelDefaults,
		"FILE":     LevelFile,
		"stored":   LevelStored,
		"session":  LevelSession,
		"other":    LevelUnknown,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
		if want != LevelUnknown && ParseLevel(want.String()) != want {
			t.Fatalf("round trip failed for %s", want)
		}
	}
}

func TestChainOrigins(t *testing.T) {
	chain := NewChain(
		Layer[settings]{Level: LevelDefaults, Value: settings{Step: 1, Label: "base", Limits: map[string]int{"a": 1}}},
		Layer[settings]{Level: LevelFile, Source: "prefs.yaml", Value: settings{Step: 2, Channel: &channel{Name: "file"}}},
		Layer[settings]{Level: LevelSession, Value: settings{Limits: map[string]int{"b": 2}, Tags: []string{}}},
	)

	want := map[string]string{
		"Step":         "file/prefs.yaml",
		"Label":        "defaults",
		"Limits.a":     "defaults",
		"Limits.b":     "session",
		"Channel.Name": "file/prefs.yaml",
		"Tags":         "session",
	}
	got := chain.Origins()
	if len(got) != len(want) {
		t.Fatalf("unexpected origins %v", got)
	}
	for path, id := range want {
		if got[path] != id {
			t.Fatalf("%s: expected %q, got %q", path, id, got[path])
		}
	}
}
