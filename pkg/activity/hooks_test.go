package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " spectra.data.changed ",
		Scope:      " data ",
		Kind:       " ADD_PEAK ",
		ActorID:    " actor ",
		UserID:     " user ",
		TenantID:   " tenant ",
		ObjectType: " spectra.session ",
		ObjectID:   " 42 ",
		Channel:    " spectra ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "spectra.data.changed" || got.ObjectType != "spectra.session" || got.ObjectID != "42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.Scope != "data" || got.Kind != "ADD_PEAK" {
		t.Fatalf("unexpected scope/kind: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "spectra" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	hooks := Hooks{&CaptureHook{}}
	if err := hooks.Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	capture := hooks[0].(*CaptureHook)
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1, boom2 := errors.New("boom1"), errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return boom1 }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return boom2 }),
	}

	//lint:ignore SA1012 nil context falls back to Background
	err := hooks.Notify(nil, Event{Verb: "spectra.view.changed", ObjectType: ObjectSession, ObjectID: "1"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: "spectra.data.changed", Scope: ScopeData, ObjectType: ObjectSession, ObjectID: "1"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != "spectra" {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterFiltersScopes(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Scopes: []string{ScopeData, ScopeSettings}})

	for _, scope := range []string{ScopeData, ScopeView, ScopeSettings} {
		err := emitter.Emit(context.Background(), Event{Verb: "spectra." + scope + ".changed", Scope: scope, ObjectType: ObjectSession, ObjectID: "1"})
		if err != nil {
			t.Fatalf("emit %s: %v", scope, err)
		}
	}
	if len(capture.Events) != 2 {
		t.Fatalf("expected view event to be filtered, got %d events", len(capture.Events))
	}
	if emitter.Wants(ScopeView) {
		t.Fatalf("expected view scope to be unwanted")
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       "spectra.data.changed",
		ObjectType: ObjectSession,
		ObjectID:   "1",
		Channel:    "custom",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if !capture.Events[0].OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestCaptureHookAccessors(t *testing.T) {
	capture := &CaptureHook{}
	ctx := context.Background()
	_ = capture.Notify(ctx, Event{Verb: "spectra.data.changed", Scope: ScopeData})
	_ = capture.Notify(ctx, Event{Verb: "spectra.settings.changed", Scope: ScopeSettings})
	_ = capture.Notify(ctx, Event{Verb: "spectra.data.changed", Scope: ScopeData})

	if got := capture.Scoped(ScopeData); len(got) != 2 {
		t.Fatalf("expected 2 data events, got %d", len(got))
	}
	verbs := capture.Verbs()
	if len(verbs) != 3 || verbs[1] != "spectra.settings.changed" {
		t.Fatalf("unexpected verbs %v", verbs)
	}

	snapshot := capture.Snapshot()
	capture.Reset()
	if len(capture.Snapshot()) != 0 {
		t.Fatalf("expected reset to drop events")
	}
	if len(snapshot) != 3 {
		t.Fatalf("snapshot must survive a reset, got %d", len(snapshot))
	}
}
