package spectra

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-spectra/pkg/activity"
	"github.com/goliatone/go-spectra/pkg/assignment"
	"github.com/goliatone/go-spectra/pkg/preferences"
	"github.com/goliatone/go-spectra/pkg/zoom"
)

type failingKV struct {
	getErr error
	setErr error
}

func (f failingKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, f.getErr
}

func (f failingKV) Set(context.Context, string, []byte) error {
	return f.setErr
}

func fixedClock() func() time.Time {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestNewStoreRequiresEngine(t *testing.T) {
	if _, err := NewStore(context.Background(), nil); !errors.Is(err, ErrNilEngine) {
		t.Fatalf("expected ErrNilEngine, got %v", err)
	}
}

func TestStoreEmitsScopedChangeEvents(t *testing.T) {
	ctx := context.Background()
	hook := &activity.CaptureHook{}
	store, err := NewStore(ctx, newTestEngine(t),
		WithActivityHooks(activity.Hooks{hook}),
		WithSessionID("session-1"),
		WithActor(Actor{ActorID: "actor-1"}),
		WithClock(fixedClock()),
	)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Dispatch(ctx, LoadSpectra{Spectra: []SpectrumInput{spectrum1D("s1", 0, 4, 0, 1, 5, 1, 0)}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := store.Dispatch(ctx, Zoom{Delta: -100}); err != nil {
		t.Fatalf("zoom: %v", err)
	}
	if _, err := store.Dispatch(ctx, UnknownAction{Type: "IGNORED"}); err != nil {
		t.Fatalf("unknown: %v", err)
	}

	events := hook.Snapshot()
	if len(events) != 2 {
		t.Fatalf("expected 2 events (no-ops are silent), got %d: %v", len(events), hook.Verbs())
	}
	load := events[0]
	if load.Verb != "spectra.data.changed" || load.Kind != string(KindLoadSpectra) {
		t.Fatalf("unexpected load event %+v", load)
	}
	if load.ObjectID != "session-1" || load.ActorID != "actor-1" || load.Channel != "spectra" {
		t.Fatalf("unexpected identities %+v", load)
	}
	if spectra, _ := load.Metadata["spectra"].([]string); !slices.Equal(spectra, []string{"s1"}) {
		t.Fatalf("expected the loaded spectrum in metadata, got %v", load.Metadata["spectra"])
	}
	if !load.OccurredAt.Equal(fixedClock()()) {
		t.Fatalf("expected the store clock, got %v", load.OccurredAt)
	}
	if got := hook.Scoped(activity.ScopeView); len(got) != 1 || got[0].Kind != string(KindZoom) {
		t.Fatalf("expected one view event for the zoom, got %+v", got)
	}
}

func TestStoreReportsDeclinedConditions(t *testing.T) {
	ctx := context.Background()
	hook := &activity.CaptureHook{}
	store, err := NewStore(ctx, newTestEngine(t), WithActivityHooks(activity.Hooks{hook}))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	state, _ := store.DispatchAll(ctx,
		LoadSpectra{Spectra: []SpectrumInput{spectrum1D("s1", 0, 5, 0, 1, 4, 6, 2, 0, 1, 3, 1, 0, 0)}},
		AddRange{SpectrumID: "s1", From: 0.5, To: 1.5},
		AddRange{SpectrumID: "s1", From: 2, To: 3},
	)
	values := state.Spectra[0].Ranges.Values
	r1 := assignment.Ref{SpectrumID: "s1", Kind: assignment.KindRange, FeatureID: values[0].ID}
	r2 := assignment.Ref{SpectrumID: "s1", Kind: assignment.KindRange, FeatureID: values[1].ID}
	if _, err := store.Dispatch(ctx, LinkAtoms{Atoms: []string{"9"}, Feature: r1}); err != nil {
		t.Fatalf("link: %v", err)
	}
	hook.Reset()

	state, err = store.Dispatch(ctx, LinkAtoms{Atoms: []string{"9"}, Feature: r2})
	if err != nil {
		t.Fatalf("declined link should not fail the dispatch: %v", err)
	}
	if !state.Condition.Declined() {
		t.Fatalf("expected a declined condition")
	}
	events := hook.Snapshot()
	if len(events) != 1 || events[0].Metadata["condition"] != string(ConditionAlreadyAssigned) {
		t.Fatalf("expected a single event carrying the condition, got %+v", events)
	}
}

func TestStorePersistsPreferences(t *testing.T) {
	ctx := context.Background()
	kv := preferences.NewMemoryKV()
	hook := &activity.CaptureHook{}
	store, err := NewStore(ctx, newTestEngine(t), WithPreferencesStore(kv), WithActivityHooks(activity.Hooks{hook}))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	change := SetPreferences{Change: preferences.SetZoomSettings{Settings: zoom.Settings{FastStep: 0.5}}}
	state, err := store.Dispatch(ctx, change)
	if err != nil {
		t.Fatalf("set preferences: %v", err)
	}
	if state.Preferences.Zoom.FastStep != 0.5 || state.Preferences.Zoom.SlowStep != zoom.DefaultSettings().SlowStep {
		t.Fatalf("unexpected zoom settings %+v", state.Preferences.Zoom)
	}
	if !slices.Equal(hook.Verbs(), []string{"spectra.preferences.saved", "spectra.settings.changed"}) {
		t.Fatalf("unexpected verbs %v", hook.Verbs())
	}
	if store.HasUndo() {
		t.Fatalf("preferences are not part of the undo history")
	}

	reopened, err := NewStore(ctx, newTestEngine(t), WithPreferencesStore(kv))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.State().Preferences.Zoom.FastStep; got != 0.5 {
		t.Fatalf("expected the saved fast step, got %v", got)
	}
}

func TestStoreFallsBackWhenPreferencesFail(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")

	store, err := NewStore(ctx, newTestEngine(t), WithPreferencesStore(failingKV{getErr: boom, setErr: boom}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected the load error, got %v", err)
	}
	if store == nil {
		t.Fatalf("the store must stay usable")
	}
	if !preferences.Equal(store.State().Preferences, preferences.Defaults()) {
		t.Fatalf("expected default preferences, got %+v", store.State().Preferences)
	}

	state, err := store.Dispatch(ctx, SetPreferences{Change: preferences.SetWorkspace{Workspace: "lab"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the save error, got %v", err)
	}
	if state.Preferences.Workspace != "lab" {
		t.Fatalf("the transition still applies, got %q", state.Preferences.Workspace)
	}
}

func TestStoreDispatchLogger(t *testing.T) {
	ctx := context.Background()
	var (
		mu     sync.Mutex
		events []DispatchLogEvent
	)
	logger := DispatchLoggerFunc(func(e DispatchLogEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})
	store, err := NewStore(ctx, newTestEngine(t), WithDispatchLogger(logger), WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, _ = store.DispatchAll(ctx,
		LoadSpectra{Spectra: []SpectrumInput{spectrum1D("s1", 0, 4, 0, 1, 5, 1, 0)}},
		SetLoading{Loading: true},
		AddPeak{SpectrumID: "missing", X: 1},
		Undo{},
	)

	if len(events) != 4 {
		t.Fatalf("expected one event per dispatch, got %d", len(events))
	}
	checks := []struct {
		kind     Kind
		scope    Scope
		changed  bool
		recorded bool
	}{
		{KindLoadSpectra, ScopeData, true, true},
		{KindSetLoading, ScopeView, true, false},
		{KindAddPeak, ScopeData, false, false},
		{KindUndo, ScopeData, true, true},
	}
	for i, want := range checks {
		got := events[i]
		if got.Kind != want.kind || got.Scope != want.scope || got.Changed != want.changed || got.Recorded != want.recorded {
			t.Fatalf("event %d: got %+v, want %+v", i, got, want)
		}
	}
	if events[3].HistoryIndex != 0 || events[3].HistoryLen != 2 {
		t.Fatalf("undo should move the cursor back, got %+v", events[3])
	}
}

func TestStoreConcurrentDispatch(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, newTestEngine(t))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Dispatch(ctx, LoadSpectra{Spectra: []SpectrumInput{spectrum1D("s1", 0, 10, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)}}); err != nil {
		t.Fatalf("load: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(x float64) {
			defer wg.Done()
			_, _ = store.Dispatch(ctx, AddPeak{SpectrumID: "s1", X: x})
		}(float64(i))
	}
	wg.Wait()

	if got := len(store.State().Spectra[0].Peaks.Values); got != 8 {
		t.Fatalf("expected 8 peaks, got %d", got)
	}
	if got := store.Session().History.Len(); got != 10 {
		t.Fatalf("expected every peak recorded, got %d entries", got)
	}
}

func TestStoreReportsRecordsWithFullHistory(t *testing.T) {
	ctx := context.Background()
	var events []DispatchLogEvent
	logger := DispatchLoggerFunc(func(e DispatchLogEvent) { events = append(events, e) })
	store, err := NewStore(ctx, newTestEngine(t, WithHistoryLimit(2)), WithDispatchLogger(logger))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, _ = store.DispatchAll(ctx,
		LoadSpectra{Spectra: []SpectrumInput{spectrum1D("s1", 0, 4, 0, 1, 5, 1, 0)}},
		AddPeak{SpectrumID: "s1", X: 1},
		AddPeak{SpectrumID: "s1", X: 3},
	)

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	last := events[2]
	if last.HistoryLen != 2 || !last.Recorded {
		t.Fatalf("a record into a full history must still be reported, got %+v", last)
	}
}
