package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	spectra "github.com/goliatone/go-spectra"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Registry = prometheus.NewRegistry()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}
	return c
}

func TestNewRequiresNamespace(t *testing.T) {
	_, err := New(Config{Registry: prometheus.NewRegistry()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Registry = prometheus.NewRegistry()
	if _, err := New(cfg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestLogDispatchCounts(t *testing.T) {
	c := newTestCollector(t)

	c.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindAddPeak, Scope: spectra.ScopeData, Changed: true, HistoryLen: 2, HistoryIndex: 1, Duration: time.Millisecond})
	c.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindAddPeak, Scope: spectra.ScopeData, Changed: true, HistoryLen: 3, HistoryIndex: 2})
	c.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindZoom, Scope: spectra.ScopeView})
	c.LogDispatch(spectra.DispatchLogEvent{
		Kind:      spectra.KindLinkAtoms,
		Scope:     spectra.ScopeData,
		Changed:   true,
		Condition: &spectra.Condition{Kind: spectra.ConditionAlreadyAssigned},
	})
	c.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindSetPreferences, Scope: spectra.ScopeSettings, Changed: true, Err: errors.New("kv down")})

	if got := testutil.ToFloat64(c.dispatches.WithLabelValues("ADD_PEAK", "data", "true")); got != 2 {
		t.Fatalf("ADD_PEAK dispatches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.dispatches.WithLabelValues("ZOOM", "view", "false")); got != 1 {
		t.Fatalf("ZOOM dispatches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.conditions.WithLabelValues("LINK_ATOMS", "ALREADY_ASSIGNED")); got != 1 {
		t.Fatalf("conditions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.failures.WithLabelValues("settings")); got != 1 {
		t.Fatalf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.historyLen); got != 3 {
		t.Fatalf("history entries = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.historyPos); got != 2 {
		t.Fatalf("history cursor = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(c.latency); got != 3 {
		t.Fatalf("latency series = %d, want 3", got)
	}
}

func TestLogDispatchInitialLoadFailure(t *testing.T) {
	c := newTestCollector(t)
	c.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindInitial, Scope: spectra.ScopeSettings, Err: errors.New("kv down")})

	if got := testutil.ToFloat64(c.failures.WithLabelValues("settings")); got != 1 {
		t.Fatalf("failures = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.dispatches); got != 0 {
		t.Fatalf("expected no dispatch series, got %d", got)
	}
}
