package zaplog

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	spectra "github.com/goliatone/go-spectra"
)

func TestLogDispatchLevels(t *testing.T) {
	core, obs := observer.New(zapcore.DebugLevel)
	logger := New(zap.New(core))

	logger.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindAddPeak, Scope: spectra.ScopeData, Changed: true, Recorded: true, HistoryLen: 2, HistoryIndex: 1})
	logger.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindZoom, Scope: spectra.ScopeView})
	logger.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindSetPreferences, Scope: spectra.ScopeSettings, Changed: true, Err: errors.New("disk full")})
	logger.LogDispatch(spectra.DispatchLogEvent{
		Kind:      spectra.KindLinkAtoms,
		Scope:     spectra.ScopeData,
		Changed:   true,
		Condition: &spectra.Condition{Kind: spectra.ConditionAlreadyAssigned, Atoms: []string{"a1"}},
	})

	entries := obs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.DebugLevel, zapcore.WarnLevel, zapcore.InfoLevel}
	for i, entry := range entries {
		if entry.Level != wantLevels[i] {
			t.Fatalf("entry %d: expected level %s, got %s", i, wantLevels[i], entry.Level)
		}
		if entry.LoggerName != "spectra" {
			t.Fatalf("entry %d: expected logger name spectra, got %q", i, entry.LoggerName)
		}
	}

	fields := entries[0].ContextMap()
	if fields["kind"] != "ADD_PEAK" || fields["scope"] != "data" || fields["history_len"] != int64(2) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if entries[3].ContextMap()["condition"] != "ALREADY_ASSIGNED" {
		t.Fatalf("expected condition field, got %v", entries[3].ContextMap())
	}
	if entries[2].ContextMap()["error"] != "disk full" {
		t.Fatalf("expected error field, got %v", entries[2].ContextMap())
	}
}

func TestLogDispatchNoopLevelFiltered(t *testing.T) {
	core, obs := observer.New(zapcore.InfoLevel)
	logger := New(zap.New(core))

	logger.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindZoom})
	if obs.Len() != 0 {
		t.Fatalf("expected unchanged dispatch to be filtered, got %d entries", obs.Len())
	}

	logger.NoopLevel = zapcore.InfoLevel
	logger.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindZoom})
	if obs.Len() != 1 {
		t.Fatalf("expected unchanged dispatch at info level, got %d entries", obs.Len())
	}
}

func TestLogEvaluation(t *testing.T) {
	core, obs := observer.New(zapcore.DebugLevel)
	logger := New(zap.New(core))

	logger.LogEvaluation(spectra.EvaluatorLogEvent{Engine: "expr", Filter: "fft", Expr: "isFid", Phase: spectra.PhaseCompile, Duration: time.Millisecond})
	logger.LogEvaluation(spectra.EvaluatorLogEvent{Engine: "cel", Filter: "fft", Expr: "isFid &&", Phase: spectra.PhaseCompile, Err: errors.New("syntax")})
	logger.LogEvaluation(spectra.EvaluatorLogEvent{Engine: "expr", Filter: "fft", Expr: "isFid", Phase: spectra.PhaseEvaluate, SpectrumID: "s1", Err: errors.New("boom")})

	entries := obs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || entries[1].Level != zapcore.ErrorLevel || entries[2].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected levels: %s, %s, %s", entries[0].Level, entries[1].Level, entries[2].Level)
	}
	if entries[1].ContextMap()["engine"] != "cel" {
		t.Fatalf("unexpected fields: %v", entries[1].ContextMap())
	}
	if entries[2].ContextMap()["spectrum"] != "s1" {
		t.Fatalf("expected spectrum field on evaluate entries, got %v", entries[2].ContextMap())
	}
}

func TestNewNilLogger(t *testing.T) {
	logger := New(nil)
	logger.LogDispatch(spectra.DispatchLogEvent{Kind: spectra.KindZoom, Changed: true})
	logger.LogEvaluation(spectra.EvaluatorLogEvent{Engine: "expr"})
}
