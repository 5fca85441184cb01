package usersink_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-spectra/pkg/activity"
	"github.com/goliatone/go-spectra/pkg/activity/usersink"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildChangeEvent(activity.ChangeInput{
		ActorID:    actorID.String(),
		UserID:     userID.String(),
		TenantID:   tenantID.String(),
		SessionID:  "session-7",
		Channel:    "spectra",
		Kind:       "ADD_RANGE",
		Scope:      activity.ScopeData,
		Spectra:    []string{"s1"},
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID || record.TenantID != tenantID {
		t.Fatalf("unexpected identities: %+v", record)
	}
	if record.Verb != "spectra.data.changed" || record.ObjectType != activity.ObjectSession || record.ObjectID != "session-7" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "spectra" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel/time: %+v", record)
	}
	if record.Data["scope"] != activity.ScopeData || record.Data["action_kind"] != "ADD_RANGE" {
		t.Fatalf("expected scope and kind metadata got %v", record.Data)
	}
	if ids, ok := record.Data["spectra"].([]string); !ok || ids[0] != "s1" {
		t.Fatalf("expected metadata passthrough got %v", record.Data["spectra"])
	}
}

func TestHookNotifyInvalidIdentitiesBecomeNil(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       "spectra.view.changed",
		ActorID:    "not-a-uuid",
		ObjectType: activity.ObjectSession,
		ObjectID:   "1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil actor, got %s", sink.records[0].ActorID)
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       "spectra.data.changed",
		ObjectType: activity.ObjectSession,
		ObjectID:   "1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifyUsesClock(t *testing.T) {
	sink := &recordingSink{}
	at := time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC)
	hook := usersink.Hook{Sink: sink, Now: func() time.Time { return at }}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       "spectra.view.changed",
		ObjectType: activity.ObjectSession,
		ObjectID:   "1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !sink.records[0].OccurredAt.Equal(at) {
		t.Fatalf("expected the hook clock, got %v", sink.records[0].OccurredAt)
	}
}

func TestRecordWithoutMetadataHasNoData(t *testing.T) {
	record, ok := usersink.Record(activity.Event{
		Verb:       "spectra.data.changed",
		ObjectType: activity.ObjectSession,
		ObjectID:   "1",
	})
	if !ok {
		t.Fatalf("expected a record")
	}
	if record.Data != nil {
		t.Fatalf("expected nil data, got %v", record.Data)
	}
	if _, ok := usersink.Record(activity.Event{Verb: "spectra.data.changed"}); ok {
		t.Fatalf("events without an object must be dropped")
	}
}

func TestJSONLinesWritesOneRecordPerLine(t *testing.T) {
	var buf bytes.Buffer
	hook := usersink.Hook{Sink: usersink.NewJSONLines(&buf)}
	actor := uuid.New()

	for _, kind := range []string{"ADD_PEAK", "ADD_RANGE"} {
		event := activity.BuildChangeEvent(activity.ChangeInput{
			ActorID:   actor.String(),
			SessionID: "session-9",
			Channel:   "spectra",
			Kind:      kind,
			Scope:     activity.ScopeData,
		})
		if err := hook.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify %s: %v", kind, err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	var record usertypes.ActivityRecord
	if err := json.Unmarshal([]byte(lines[1]), &record); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if record.ActorID != actor || record.ObjectID != "session-9" || record.Data["action_kind"] != "ADD_RANGE" {
		t.Fatalf("unexpected record %+v", record)
	}
}
