// Package usersink forwards spectra change events to a go-users activity
// sink.
package usersink

import (
	"context"
	"encoding/json"
	"io"
	"maps"
	"strings"
	"sync"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-spectra/pkg/activity"
)

// Hook is an activity.ActivityHook writing every change event to Sink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Now stamps events that carry no time. Defaults to time.Now.
	Now func() time.Time
}

// Notify forwards event to the sink. Events without a verb or session are
// dropped.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := Record(event)
	if !ok {
		return nil
	}
	if record.OccurredAt.IsZero() {
		now := h.Now
		if now == nil {
			now = time.Now
		}
		record.OccurredAt = now()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

// Record maps a change event to an ActivityRecord. Identities that are not
// UUIDs map to uuid.Nil; scope and action kind move into Data.
func Record(event activity.Event) (usertypes.ActivityRecord, bool) {
	event = activity.NormalizeEvent(event)
	if event.Verb == "" || event.ObjectType == "" || event.ObjectID == "" {
		return usertypes.ActivityRecord{}, false
	}

	data := map[string]any{}
	maps.Copy(data, event.Metadata)
	if event.Scope != "" {
		data["scope"] = event.Scope
	}
	if event.Kind != "" {
		data["action_kind"] = event.Kind
	}
	if len(data) == 0 {
		data = nil
	}

	return usertypes.ActivityRecord{
		ActorID:    identity(event.ActorID),
		UserID:     identity(event.UserID),
		TenantID:   identity(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}, true
}

func identity(value string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// JSONLines is an ActivitySink writing one JSON record per line. It is safe
// for concurrent use.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines returns a sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// Log implements usertypes.ActivitySink.
func (s *JSONLines) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(record)
}
