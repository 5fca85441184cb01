package activity

import (
	"context"
	"slices"
	"sync"
)

// CaptureHook keeps every event in memory. It backs tests and the example
// programs; Events may be read directly once dispatching is done, the
// accessor methods are safe while it is still running.
type CaptureHook struct {
	Events []Event
	// Err is returned from every Notify call after recording the event.
	Err error
	mu  sync.Mutex
}

// Notify records the normalized event.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Snapshot returns a copy of the recorded events.
func (h *CaptureHook) Snapshot() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.Events)
}

// Scoped returns the recorded events of one scope, in order.
func (h *CaptureHook) Scoped(scope string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, event := range h.Events {
		if event.Scope == scope {
			out = append(out, event)
		}
	}
	return out
}

// Verbs lists the verb of every recorded event.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.Events))
	for i, event := range h.Events {
		verbs[i] = event.Verb
	}
	return verbs
}

// Reset drops the recorded events.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = nil
}
