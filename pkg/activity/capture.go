package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it receives. Err, when set, is returned
// from each Notify call after the event is stored.
type CaptureHook struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

// Notify implements Hook.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Verbs lists the verbs of the captured events in arrival order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.Events))
	for i, event := range h.Events {
		verbs[i] = event.Verb
	}
	return verbs
}

// Reset drops the captured events.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = nil
}
