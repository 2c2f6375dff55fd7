package activity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Event is one identifier occurrence handed to hooks. Ids are plain strings
// so callers are free to use UUIDs, slugs or anything else.
type Event struct {
	Verb       string
	RunID      string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Complete reports whether the event names a verb and an object.
func (e Event) Complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Hook receives normalized events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify implements Hook.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// HookError wraps the failure of the hook at Index.
type HookError struct {
	Index int
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("activity: hook %d: %v", e.Index, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// Hooks is an ordered set of hooks notified in turn.
type Hooks []Hook

// Compact returns the non-nil hooks, or nil when there are none.
func (h Hooks) Compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

// Enabled reports whether at least one hook is set.
func (h Hooks) Enabled() bool {
	return len(h.Compact()) > 0
}

// Notify normalizes event and hands it to every hook. Incomplete events are
// dropped. Every hook runs even when an earlier one fails; failures come
// back joined as *HookError values.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	event = NormalizeEvent(event)
	if !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, &HookError{Index: i, Err: err})
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent returns a copy of event with trimmed string fields, its
// own metadata map and a UTC timestamp.
func NormalizeEvent(event Event) Event {
	out := event
	for _, field := range []*string{
		&out.Verb, &out.RunID, &out.ActorID, &out.UserID, &out.TenantID,
		&out.ObjectType, &out.ObjectID, &out.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	out.Metadata = nil
	if len(event.Metadata) > 0 {
		out.Metadata = maps.Clone(event.Metadata)
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	out.OccurredAt = out.OccurredAt.UTC()
	return out
}
