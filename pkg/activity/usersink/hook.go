// Package usersink records identifier activity through a go-users
// ActivitySink.
package usersink

import (
	"context"
	"strings"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/goliatone/go-xref/pkg/activity"
	"github.com/google/uuid"
)

// Hook forwards identifier activity to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Tenant is used when the event carries no parseable tenant id.
	Tenant uuid.UUID
}

// Notify logs the record built from event. Incomplete events are skipped.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := Record(event)
	if !ok {
		return nil
	}
	if record.TenantID == uuid.Nil {
		record.TenantID = h.Tenant
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

// Record maps event onto an ActivityRecord. Actor, user and tenant ids that
// are not UUIDs become uuid.Nil; a non-UUID actor is kept in Data["actor"]
// along with the run id and the event metadata.
func Record(event activity.Event) (usertypes.ActivityRecord, bool) {
	event = activity.NormalizeEvent(event)
	if !event.Complete() {
		return usertypes.ActivityRecord{}, false
	}

	data := map[string]any{}
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.RunID != "" {
		data["run_id"] = event.RunID
	}
	actor, ok := parseUUID(event.ActorID)
	if !ok && event.ActorID != "" {
		data["actor"] = event.ActorID
	}
	if len(data) == 0 {
		data = nil
	}

	user, _ := parseUUID(event.UserID)
	tenant, _ := parseUUID(event.TenantID)
	return usertypes.ActivityRecord{
		ActorID:    actor,
		UserID:     user,
		TenantID:   tenant,
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}, true
}

func parseUUID(input string) (uuid.UUID, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(input)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
