package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/goliatone/go-xref/pkg/activity"
	"github.com/goliatone/go-xref/pkg/activity/usersink"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsIdentifierEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildIdentifierDeclaredEvent(activity.IdentifierEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		RunID:      "run-7",
		Kind:       "Task",
		Name:       "compile",
		Index:      3,
		Channel:    "pipelines",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil user, got %s", record.UserID)
	}
	if record.Verb != activity.VerbIdentifierDeclared || record.ObjectType != "identifier.Task" || record.ObjectID != "compile" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "pipelines" {
		t.Fatalf("expected channel pipelines got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["run_id"] != "run-7" || record.Data["index"] != 3 {
		t.Fatalf("expected metadata passthrough got %v", record.Data)
	}
}

func TestHookNotifyFallsBackToConfiguredTenant(t *testing.T) {
	sink := &recordingSink{}
	tenant := uuid.New()
	hook := usersink.Hook{Sink: sink, Tenant: tenant}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbIdentifierResolved,
		ObjectType: "identifier.Stage",
		ObjectID:   "deploy",
		TenantID:   "not-a-uuid",
		RunID:      "run-9",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].TenantID != tenant {
		t.Fatalf("expected fallback tenant, got %s", sink.records[0].TenantID)
	}
	if sink.records[0].Data["run_id"] != "run-9" {
		t.Fatalf("expected run id in record data got %v", sink.records[0].Data)
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

func TestHookNotifyDefaultsTimestampAndReturnsSinkError(t *testing.T) {
	errSink := errors.New("sink down")
	sink := &recordingSink{err: errSink}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbIdentifierDeclared,
		ObjectType: "identifier.Task",
		ObjectID:   "1",
	})
	if !errors.Is(err, errSink) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookWithoutSinkIsNoop(t *testing.T) {
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRecordKeepsNonUUIDActorInData(t *testing.T) {
	record, ok := usersink.Record(activity.Event{
		Verb:       activity.VerbIdentifierResolved,
		ActorID:    " deployer ",
		ObjectType: "identifier.Step",
		ObjectID:   "compile",
		Metadata:   map[string]any{"path": []int{0}},
	})
	if !ok {
		t.Fatalf("expected a record")
	}
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor uuid, got %s", record.ActorID)
	}
	if record.Data["actor"] != "deployer" {
		t.Fatalf("expected actor kept in data, got %v", record.Data)
	}
	if _, ok := record.Data["run_id"]; ok {
		t.Fatalf("expected no run id without one on the event, got %v", record.Data)
	}

	if _, ok := usersink.Record(activity.Event{Verb: activity.VerbIdentifierResolved}); ok {
		t.Fatalf("expected incomplete event to be rejected")
	}
}
