package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsAndOwnsMetadata(t *testing.T) {
	meta := map[string]any{"kind": "Task"}
	in := Event{
		Verb:       " identifier.declared ",
		RunID:      " run-1 ",
		ActorID:    " actor ",
		TenantID:   " tenant ",
		ObjectType: " identifier.Task ",
		ObjectID:   " build ",
		Channel:    " xref ",
		Metadata:   meta,
	}

	got := NormalizeEvent(in)

	if got.Verb != "identifier.declared" || got.ObjectType != "identifier.Task" || got.ObjectID != "build" {
		t.Fatalf("unexpected object fields: %+v", got)
	}
	if got.RunID != "run-1" || got.ActorID != "actor" || got.TenantID != "tenant" || got.Channel != "xref" {
		t.Fatalf("unexpected identity fields: %+v", got)
	}
	if got.OccurredAt.IsZero() || got.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", got.OccurredAt)
	}
	got.Metadata["kind"] = "Stage"
	if meta["kind"] != "Task" {
		t.Fatalf("caller metadata changed: %+v", meta)
	}
	if NormalizeEvent(Event{Metadata: map[string]any{}}).Metadata != nil {
		t.Fatalf("expected empty metadata to normalize to nil")
	}
}

func TestHooksDropIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	for _, event := range []Event{
		{},
		{Verb: VerbIdentifierDeclared, ObjectType: "identifier.Task"},
		{Verb: "  ", ObjectType: "identifier.Task", ObjectID: "build"},
	} {
		if err := hooks.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected nothing captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyRunsEveryHook(t *testing.T) {
	errFirst := errors.New("sink down")
	errSecond := errors.New("queue full")
	capture := &CaptureHook{}
	var sawContext bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			sawContext = ctx != nil
			return nil
		}),
		HookFunc(func(context.Context, Event) error { return errFirst }),
		nil,
		capture,
		HookFunc(func(context.Context, Event) error { return errSecond }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbIdentifierResolved, ObjectType: "identifier.Step", ObjectID: "compile"})
	if !errors.Is(err, errFirst) || !errors.Is(err, errSecond) {
		t.Fatalf("expected both hook errors, got %v", err)
	}
	var hookErr *HookError
	if !errors.As(err, &hookErr) || hookErr.Index != 1 {
		t.Fatalf("expected first failure at index 1, got %#v", hookErr)
	}
	if hookErr.Error() != "activity: hook 1: sink down" {
		t.Fatalf("unexpected message %q", hookErr.Error())
	}
	if !sawContext {
		t.Fatalf("expected a non-nil context")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected later hooks to run after a failure, got %d events", len(capture.Events))
	}
}

func TestHooksCompactAndEnabled(t *testing.T) {
	if (Hooks{nil, nil}).Enabled() {
		t.Fatalf("expected only-nil hooks to be disabled")
	}
	if (Hooks{nil, nil}).Compact() != nil {
		t.Fatalf("expected nil from compacting only-nil hooks")
	}
	hooks := Hooks{nil, &CaptureHook{}, nil}
	if got := hooks.Compact(); len(got) != 1 {
		t.Fatalf("expected one hook, got %d", len(got))
	}
	if !hooks.Enabled() {
		t.Fatalf("expected hooks to be enabled")
	}
}

func TestEmitterDisabled(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if emitter.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := emitter.Emit(context.Background(), Event{Verb: VerbIdentifierDeclared, ObjectType: "identifier.Task", ObjectID: "a"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(capture.Events))
	}
	if NewEmitter(nil, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}
}

func TestEmitterChannelDefaults(t *testing.T) {
	capture := &CaptureHook{}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	implicit := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "  "})
	if err := implicit.Emit(context.Background(), Event{Verb: VerbIdentifierDeclared, ObjectType: "identifier.Task", ObjectID: "a"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	configured := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "deployments"})
	if err := configured.Emit(context.Background(), Event{Verb: VerbIdentifierDeclared, ObjectType: "identifier.Task", ObjectID: "b"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := configured.Emit(context.Background(), Event{Verb: VerbIdentifierDeclared, ObjectType: "identifier.Task", ObjectID: "c", Channel: "custom", OccurredAt: at}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	if len(capture.Events) != 3 {
		t.Fatalf("expected three events, got %d", len(capture.Events))
	}
	for i, want := range []string{DefaultChannel, "deployments", "custom"} {
		if capture.Events[i].Channel != want {
			t.Fatalf("event %d: expected channel %q got %q", i, want, capture.Events[i].Channel)
		}
	}
	if !capture.Events[2].OccurredAt.Equal(at) {
		t.Fatalf("expected explicit timestamp kept, got %v", capture.Events[2].OccurredAt)
	}
}

func TestEmitterVerbFilter(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Verbs: []string{" " + VerbIdentifierResolved, ""}})

	if emitter.Accepts(VerbIdentifierDeclared) || !emitter.Accepts(VerbIdentifierResolved) {
		t.Fatalf("unexpected verb filter")
	}
	for _, verb := range []string{VerbIdentifierDeclared, VerbIdentifierResolved} {
		if err := emitter.Emit(context.Background(), Event{Verb: verb, ObjectType: "identifier.Task", ObjectID: "a"}); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	if got := capture.Verbs(); len(got) != 1 || got[0] != VerbIdentifierResolved {
		t.Fatalf("expected only resolved events, got %v", got)
	}
	capture.Reset()
	if len(capture.Events) != 0 {
		t.Fatalf("expected reset to drop events")
	}
}
