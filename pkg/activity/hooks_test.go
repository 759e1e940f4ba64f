package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestNormalizeEvent(t *testing.T) {
	meta := map[string]any{"format": "xml"}
	recipients := []string{" ops "}
	in := Event{
		Verb:       " properties.saved ",
		ActorID:    " actor ",
		TenantID:   "\ttenant",
		ObjectType: " properties.file ",
		ObjectID:   " show.xml ",
		Channel:    " studio ",
		Recipients: recipients,
		Metadata:   meta,
	}

	got := NormalizeEvent(in)
	if got.Verb != "properties.saved" || got.ObjectType != ObjectFile || got.ObjectID != "show.xml" {
		t.Fatalf("unexpected routing fields %+v", got)
	}
	if got.ActorID != "actor" || got.TenantID != "tenant" || got.Channel != "studio" {
		t.Fatalf("unexpected trimming %+v", got)
	}
	if !got.Routable() || got.OccurredAt.IsZero() {
		t.Fatalf("expected a routable, timestamped event, got %+v", got)
	}

	got.Metadata["format"] = "json"
	got.Recipients[0] = "changed"
	if meta["format"] != "xml" || recipients[0] != " ops " {
		t.Fatalf("normalized event should not share maps or slices with its input")
	}
	if empty := NormalizeEvent(Event{Recipients: []string{}}); empty.Recipients != nil || empty.Metadata != nil {
		t.Fatalf("empty collections should become nil, got %+v", empty)
	}
}

func TestHooksNotify(t *testing.T) {
	errA, errB := errors.New("sink a"), errors.New("sink b")
	capture := &CaptureHook{}
	var sawContext bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			sawContext = ctx != nil
			return nil
		}),
		capture,
		nil,
		HookFunc(func(context.Context, Event) error { return errA }),
		HookFunc(func(context.Context, Event) error { return errB }),
	}

	if err := hooks.Notify(context.Background(), Event{Verb: "properties.saved"}); err != nil {
		t.Fatalf("unroutable events should be dropped, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected nothing captured, got %d", len(capture.Events))
	}

	err := hooks.Notify(nil, BuildPropertiesSavedEvent(PropertyEventInput{Path: "a.ser"}))
	if !errors.Is(err, errA) || !errors.Is(err, errB) || len(multierr.Errors(err)) != 2 {
		t.Fatalf("expected both hook failures combined, got %v", err)
	}
	if !sawContext {
		t.Fatalf("hooks should receive a background context when none is given")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one captured event, got %d", len(capture.Events))
	}
	if HookFunc(nil).Notify(context.Background(), Event{}) != nil {
		t.Fatalf("a nil HookFunc should be a no-op")
	}
}

func TestEmitter(t *testing.T) {
	registered := BuildPropertyRegisteredEvent(PropertyEventInput{Property: "/knob#setValue/getValue"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name        string
		cfg         Config
		event       Event
		wantEvents  int
		wantChannel string
	}{
		{name: "disabled", cfg: Config{}, event: registered},
		{name: "default channel", cfg: Config{Enabled: true}, event: registered, wantEvents: 1, wantChannel: DefaultChannel},
		{name: "configured channel", cfg: Config{Enabled: true, Channel: " studio "}, event: registered, wantEvents: 1, wantChannel: "studio"},
		{
			name:        "explicit channel",
			cfg:         Config{Enabled: true, Channel: "studio"},
			event:       Event{Verb: "snapshot.captured", ObjectType: ObjectSnapshot, ObjectID: "before", Channel: "custom", OccurredAt: at},
			wantEvents:  1,
			wantChannel: "custom",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			capture := &CaptureHook{}
			emitter := NewEmitter(Hooks{capture}, tc.cfg)
			if emitter.Enabled() != tc.cfg.Enabled {
				t.Fatalf("expected enabled=%t", tc.cfg.Enabled)
			}
			if err := emitter.Emit(context.Background(), tc.event); err != nil {
				t.Fatalf("emit: %v", err)
			}
			if len(capture.Events) != tc.wantEvents {
				t.Fatalf("expected %d events, got %d", tc.wantEvents, len(capture.Events))
			}
			if tc.wantEvents == 0 {
				return
			}
			got := capture.Events[0]
			if got.Channel != tc.wantChannel {
				t.Fatalf("expected channel %q, got %q", tc.wantChannel, got.Channel)
			}
			if !tc.event.OccurredAt.IsZero() && !got.OccurredAt.Equal(tc.event.OccurredAt) {
				t.Fatalf("expected occurred_at preserved, got %v", got.OccurredAt)
			}
		})
	}
	var nilEmitter *Emitter
	if nilEmitter.Enabled() {
		t.Fatalf("a nil emitter is disabled")
	}
}

func TestHooksCompact(t *testing.T) {
	capture := &CaptureHook{}
	if got := (Hooks{nil, nil}).Compact(); got != nil {
		t.Fatalf("expected nil when only nil hooks remain, got %v", got)
	}
	got := (Hooks{nil, capture, nil}).Compact()
	if len(got) != 1 || got[0] != capture {
		t.Fatalf("expected the capture hook only, got %v", got)
	}
	if NewEmitter(Hooks{nil}, Config{Enabled: true}).Enabled() {
		t.Fatalf("an emitter without real hooks should be disabled")
	}
}

func TestEmitterStampsActorAndTenant(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, ActorID: "operator", TenantID: "stage"})

	for _, actor := range []string{"", "guest"} {
		err := emitter.Emit(context.Background(), Event{
			Verb:       "properties.loaded",
			ActorID:    actor,
			ObjectType: ObjectFile,
			ObjectID:   "show.xml",
		})
		if err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	if capture.Events[0].ActorID != "operator" || capture.Events[0].TenantID != "stage" {
		t.Fatalf("expected defaults applied, got %+v", capture.Events[0])
	}
	if capture.Events[1].ActorID != "guest" {
		t.Fatalf("expected explicit actor preserved, got %q", capture.Events[1].ActorID)
	}
}

func TestCaptureHookHelpers(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	ctx := context.Background()
	for _, event := range []Event{
		BuildPropertiesSavedEvent(PropertyEventInput{Path: "a.ser"}),
		BuildPropertiesLoadedEvent(PropertyEventInput{Path: "a.ser"}),
		BuildPropertiesSavedEvent(PropertyEventInput{Path: "b.ser"}),
	} {
		if err := hooks.Notify(ctx, event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	want := []string{"properties.saved", "properties.loaded", "properties.saved"}
	if got := capture.Verbs(); len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("expected verbs %v, got %v", want, got)
	}
	last, ok := capture.Last("properties.saved")
	if !ok || last.ObjectID != "b.ser" {
		t.Fatalf("expected the latest save, got %+v", last)
	}
	if _, ok := capture.Last("snapshot.removed"); ok {
		t.Fatalf("unexpected event found")
	}
	capture.Reset()
	if len(capture.Verbs()) != 0 {
		t.Fatalf("expected no events after reset")
	}
}
