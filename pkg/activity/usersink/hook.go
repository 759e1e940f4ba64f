// Package usersink forwards property activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"maps"
	"slices"
	"strings"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-props/pkg/activity"
)

// Hook is an activity.ActivityHook writing one ActivityRecord per event.
type Hook struct {
	Sink usertypes.ActivitySink
	// ActorID is recorded when an event carries no parsable actor.
	ActorID uuid.UUID
	// Verbs limits forwarding to the listed verbs. Empty forwards everything.
	Verbs []string
}

var _ activity.ActivityHook = Hook{}

// Notify forwards event unless it is not routable or filtered out.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.NormalizeEvent(event)
	if !event.Routable() || !h.accepts(event.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, h.record(event))
}

func (h Hook) accepts(verb string) bool {
	return len(h.Verbs) == 0 || slices.Contains(h.Verbs, verb)
}

// record maps a normalized event. Fields go-users has no column for travel in
// Data.
func (h Hook) record(event activity.Event) usertypes.ActivityRecord {
	data := maps.Clone(event.Metadata)
	extra := map[string]any{}
	if event.DefinitionCode != "" {
		extra["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		extra["recipients"] = slices.Clone(event.Recipients)
	}
	if len(extra) > 0 {
		if data == nil {
			data = map[string]any{}
		}
		maps.Copy(data, extra)
	}

	actor := parseUUID(event.ActorID)
	if actor == uuid.Nil {
		actor = h.ActorID
	}
	return usertypes.ActivityRecord{
		ActorID:    actor,
		UserID:     parseUUID(event.UserID),
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}
}

func parseUUID(text string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(text))
	if err != nil {
		return uuid.Nil
	}
	return id
}
