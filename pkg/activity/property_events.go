package activity

import (
	"slices"
	"strings"
	"time"
)

// Object types used by the property event builders.
const (
	ObjectProperty = "property"
	ObjectFile     = "properties.file"
	ObjectSnapshot = "properties.snapshot"
)

// SnapshotContext identifies an in-memory snapshot.
type SnapshotContext struct {
	Key        string
	SnapshotID string
	ETag       string
}

// PropertyEventInput describes the common fields for property lifecycle events.
type PropertyEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	Property       string
	Path           string
	Format         string
	Sets           []string
	Snapshot       SnapshotContext
	Counts         map[string]int
	OccurredAt     time.Time
}

// BuildPropertyRegisteredEvent describes a property joining the registry.
func BuildPropertyRegisteredEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("property.registered", ObjectProperty, input)
}

// BuildPropertiesSavedEvent describes a properties file being written.
func BuildPropertiesSavedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("properties.saved", ObjectFile, input)
}

// BuildPropertiesLoadedEvent describes a properties file being applied.
func BuildPropertiesLoadedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("properties.loaded", ObjectFile, input)
}

// BuildSnapshotCapturedEvent describes a snapshot being stored.
func BuildSnapshotCapturedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("snapshot.captured", ObjectSnapshot, input)
}

// BuildSnapshotRestoredEvent describes a snapshot being applied.
func BuildSnapshotRestoredEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("snapshot.restored", ObjectSnapshot, input)
}

// BuildSnapshotRemovedEvent describes a snapshot being dropped.
func BuildSnapshotRemovedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("snapshot.removed", ObjectSnapshot, input)
}

func buildPropertyEvent(verb, objectType string, input PropertyEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	for key, value := range map[string]string{
		"property":     input.Property,
		"path":         input.Path,
		"format":       input.Format,
		"snapshot_key": input.Snapshot.Key,
		"snapshot_id":  input.Snapshot.SnapshotID,
		"etag":         input.Snapshot.ETag,
	} {
		if value != "" {
			set(key, value)
		}
	}
	if len(input.Sets) > 0 {
		set("sets", slices.Clone(input.Sets))
	}
	for name, count := range input.Counts {
		set(name, count)
	}

	return NormalizeEvent(Event{
		Verb:           verb,
		ActorID:        input.ActorID,
		UserID:         input.UserID,
		TenantID:       input.TenantID,
		ObjectType:     objectType,
		ObjectID:       firstNonEmpty(input.ObjectID, input.Property, input.Path, input.Snapshot.Key, input.Snapshot.SnapshotID, objectType),
		Channel:        input.Channel,
		DefinitionCode: input.DefinitionCode,
		Recipients:     input.Recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
