package state

import (
	"context"
	"errors"
	"maps"
	"time"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Meta is storage-owned metadata describing one saved snapshot.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves snapshots by key.
type Store[T any] interface {
	Load(ctx context.Context, key string) (snapshot T, meta Meta, ok bool, err error)
	// Save replaces the snapshot under key. A non-empty meta.ETag must match
	// the stored one, otherwise ErrETagMismatch is returned.
	Save(ctx context.Context, key string, snapshot T, meta Meta) (Meta, error)
	Delete(ctx context.Context, key string) error
	// Keys lists keys in the order they were first saved.
	Keys(ctx context.Context) ([]string, error)
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra != nil {
		out.Extra = maps.Clone(meta.Extra)
	}
	return out
}
