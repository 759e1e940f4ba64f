package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cogentcore.org/core/base/ordmap"
	"github.com/google/uuid"
)

// MemoryStore keeps snapshots in process memory. Values pass through the
// configured clone function on the way in and out, so callers never share
// state with the store.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records *ordmap.Map[string, memoryRecord[T]]
	clone   func(T) T
	now     func() time.Time
}

type memoryRecord[T any] struct {
	snapshot T
	meta     Meta
}

// MemoryOption configures a MemoryStore.
type MemoryOption[T any] func(*MemoryStore[T])

// WithClone sets the function used to copy snapshots in and out of the store.
func WithClone[T any](clone func(T) T) MemoryOption[T] {
	return func(s *MemoryStore[T]) {
		s.clone = clone
	}
}

// WithClock overrides the time source used for Meta.UpdatedAt.
func WithClock[T any](now func() time.Time) MemoryOption[T] {
	return func(s *MemoryStore[T]) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore[T any](opts ...MemoryOption[T]) *MemoryStore[T] {
	s := &MemoryStore[T]{
		records: ordmap.New[string, memoryRecord[T]](),
		clone:   func(v T) T { return v },
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore[T]) Load(ctx context.Context, key string) (T, Meta, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, Meta{}, false, err
	}
	s.mu.RLock()
	record, ok := s.records.ValueByKeyTry(key)
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return s.clone(record.snapshot), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[T]) Save(ctx context.Context, key string, snapshot T, meta Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	if key == "" {
		return Meta{}, fmt.Errorf("state: key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := cloneMeta(meta)
	if existing, ok := s.records.ValueByKeyTry(key); ok {
		if meta.ETag != "" && meta.ETag != existing.meta.ETag {
			return existing.meta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, existing.meta.ETag)
		}
		if saved.SnapshotID == "" {
			saved.SnapshotID = existing.meta.SnapshotID
		}
	} else if meta.ETag != "" {
		return Meta{}, fmt.Errorf("%w: expected %q, key %q does not exist", ErrETagMismatch, meta.ETag, key)
	}

	if saved.SnapshotID == "" {
		saved.SnapshotID = uuid.NewString()
	}
	saved.ETag = uuid.NewString()
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = s.now()
	}
	s.records.Add(key, memoryRecord[T]{snapshot: s.clone(snapshot), meta: saved})
	return cloneMeta(saved), nil
}

func (s *MemoryStore[T]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.records.DeleteKey(key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore[T]) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Keys(), nil
}

// Len returns the number of stored snapshots.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Len()
}
