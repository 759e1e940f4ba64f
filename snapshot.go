package props

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/goliatone/go-props/pkg/activity"
	"github.com/goliatone/go-props/pkg/state"
)

// ErrNoSnapshot reports a snapshot key that holds nothing.
var ErrNoSnapshot = errors.New("props: snapshot not found")

// Capture refreshes every registered property and stores clones of the
// records under key, replacing what key held before. Properties that fail to
// refresh are captured with their last known value.
func (p *Properties) Capture(ctx context.Context, key string) (state.Meta, error) {
	p.mu.Lock()
	records := p.registry.Records()
	var errs error
	for _, rec := range records {
		if err := p.refresh(rec); err != nil && !errors.Is(err, ErrNonSerializable) {
			errs = multierr.Append(errs, err)
		}
	}
	meta, err := p.snapshots.Save(ctx, key, cloneRecords(records), state.Meta{})
	p.mu.Unlock()
	if err != nil {
		return state.Meta{}, fmt.Errorf("props: capture %q: %w", key, err)
	}
	if errs != nil {
		p.log.Warnf("snapshot %q captured stale values: %v", key, errs)
	}
	p.log.Debugf("snapshot %q captured %d properties", key, len(records))
	p.emit(ctx, activity.BuildSnapshotCapturedEvent(activity.PropertyEventInput{
		Snapshot: snapshotContext(key, meta),
		Counts:   map[string]int{"records": len(records)},
	}))
	return meta, nil
}

// UpdateSnapshot is Capture under another name; capturing an existing key
// already replaces it.
func (p *Properties) UpdateSnapshot(ctx context.Context, key string) (state.Meta, error) {
	return p.Capture(ctx, key)
}

// Restore applies every record held by snapshot key. An unknown key is a
// no-op.
func (p *Properties) Restore(ctx context.Context, key string) (Report, error) {
	records, meta, ok, err := p.snapshots.Load(ctx, key)
	if err != nil {
		return Report{}, fmt.Errorf("props: restore %q: %w", key, err)
	}
	if !ok {
		return Report{}, nil
	}
	var report Report
	p.mu.Lock()
	p.apply("restore", records, &report)
	p.mu.Unlock()

	p.log.Debugf("snapshot %q restored: %d applied, %d skipped", key, report.Applied, report.Skipped)
	p.emit(ctx, activity.BuildSnapshotRestoredEvent(activity.PropertyEventInput{
		Snapshot: snapshotContext(key, meta),
		Counts:   map[string]int{"applied": report.Applied, "skipped": report.Skipped},
	}))
	return report, nil
}

// RemoveSnapshot drops snapshot key.
func (p *Properties) RemoveSnapshot(ctx context.Context, key string) error {
	if err := p.snapshots.Delete(ctx, key); err != nil {
		return fmt.Errorf("props: remove snapshot %q: %w", key, err)
	}
	p.emit(ctx, activity.BuildSnapshotRemovedEvent(activity.PropertyEventInput{
		Snapshot: activity.SnapshotContext{Key: key},
	}))
	return nil
}

// SnapshotKeys lists snapshot keys in the order they were first captured.
func (p *Properties) SnapshotKeys(ctx context.Context) ([]string, error) {
	return p.snapshots.Keys(ctx)
}

// Snapshot returns copies of the records held by key.
func (p *Properties) Snapshot(ctx context.Context, key string) ([]*Record, state.Meta, bool, error) {
	return p.snapshots.Load(ctx, key)
}

// SaveSnapshot writes snapshot key to a file named after the key.
func (p *Properties) SaveSnapshot(ctx context.Context, key string) (Report, error) {
	return p.SaveSnapshotAs(ctx, key, key)
}

// SaveSnapshotAs writes snapshot key to path with the active format. Values
// are written as captured; nothing is refreshed.
func (p *Properties) SaveSnapshotAs(ctx context.Context, path, key string) (Report, error) {
	records, _, ok, err := p.snapshots.Load(ctx, key)
	if err != nil {
		return Report{}, fmt.Errorf("props: save snapshot %q: %w", key, err)
	}
	if !ok {
		return Report{}, fmt.Errorf("%w: %q", ErrNoSnapshot, key)
	}

	var report Report
	included := make([]*Record, 0, len(records))
	for _, rec := range records {
		if err := encodable(rec); err != nil {
			report.Ignored++
			report.Err = multierr.Append(report.Err, propertyError("save", rec.key, err))
			continue
		}
		included = append(included, rec)
	}

	p.mu.Lock()
	report, err = p.compile(ctx, path, included, report)
	p.mu.Unlock()
	if err != nil {
		return report, err
	}
	p.emitSaved(ctx, report, nil)
	return report, nil
}

func snapshotContext(key string, meta state.Meta) activity.SnapshotContext {
	return activity.SnapshotContext{Key: key, SnapshotID: meta.SnapshotID, ETag: meta.ETag}
}
