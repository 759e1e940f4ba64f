package props

import (
	"errors"
	"slices"
	"testing"
)

func TestCaptureAndRestore(t *testing.T) {
	ctx := testContext(t)
	f := newFixture(t)
	f.props.RegisterProperty("/slider", "value")

	f.slider.value = 1
	if _, err := f.props.Capture(ctx, "before"); err != nil {
		t.Fatalf("capture before: %v", err)
	}
	f.slider.value = 2
	if _, err := f.props.Capture(ctx, "after"); err != nil {
		t.Fatalf("capture after: %v", err)
	}

	report, err := f.props.Restore(ctx, "before")
	if err != nil {
		t.Fatalf("restore before: %v", err)
	}
	if report.Applied != 1 || f.slider.value != 1 {
		t.Fatalf("expected value 1 after restoring before, got %v (%+v)", f.slider.value, report)
	}
	if _, err := f.props.Restore(ctx, "after"); err != nil {
		t.Fatalf("restore after: %v", err)
	}
	if f.slider.value != 2 {
		t.Fatalf("expected value 2 after restoring after, got %v", f.slider.value)
	}

	keys, err := f.props.SnapshotKeys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if !slices.Equal(keys, []string{"before", "after"}) {
		t.Fatalf("expected keys in capture order, got %v", keys)
	}
}

func TestSnapshotIsIsolatedFromLiveRecords(t *testing.T) {
	ctx := testContext(t)
	f := newFixture(t)
	f.slider.steps = []int{1, 2, 3}
	f.props.RegisterProperty("/slider", "steps")
	if _, err := f.props.Capture(ctx, "steps"); err != nil {
		t.Fatalf("capture: %v", err)
	}

	f.slider.steps = []int{9}
	for _, rec := range f.props.Registry().Records() {
		f.props.Refresh(rec)
	}

	records, _, ok, err := f.props.Snapshot(ctx, "steps")
	if err != nil || !ok {
		t.Fatalf("expected snapshot, ok=%v err=%v", ok, err)
	}
	if len(records) != 1 || records[0].Value().Len() != 3 {
		t.Fatalf("snapshot should keep the captured array, got %v", records)
	}

	if _, err := f.props.Restore(ctx, "steps"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !slices.Equal(f.slider.steps, []int{1, 2, 3}) {
		t.Fatalf("expected steps restored, got %v", f.slider.steps)
	}
}

func TestCaptureReplacesExistingKey(t *testing.T) {
	ctx := testContext(t)
	f := newFixture(t)
	f.props.RegisterProperty("/toggle", "state")

	f.toggle.state = 1
	first, err := f.props.Capture(ctx, "k")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	f.toggle.state = 2
	second, err := f.props.UpdateSnapshot(ctx, "k")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if first.ETag == second.ETag {
		t.Fatalf("expected a new etag after replacing the snapshot")
	}
	if first.SnapshotID != second.SnapshotID {
		t.Fatalf("snapshot id should survive replacement, got %q and %q", first.SnapshotID, second.SnapshotID)
	}

	f.toggle.state = 0
	if _, err := f.props.Restore(ctx, "k"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if f.toggle.state != 2 {
		t.Fatalf("expected the replaced snapshot value 2, got %d", f.toggle.state)
	}
}

func TestRestoreUnknownKeyIsNoop(t *testing.T) {
	ctx := testContext(t)
	f := newFixture(t)
	f.toggle.state = 4
	f.props.RegisterProperty("/toggle", "state")

	report, err := f.props.Restore(ctx, "missing")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Applied != 0 || f.toggle.state != 4 {
		t.Fatalf("restore of an unknown key should change nothing, got %+v", report)
	}
}

func TestRemoveSnapshot(t *testing.T) {
	ctx := testContext(t)
	f := newFixture(t)
	f.props.RegisterProperty("/toggle", "state")
	if _, err := f.props.Capture(ctx, "gone"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := f.props.RemoveSnapshot(ctx, "gone"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, ok, _ := f.props.Snapshot(ctx, "gone"); ok {
		t.Fatalf("snapshot should be removed")
	}
	if err := f.props.RemoveSnapshot(ctx, "never"); err != nil {
		t.Fatalf("removing an unknown snapshot should be a no-op, got %v", err)
	}
}

func TestSaveSnapshotWritesCapturedValues(t *testing.T) {
	ctx := testContext(t)
	f := newFixture(t, WithFormat("json"))
	f.props.RegisterProperty("/slider", "value")

	f.slider.value = 0.75
	if _, err := f.props.Capture(ctx, "preset"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	f.slider.value = 0.1

	report, err := f.props.SaveSnapshot(ctx, "preset")
	if err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if report.Saved != 1 {
		t.Fatalf("expected 1 saved, got %+v", report)
	}

	if _, err := f.props.LoadFrom(ctx, report.Path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.slider.value != 0.75 {
		t.Fatalf("expected captured value 0.75, got %v", f.slider.value)
	}

	if _, err := f.props.SaveSnapshot(ctx, "unknown"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestCaptureKeepsNonSerializableOutOfFiles(t *testing.T) {
	ctx := testContext(t)
	f := newFixture(t)
	f.slider.Bind("handle", OpaqueAccessor("handle", func() any { return &handle{} }, func([]byte) error { return nil }))
	f.props.RegisterProperty("/slider", "handle")
	f.props.RegisterProperty("/slider", "value")

	if _, err := f.props.Capture(ctx, "mixed"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	report, err := f.props.SaveSnapshot(ctx, "mixed")
	if err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if report.Saved != 1 || report.Ignored != 1 {
		t.Fatalf("expected 1 saved 1 ignored, got %+v", report)
	}
}

func TestOpaqueRoundTripThroughSnapshot(t *testing.T) {
	ctx := testContext(t)
	f := newFixture(t)
	live := &curve{points: []byte{1, 2, 3}}
	f.slider.Bind("curve", OpaqueAccessor("curve", func() any { return live }, UnmarshalInto(live)))
	f.props.RegisterProperty("/slider", "curve")

	if _, err := f.props.Capture(ctx, "curve"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	live.points = []byte{9}
	if _, err := f.props.Restore(ctx, "curve"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !slices.Equal(live.points, []byte{1, 2, 3}) {
		t.Fatalf("expected curve restored, got %v", live.points)
	}
}
