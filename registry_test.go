package props

import (
	"slices"
	"testing"
)

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := r.Register("/knob", "setValue", "getValue")
	b := r.RegisterProperty("/knob", "value")
	if a != b {
		t.Fatalf("expected the same record for the same triple")
	}
	if r.Len() != 1 {
		t.Fatalf("expected one entry, got %d", r.Len())
	}
	if !slices.Equal(r.Sets(a), []string{DefaultSet}) {
		t.Fatalf("new records should join the default set, got %v", r.Sets(a))
	}
	if r.Property("/knob", "setValue", "getValue") != a {
		t.Fatalf("Property should return the registered record")
	}
}

func TestRegistrySetManagement(t *testing.T) {
	r := NewRegistry()
	rec := r.RegisterProperty("/knob", "value")

	r.Move(rec, DefaultSet, "alt")
	if !slices.Equal(r.Sets(rec), []string{"alt"}) {
		t.Fatalf("expected [alt] after move, got %v", r.Sets(rec))
	}

	r.Copy(rec, "a", "b")
	if !slices.Equal(r.Sets(rec), []string{"a", "alt", "b"}) {
		t.Fatalf("expected copy to add sets, got %v", r.Sets(rec))
	}

	r.RemoveFromSets(rec, "a", "alt")
	if !slices.Equal(r.Sets(rec), []string{"b"}) {
		t.Fatalf("expected [b] after removal, got %v", r.Sets(rec))
	}

	r.Only(rec, "solo")
	if !slices.Equal(r.Sets(rec), []string{"solo"}) {
		t.Fatalf("expected [solo], got %v", r.Sets(rec))
	}

	r.RemoveFromSets(rec, "solo")
	if len(r.Sets(rec)) != 0 || !r.Contains(rec) {
		t.Fatalf("a record in no set should stay registered")
	}

	if !slices.Equal(r.SetNames(), []string{"a", "alt", "b", DefaultSet, "solo"}) {
		t.Fatalf("unexpected declared sets %v", r.SetNames())
	}
}

func TestRegistryOwnerOperations(t *testing.T) {
	r := NewRegistry()
	value := r.RegisterProperty("/knob", "value")
	label := r.RegisterProperty("/knob", "label")
	other := r.RegisterProperty("/toggle", "state")

	r.CopyOwner("/knob", "presets")
	if got := len(r.InSets("presets")); got != 2 {
		t.Fatalf("expected both knob properties in presets, got %d", got)
	}
	r.MoveOwner("/knob", "presets", "archive")
	if got := len(r.InSets("presets")); got != 0 {
		t.Fatalf("expected presets empty after move, got %d", got)
	}
	r.RemoveOwnerFromSets("/knob", DefaultSet)
	if got := r.InSets(DefaultSet); len(got) != 1 || got[0] != other {
		t.Fatalf("expected only the toggle in default, got %v", got)
	}

	r.RemoveOwner("/knob")
	if r.Contains(value) || r.Contains(label) {
		t.Fatalf("owner properties should be removed")
	}
	if !r.Contains(other) {
		t.Fatalf("other owners should be untouched")
	}
}

func TestRegistryDelete(t *testing.T) {
	r := NewRegistry()
	rec := r.RegisterProperty("/knob", "value")
	r.Delete(rec)
	if r.Contains(rec) || r.Len() != 0 {
		t.Fatalf("expected record removed")
	}
	if _, ok := r.Lookup(rec.Key()); ok {
		t.Fatalf("lookup should miss a deleted key")
	}

	r.RegisterProperty("/knob", "label")
	r.RemoveProperty("/knob", "label")
	r.Remove("/knob", "setMissing", "getMissing")
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistryUnknownRecordsAreIgnored(t *testing.T) {
	r := NewRegistry()
	stray := NewRecord(PropertyKey("/ghost", "value"), Int(1))

	r.Move(stray, DefaultSet, "alt")
	r.Copy(stray, "alt")
	r.Only(stray, "alt")
	r.RemoveFromSets(stray, DefaultSet)
	r.Delete(stray)
	r.Delete(nil)

	if r.Len() != 0 {
		t.Fatalf("operations on unknown records should not register them")
	}
	if r.Sets(stray) != nil {
		t.Fatalf("unknown record should belong to no set")
	}
	if !slices.Equal(r.SetNames(), []string{DefaultSet}) {
		t.Fatalf("unknown records should not declare sets, got %v", r.SetNames())
	}
}

func TestInSetsIsUnion(t *testing.T) {
	r := NewRegistry()
	a := r.RegisterProperty("/a", "value")
	b := r.RegisterProperty("/b", "value")
	r.RegisterProperty("/c", "value")
	r.Only(a, "x")
	r.Only(b, "y")

	got := r.InSets("x", "y")
	if len(got) != 2 || !slices.Contains(got, a) || !slices.Contains(got, b) {
		t.Fatalf("expected a and b, got %v", got)
	}
}
