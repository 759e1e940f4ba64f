package props

import (
	"slices"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultSet is the set every new property joins.
const DefaultSet = "default"

type entry struct {
	record *Record
	sets   mapset.Set[string]
}

// Registry maps properties to the named sets they belong to. Operations on
// unknown properties are no-ops.
type Registry struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	sets    mapset.Set[string]
}

// NewRegistry returns a registry holding only the default set.
func NewRegistry() *Registry {
	return &Registry{
		entries: map[Key]*entry{},
		sets:    mapset.NewThreadUnsafeSet(DefaultSet),
	}
}

// Register returns the record for the triple, creating it in the default set
// when it does not exist yet.
func (r *Registry) Register(address, setter, getter string) *Record {
	rec, _ := r.register(NewKey(address, setter, getter))
	return rec
}

// RegisterProperty registers set<Name>/get<Name> on address.
func (r *Registry) RegisterProperty(address, name string) *Record {
	rec, _ := r.register(PropertyKey(address, name))
	return rec
}

func (r *Registry) register(key Key) (*Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		return e.record, false
	}
	rec := &Record{key: key}
	r.entries[key] = &entry{record: rec, sets: mapset.NewThreadUnsafeSet(DefaultSet)}
	return rec, true
}

// Property returns the registered record for the triple. Unknown triples are
// registered on the fly.
func (r *Registry) Property(address, setter, getter string) *Record {
	return r.Register(address, setter, getter)
}

// PropertyByName is Property with accessor names derived from name.
func (r *Registry) PropertyByName(address, name string) *Record {
	return r.RegisterProperty(address, name)
}

// Lookup returns the record for key without registering it.
func (r *Registry) Lookup(key Key) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return e.record, true
}

// Contains reports whether rec is registered.
func (r *Registry) Contains(rec *Record) bool {
	if rec == nil {
		return false
	}
	_, ok := r.Lookup(rec.key)
	return ok
}

// Delete removes rec from the registry and from every set.
func (r *Registry) Delete(rec *Record) {
	if rec == nil {
		return
	}
	r.mu.Lock()
	delete(r.entries, rec.key)
	r.mu.Unlock()
}

// Remove deletes the property identified by the triple.
func (r *Registry) Remove(address, setter, getter string) {
	r.mu.Lock()
	delete(r.entries, NewKey(address, setter, getter))
	r.mu.Unlock()
}

// RemoveProperty deletes set<Name>/get<Name> on address.
func (r *Registry) RemoveProperty(address, name string) {
	key := PropertyKey(address, name)
	r.Remove(key.Address, key.Setter, key.Getter)
}

// RemoveOwner deletes every property owned by address.
func (r *Registry) RemoveOwner(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.entries {
		if key.Address == address {
			delete(r.entries, key)
		}
	}
}

// AddSet declares a set name.
func (r *Registry) AddSet(name string) {
	r.mu.Lock()
	r.sets.Add(name)
	r.mu.Unlock()
}

// Move drops rec's membership in from and adds it to to.
func (r *Registry) Move(rec *Record, from, to string) {
	if rec == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[rec.key]
	if !ok {
		return
	}
	e.sets.Remove(from)
	r.sets.Add(to)
	e.sets.Add(to)
}

// MoveOwner applies Move to every property owned by address.
func (r *Registry) MoveOwner(address, from, to string) {
	for _, rec := range r.PropertiesOf(address) {
		r.Move(rec, from, to)
	}
}

// Copy adds rec to each of sets, declaring sets that do not exist.
func (r *Registry) Copy(rec *Record, sets ...string) {
	if rec == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[rec.key]
	if !ok {
		return
	}
	for _, name := range sets {
		e.sets.Add(name)
		r.sets.Add(name)
	}
}

// CopyOwner applies Copy to every property owned by address.
func (r *Registry) CopyOwner(address string, sets ...string) {
	for _, rec := range r.PropertiesOf(address) {
		r.Copy(rec, sets...)
	}
}

// RemoveFromSets drops rec's membership in each of sets. The record stays
// registered even when it ends up in no set.
func (r *Registry) RemoveFromSets(rec *Record, sets ...string) {
	if rec == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[rec.key]
	if !ok {
		return
	}
	for _, name := range sets {
		e.sets.Remove(name)
	}
}

// RemoveOwnerFromSets applies RemoveFromSets to every property of address.
func (r *Registry) RemoveOwnerFromSets(address string, sets ...string) {
	for _, rec := range r.PropertiesOf(address) {
		r.RemoveFromSets(rec, sets...)
	}
}

// Only makes set the single membership of rec.
func (r *Registry) Only(rec *Record, set string) {
	if rec == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[rec.key]
	if !ok {
		return
	}
	e.sets.Clear()
	e.sets.Add(set)
	r.sets.Add(set)
}

// Sets returns the sorted set names rec belongs to.
func (r *Registry) Sets(rec *Record) []string {
	if rec == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[rec.key]
	if !ok {
		return nil
	}
	names := e.sets.ToSlice()
	sort.Strings(names)
	return names
}

// SetNames returns every declared set name, sorted.
func (r *Registry) SetNames() []string {
	r.mu.RLock()
	names := r.sets.ToSlice()
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// PropertiesOf returns the records owned by address, in no particular order.
func (r *Registry) PropertiesOf(address string) []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Record
	for key, e := range r.entries {
		if key.Address == address {
			out = append(out, e.record)
		}
	}
	return out
}

// Records returns every registered record. The slice is a copy and may be
// iterated while the registry changes.
func (r *Registry) Records() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Record, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.record)
	}
	return out
}

// InSets returns the records belonging to at least one of names.
func (r *Registry) InSets(names ...string) []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Record
	for _, e := range r.entries {
		if slices.ContainsFunc(names, e.sets.ContainsOne) {
			out = append(out, e.record)
		}
	}
	return out
}

// Len returns the number of registered properties.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
