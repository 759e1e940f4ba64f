package props

import "fmt"

// Record holds the last captured value of one property together with the
// metadata needed to re-apply it: owner address and accessor names, owner id
// and class, and the declared type.
//
// Records handed out by the Registry are live: Properties refreshes their
// value before persisting them. Clones taken for snapshots are independent.
type Record struct {
	key      Key
	id       int
	class    string
	typ      Type
	value    Value
	inactive bool
}

// NewRecord builds a detached record, as produced by decoding a properties
// file. Its declared type is taken from value.
func NewRecord(key Key, value Value) *Record {
	return &Record{key: key, typ: value.Type(), value: value}
}

// Key returns the property identity.
func (r *Record) Key() Key { return r.key }

// Address returns the owner address.
func (r *Record) Address() string { return r.key.Address }

// Setter returns the setter name.
func (r *Record) Setter() string { return r.key.Setter }

// Getter returns the getter name.
func (r *Record) Getter() string { return r.key.Getter }

// ID returns the owner's numeric id captured at the last refresh.
func (r *Record) ID() int { return r.id }

// Class returns the owner's class name captured at the last refresh.
func (r *Record) Class() string { return r.class }

// Type returns the declared type.
func (r *Record) Type() Type { return r.typ }

// Value returns the captured value.
func (r *Record) Value() Value { return r.value }

// Active reports whether the record takes part in save operations.
func (r *Record) Active() bool { return !r.inactive }

// SetActive toggles participation in save operations.
func (r *Record) SetActive(active bool) *Record {
	r.inactive = !active
	return r
}

// WithOwner sets the owner id and class. It is used by decoders.
func (r *Record) WithOwner(id int, class string) *Record {
	r.id = id
	r.class = class
	return r
}

// Clone returns a deep copy that shares nothing mutable with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.value = r.value.Clone()
	return &out
}

func (r *Record) String() string {
	return fmt.Sprintf("%s (%s) = %s", r.key, r.typ, r.value)
}

func cloneRecords(records []*Record) []*Record {
	out := make([]*Record, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec.Clone())
		}
	}
	return out
}
