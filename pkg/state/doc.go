// Package state defines the storage contract for keyed snapshots and an
// in-memory implementation that preserves first-save key order.
//
// A Store only keeps values; it knows nothing about what a snapshot holds.
// The props package stores cloned property records in it:
//
//	Properties.Capture -> Store.Save(key, clones, Meta)
//	Properties.Restore -> Store.Load(key) -> apply each record
//
// Meta carries the snapshot id, an ETag for optimistic concurrency, and the
// time of the last save. Re-saving a key replaces its value and meta but keeps
// the key's position in Keys.
package state
