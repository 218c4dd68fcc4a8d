// Package set provides LongSet, an open-addressed set of int64 values, and
// FrozenLongSet, its immutable sorted form.
//
// Slots are located by an XXH3 hash of the value and probed linearly.
// Removal shifts later entries of the same probe run back instead of leaving
// tombstones, so lookups never scan deleted slots. Occupancy is tracked with
// a generation stamp per slot, which makes Clear constant time.
package set
