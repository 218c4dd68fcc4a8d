package array

import (
	"iter"
	"slices"

	"github.com/aalhour/packstore/collection"
)

// Frozen is an immutable array produced by Array.Freeze. It has no mutators;
// the zero value is an empty array.
type Frozen[T Primitive] struct {
	data []T
}

// Get returns the value at index, panicking with ErrIndexOutOfRange if index
// is not below Size.
func (f Frozen[T]) Get(index int) T {
	if index < 0 || index >= len(f.data) {
		collection.Fail(collection.ErrIndexOutOfRange, "frozen: index %d, size %d", index, len(f.data))
	}
	return f.data[index]
}

// SafeGet returns the value at index and whether index was in range.
func (f Frozen[T]) SafeGet(index int) (T, bool) {
	if index < 0 || index >= len(f.data) {
		var zero T
		return zero, false
	}
	return f.data[index], true
}

// Size returns the number of elements.
func (f Frozen[T]) Size() int { return len(f.data) }

// Slice returns a copy of the elements.
func (f Frozen[T]) Slice() []T { return slices.Clone(f.data) }

// Values iterates over the elements in index order.
func (f Frozen[T]) Values() iter.Seq[T] { return slices.Values(f.data) }

// Hash returns the same value as Array.Hash for equal contents.
func (f Frozen[T]) Hash() uint64 { return hashValues(f.data) }
