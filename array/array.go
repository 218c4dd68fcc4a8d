package array

import (
	"iter"
	"slices"

	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/checksum"
	"github.com/aalhour/packstore/internal/encoding"
	"github.com/aalhour/packstore/internal/logging"
)

// Primitive is the set of element types an Array can hold.
type Primitive interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// Array is a growable array of primitive values.
type Array[T Primitive] struct {
	collection.Lifecycle
	cfg  collection.Config
	data []T
}

type (
	// ByteArray is an Array of bytes.
	ByteArray = Array[byte]
	// ShortArray is an Array of 16-bit integers.
	ShortArray = Array[int16]
	// IntArray is an Array of 32-bit integers.
	IntArray = Array[int32]
	// LongArray is an Array of 64-bit integers.
	LongArray = Array[int64]
)

// New returns an uninitialized array. Call Initialize before use.
func New[T Primitive](name string, cfg collection.Config) *Array[T] {
	return &Array[T]{Lifecycle: collection.NewLifecycle(name), cfg: cfg}
}

// NewByteArray returns an uninitialized ByteArray.
func NewByteArray(name string, cfg collection.Config) *ByteArray { return New[byte](name, cfg) }

// NewShortArray returns an uninitialized ShortArray.
func NewShortArray(name string, cfg collection.Config) *ShortArray { return New[int16](name, cfg) }

// NewIntArray returns an uninitialized IntArray.
func NewIntArray(name string, cfg collection.Config) *IntArray { return New[int32](name, cfg) }

// NewLongArray returns an uninitialized LongArray.
func NewLongArray(name string, cfg collection.Config) *LongArray { return New[int64](name, cfg) }

// Initialize allocates the initial backing storage. It must be called exactly
// once, before any other operation.
func (a *Array[T]) Initialize() {
	a.MarkInitialized()
	a.cfg = a.cfg.WithDefaults()
	if a.cfg.InitialSize > collection.LargeAllocation {
		a.cfg.Logger.Infof(logging.NSArray+"%s allocated %d elements", a.Name(), a.cfg.InitialSize)
	}
	a.data = make([]T, 0, a.cfg.InitialSize)
}

// Kind returns the serialized type tag for T.
func (a *Array[T]) Kind() collection.Kind {
	return kindOf[T](collection.KindByteArray, collection.KindShortArray, collection.KindIntArray, collection.KindLongArray)
}

// kindOf picks the kind matching T's width, or KindUnknown for element types
// without a registered kind.
func kindOf[T Primitive](b, s, i, l collection.Kind) collection.Kind {
	var zero T
	switch any(zero).(type) {
	case byte:
		return b
	case int16:
		return s
	case int32:
		return i
	case int64:
		return l
	default:
		return collection.KindUnknown
	}
}

// Add appends value and returns its index.
func (a *Array[T]) Add(value T) int {
	a.AssertMutable()
	a.ensureRoomFor(1)
	a.data = append(a.data, value)
	return len(a.data) - 1
}

// AddAll appends values in order.
func (a *Array[T]) AddAll(values ...T) {
	a.AssertMutable()
	a.ensureRoomFor(len(values))
	a.data = append(a.data, values...)
}

// Set stores value at index, growing the array if index is past the end.
// Elements between the old end and index read as zero.
func (a *Array[T]) Set(index int, value T) {
	a.AssertMutable()
	if index < 0 {
		collection.Fail(collection.ErrIndexOutOfRange, "%s: index %d", a.Name(), index)
	}
	if index >= len(a.data) {
		a.ensureRoomFor(index + 1 - len(a.data))
		a.data = a.data[:index+1]
	}
	a.data[index] = value
}

// Get returns the value at index. It panics with ErrIndexOutOfRange if index
// is not below Size.
func (a *Array[T]) Get(index int) T {
	a.AssertInitialized()
	if index < 0 || index >= len(a.data) {
		collection.Fail(collection.ErrIndexOutOfRange, "%s: index %d, size %d", a.Name(), index, len(a.data))
	}
	return a.data[index]
}

// SafeGet returns the value at index and whether index was in range.
func (a *Array[T]) SafeGet(index int) (T, bool) {
	a.AssertInitialized()
	if index < 0 || index >= len(a.data) {
		var zero T
		return zero, false
	}
	return a.data[index], true
}

// Size returns the number of elements.
func (a *Array[T]) Size() int { return len(a.data) }

// Capacity returns the number of elements the backing storage can hold
// before growing.
func (a *Array[T]) Capacity() int { return cap(a.data) }

// IsEmpty reports whether the array has no elements.
func (a *Array[T]) IsEmpty() bool { return len(a.data) == 0 }

// Clear removes all elements, keeping the backing storage.
func (a *Array[T]) Clear() {
	a.AssertMutable()
	a.data = a.data[:0]
}

// Slice returns a copy of length elements starting at offset.
func (a *Array[T]) Slice(offset, length int) []T {
	return slices.Clone(a.View(offset, length))
}

// View returns length elements starting at offset without copying. The result
// aliases the array and must not be modified; it is invalidated by the next
// mutation or Compress.
func (a *Array[T]) View(offset, length int) []T {
	a.AssertInitialized()
	if offset < 0 || length < 0 || offset+length > len(a.data) {
		collection.Fail(collection.ErrIndexOutOfRange, "%s: range [%d, %d) of %d", a.Name(), offset, offset+length, len(a.data))
	}
	end := offset + length
	return a.data[offset:end:end]
}

// Values iterates over the elements in index order.
func (a *Array[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range a.data {
			if !yield(v) {
				return
			}
		}
	}
}

// Equal reports whether a and other hold the same elements in the same order.
func (a *Array[T]) Equal(other *Array[T]) bool {
	if other == nil {
		return false
	}
	return slices.Equal(a.data, other.data)
}

// Hash returns an order-dependent hash of the elements.
func (a *Array[T]) Hash() uint64 {
	return hashValues(a.data)
}

func hashValues[T Primitive](values []T) uint64 {
	h := uint64(len(values))
	for _, v := range values {
		h = h*0x100000001B3 ^ checksum.HashInt64(int64(v))
	}
	return h
}

// Compress applies method: Resize trims capacity to Size, Freeze trims and
// makes the array immutable. It returns the method applied.
func (a *Array[T]) Compress(method collection.Method) collection.Method {
	a.AssertInitialized()
	if a.IsFrozen() {
		return collection.Freeze
	}
	if cap(a.data) > len(a.data) {
		trimmed := make([]T, len(a.data))
		copy(trimmed, a.data)
		a.data = trimmed
	}
	a.MarkCompressed(method)
	return method
}

// Freeze compresses the array with collection.Freeze and returns an
// immutable view of its contents.
func (a *Array[T]) Freeze() Frozen[T] {
	a.Compress(collection.Freeze)
	return Frozen[T]{data: a.data}
}

// ensureRoomFor grows the backing storage to fit n more elements, doubling
// the capacity. It panics when the result would exceed MaximumSize.
func (a *Array[T]) ensureRoomFor(n int) {
	needed := len(a.data) + n
	if needed > a.cfg.MaximumSize {
		collection.Fail(collection.ErrCapacityExceeded, "%s: %d elements, maximum %d", a.Name(), needed, a.cfg.MaximumSize)
	}
	if needed <= cap(a.data) {
		return
	}
	newCap := max(2*cap(a.data), needed, 16)
	newCap = min(newCap, a.cfg.MaximumSize)
	grown := make([]T, len(a.data), newCap)
	copy(grown, a.data)
	a.data = grown
}

// MarshalBinary encodes the array's name, state and elements.
func (a *Array[T]) MarshalBinary() ([]byte, error) {
	a.AssertInitialized()
	var e encoding.Encoder
	a.encode(&e)
	return e.Bytes(), nil
}

func (a *Array[T]) encode(e *encoding.Encoder) {
	e.PutString(a.Name())
	e.PutByte(byte(a.State()))
	e.PutUvarint(uint64(len(a.data)))
	for _, v := range a.data {
		e.PutVarint(int64(v))
	}
}

// UnmarshalBinary replaces the array with the contents of data.
func (a *Array[T]) UnmarshalBinary(data []byte) error {
	d := encoding.NewDecoder(data)
	if err := a.decode(d); err != nil {
		return err
	}
	if err := d.Finish(); err != nil {
		return collection.Corrupt("array", err)
	}
	return nil
}

func (a *Array[T]) decode(d *encoding.Decoder) error {
	name := d.GetString()
	state := collection.State(d.GetByte())
	n := d.GetCount(1)
	values := make([]T, n)
	for i := range values {
		values[i] = T(d.GetVarint())
	}
	if err := d.Err(); err != nil {
		return collection.Corrupt("array", err)
	}
	if state == collection.Uninitialized {
		return collection.Corrupt("array: uninitialized state", nil)
	}
	if err := a.Restore(name, state); err != nil {
		return err
	}
	a.cfg = a.cfg.WithDefaults()
	a.data = values
	return nil
}
