package array

import (
	"fmt"
	"iter"
	"math"

	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/encoding"
)

// ArrayArray stores variable-length sub-arrays in one backing Array.
// Each Add records the sub-array's offset and length and returns a handle;
// handles are dense, start at 0, and stay valid for the life of the
// structure. Sub-arrays are never modified after insertion.
type ArrayArray[T Primitive] struct {
	collection.Lifecycle
	cfg     collection.Config
	store   *Array[T]
	offsets *Array[int64]
	lengths *Array[int32]
}

type (
	// ByteArrayArray is an ArrayArray of bytes.
	ByteArrayArray = ArrayArray[byte]
	// IntArrayArray is an ArrayArray of 32-bit integers.
	IntArrayArray = ArrayArray[int32]
	// LongArrayArray is an ArrayArray of 64-bit integers.
	LongArrayArray = ArrayArray[int64]
)

// NewArrayArray returns an uninitialized ArrayArray. cfg.InitialSize sizes
// the backing store in elements; cfg.MaximumSize bounds the number of
// sub-arrays.
func NewArrayArray[T Primitive](name string, cfg collection.Config) *ArrayArray[T] {
	return &ArrayArray[T]{Lifecycle: collection.NewLifecycle(name), cfg: cfg}
}

// NewByteArrayArray returns an uninitialized ByteArrayArray.
func NewByteArrayArray(name string, cfg collection.Config) *ByteArrayArray {
	return NewArrayArray[byte](name, cfg)
}

// NewIntArrayArray returns an uninitialized IntArrayArray.
func NewIntArrayArray(name string, cfg collection.Config) *IntArrayArray {
	return NewArrayArray[int32](name, cfg)
}

// NewLongArrayArray returns an uninitialized LongArrayArray.
func NewLongArrayArray(name string, cfg collection.Config) *LongArrayArray {
	return NewArrayArray[int64](name, cfg)
}

// Initialize allocates the backing store and index.
func (aa *ArrayArray[T]) Initialize() {
	aa.MarkInitialized()
	aa.cfg = aa.cfg.WithDefaults()

	indexSize := max(aa.cfg.InitialSize/8, 16)
	indexCfg := collection.Config{InitialSize: indexSize, Logger: aa.cfg.Logger}

	aa.store = New[T](aa.Name()+".store", collection.Config{InitialSize: aa.cfg.InitialSize, Logger: aa.cfg.Logger})
	aa.offsets = New[int64](aa.Name()+".offsets", indexCfg)
	aa.lengths = New[int32](aa.Name()+".lengths", indexCfg)
	aa.store.Initialize()
	aa.offsets.Initialize()
	aa.lengths.Initialize()
}

// Kind returns the serialized type tag for T.
func (aa *ArrayArray[T]) Kind() collection.Kind {
	return kindOf[T](collection.KindByteArrayArray, collection.KindUnknown, collection.KindIntArrayArray, collection.KindLongArrayArray)
}

// Add copies values into the backing store and returns the new handle.
// An empty slice is a valid sub-array.
func (aa *ArrayArray[T]) Add(values []T) int {
	aa.AssertMutable()
	if aa.offsets.Size() >= aa.cfg.MaximumSize {
		collection.Fail(collection.ErrCapacityExceeded, "%s: maximum %d sub-arrays", aa.Name(), aa.cfg.MaximumSize)
	}
	if len(values) > math.MaxInt32 {
		collection.Fail(collection.ErrCapacityExceeded, "%s: sub-array of %d elements", aa.Name(), len(values))
	}
	offset := aa.store.Size()
	aa.store.AddAll(values...)
	aa.offsets.Add(int64(offset))
	return aa.lengths.Add(int32(len(values)))
}

// Get returns a copy of the sub-array for handle.
func (aa *ArrayArray[T]) Get(handle int) []T {
	offset, length := aa.locate(handle)
	return aa.store.Slice(offset, length)
}

// View returns the sub-array for handle without copying. The result must not
// be modified and is invalidated by the next Add or Compress.
func (aa *ArrayArray[T]) View(handle int) []T {
	offset, length := aa.locate(handle)
	return aa.store.View(offset, length)
}

// Length returns the length of the sub-array for handle.
func (aa *ArrayArray[T]) Length(handle int) int {
	_, length := aa.locate(handle)
	return length
}

// Size returns the number of sub-arrays.
func (aa *ArrayArray[T]) Size() int {
	aa.AssertInitialized()
	return aa.offsets.Size()
}

// ElementCount returns the total number of elements across all sub-arrays.
func (aa *ArrayArray[T]) ElementCount() int {
	aa.AssertInitialized()
	return aa.store.Size()
}

// All iterates over (handle, view) pairs in handle order. Views follow the
// same rules as View.
func (aa *ArrayArray[T]) All() iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		for h := range aa.Size() {
			if !yield(h, aa.View(h)) {
				return
			}
		}
	}
}

// Equal reports whether both structures hold the same sub-arrays under the
// same handles.
func (aa *ArrayArray[T]) Equal(other *ArrayArray[T]) bool {
	if other == nil || aa.Size() != other.Size() {
		return false
	}
	for h := range aa.Size() {
		a, b := aa.View(h), other.View(h)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// Compress applies method to the backing store and index.
func (aa *ArrayArray[T]) Compress(method collection.Method) collection.Method {
	aa.AssertInitialized()
	if aa.IsFrozen() {
		return collection.Freeze
	}
	aa.store.Compress(method)
	aa.offsets.Compress(method)
	aa.lengths.Compress(method)
	aa.MarkCompressed(method)
	return method
}

func (aa *ArrayArray[T]) locate(handle int) (offset, length int) {
	aa.AssertInitialized()
	if handle < 0 || handle >= aa.offsets.Size() {
		collection.Fail(collection.ErrIndexOutOfRange, "%s: handle %d, size %d", aa.Name(), handle, aa.offsets.Size())
	}
	return int(aa.offsets.Get(handle)), int(aa.lengths.Get(handle))
}

// MarshalBinary encodes the structure.
func (aa *ArrayArray[T]) MarshalBinary() ([]byte, error) {
	aa.AssertInitialized()
	var e encoding.Encoder
	e.PutString(aa.Name())
	e.PutByte(byte(aa.State()))
	aa.store.encode(&e)
	aa.offsets.encode(&e)
	aa.lengths.encode(&e)
	return e.Bytes(), nil
}

// UnmarshalBinary replaces the structure with the contents of data. The index
// is validated against the store so a corrupt blob cannot produce handles
// that read out of range.
func (aa *ArrayArray[T]) UnmarshalBinary(data []byte) error {
	d := encoding.NewDecoder(data)
	name := d.GetString()
	state := collection.State(d.GetByte())
	if err := d.Err(); err != nil {
		return collection.Corrupt("array of arrays", err)
	}

	store, offsets, lengths := &Array[T]{}, &Array[int64]{}, &Array[int32]{}
	for _, part := range []interface {
		decode(*encoding.Decoder) error
	}{store, offsets, lengths} {
		if err := part.decode(d); err != nil {
			return err
		}
	}
	if err := d.Finish(); err != nil {
		return collection.Corrupt("array of arrays", err)
	}
	if err := validateIndex(store.Size(), offsets.data, lengths.data); err != nil {
		return err
	}
	if state == collection.Uninitialized {
		return collection.Corrupt("array of arrays: uninitialized state", nil)
	}
	if err := aa.Restore(name, state); err != nil {
		return err
	}
	aa.cfg = aa.cfg.WithDefaults()
	aa.store, aa.offsets, aa.lengths = store, offsets, lengths
	return nil
}

func validateIndex(storeSize int, offsets []int64, lengths []int32) error {
	if len(offsets) != len(lengths) {
		return collection.Corrupt(fmt.Sprintf("index has %d offsets and %d lengths", len(offsets), len(lengths)), nil)
	}
	for i := range offsets {
		if offsets[i] < 0 || lengths[i] < 0 || offsets[i]+int64(lengths[i]) > int64(storeSize) {
			return collection.Corrupt(fmt.Sprintf("handle %d spans [%d, +%d) of %d", i, offsets[i], lengths[i], storeSize), nil)
		}
	}
	return nil
}
