package array

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/logging"
	"github.com/aalhour/packstore/internal/testutil"
)

var quiet = collection.Config{Logger: logging.Discard}

func newLongArray(t *testing.T) *LongArray {
	t.Helper()
	a := NewLongArray(t.Name(), quiet)
	a.Initialize()
	return a
}

func TestArrayAddGet(t *testing.T) {
	a := newLongArray(t)
	for i := range int64(100) {
		if idx := a.Add(i * 3); idx != int(i) {
			t.Fatalf("Add returned index %d, want %d", idx, i)
		}
	}
	if a.Size() != 100 {
		t.Fatalf("Size = %d, want 100", a.Size())
	}
	for i := range 100 {
		if got := a.Get(i); got != int64(i*3) {
			t.Errorf("Get(%d) = %d, want %d", i, got, i*3)
		}
	}
}

func TestArrayUseBeforeInitialize(t *testing.T) {
	a := NewLongArray("uninit", quiet)
	testutil.ExpectPanic(t, collection.ErrNotInitialized, func() { a.Add(1) })
	testutil.ExpectPanic(t, collection.ErrNotInitialized, func() { a.Get(0) })
	testutil.ExpectPanic(t, collection.ErrNotInitialized, func() { a.Compress(collection.Resize) })

	a.Initialize()
	testutil.ExpectPanic(t, collection.ErrAlreadyInitialized, a.Initialize)
}

func TestArrayIndexOutOfRange(t *testing.T) {
	a := newLongArray(t)
	a.Add(1)
	testutil.ExpectPanic(t, collection.ErrIndexOutOfRange, func() { a.Get(1) })
	testutil.ExpectPanic(t, collection.ErrIndexOutOfRange, func() { a.Get(-1) })
	testutil.ExpectPanic(t, collection.ErrIndexOutOfRange, func() { a.View(0, 2) })

	if _, ok := a.SafeGet(5); ok {
		t.Error("SafeGet(5) reported ok")
	}
	if v, ok := a.SafeGet(0); !ok || v != 1 {
		t.Errorf("SafeGet(0) = (%d, %v)", v, ok)
	}
}

func TestArrayGrowthIsGeometric(t *testing.T) {
	a := NewIntArray("growth", collection.Config{InitialSize: 1, Logger: logging.Discard})
	a.Initialize()

	reallocations := 0
	lastCap := a.Capacity()
	for i := range 100_000 {
		a.Add(int32(i))
		if a.Capacity() != lastCap {
			reallocations++
			lastCap = a.Capacity()
		}
	}
	// Doubling from 16 reaches 100k in about 13 steps.
	if reallocations > 20 {
		t.Errorf("%d reallocations for 100k appends; growth is not geometric", reallocations)
	}
}

func TestArrayMaximumSize(t *testing.T) {
	a := NewByteArray("bounded", collection.Config{InitialSize: 2, MaximumSize: 4, Logger: logging.Discard})
	a.Initialize()
	a.AddAll(1, 2, 3, 4)
	if a.Capacity() > 4 {
		t.Errorf("Capacity = %d exceeds maximum", a.Capacity())
	}
	testutil.ExpectPanic(t, collection.ErrCapacityExceeded, func() { a.Add(5) })
	if a.Size() != 4 {
		t.Errorf("Size after failed Add = %d, want 4", a.Size())
	}
}

func TestArraySetGrows(t *testing.T) {
	a := newLongArray(t)
	a.Set(5, 42)
	if a.Size() != 6 {
		t.Fatalf("Size = %d, want 6", a.Size())
	}
	for i := range 5 {
		if a.Get(i) != 0 {
			t.Errorf("gap element %d = %d, want 0", i, a.Get(i))
		}
	}
	a.Set(2, 7)
	if a.Get(2) != 7 || a.Get(5) != 42 {
		t.Errorf("Set overwrote wrong slot: %v", slices.Collect(a.Values()))
	}
	testutil.ExpectPanic(t, collection.ErrIndexOutOfRange, func() { a.Set(-1, 0) })
}

func TestArrayCompressResize(t *testing.T) {
	a := NewLongArray("resize", collection.Config{InitialSize: 1000, Logger: logging.Discard})
	a.Initialize()
	a.AddAll(1, 2, 3)

	if m := a.Compress(collection.Resize); m != collection.Resize {
		t.Fatalf("Compress returned %s", m)
	}
	if a.Capacity() != 3 {
		t.Errorf("Capacity after Resize = %d, want 3", a.Capacity())
	}
	if a.State() != collection.Resized {
		t.Errorf("State = %s", a.State())
	}

	// Still mutable: appends regrow the storage.
	a.Add(4)
	if a.Size() != 4 || a.Get(3) != 4 {
		t.Errorf("append after Resize failed: %v", slices.Collect(a.Values()))
	}
}

func TestArrayCompressFreeze(t *testing.T) {
	a := newLongArray(t)
	a.AddAll(10, 20, 30)
	before := a.Hash()

	a.Compress(collection.Freeze)
	if a.Capacity() != 3 {
		t.Errorf("Capacity after Freeze = %d", a.Capacity())
	}
	if a.Hash() != before {
		t.Error("Freeze changed the hash")
	}
	if a.Get(1) != 20 {
		t.Errorf("Get(1) after Freeze = %d", a.Get(1))
	}

	testutil.ExpectPanic(t, collection.ErrFrozen, func() { a.Add(1) })
	testutil.ExpectPanic(t, collection.ErrFrozen, func() { a.Set(0, 1) })
	testutil.ExpectPanic(t, collection.ErrFrozen, a.Clear)

	// Freeze is terminal.
	if m := a.Compress(collection.Resize); m != collection.Freeze {
		t.Errorf("Compress(Resize) on frozen array returned %s", m)
	}
}

func TestArrayFreezeValue(t *testing.T) {
	a := newLongArray(t)
	a.AddAll(5, 6, 7)
	f := a.Freeze()

	if !a.IsFrozen() {
		t.Fatal("Freeze did not freeze the source array")
	}
	if f.Size() != 3 || f.Get(2) != 7 {
		t.Errorf("Frozen contents = %v", f.Slice())
	}
	if f.Hash() != a.Hash() {
		t.Error("Frozen.Hash differs from Array.Hash")
	}
	if !slices.Equal(slices.Collect(f.Values()), []int64{5, 6, 7}) {
		t.Errorf("Frozen.Values = %v", slices.Collect(f.Values()))
	}
	testutil.ExpectPanic(t, collection.ErrIndexOutOfRange, func() { f.Get(3) })

	var empty Frozen[int64]
	if empty.Size() != 0 {
		t.Error("zero Frozen not empty")
	}
}

func TestArraySliceIsCopy(t *testing.T) {
	a := NewByteArray("bytes", quiet)
	a.Initialize()
	a.AddAll([]byte("hello")...)

	s := a.Slice(1, 3)
	s[0] = 'X'
	if a.Get(1) != 'e' {
		t.Error("Slice aliased the backing storage")
	}
	if string(a.View(1, 3)) != "ell" {
		t.Errorf("View = %q", a.View(1, 3))
	}
	if v := a.View(0, 0); len(v) != 0 {
		t.Errorf("empty View = %v", v)
	}
}

func TestArrayClearAndEqual(t *testing.T) {
	a, b := newLongArray(t), NewLongArray("other", quiet)
	b.Initialize()
	a.AddAll(1, 2)
	b.AddAll(1, 2)
	if !a.Equal(b) || a.Hash() != b.Hash() {
		t.Fatal("equal arrays compare unequal")
	}
	b.Add(3)
	if a.Equal(b) {
		t.Fatal("different arrays compare equal")
	}
	a.Clear()
	if !a.IsEmpty() {
		t.Errorf("Size after Clear = %d", a.Size())
	}
	if a.Equal(nil) {
		t.Error("Equal(nil) = true")
	}
}

func TestArrayKinds(t *testing.T) {
	tests := []struct {
		name string
		kind collection.Kind
		want collection.Kind
	}{
		{"byte", NewByteArray("b", quiet).Kind(), collection.KindByteArray},
		{"short", NewShortArray("s", quiet).Kind(), collection.KindShortArray},
		{"int", NewIntArray("i", quiet).Kind(), collection.KindIntArray},
		{"long", NewLongArray("l", quiet).Kind(), collection.KindLongArray},
		{"uint32", New[uint32]("u", quiet).Kind(), collection.KindUnknown},
	}
	for _, tt := range tests {
		if tt.kind != tt.want {
			t.Errorf("%s: Kind = %s, want %s", tt.name, tt.kind, tt.want)
		}
	}
}

func TestArrayMarshalRoundTrip(t *testing.T) {
	a := newLongArray(t)
	a.AddAll(0, -1, 1, math.MaxInt64, math.MinInt64, 1<<40)
	a.Compress(collection.Freeze)

	data, err := a.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var b LongArray
	if err := b.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if !a.Equal(&b) {
		t.Errorf("round trip = %v, want %v", slices.Collect(b.Values()), slices.Collect(a.Values()))
	}
	if b.Name() != a.Name() || !b.IsFrozen() {
		t.Errorf("round trip name=%q state=%s", b.Name(), b.State())
	}
	testutil.ExpectPanic(t, collection.ErrFrozen, func() { b.Add(1) })
}

func TestArrayMarshalUnsigned(t *testing.T) {
	a := New[uint64]("u64", quiet)
	a.Initialize()
	a.AddAll(0, math.MaxUint64, 1<<63)

	data, _ := a.MarshalBinary()
	b := New[uint64]("", quiet)
	if err := b.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Errorf("uint64 round trip = %v", slices.Collect(b.Values()))
	}
}

func TestArrayUnmarshalCorrupt(t *testing.T) {
	a := newLongArray(t)
	a.AddAll(1, 2, 3)
	data, _ := a.MarshalBinary()

	var b LongArray
	for _, bad := range [][]byte{nil, data[:len(data)-1], append(slices.Clone(data), 0)} {
		if err := b.UnmarshalBinary(bad); !errors.Is(err, collection.ErrCorrupt) {
			t.Errorf("UnmarshalBinary(%x) = %v, want ErrCorrupt", bad, err)
		}
	}
}
