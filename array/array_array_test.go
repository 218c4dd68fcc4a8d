package array

import (
	"errors"
	"slices"
	"testing"

	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/logging"
	"github.com/aalhour/packstore/internal/testutil"
)

func newByteArrayArray(t *testing.T) *ByteArrayArray {
	t.Helper()
	aa := NewByteArrayArray(t.Name(), collection.Config{InitialSize: 8, Logger: logging.Discard})
	aa.Initialize()
	return aa
}

func TestByteArrayArrayRoundTrip(t *testing.T) {
	aa := newByteArrayArray(t)
	inputs := [][]byte{
		[]byte("first"),
		{},
		{0, 1, 2, 255},
		[]byte("a much longer sub-array that forces the store to grow"),
		nil,
	}

	handles := make([]int, len(inputs))
	for i, in := range inputs {
		handles[i] = aa.Add(in)
		if handles[i] != i {
			t.Fatalf("handle %d, want sequential %d", handles[i], i)
		}
	}

	for i, in := range inputs {
		got := aa.Get(handles[i])
		if !slices.Equal(got, in) {
			t.Errorf("Get(%d) = %v, want %v", i, got, in)
		}
		if aa.Length(handles[i]) != len(in) {
			t.Errorf("Length(%d) = %d, want %d", i, aa.Length(handles[i]), len(in))
		}
	}
	if aa.Size() != len(inputs) {
		t.Errorf("Size = %d", aa.Size())
	}
}

func TestArrayArrayGetReturnsCopy(t *testing.T) {
	aa := newByteArrayArray(t)
	h := aa.Add([]byte("abc"))
	in := []byte("xyz")
	h2 := aa.Add(in)
	in[0] = '!'

	got := aa.Get(h)
	got[0] = 'Z'
	if string(aa.Get(h)) != "abc" {
		t.Error("Get aliased the store")
	}
	if string(aa.Get(h2)) != "xyz" {
		t.Error("Add did not copy its input")
	}
}

func TestLongArrayArray(t *testing.T) {
	aa := NewLongArrayArray("longs", quiet)
	aa.Initialize()
	h1 := aa.Add([]int64{1, -2, 3})
	h2 := aa.Add([]int64{})
	h3 := aa.Add([]int64{1 << 62})

	if !slices.Equal(aa.Get(h1), []int64{1, -2, 3}) {
		t.Errorf("Get(h1) = %v", aa.Get(h1))
	}
	if len(aa.Get(h2)) != 0 || aa.Length(h2) != 0 {
		t.Errorf("empty sub-array = %v", aa.Get(h2))
	}
	if aa.Get(h3)[0] != 1<<62 {
		t.Errorf("Get(h3) = %v", aa.Get(h3))
	}
	if aa.ElementCount() != 4 {
		t.Errorf("ElementCount = %d", aa.ElementCount())
	}
	if aa.Kind() != collection.KindLongArrayArray {
		t.Errorf("Kind = %s", aa.Kind())
	}
}

func TestArrayArrayHandlesStableAcrossCompress(t *testing.T) {
	aa := newByteArrayArray(t)
	var handles []int
	for i := range 50 {
		handles = append(handles, aa.Add(slices.Repeat([]byte{byte(i)}, i)))
	}
	aa.Compress(collection.Resize)
	for i, h := range handles {
		if !slices.Equal(aa.Get(h), slices.Repeat([]byte{byte(i)}, i)) {
			t.Fatalf("handle %d changed after Resize", h)
		}
	}

	aa.Compress(collection.Freeze)
	testutil.ExpectPanic(t, collection.ErrFrozen, func() { aa.Add([]byte("x")) })
	if aa.Length(handles[10]) != 10 {
		t.Errorf("Length after Freeze = %d", aa.Length(handles[10]))
	}
}

func TestArrayArrayErrors(t *testing.T) {
	aa := NewIntArrayArray("ints", quiet)
	testutil.ExpectPanic(t, collection.ErrNotInitialized, func() { aa.Add([]int32{1}) })
	aa.Initialize()
	testutil.ExpectPanic(t, collection.ErrIndexOutOfRange, func() { aa.Get(0) })
	aa.Add([]int32{1})
	testutil.ExpectPanic(t, collection.ErrIndexOutOfRange, func() { aa.Length(1) })
	testutil.ExpectPanic(t, collection.ErrIndexOutOfRange, func() { aa.View(-1) })

	bounded := NewIntArrayArray("bounded", collection.Config{MaximumSize: 1, Logger: logging.Discard})
	bounded.Initialize()
	bounded.Add(nil)
	testutil.ExpectPanic(t, collection.ErrCapacityExceeded, func() { bounded.Add(nil) })
}

func TestArrayArrayAll(t *testing.T) {
	aa := newByteArrayArray(t)
	aa.Add([]byte("a"))
	aa.Add([]byte("bb"))
	var got []string
	for h, v := range aa.All() {
		if h != len(got) {
			t.Errorf("handle %d out of order", h)
		}
		got = append(got, string(v))
	}
	if !slices.Equal(got, []string{"a", "bb"}) {
		t.Errorf("All = %v", got)
	}
}

func TestArrayArrayMarshalRoundTrip(t *testing.T) {
	aa := newByteArrayArray(t)
	aa.Add([]byte("one"))
	aa.Add(nil)
	aa.Add([]byte{0xFF, 0x00})

	data, err := aa.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var bb ByteArrayArray
	if err := bb.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if !aa.Equal(&bb) {
		t.Error("round trip not equal")
	}
	// Decoded structure stays mutable and keeps handing out handles.
	if h := bb.Add([]byte("four")); h != 3 {
		t.Errorf("next handle = %d, want 3", h)
	}
}

func TestArrayArrayUnmarshalRejectsBadIndex(t *testing.T) {
	aa := newByteArrayArray(t)
	aa.Add([]byte("abc"))

	// Hand-build a blob whose index points past the store.
	evil := newByteArrayArray(t)
	evil.store.AddAll('a')
	evil.offsets.Add(0)
	evil.lengths.Add(5)
	data, _ := evil.MarshalBinary()

	var bb ByteArrayArray
	if err := bb.UnmarshalBinary(data); !errors.Is(err, collection.ErrCorrupt) {
		t.Fatalf("UnmarshalBinary = %v, want ErrCorrupt", err)
	}
}
