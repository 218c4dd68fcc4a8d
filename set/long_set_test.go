package set

import (
	"errors"
	"slices"
	"testing"

	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/logging"
	"github.com/aalhour/packstore/internal/testutil"
)

var quiet = collection.Config{Logger: logging.Discard}

func newSet(t *testing.T, values ...int64) *LongSet {
	t.Helper()
	s := New(t.Name(), quiet)
	s.Initialize()
	s.AddAll(values...)
	return s
}

func TestLongSetAddRemoveContains(t *testing.T) {
	s := newSet(t)
	if !s.Add(5) || s.Add(5) {
		t.Fatal("Add did not report novelty correctly")
	}
	if !s.Contains(5) || s.Contains(6) {
		t.Fatal("Contains disagrees with Add")
	}
	if !s.Remove(5) || s.Remove(5) {
		t.Fatal("Remove did not report presence correctly")
	}
	if !s.IsEmpty() {
		t.Fatalf("Size = %d after removing the only member", s.Size())
	}
}

func TestLongSetExtremeValues(t *testing.T) {
	values := []int64{0, -1, 1, -1 << 63, 1<<63 - 1}
	s := newSet(t, values...)
	if s.Size() != len(values) {
		t.Fatalf("Size = %d, want %d", s.Size(), len(values))
	}
	if got := s.Sorted(); !slices.Equal(got, []int64{-1 << 63, -1, 0, 1, 1<<63 - 1}) {
		t.Fatalf("Sorted = %v", got)
	}
}

func TestLongSetGrowthAndRemoval(t *testing.T) {
	s := New("growth", collection.Config{InitialSize: 2, Logger: logging.Discard})
	s.Initialize()
	for v := range int64(10000) {
		s.Add(v * 7)
	}
	for v := int64(0); v < 10000; v += 2 {
		if !s.Remove(v * 7) {
			t.Fatalf("Remove(%d) = false", v*7)
		}
	}
	if s.Size() != 5000 {
		t.Fatalf("Size = %d, want 5000", s.Size())
	}
	for v := range int64(10000) {
		if got, want := s.Contains(v*7), v%2 == 1; got != want {
			t.Fatalf("Contains(%d) = %v, want %v", v*7, got, want)
		}
	}
}

func TestLongSetClear(t *testing.T) {
	s := newSet(t, 1, 2, 3)
	s.Clear()
	if s.Size() != 0 || s.Contains(1) {
		t.Fatal("members survived Clear")
	}
	if n := len(slices.Collect(s.Values())); n != 0 {
		t.Fatalf("Values yielded %d members after Clear", n)
	}
	if !s.Add(2) || s.Size() != 1 {
		t.Fatal("set unusable after Clear")
	}

	s.gen = ^uint32(0)
	s.stamps[0] = s.gen
	s.Clear()
	if s.gen != 1 || slices.ContainsFunc(s.stamps, func(st uint32) bool { return st != 0 }) {
		t.Fatal("generation wrap did not reset stamps")
	}
}

func TestLongSetEqualIgnoresHistory(t *testing.T) {
	a := newSet(t, 1, 2, 3)
	b := newSet(t, 3, 9, 2, 1, 9)
	b.Remove(9)
	b.Compress(collection.Resize)

	if !a.Equal(b) || !b.Equal(a) {
		t.Fatal("sets with the same members are not equal")
	}
	if a.Hash() != b.Hash() {
		t.Fatal("hash depends on insertion history")
	}
	b.Add(4)
	if a.Equal(b) {
		t.Fatal("sets with different members are equal")
	}
}

func TestLongSetFreeze(t *testing.T) {
	s := newSet(t, 10, 10, -3, 7)
	before := s.Hash()

	frozen := s.Freeze()
	if frozen.Size() != 3 || s.Size() != 3 {
		t.Fatalf("frozen size %d, set size %d, want 3", frozen.Size(), s.Size())
	}
	for _, v := range []int64{10, -3, 7} {
		if !s.Contains(v) || !frozen.Contains(v) {
			t.Errorf("Contains(%d) = false after freeze", v)
		}
	}
	if s.Contains(8) || frozen.Contains(8) {
		t.Error("Contains(8) = true after freeze")
	}
	if got := slices.Collect(frozen.Values()); !slices.Equal(got, []int64{-3, 7, 10}) {
		t.Errorf("frozen Values = %v", got)
	}
	if s.Hash() != before || frozen.Hash() != before {
		t.Error("Freeze changed the hash")
	}

	testutil.ExpectPanic(t, collection.ErrFrozen, func() { s.Add(1) })
	testutil.ExpectPanic(t, collection.ErrFrozen, func() { s.Remove(7) })
	testutil.ExpectPanic(t, collection.ErrFrozen, s.Clear)
	if got := s.Compress(collection.Resize); got != collection.Freeze {
		t.Fatalf("Compress on frozen set = %v", got)
	}
	if s.Freeze() != frozen {
		t.Fatal("second Freeze returned a different set")
	}
}

func TestLongSetLifecycle(t *testing.T) {
	s := New("lifecycle", quiet)
	testutil.ExpectPanic(t, collection.ErrNotInitialized, func() { s.Add(1) })
	testutil.ExpectPanic(t, collection.ErrNotInitialized, func() { s.Contains(1) })

	bounded := New("bounded", collection.Config{MaximumSize: 2, Logger: logging.Discard})
	bounded.Initialize()
	bounded.AddAll(1, 2, 2)
	testutil.ExpectPanic(t, collection.ErrCapacityExceeded, func() { bounded.Add(3) })
}

func TestLongSetBinaryRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		method collection.Method
	}{
		{"initialized", 0},
		{"resized", collection.Resize},
		{"frozen", collection.Freeze},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSet(t, 4, -9, 1<<62, 0)
			s.Remove(0)
			if tt.method != 0 {
				s.Compress(tt.method)
			}
			data, err := s.MarshalBinary()
			if err != nil {
				t.Fatal(err)
			}
			got := New("", quiet)
			if err := got.UnmarshalBinary(data); err != nil {
				t.Fatal(err)
			}
			if got.State() != s.State() || got.Name() != s.Name() {
				t.Fatalf("decoded %q %v, want %q %v", got.Name(), got.State(), s.Name(), s.State())
			}
			if got.Size() != 3 || !got.Equal(s) || got.Contains(0) {
				t.Fatalf("decoded members %v", got.Sorted())
			}
		})
	}
}

func TestLongSetRejectsUnsortedMembers(t *testing.T) {
	s := newSet(t, 1, 2)
	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	// The last byte is the gap between 1 and 2; a zero gap is a duplicate.
	data[len(data)-1] = 0
	err = New("", quiet).UnmarshalBinary(data)
	if !errors.Is(err, collection.ErrCorrupt) {
		t.Fatalf("error %v, want ErrCorrupt", err)
	}
}
