package packed

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/logging"
	"github.com/aalhour/packstore/internal/testutil"
)

func newStringArray(t *testing.T, cfg Config) *StringArray {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard
	}
	s := NewStringArray(t.Name(), cfg)
	s.Initialize()
	return s
}

func TestStringArrayFixture(t *testing.T) {
	s := newStringArray(t, Config{})

	inputs := []string{"test", "test\u1234", "test\u0085", "foobar"}
	handles := make([]int, len(inputs))
	for i, in := range inputs {
		handles[i] = s.MustAdd(in)
	}

	// Read back out of insertion order.
	for _, i := range []int{3, 1, 0, 2} {
		if got := s.Get(handles[i]); got != inputs[i] {
			t.Errorf("Get(%d) = %q, want %q", handles[i], got, inputs[i])
		}
	}
	if s.Size() != len(inputs) {
		t.Errorf("Size = %d, want %d", s.Size(), len(inputs))
	}
}

func TestStringArrayUnambiguousContent(t *testing.T) {
	s := newStringArray(t, Config{})
	tests := []string{
		"",
		"\x00",
		"a\x00b",
		"\u0085",
		"\u0085\u0085",
		"日本語テキスト",
		"emoji 🎉 and more 🚀",
		"\t\r\n\v\f",
		"\U0010FFFF",
	}
	handles := make([]int, len(tests))
	for i, in := range tests {
		handles[i] = s.MustAdd(in)
	}
	for i, in := range tests {
		if got := s.Get(handles[i]); got != in {
			t.Errorf("Get = %q, want %q", got, in)
		}
	}
}

func TestStringArrayInterning(t *testing.T) {
	s := newStringArray(t, Config{})
	h1 := s.MustAdd("shared")
	h2 := s.MustAdd("other")
	h3 := s.MustAdd("shared")

	if h1 != h3 {
		t.Errorf("duplicate content got handles %d and %d", h1, h3)
	}
	if h1 == h2 {
		t.Error("distinct content shares a handle")
	}
	if s.Size() != 2 {
		t.Errorf("Size = %d, want 2", s.Size())
	}
}

func TestStringArrayInterningDisabled(t *testing.T) {
	s := newStringArray(t, Config{PoolSize: -1})
	h1 := s.MustAdd("same")
	h2 := s.MustAdd("same")
	if h1 == h2 {
		t.Error("interning should be disabled")
	}
	if s.Get(h1) != s.Get(h2) {
		t.Error("identical content decodes differently")
	}
	if s.Size() != 2 {
		t.Errorf("Size = %d, want 2", s.Size())
	}
}

func TestStringArrayPoolEviction(t *testing.T) {
	s := newStringArray(t, Config{PoolSize: 2})
	a := s.MustAdd("a")
	s.MustAdd("b")
	s.MustAdd("c") // evicts "a"
	if again := s.MustAdd("a"); again == a {
		t.Error("evicted string should get a fresh handle")
	}
	if s.Size() != 4 {
		t.Errorf("Size = %d, want 4", s.Size())
	}
}

func TestStringArrayRejectsInvalidUTF8(t *testing.T) {
	s := newStringArray(t, Config{})
	if _, err := s.Add("bad \xff byte"); !errors.Is(err, collection.ErrInvalidEncoding) {
		t.Fatalf("Add(invalid) = %v, want ErrInvalidEncoding", err)
	}
	if s.Size() != 0 {
		t.Errorf("invalid string was stored")
	}
	testutil.ExpectPanic(t, collection.ErrInvalidEncoding, func() { s.MustAdd("\xc3") })
}

func TestStringArrayClipsOnRuneBoundary(t *testing.T) {
	var logs bytes.Buffer
	s := newStringArray(t, Config{
		Config:              collection.Config{Logger: logging.NewLogger(&logs, logging.LevelWarn)},
		MaximumStringLength: 5,
	})

	// "abcd" + 3-byte rune: the cut at 5 falls inside the rune.
	h := s.MustAdd("abcd\u1234xyz")
	if got := s.Get(h); got != "abcd" {
		t.Errorf("clipped = %q, want %q", got, "abcd")
	}
	if !strings.Contains(logs.String(), "[strings]") {
		t.Errorf("no clip warning logged: %q", logs.String())
	}

	short := s.MustAdd("ok")
	if s.Get(short) != "ok" {
		t.Errorf("short string altered: %q", s.Get(short))
	}
}

func TestStringArrayHandles(t *testing.T) {
	s := NewStringArray("uninit", Config{})
	testutil.ExpectPanic(t, collection.ErrNotInitialized, func() { s.MustAdd("x") })

	s = newStringArray(t, Config{})
	testutil.ExpectPanic(t, collection.ErrIndexOutOfRange, func() { s.Get(0) })
	if _, ok := s.SafeGet(7); ok {
		t.Error("SafeGet(7) reported ok")
	}
	h := s.MustAdd("x")
	if v, ok := s.SafeGet(h); !ok || v != "x" {
		t.Errorf("SafeGet = (%q, %v)", v, ok)
	}
}

func TestStringArrayCompress(t *testing.T) {
	s := newStringArray(t, Config{})
	inputs := []string{"alpha", "beta", "γάμμα"}
	var handles []int
	for _, in := range inputs {
		handles = append(handles, s.MustAdd(in))
	}
	bytesBefore := s.ByteSize()

	s.Compress(collection.Resize)
	for i, h := range handles {
		if s.Get(h) != inputs[i] {
			t.Errorf("Resize altered handle %d", h)
		}
	}
	if s.ByteSize() != bytesBefore {
		t.Errorf("ByteSize changed from %d to %d", bytesBefore, s.ByteSize())
	}
	// Still mutable after Resize.
	h := s.MustAdd("delta")
	if s.Get(h) != "delta" {
		t.Errorf("Add after Resize = %q", s.Get(h))
	}

	s.Compress(collection.Freeze)
	testutil.ExpectPanic(t, collection.ErrFrozen, func() { s.MustAdd("epsilon") })
	if s.Get(handles[2]) != "γάμμα" {
		t.Error("Freeze altered content")
	}
}

func TestStringArrayAll(t *testing.T) {
	s := newStringArray(t, Config{})
	s.MustAdd("x")
	s.MustAdd("y")
	var got []string
	for _, v := range s.All() {
		got = append(got, v)
	}
	if strings.Join(got, ",") != "x,y" {
		t.Errorf("All = %v", got)
	}
}

func TestStringArrayMarshalRoundTrip(t *testing.T) {
	s := newStringArray(t, Config{MaximumStringLength: 100})
	inputs := []string{"test", "test\u1234", "test\u0085", "foobar", ""}
	for _, in := range inputs {
		s.MustAdd(in)
	}

	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	r := NewStringArray("", Config{Config: collection.Config{Logger: logging.Discard}})
	if err := r.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if r.Size() != s.Size() || r.Name() != s.Name() {
		t.Fatalf("Size=%d Name=%q", r.Size(), r.Name())
	}
	for h := range s.Size() {
		if r.Get(h) != s.Get(h) {
			t.Errorf("handle %d = %q, want %q", h, r.Get(h), s.Get(h))
		}
	}
	// The pool is rebuilt, so existing content still deduplicates.
	if h := r.MustAdd("foobar"); h != 3 {
		t.Errorf("re-adding decoded content returned handle %d, want 3", h)
	}
}

func TestStringArrayUnmarshalRejectsInvalidUTF8(t *testing.T) {
	s := newStringArray(t, Config{})
	s.MustAdd("ok")
	// Smuggle invalid bytes in below the UTF-8 check.
	s.strings.Add([]byte{0xff, 0xfe})

	data, _ := s.MarshalBinary()
	var r StringArray
	err := r.UnmarshalBinary(data)
	if !errors.Is(err, collection.ErrCorrupt) || !errors.Is(err, collection.ErrInvalidEncoding) {
		t.Fatalf("UnmarshalBinary = %v, want ErrCorrupt wrapping ErrInvalidEncoding", err)
	}
}
