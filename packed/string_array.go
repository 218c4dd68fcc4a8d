// Package packed implements a packed string array: many strings stored as
// UTF-8 in one shared byte store and addressed by integer handles.
//
// Strings are stored with an explicit length rather than a terminator, so any
// content, including NUL and U+0085, round-trips exactly. Recently added
// strings are interned through a bounded LRU pool: adding the same content
// again returns the existing handle.
package packed

import (
	"fmt"
	"iter"
	"unicode/utf8"

	"github.com/aalhour/packstore/array"
	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/cache"
	"github.com/aalhour/packstore/internal/encoding"
	"github.com/aalhour/packstore/internal/logging"
)

// DefaultPoolSize is the number of strings the interning pool remembers.
const DefaultPoolSize = 65536

// Config configures a StringArray.
type Config struct {
	collection.Config

	// PoolSize bounds the interning pool. Zero selects DefaultPoolSize;
	// a negative value disables interning.
	PoolSize int

	// MaximumStringLength clips longer strings, on a rune boundary, with a
	// logged warning. Zero means unlimited.
	MaximumStringLength int
}

// StringArray maps strings to dense integer handles.
type StringArray struct {
	collection.Lifecycle
	cfg     Config
	strings *array.ByteArrayArray
	pool    *cache.LRU[string, int]
}

// NewStringArray returns an uninitialized StringArray. cfg.InitialSize sizes
// the byte store; cfg.MaximumSize bounds the number of handles.
func NewStringArray(name string, cfg Config) *StringArray {
	return &StringArray{Lifecycle: collection.NewLifecycle(name), cfg: cfg}
}

// Initialize allocates the byte store and the interning pool.
func (s *StringArray) Initialize() {
	s.MarkInitialized()
	s.cfg.Config = s.cfg.Config.WithDefaults()
	s.strings = array.NewByteArrayArray(s.Name()+".strings", s.cfg.Config)
	s.strings.Initialize()
	s.pool = newPool(s.cfg.PoolSize)
}

func newPool(size int) *cache.LRU[string, int] {
	if size == 0 {
		size = DefaultPoolSize
	}
	return cache.NewLRU[string, int](size)
}

// Kind returns collection.KindPackedStringArray.
func (s *StringArray) Kind() collection.Kind { return collection.KindPackedStringArray }

// Add stores value and returns its handle. Content already in the interning
// pool returns the existing handle. Invalid UTF-8 is rejected with
// ErrInvalidEncoding.
func (s *StringArray) Add(value string) (int, error) {
	s.AssertMutable()
	if !utf8.ValidString(value) {
		return 0, collection.ErrInvalidEncoding
	}
	value = s.clip(value)

	if s.pool != nil {
		if handle, ok := s.pool.Get(value); ok {
			return handle, nil
		}
	}
	handle := s.strings.Add([]byte(value))
	if s.pool != nil {
		s.pool.Put(value, handle)
	}
	return handle, nil
}

// MustAdd is like Add but panics on invalid UTF-8.
func (s *StringArray) MustAdd(value string) int {
	handle, err := s.Add(value)
	if err != nil {
		collection.Fail(err, "%s: %q", s.Name(), value)
	}
	return handle
}

func (s *StringArray) clip(value string) string {
	limit := s.cfg.MaximumStringLength
	if limit <= 0 || len(value) <= limit {
		return value
	}
	s.cfg.Logger.Warnf(logging.NSStrings+"%s: string of %d bytes exceeds maximum length %d", s.Name(), len(value), limit)
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}

// Get returns the string for handle, panicking with ErrIndexOutOfRange for a
// handle that was never issued.
func (s *StringArray) Get(handle int) string {
	s.AssertInitialized()
	return string(s.strings.View(handle))
}

// SafeGet returns the string for handle and whether the handle is valid.
func (s *StringArray) SafeGet(handle int) (string, bool) {
	s.AssertInitialized()
	if handle < 0 || handle >= s.strings.Size() {
		return "", false
	}
	return string(s.strings.View(handle)), true
}

// Size returns the number of handles issued.
func (s *StringArray) Size() int {
	s.AssertInitialized()
	return s.strings.Size()
}

// ByteSize returns the number of UTF-8 bytes stored.
func (s *StringArray) ByteSize() int {
	s.AssertInitialized()
	return s.strings.ElementCount()
}

// All iterates over (handle, string) pairs in handle order.
func (s *StringArray) All() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for h, b := range s.strings.All() {
			if !yield(h, string(b)) {
				return
			}
		}
	}
}

// Compress compresses the byte store and drops the interning pool. Handles
// and their strings are unchanged; later Adds no longer deduplicate against
// strings added before the Compress.
func (s *StringArray) Compress(method collection.Method) collection.Method {
	s.AssertInitialized()
	if s.IsFrozen() {
		return collection.Freeze
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	s.strings.Compress(method)
	s.MarkCompressed(method)
	return method
}

// MarshalBinary encodes the string array. The interning pool is not stored.
func (s *StringArray) MarshalBinary() ([]byte, error) {
	s.AssertInitialized()
	inner, err := s.strings.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var e encoding.Encoder
	e.PutString(s.Name())
	e.PutByte(byte(s.State()))
	e.PutUvarint(uint64(max(s.cfg.MaximumStringLength, 0)))
	e.PutLengthPrefixed(inner)
	return e.Bytes(), nil
}

// UnmarshalBinary replaces the string array with the contents of data.
// Decoded strings must be valid UTF-8.
func (s *StringArray) UnmarshalBinary(data []byte) error {
	d := encoding.NewDecoder(data)
	name := d.GetString()
	state := collection.State(d.GetByte())
	maxLength := d.GetUvarint()
	inner := d.GetLengthPrefixed()
	if err := d.Finish(); err != nil {
		return collection.Corrupt("packed strings", err)
	}

	strings := &array.ByteArrayArray{}
	if err := strings.UnmarshalBinary(inner); err != nil {
		return err
	}
	for h, b := range strings.All() {
		if !utf8.Valid(b) {
			return collection.Corrupt(fmt.Sprintf("packed strings: handle %d", h), collection.ErrInvalidEncoding)
		}
	}
	if state == collection.Uninitialized {
		return collection.Corrupt("packed strings: uninitialized state", nil)
	}
	if err := s.Restore(name, state); err != nil {
		return err
	}
	s.cfg.Config = s.cfg.Config.WithDefaults()
	s.cfg.MaximumStringLength = int(maxLength)
	s.strings = strings
	s.pool = nil
	if state == collection.Initialized {
		s.pool = newPool(s.cfg.PoolSize)
		for h, b := range strings.All() {
			s.pool.Put(string(b), h)
		}
	}
	return nil
}
