package collection

import (
	"math"

	"github.com/aalhour/packstore/internal/logging"
)

const (
	// DefaultInitialSize is the element capacity allocated by Initialize
	// when Config.InitialSize is zero.
	DefaultInitialSize = 1024

	// LargeAllocation is the element count above which allocations are
	// logged at INFO.
	LargeAllocation = 1 << 20
)

// Logger is an alias for the logging.Logger interface.
// Implement this interface to route collection logs elsewhere.
type Logger = logging.Logger

// Config sizes a collection. The zero value is usable.
type Config struct {
	// InitialSize is the number of elements allocated by Initialize.
	// Default: 1024.
	InitialSize int

	// MaximumSize bounds the number of elements. Growth past it panics with
	// ErrCapacityExceeded. Default: unbounded.
	MaximumSize int

	// Logger receives allocation and warning messages.
	// Default: WARN-level logger on stderr.
	Logger Logger
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.InitialSize <= 0 {
		c.InitialSize = DefaultInitialSize
	}
	if c.MaximumSize <= 0 {
		c.MaximumSize = math.MaxInt
	}
	if c.InitialSize > c.MaximumSize {
		c.InitialSize = c.MaximumSize
	}
	c.Logger = logging.OrDefault(c.Logger)
	return c
}

// Kind tags the concrete collection type in serialized form.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindByteArray
	KindShortArray
	KindIntArray
	KindLongArray
	KindByteArrayArray
	KindIntArrayArray
	KindLongArrayArray
	KindPackedStringArray
	KindLongToLongFixedMultiMap
	KindIntToByteFixedMultiMap
	KindLongToLongMultiMap
	KindLongToIntMultiMap
	KindLongSet
)

var kindNames = [...]string{
	KindUnknown:                 "Unknown",
	KindByteArray:               "ByteArray",
	KindShortArray:              "ShortArray",
	KindIntArray:                "IntArray",
	KindLongArray:               "LongArray",
	KindByteArrayArray:          "ByteArrayArray",
	KindIntArrayArray:           "IntArrayArray",
	KindLongArrayArray:          "LongArrayArray",
	KindPackedStringArray:       "PackedStringArray",
	KindLongToLongFixedMultiMap: "LongToLongFixedMultiMap",
	KindIntToByteFixedMultiMap:  "IntToByteFixedMultiMap",
	KindLongToLongMultiMap:      "LongToLongMultiMap",
	KindLongToIntMultiMap:       "LongToIntMultiMap",
	KindLongSet:                 "LongSet",
}

// String returns the kind's type name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Valid reports whether k names a known collection type.
func (k Kind) Valid() bool {
	return k > KindUnknown && int(k) < len(kindNames)
}

// Collection is implemented by every packed collection.
type Collection interface {
	Compressible

	// Name returns the collection's name.
	Name() string

	// Kind returns the serialized type tag.
	Kind() Kind

	// Size returns the number of logical entries.
	Size() int

	// MarshalBinary encodes the collection's contents.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary replaces the collection's contents with data.
	UnmarshalBinary(data []byte) error
}
