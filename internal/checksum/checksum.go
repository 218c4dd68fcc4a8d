// Package checksum computes blob checksums and the integer hashes used to
// place primitive values in open-addressed tables.
package checksum

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/zeebo/xxh3"
)

// Type represents the type of checksum algorithm.
type Type uint8

const (
	// TypeNoChecksum means no checksum is used.
	TypeNoChecksum Type = 0
	// TypeCRC32C is CRC32C (Castagnoli) checksum.
	TypeCRC32C Type = 1
	// TypeXXH3 is the 64-bit XXH3 hash.
	TypeXXH3 Type = 4
)

// String returns a human-readable name for the checksum type.
func (t Type) String() string {
	switch t {
	case TypeNoChecksum:
		return "NoChecksum"
	case TypeCRC32C:
		return "CRC32C"
	case TypeXXH3:
		return "XXH3"
	default:
		return "Unknown"
	}
}

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Compute returns the checksum of data for the given type, widened to 64 bits.
func Compute(t Type, data []byte) uint64 {
	switch t {
	case TypeCRC32C:
		return uint64(crc32.Checksum(data, crc32cTable))
	case TypeXXH3:
		return xxh3.Hash(data)
	default:
		return 0
	}
}

// HashInt64 hashes a single 64-bit value with XXH3.
func HashInt64(v int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return xxh3.Hash(buf[:])
}

// HashString hashes a string with XXH3.
func HashString(s string) uint64 {
	return xxh3.HashString(s)
}
