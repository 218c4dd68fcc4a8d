// Package encoding provides the binary primitives used to serialize packed
// collections.
//
// All multi-byte integers are little-endian. Variable-length integers use
// 7-bit groups with an MSB continuation bit; signed values are zig-zag mapped
// first so small negative numbers stay short.
package encoding

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxVarint64Length is the maximum number of bytes a varint64 can occupy.
const MaxVarint64Length = 10

var (
	// ErrBufferTooSmall is returned when the input ends before a value does.
	ErrBufferTooSmall = errors.New("encoding: buffer too small")

	// ErrVarintOverflow is returned when a varint exceeds 64 bits.
	ErrVarintOverflow = errors.New("encoding: varint overflow")

	// ErrVarintTermination is returned when a varint runs off the end of the input.
	ErrVarintTermination = errors.New("encoding: varint not terminated")
)

// -----------------------------------------------------------------------------
// Fixed-width encoding (little-endian)
// -----------------------------------------------------------------------------

// AppendFixed64 appends a little-endian uint64 to dst and returns the extended slice.
func AppendFixed64(dst []byte, value uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, value)
}

// DecodeFixed64 decodes a uint64 from an 8-byte little-endian buffer.
// REQUIRES: src has at least 8 bytes.
func DecodeFixed64(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src)
}

// -----------------------------------------------------------------------------
// Variable-length encoding
// -----------------------------------------------------------------------------

// AppendVarint64 appends value as a varint to dst and returns the extended slice.
func AppendVarint64(dst []byte, value uint64) []byte {
	const B = 128
	for value >= B {
		dst = append(dst, byte(value&(B-1))|B)
		value >>= 7
	}
	return append(dst, byte(value))
}

// DecodeVarint64 decodes a varint64 from src.
// Returns the decoded value and the number of bytes consumed.
func DecodeVarint64(src []byte) (value uint64, bytesRead int, err error) {
	for shift := uint(0); shift < 64; shift += 7 {
		if bytesRead >= len(src) {
			return 0, 0, ErrVarintTermination
		}
		b := src[bytesRead]
		bytesRead++
		if b < 128 {
			value |= uint64(b) << shift
			return value, bytesRead, nil
		}
		value |= uint64(b&0x7f) << shift
	}
	return 0, 0, ErrVarintOverflow
}

// VarintLength returns the number of bytes needed to encode v as a varint.
func VarintLength(v uint64) int {
	length := 1
	for v >= 128 {
		v >>= 7
		length++
	}
	return length
}

// ZigZag maps a signed value onto an unsigned one so that values of small
// magnitude encode short regardless of sign.
func ZigZag(v int64) uint64 {
	return (uint64(v) << 1) ^ uint64(v>>63)
}

// UnZigZag reverses ZigZag.
func UnZigZag(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}

// -----------------------------------------------------------------------------
// Encoder / Decoder
// -----------------------------------------------------------------------------

// Encoder appends encoded values to a byte slice.
// The zero value is ready to use.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder that appends to dst.
func NewEncoder(dst []byte) *Encoder {
	return &Encoder{buf: dst}
}

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of encoded bytes.
func (e *Encoder) Len() int { return len(e.buf) }

// PutByte appends a single byte.
func (e *Encoder) PutByte(b byte) { e.buf = append(e.buf, b) }

// PutBool appends a boolean as one byte.
func (e *Encoder) PutBool(v bool) {
	if v {
		e.PutByte(1)
	} else {
		e.PutByte(0)
	}
}

// PutUvarint appends an unsigned varint.
func (e *Encoder) PutUvarint(v uint64) { e.buf = AppendVarint64(e.buf, v) }

// PutVarint appends a zig-zag signed varint.
func (e *Encoder) PutVarint(v int64) { e.buf = AppendVarint64(e.buf, ZigZag(v)) }

// PutFixed64 appends a little-endian uint64.
func (e *Encoder) PutFixed64(v uint64) { e.buf = AppendFixed64(e.buf, v) }

// PutLengthPrefixed appends a length-prefixed byte slice.
func (e *Encoder) PutLengthPrefixed(b []byte) {
	e.PutUvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// PutString appends a length-prefixed string.
func (e *Encoder) PutString(s string) {
	e.PutUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// Decoder reads values written by an Encoder. The first failure sticks:
// subsequent reads return zero values and Err reports the original error.
type Decoder struct {
	data []byte
	pos  int
	err  error
}

// NewDecoder creates a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Err returns the first decoding error, if any.
func (d *Decoder) Err() error { return d.err }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.pos }

func (d *Decoder) fail(err error, what string) {
	if d.err == nil {
		d.err = fmt.Errorf("%s at offset %d: %w", what, d.pos, err)
	}
}

// GetByte reads one byte.
func (d *Decoder) GetByte() byte {
	if d.err != nil {
		return 0
	}
	if d.pos >= len(d.data) {
		d.fail(ErrBufferTooSmall, "byte")
		return 0
	}
	b := d.data[d.pos]
	d.pos++
	return b
}

// GetBool reads a boolean byte.
func (d *Decoder) GetBool() bool { return d.GetByte() != 0 }

// GetUvarint reads an unsigned varint.
func (d *Decoder) GetUvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := DecodeVarint64(d.data[d.pos:])
	if err != nil {
		d.fail(err, "uvarint")
		return 0
	}
	d.pos += n
	return v
}

// GetVarint reads a zig-zag signed varint.
func (d *Decoder) GetVarint() int64 { return UnZigZag(d.GetUvarint()) }

// GetFixed64 reads a little-endian uint64.
func (d *Decoder) GetFixed64() uint64 {
	if d.err != nil {
		return 0
	}
	if d.Remaining() < 8 {
		d.fail(ErrBufferTooSmall, "fixed64")
		return 0
	}
	v := DecodeFixed64(d.data[d.pos:])
	d.pos += 8
	return v
}

// GetCount reads a length and checks it against the remaining input, assuming
// each element occupies at least minSize bytes. It guards allocations sized
// from untrusted input.
func (d *Decoder) GetCount(minSize int) int {
	n := d.GetUvarint()
	if d.err != nil {
		return 0
	}
	if minSize > 0 && n > uint64(d.Remaining()/minSize) {
		d.fail(ErrBufferTooSmall, "count")
		return 0
	}
	return int(n)
}

// GetLengthPrefixed reads a length-prefixed byte slice. The result aliases the
// decoder's input.
func (d *Decoder) GetLengthPrefixed() []byte {
	n := d.GetCount(1)
	if d.err != nil {
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b
}

// GetString reads a length-prefixed string.
func (d *Decoder) GetString() string { return string(d.GetLengthPrefixed()) }

// Finish reports an error if input remains after the last read.
func (d *Decoder) Finish() error {
	if d.err == nil && d.Remaining() != 0 {
		d.err = fmt.Errorf("%d trailing bytes at offset %d", d.Remaining(), d.pos)
	}
	return d.err
}
