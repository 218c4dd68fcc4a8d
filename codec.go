package packstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/checksum"
	"github.com/aalhour/packstore/internal/compression"
	"github.com/aalhour/packstore/internal/encoding"
	"github.com/aalhour/packstore/internal/logging"
	"github.com/aalhour/packstore/internal/mempool"
)

const (
	// Magic opens every blob.
	Magic = "PKST"

	// Version is the blob format version written by Marshal.
	Version = 1

	// MaxBlobSize bounds the decoded payload size accepted by Unmarshal.
	MaxBlobSize = math.MaxInt32

	checksumSize = 8
	fixedHeader  = len(Magic) + 4
)

// Flags describe the encoded collection.
type Flags uint8

const (
	// FlagFrozen is set when the collection was frozen when written.
	FlagFrozen Flags = 1 << iota
)

// Re-exported decode errors.
var (
	ErrCorrupt      = collection.ErrCorrupt
	ErrKindMismatch = collection.ErrKindMismatch
)

// CompressionType selects the payload codec.
type CompressionType = compression.Type

// Supported payload codecs.
const (
	NoCompression     = compression.NoCompression
	SnappyCompression = compression.SnappyCompression
	ZlibCompression   = compression.ZlibCompression
	LZ4Compression    = compression.LZ4Compression
	LZ4HCCompression  = compression.LZ4HCCompression
	ZstdCompression   = compression.ZstdCompression
)

// ParseCompression converts a codec name such as "zstd" into a CompressionType.
func ParseCompression(name string) (CompressionType, error) {
	return compression.ParseType(name)
}

// Options control how blobs are written.
type Options struct {
	// Compression is the payload codec. Payloads that do not shrink are
	// stored uncompressed.
	// Default: NoCompression
	Compression CompressionType

	// Logger receives codec diagnostics.
	// Default: WARN-level logger on stderr.
	Logger collection.Logger
}

// Header is the decoded blob header.
type Header struct {
	Version     uint8
	Kind        collection.Kind
	Compression CompressionType
	Flags       Flags
	// RawSize is the payload size before compression.
	RawSize int
	// StoredSize is the payload size as stored.
	StoredSize int
	Checksum   uint64
}

// Frozen reports whether the collection was frozen when written.
func (h Header) Frozen() bool { return h.Flags&FlagFrozen != 0 }

// Marshal encodes c as a blob.
func Marshal(c collection.Collection, opts Options) ([]byte, error) {
	return appendBlob(nil, c, opts)
}

// appendBlob appends the blob for c to dst.
func appendBlob(dst []byte, c collection.Collection, opts Options) ([]byte, error) {
	logger := logging.OrDefault(opts.Logger)
	if !c.Kind().Valid() {
		return nil, fmt.Errorf("packstore: %s: %w: %s", c.Name(), ErrKindMismatch, c.Kind())
	}
	if !opts.Compression.IsSupported() {
		return nil, fmt.Errorf("packstore: unsupported compression %s", opts.Compression)
	}
	raw, err := c.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("packstore: encode %s: %w", c.Name(), err)
	}
	if len(raw) > MaxBlobSize {
		return nil, fmt.Errorf("packstore: %s: payload of %d bytes exceeds %d", c.Name(), len(raw), MaxBlobSize)
	}

	codec, payload := opts.Compression, raw
	if codec != NoCompression {
		compressed, err := compression.Compress(codec, raw)
		if err != nil {
			return nil, fmt.Errorf("packstore: %s compress %s: %w", codec, c.Name(), err)
		}
		if len(compressed) < len(raw) {
			payload = compressed
		} else {
			logger.Debugf(logging.NSCodec+"%s: %s did not shrink %d bytes, storing raw", c.Name(), codec, len(raw))
			codec = NoCompression
		}
	}

	var flags Flags
	if f, ok := c.(interface{ IsFrozen() bool }); ok && f.IsFrozen() {
		flags |= FlagFrozen
	}

	start := len(dst)
	e := encoding.NewEncoder(dst)
	for i := range len(Magic) {
		e.PutByte(Magic[i])
	}
	e.PutByte(Version)
	e.PutByte(byte(c.Kind()))
	e.PutByte(byte(codec))
	e.PutByte(byte(flags))
	e.PutUvarint(uint64(len(raw)))
	out := append(e.Bytes(), payload...)
	out = encoding.AppendFixed64(out, checksum.Compute(checksum.TypeXXH3, out[start:]))
	logger.Debugf(logging.NSCodec+"%s: wrote %s blob, %d raw bytes, %d stored, %s", c.Name(), c.Kind(), len(raw), len(payload), codec)
	return out, nil
}

// Inspect verifies data's framing and checksum and returns its header
// without decoding the payload.
func Inspect(data []byte) (Header, error) {
	h, _, err := parse(data)
	return h, err
}

func parse(data []byte) (Header, []byte, error) {
	var h Header
	if len(data) < fixedHeader+1+checksumSize {
		return h, nil, fmt.Errorf("%w: blob of %d bytes is too short", ErrCorrupt, len(data))
	}
	if string(data[:len(Magic)]) != Magic {
		return h, nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[:len(Magic)])
	}
	body := data[:len(data)-checksumSize]
	h.Checksum = encoding.DecodeFixed64(data[len(body):])
	if actual := checksum.Compute(checksum.TypeXXH3, body); actual != h.Checksum {
		return h, nil, fmt.Errorf("%w: checksum mismatch: stored %#016x, computed %#016x", ErrCorrupt, h.Checksum, actual)
	}

	d := encoding.NewDecoder(body[len(Magic):])
	h.Version = d.GetByte()
	h.Kind = collection.Kind(d.GetByte())
	h.Compression = CompressionType(d.GetByte())
	h.Flags = Flags(d.GetByte())
	rawSize := d.GetUvarint()
	if err := d.Err(); err != nil {
		return h, nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	switch {
	case h.Version != Version:
		return h, nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, h.Version)
	case !h.Kind.Valid():
		return h, nil, fmt.Errorf("%w: unknown kind %d", ErrCorrupt, uint8(h.Kind))
	case !h.Compression.IsSupported():
		return h, nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, uint8(h.Compression))
	case rawSize > MaxBlobSize:
		return h, nil, fmt.Errorf("%w: payload of %d bytes", ErrCorrupt, rawSize)
	}
	h.RawSize = int(rawSize)
	payload := body[len(body)-d.Remaining():]
	h.StoredSize = len(payload)
	if h.Compression == NoCompression && h.StoredSize != h.RawSize {
		return h, nil, fmt.Errorf("%w: stored %d bytes, header says %d", ErrCorrupt, h.StoredSize, h.RawSize)
	}
	return h, payload, nil
}

// Unmarshal verifies data and decodes it into c, which must be of the kind
// that wrote the blob. c does not retain data.
func Unmarshal(data []byte, c collection.Collection) error {
	h, payload, err := parse(data)
	if err != nil {
		return err
	}
	if h.Kind != c.Kind() {
		return fmt.Errorf("%w: blob holds %s, target is %s", ErrKindMismatch, h.Kind, c.Kind())
	}
	return decodePayload(h, payload, c)
}

func decodePayload(h Header, payload []byte, c collection.Collection) error {
	raw, err := compression.Decompress(h.Compression, payload, h.RawSize)
	if err != nil {
		return fmt.Errorf("%w: %s payload: %w", ErrCorrupt, h.Compression, err)
	}
	if len(raw) != h.RawSize {
		return fmt.Errorf("%w: decompressed %d bytes, header says %d", ErrCorrupt, len(raw), h.RawSize)
	}
	if err := c.UnmarshalBinary(raw); err != nil {
		if !errors.Is(err, ErrCorrupt) {
			err = fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return err
	}
	return nil
}

// Decode verifies data and returns a new collection of the kind it holds.
func Decode(data []byte) (collection.Collection, error) {
	h, payload, err := parse(data)
	if err != nil {
		return nil, err
	}
	c, err := NewCollection(h.Kind)
	if err != nil {
		return nil, err
	}
	if err := decodePayload(h, payload, c); err != nil {
		return nil, err
	}
	return c, nil
}

// WriteTo writes c to w as a blob and returns the number of bytes written.
func WriteTo(w io.Writer, c collection.Collection, opts Options) (int64, error) {
	buf := mempool.GlobalPool.Get(4 << 10)
	out, err := appendBlob(buf, c, opts)
	if err != nil {
		mempool.GlobalPool.Put(buf)
		return 0, err
	}
	n, err := w.Write(out)
	mempool.GlobalPool.Put(out)
	return int64(n), err
}

// ReadFrom reads one blob from r until EOF and decodes it into c.
func ReadFrom(r io.Reader, c collection.Collection) error {
	buf := bytes.NewBuffer(mempool.GlobalPool.Get(4 << 10))
	if _, err := buf.ReadFrom(io.LimitReader(r, MaxBlobSize+64)); err != nil {
		return fmt.Errorf("packstore: read blob: %w", err)
	}
	defer mempool.GlobalPool.Put(buf.Bytes())
	return Unmarshal(buf.Bytes(), c)
}
