package collection

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized reports use of a collection before Initialize.
	ErrNotInitialized = errors.New("collection: not initialized")

	// ErrAlreadyInitialized reports a second call to Initialize.
	ErrAlreadyInitialized = errors.New("collection: already initialized")

	// ErrFrozen reports a mutation attempted after Compress(Freeze).
	ErrFrozen = errors.New("collection: frozen")

	// ErrIndexOutOfRange reports an index or handle that was never issued.
	ErrIndexOutOfRange = errors.New("collection: index out of range")

	// ErrCapacityExceeded reports growth past a configured maximum.
	ErrCapacityExceeded = errors.New("collection: capacity exceeded")

	// ErrInvalidEncoding reports input that cannot be stored faithfully,
	// such as a string that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("collection: invalid encoding")

	// ErrCorrupt reports serialized data that fails validation.
	ErrCorrupt = errors.New("collection: corrupt data")

	// ErrKindMismatch reports a blob decoded into the wrong collection type.
	ErrKindMismatch = errors.New("collection: kind mismatch")
)

// Fail panics with an error wrapping sentinel. It is used for usage errors.
func Fail(sentinel error, format string, args ...any) {
	panic(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

// Corrupt wraps err as ErrCorrupt with context.
func Corrupt(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrCorrupt, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrCorrupt, what, err)
}
