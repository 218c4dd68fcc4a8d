package collection

import "fmt"

// State is a collection's position in its lifecycle.
type State uint8

const (
	// Uninitialized collections have no backing storage yet.
	Uninitialized State = iota
	// Initialized collections are allocated and mutable.
	Initialized
	// Resized collections have trimmed storage and remain mutable.
	Resized
	// Frozen collections are immutable. Frozen is terminal.
	Frozen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Resized:
		return "resized"
	case Frozen:
		return "frozen"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Method selects what Compress does.
type Method uint8

const (
	// Resize shrinks backing storage to the logical size. The collection stays
	// mutable and later appends regrow the storage.
	Resize Method = iota + 1
	// Freeze trims storage and makes the collection immutable.
	Freeze
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case Resize:
		return "resize"
	case Freeze:
		return "freeze"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// Compressible is implemented by every collection.
type Compressible interface {
	// Compress applies method and returns the method actually applied.
	Compress(method Method) Method
}

// Lifecycle tracks a collection's state and enforces the usage contract.
// Collections embed it and call the Assert helpers at the top of each
// operation.
type Lifecycle struct {
	name  string
	state State
}

// NewLifecycle returns an uninitialized lifecycle for the named collection.
func NewLifecycle(name string) Lifecycle {
	return Lifecycle{name: name}
}

// Name returns the collection's name, used in logs and panics.
func (l *Lifecycle) Name() string { return l.name }

// State returns the current state.
func (l *Lifecycle) State() State { return l.state }

// IsInitialized reports whether Initialize has been called.
func (l *Lifecycle) IsInitialized() bool { return l.state != Uninitialized }

// IsFrozen reports whether the collection is immutable.
func (l *Lifecycle) IsFrozen() bool { return l.state == Frozen }

// MarkInitialized moves from Uninitialized to Initialized.
func (l *Lifecycle) MarkInitialized() {
	if l.state != Uninitialized {
		Fail(ErrAlreadyInitialized, "%s", l.name)
	}
	l.state = Initialized
}

// MarkCompressed records that method has been applied.
func (l *Lifecycle) MarkCompressed(method Method) {
	l.AssertInitialized()
	switch method {
	case Resize:
		if l.state != Frozen {
			l.state = Resized
		}
	case Freeze:
		l.state = Frozen
	default:
		panic(fmt.Errorf("collection: %s: unknown compress method %s", l.name, method))
	}
}

// Restore sets the state directly. It is used when decoding.
func (l *Lifecycle) Restore(name string, state State) error {
	if state > Frozen {
		return Corrupt(fmt.Sprintf("state %d", state), nil)
	}
	l.name = name
	l.state = state
	return nil
}

// AssertInitialized panics with ErrNotInitialized before Initialize.
func (l *Lifecycle) AssertInitialized() {
	if l.state == Uninitialized {
		Fail(ErrNotInitialized, "%s", l.name)
	}
}

// AssertMutable panics unless the collection is initialized and not frozen.
func (l *Lifecycle) AssertMutable() {
	l.AssertInitialized()
	if l.state == Frozen {
		Fail(ErrFrozen, "%s", l.name)
	}
}
