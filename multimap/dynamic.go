package multimap

import (
	"iter"
	"maps"
	"slices"

	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/encoding"
	"github.com/aalhour/packstore/internal/logging"
)

// Dynamic maps each key to a growable list of values. Lists read back in
// reverse insertion order: the most recently added value comes first.
type Dynamic[K Key, V Value] struct {
	collection.Lifecycle
	cfg   collection.Config
	kind  collection.Kind
	heads map[K]int32
	store *ListStore[V]
}

type (
	// LongToLongMultiMap maps int64 keys to lists of int64 values.
	LongToLongMultiMap = Dynamic[int64, int64]
	// LongToIntMultiMap maps int64 keys to lists of int32 values.
	LongToIntMultiMap = Dynamic[int64, int32]
)

// NewDynamic returns an uninitialized dynamic multimap. cfg.InitialSize sizes
// the value store; cfg.MaximumSize bounds the number of keys.
func NewDynamic[K Key, V Value](name string, cfg collection.Config) *Dynamic[K, V] {
	return &Dynamic[K, V]{Lifecycle: collection.NewLifecycle(name), cfg: cfg, kind: dynamicKind[K, V]()}
}

func dynamicKind[K Key, V Value]() collection.Kind {
	var key K
	var value V
	if _, ok := any(key).(int64); !ok {
		return collection.KindUnknown
	}
	switch any(value).(type) {
	case int64:
		return collection.KindLongToLongMultiMap
	case int32:
		return collection.KindLongToIntMultiMap
	}
	return collection.KindUnknown
}

// NewLongToLongMultiMap returns an uninitialized LongToLongMultiMap.
func NewLongToLongMultiMap(name string, cfg collection.Config) *LongToLongMultiMap {
	return NewDynamic[int64, int64](name, cfg)
}

// NewLongToIntMultiMap returns an uninitialized LongToIntMultiMap.
func NewLongToIntMultiMap(name string, cfg collection.Config) *LongToIntMultiMap {
	return NewDynamic[int64, int32](name, cfg)
}

// Initialize allocates the key index and value store.
func (m *Dynamic[K, V]) Initialize() {
	m.MarkInitialized()
	m.cfg = m.cfg.WithDefaults()
	if m.cfg.InitialSize > collection.LargeAllocation {
		m.cfg.Logger.Infof(logging.NSMultiMap+"%s allocated %d values", m.Name(), m.cfg.InitialSize)
	}
	m.heads = make(map[K]int32)
	m.store = NewListStore[V](m.Name(), collection.Config{InitialSize: m.cfg.InitialSize, Logger: m.cfg.Logger})
}

// Kind returns the serialized type tag.
func (m *Dynamic[K, V]) Kind() collection.Kind { return m.kind }

// Add appends value to key's list.
func (m *Dynamic[K, V]) Add(key K, value V) {
	m.AssertMutable()
	m.heads[key] = m.store.Add(m.headFor(key), value)
}

// PutAll adds each value to key's list in order, so the last value of values
// is the first returned by Get.
func (m *Dynamic[K, V]) PutAll(key K, values []V) {
	m.AssertMutable()
	if len(values) == 0 {
		return
	}
	m.heads[key] = m.store.AddAll(m.headFor(key), values)
}

// headFor returns key's current head, registering a new key if there is room.
func (m *Dynamic[K, V]) headFor(key K) int32 {
	head, ok := m.heads[key]
	if !ok && len(m.heads) >= m.cfg.MaximumSize {
		collection.Fail(collection.ErrCapacityExceeded, "%s: maximum %d keys", m.Name(), m.cfg.MaximumSize)
	}
	return head
}

// Remove deletes the most recently added occurrence of value from key's list
// and reports whether one was found. A list emptied this way keeps its key.
func (m *Dynamic[K, V]) Remove(key K, value V) bool {
	m.AssertMutable()
	head, ok := m.heads[key]
	if !ok {
		return false
	}
	head, removed := m.store.Remove(head, value)
	m.heads[key] = head
	return removed
}

// Get returns key's values, newest first. A key that was never used returns
// an empty result.
func (m *Dynamic[K, V]) Get(key K) []V {
	it := m.Iterator(key)
	if it == nil {
		return nil
	}
	return slices.Collect(it.All())
}

// Iterator returns an iterator over key's values, newest first, or nil if
// key was never used. Callers must check for nil.
func (m *Dynamic[K, V]) Iterator(key K) *Iterator[V] {
	m.AssertInitialized()
	head, ok := m.heads[key]
	if !ok {
		return nil
	}
	return m.store.List(head)
}

// ContainsKey reports whether key has been used.
func (m *Dynamic[K, V]) ContainsKey(key K) bool {
	m.AssertInitialized()
	_, ok := m.heads[key]
	return ok
}

// Keys iterates over the keys in ascending order.
func (m *Dynamic[K, V]) Keys() iter.Seq[K] {
	m.AssertInitialized()
	return slices.Values(slices.Sorted(maps.Keys(m.heads)))
}

// Size returns the number of keys.
func (m *Dynamic[K, V]) Size() int {
	m.AssertInitialized()
	return len(m.heads)
}

// Compress applies method to the value store.
func (m *Dynamic[K, V]) Compress(method collection.Method) collection.Method {
	m.AssertInitialized()
	if m.IsFrozen() {
		return collection.Freeze
	}
	m.store.Compress(method)
	m.MarkCompressed(method)
	return method
}

// MarshalBinary encodes the multimap. Keys are written in ascending order.
func (m *Dynamic[K, V]) MarshalBinary() ([]byte, error) {
	m.AssertInitialized()
	var e encoding.Encoder
	e.PutString(m.Name())
	e.PutByte(byte(m.State()))
	if err := m.store.encode(&e); err != nil {
		return nil, err
	}
	e.PutUvarint(uint64(len(m.heads)))
	for key := range m.Keys() {
		e.PutVarint(int64(key))
		e.PutUvarint(uint64(m.heads[key]))
	}
	return e.Bytes(), nil
}

// UnmarshalBinary replaces the multimap with the contents of data.
func (m *Dynamic[K, V]) UnmarshalBinary(data []byte) error {
	d := encoding.NewDecoder(data)
	name := d.GetString()
	state := collection.State(d.GetByte())
	store, err := decodeListStore[V](d)
	if err != nil {
		return err
	}
	n := d.GetCount(2)
	heads := make(map[K]int32, n)
	for range n {
		key := K(d.GetVarint())
		head := d.GetUvarint()
		if head >= uint64(store.Slots()) {
			return collection.Corrupt("multimap: head out of range", d.Err())
		}
		heads[key] = int32(head)
	}
	if err := d.Finish(); err != nil {
		return collection.Corrupt("multimap", err)
	}
	if state == collection.Uninitialized {
		return collection.Corrupt("multimap: uninitialized state", nil)
	}
	if err := m.Restore(name, state); err != nil {
		return err
	}
	m.cfg = m.cfg.WithDefaults()
	m.heads, m.store = heads, store
	return nil
}
