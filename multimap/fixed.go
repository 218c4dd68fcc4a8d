package multimap

import (
	"fmt"
	"iter"
	"maps"
	"math"
	"slices"

	"github.com/aalhour/packstore/array"
	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/encoding"
	"github.com/aalhour/packstore/internal/logging"
)

// Fixed maps each key to a bounded list of values that is written as a whole.
// PutAll replaces the previous list; the replaced values stay in the backing
// store until the next Compress.
type Fixed[K Key, V Value] struct {
	collection.Lifecycle
	cfg       collection.Config
	maxValues int
	index     map[K]int32
	values    *array.ArrayArray[V]
	abandoned int
}

type (
	// LongToLongFixedMultiMap maps int64 keys to bounded lists of int64.
	LongToLongFixedMultiMap = Fixed[int64, int64]
	// IntToByteFixedMultiMap maps int32 keys to bounded lists of bytes.
	IntToByteFixedMultiMap = Fixed[int32, byte]
)

// NewFixed returns an uninitialized fixed multimap allowing at most
// maxValuesPerKey values per key. A non-positive bound means unbounded.
// cfg.MaximumSize bounds the number of keys.
func NewFixed[K Key, V Value](name string, maxValuesPerKey int, cfg collection.Config) *Fixed[K, V] {
	if maxValuesPerKey <= 0 {
		maxValuesPerKey = math.MaxInt32
	}
	return &Fixed[K, V]{Lifecycle: collection.NewLifecycle(name), cfg: cfg, maxValues: maxValuesPerKey}
}

// NewLongToLongFixedMultiMap returns an uninitialized LongToLongFixedMultiMap.
func NewLongToLongFixedMultiMap(name string, maxValuesPerKey int, cfg collection.Config) *LongToLongFixedMultiMap {
	return NewFixed[int64, int64](name, maxValuesPerKey, cfg)
}

// NewIntToByteFixedMultiMap returns an uninitialized IntToByteFixedMultiMap.
func NewIntToByteFixedMultiMap(name string, maxValuesPerKey int, cfg collection.Config) *IntToByteFixedMultiMap {
	return NewFixed[int32, byte](name, maxValuesPerKey, cfg)
}

// Initialize allocates the key index and value store.
func (m *Fixed[K, V]) Initialize() {
	m.MarkInitialized()
	m.cfg = m.cfg.WithDefaults()
	if m.cfg.InitialSize > collection.LargeAllocation {
		m.cfg.Logger.Infof(logging.NSMultiMap+"%s allocated %d values", m.Name(), m.cfg.InitialSize)
	}
	m.index = make(map[K]int32)
	m.values = m.newStore(m.cfg.InitialSize)
}

func (m *Fixed[K, V]) newStore(initialSize int) *array.ArrayArray[V] {
	values := array.NewArrayArray[V](m.Name()+".values", collection.Config{
		InitialSize: max(initialSize, 1),
		MaximumSize: math.MaxInt32,
		Logger:      m.cfg.Logger,
	})
	values.Initialize()
	return values
}

// Kind returns the serialized type tag.
func (m *Fixed[K, V]) Kind() collection.Kind {
	var key K
	var value V
	switch any(key).(type) {
	case int64:
		if _, ok := any(value).(int64); ok {
			return collection.KindLongToLongFixedMultiMap
		}
	case int32:
		if _, ok := any(value).(byte); ok {
			return collection.KindIntToByteFixedMultiMap
		}
	}
	return collection.KindUnknown
}

// MaxValuesPerKey returns the per-key bound.
func (m *Fixed[K, V]) MaxValuesPerKey() int { return m.maxValues }

// PutAll associates key with a copy of values, replacing any previous
// association. An empty values slice is a valid association.
func (m *Fixed[K, V]) PutAll(key K, values []V) {
	m.AssertMutable()
	if len(values) > m.maxValues {
		collection.Fail(collection.ErrCapacityExceeded, "%s: %d values for one key, maximum %d", m.Name(), len(values), m.maxValues)
	}
	old, ok := m.index[key]
	if ok {
		m.abandoned += m.values.Length(int(old))
	} else if len(m.index) >= m.cfg.MaximumSize {
		collection.Fail(collection.ErrCapacityExceeded, "%s: maximum %d keys", m.Name(), m.cfg.MaximumSize)
	}
	m.index[key] = int32(m.values.Add(values))
}

// Get returns a copy of the values last stored under key, or nil if key is
// absent.
func (m *Fixed[K, V]) Get(key K) []V {
	m.AssertInitialized()
	handle, ok := m.index[key]
	if !ok {
		return nil
	}
	return m.values.Get(int(handle))
}

// ContainsKey reports whether key has an association.
func (m *Fixed[K, V]) ContainsKey(key K) bool {
	m.AssertInitialized()
	_, ok := m.index[key]
	return ok
}

// Keys iterates over the keys in ascending order.
func (m *Fixed[K, V]) Keys() iter.Seq[K] {
	m.AssertInitialized()
	return slices.Values(slices.Sorted(maps.Keys(m.index)))
}

// Size returns the number of keys.
func (m *Fixed[K, V]) Size() int {
	m.AssertInitialized()
	return len(m.index)
}

// Compress drops storage abandoned by replaced associations and then applies
// method to the value store.
func (m *Fixed[K, V]) Compress(method collection.Method) collection.Method {
	m.AssertInitialized()
	if m.IsFrozen() {
		return collection.Freeze
	}
	if m.abandoned > 0 {
		m.compact()
	}
	m.values.Compress(method)
	m.MarkCompressed(method)
	return method
}

func (m *Fixed[K, V]) compact() {
	live := m.values.ElementCount() - m.abandoned
	m.cfg.Logger.Debugf(logging.NSMultiMap+"%s compacting %d abandoned values, %d live", m.Name(), m.abandoned, live)
	values := m.newStore(live)
	for key := range m.Keys() {
		m.index[key] = int32(values.Add(m.values.View(int(m.index[key]))))
	}
	m.values = values
	m.abandoned = 0
}

// MarshalBinary encodes the multimap. Replaced associations are not written.
func (m *Fixed[K, V]) MarshalBinary() ([]byte, error) {
	m.AssertInitialized()
	var e encoding.Encoder
	e.PutString(m.Name())
	e.PutByte(byte(m.State()))
	e.PutUvarint(uint64(m.maxValues))
	e.PutUvarint(uint64(len(m.index)))
	for key := range m.Keys() {
		values := m.values.View(int(m.index[key]))
		e.PutVarint(int64(key))
		e.PutUvarint(uint64(len(values)))
		for _, v := range values {
			e.PutVarint(int64(v))
		}
	}
	return e.Bytes(), nil
}

// UnmarshalBinary replaces the multimap with the contents of data.
func (m *Fixed[K, V]) UnmarshalBinary(data []byte) error {
	d := encoding.NewDecoder(data)
	name := d.GetString()
	state := collection.State(d.GetByte())
	maxValues := d.GetUvarint()
	n := d.GetCount(2)
	if err := d.Err(); err != nil {
		return collection.Corrupt("fixed multimap", err)
	}
	if maxValues == 0 || maxValues > math.MaxInt32 {
		return collection.Corrupt(fmt.Sprintf("fixed multimap: bound %d", maxValues), nil)
	}
	if state == collection.Uninitialized {
		return collection.Corrupt("fixed multimap: uninitialized state", nil)
	}

	m.maxValues = int(maxValues)
	m.cfg = m.cfg.WithDefaults()
	index := make(map[K]int32, n)
	store := m.newStore(len(data))
	var buf []V
	for range n {
		key := K(d.GetVarint())
		count := d.GetCount(1)
		if count > m.maxValues {
			return collection.Corrupt(fmt.Sprintf("fixed multimap: %d values over bound %d", count, m.maxValues), nil)
		}
		buf = buf[:0]
		for range count {
			buf = append(buf, V(d.GetVarint()))
		}
		if d.Err() != nil {
			break
		}
		if _, dup := index[key]; dup {
			return collection.Corrupt(fmt.Sprintf("fixed multimap: duplicate key %d", key), nil)
		}
		index[key] = int32(store.Add(buf))
	}
	if err := d.Finish(); err != nil {
		return collection.Corrupt("fixed multimap", err)
	}
	if err := m.Restore(name, state); err != nil {
		return err
	}
	switch state {
	case collection.Resized:
		store.Compress(collection.Resize)
	case collection.Frozen:
		store.Compress(collection.Freeze)
	}
	m.index, m.values, m.abandoned = index, store, 0
	return nil
}
