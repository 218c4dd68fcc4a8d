package multimap

import (
	"iter"
	"math"

	"github.com/aalhour/packstore/array"
	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/encoding"
)

// EndOfList terminates every chain in a ListStore. Slot 0 is reserved for it,
// so it doubles as the head of a new, empty list.
const EndOfList int32 = 0

// ListStore holds many singly linked lists in two parallel arrays. A list is
// named by its head slot; adding a value allocates a new slot pointing at the
// old head, so lists read back newest first.
type ListStore[V Value] struct {
	values *array.Array[V]
	next   *array.Array[int32]
}

// NewListStore returns an initialized, empty store.
func NewListStore[V Value](name string, cfg collection.Config) *ListStore[V] {
	cfg = cfg.WithDefaults()
	cfg.MaximumSize = min(cfg.MaximumSize, math.MaxInt32)
	s := &ListStore[V]{
		values: array.New[V](name+".values", cfg),
		next:   array.New[int32](name+".next", cfg),
	}
	s.values.Initialize()
	s.next.Initialize()
	var zero V
	s.values.Add(zero)
	s.next.Add(EndOfList)
	return s
}

// Add prepends value to list and returns the new head.
func (s *ListStore[V]) Add(list int32, value V) int32 {
	s.values.Add(value)
	return int32(s.next.Add(list))
}

// AddAll prepends each value in order and returns the final head.
func (s *ListStore[V]) AddAll(list int32, values []V) int32 {
	for _, v := range values {
		list = s.Add(list, v)
	}
	return list
}

// Remove unlinks the first node holding value and returns the list's head,
// which changes when the head itself is removed. Unlinked slots are not
// reused.
func (s *ListStore[V]) Remove(list int32, value V) (int32, bool) {
	previous := EndOfList
	for at := list; at != EndOfList; at = s.next.Get(int(at)) {
		if s.values.Get(int(at)) != value {
			previous = at
			continue
		}
		following := s.next.Get(int(at))
		if previous == EndOfList {
			return following, true
		}
		s.next.Set(int(previous), following)
		return list, true
	}
	return list, false
}

// List returns an iterator over the list headed at list.
func (s *ListStore[V]) List(list int32) *Iterator[V] {
	return &Iterator[V]{store: s, at: list}
}

// Slots returns the number of allocated slots, including the reserved one.
func (s *ListStore[V]) Slots() int { return s.values.Size() }

// Compress applies method to both arrays.
func (s *ListStore[V]) Compress(method collection.Method) {
	s.values.Compress(method)
	s.next.Compress(method)
}

func (s *ListStore[V]) encode(e *encoding.Encoder) error {
	values, err := s.values.MarshalBinary()
	if err != nil {
		return err
	}
	next, err := s.next.MarshalBinary()
	if err != nil {
		return err
	}
	e.PutLengthPrefixed(values)
	e.PutLengthPrefixed(next)
	return nil
}

// decodeListStore reads a store and checks that every link points to an
// earlier slot. That holds for any store built by Add and Remove and
// guarantees iteration terminates.
func decodeListStore[V Value](d *encoding.Decoder) (*ListStore[V], error) {
	valuesData, nextData := d.GetLengthPrefixed(), d.GetLengthPrefixed()
	if err := d.Err(); err != nil {
		return nil, collection.Corrupt("list store", err)
	}
	s := &ListStore[V]{values: &array.Array[V]{}, next: &array.Array[int32]{}}
	if err := s.values.UnmarshalBinary(valuesData); err != nil {
		return nil, err
	}
	if err := s.next.UnmarshalBinary(nextData); err != nil {
		return nil, err
	}
	if s.values.Size() != s.next.Size() || s.values.Size() == 0 {
		return nil, collection.Corrupt("list store: slot arrays disagree", nil)
	}
	for i := range s.next.Size() {
		n := s.next.Get(i)
		if n < 0 || (i > 0 && int(n) >= i) || (i == 0 && n != EndOfList) {
			return nil, collection.Corrupt("list store: bad link", nil)
		}
	}
	return s, nil
}

// Iterator walks one list newest first.
type Iterator[V Value] struct {
	store *ListStore[V]
	at    int32
}

// HasNext reports whether another value remains.
func (it *Iterator[V]) HasNext() bool { return it.at != EndOfList }

// Next returns the next value. It panics with ErrIndexOutOfRange when the
// list is exhausted.
func (it *Iterator[V]) Next() V {
	if it.at == EndOfList {
		collection.Fail(collection.ErrIndexOutOfRange, "iterator exhausted")
	}
	v := it.store.values.Get(int(it.at))
	it.at = it.store.next.Get(int(it.at))
	return v
}

// All drains the iterator as a sequence.
func (it *Iterator[V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}
