package set

import (
	"iter"
	"math"
	"math/bits"
	"slices"

	"github.com/aalhour/packstore/array"
	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/checksum"
	"github.com/aalhour/packstore/internal/encoding"
	"github.com/aalhour/packstore/internal/logging"
)

const (
	minTableSize = 8
	// The table grows once more than loadNum/loadDen of its slots are used.
	loadNum = 3
	loadDen = 4
)

// LongSet is a set of int64 values. After Compress(Freeze) it is backed by a
// sorted array and answers Contains by binary search; membership is the same
// either way.
type LongSet struct {
	collection.Lifecycle
	cfg collection.Config

	keys   []int64
	stamps []uint32
	gen    uint32
	mask   uint64
	size   int

	frozen *FrozenLongSet
}

// New returns an uninitialized set. cfg.InitialSize is the number of members
// the table holds before it first grows; cfg.MaximumSize bounds the number of
// members.
func New(name string, cfg collection.Config) *LongSet {
	return &LongSet{Lifecycle: collection.NewLifecycle(name), cfg: cfg}
}

// Initialize allocates the table.
func (s *LongSet) Initialize() {
	s.MarkInitialized()
	s.cfg = s.cfg.WithDefaults()
	if s.cfg.InitialSize > collection.LargeAllocation {
		s.cfg.Logger.Infof(logging.NSSet+"%s allocated %d slots", s.Name(), tableSizeFor(s.cfg.InitialSize))
	}
	s.allocate(tableSizeFor(s.cfg.InitialSize))
}

// tableSizeFor returns the smallest power of two holding n members within
// the load factor.
func tableSizeFor(n int) int {
	want := (uint64(n)*loadDen + loadNum - 1) / loadNum
	if want <= minTableSize {
		return minTableSize
	}
	return 1 << bits.Len64(want-1)
}

func (s *LongSet) allocate(slots int) {
	s.keys = make([]int64, slots)
	s.stamps = make([]uint32, slots)
	s.gen = 1
	s.mask = uint64(slots - 1)
	s.size = 0
}

// Kind returns the serialized type tag.
func (s *LongSet) Kind() collection.Kind { return collection.KindLongSet }

func (s *LongSet) occupied(slot uint64) bool { return s.stamps[slot] == s.gen }

func (s *LongSet) home(v int64) uint64 { return checksum.HashInt64(v) & s.mask }

// find returns the slot holding v, or the empty slot ending its probe run.
func (s *LongSet) find(v int64) (uint64, bool) {
	slot := s.home(v)
	for s.occupied(slot) {
		if s.keys[slot] == v {
			return slot, true
		}
		slot = (slot + 1) & s.mask
	}
	return slot, false
}

// Add inserts v and reports whether it was not already present.
func (s *LongSet) Add(v int64) bool {
	s.AssertMutable()
	slot, ok := s.find(v)
	if ok {
		return false
	}
	if s.size >= s.cfg.MaximumSize {
		collection.Fail(collection.ErrCapacityExceeded, "%s: maximum %d members", s.Name(), s.cfg.MaximumSize)
	}
	if uint64(s.size+1)*loadDen > uint64(len(s.keys))*loadNum {
		s.rehash(len(s.keys) * 2)
		slot, _ = s.find(v)
	}
	s.keys[slot] = v
	s.stamps[slot] = s.gen
	s.size++
	return true
}

// AddAll inserts every value and returns how many were new.
func (s *LongSet) AddAll(values ...int64) int {
	added := 0
	for _, v := range values {
		if s.Add(v) {
			added++
		}
	}
	return added
}

// Remove deletes v and reports whether it was present.
func (s *LongSet) Remove(v int64) bool {
	s.AssertMutable()
	hole, ok := s.find(v)
	if !ok {
		return false
	}
	// Pull back every later entry of the run whose home does not lie
	// cyclically in (hole, slot].
	for slot := (hole + 1) & s.mask; s.occupied(slot); slot = (slot + 1) & s.mask {
		home := s.home(s.keys[slot])
		if (slot-home)&s.mask >= (slot-hole)&s.mask {
			s.keys[hole] = s.keys[slot]
			hole = slot
		}
	}
	s.stamps[hole] = 0
	s.size--
	return true
}

// Contains reports whether v is a member.
func (s *LongSet) Contains(v int64) bool {
	s.AssertInitialized()
	if s.frozen != nil {
		return s.frozen.Contains(v)
	}
	_, ok := s.find(v)
	return ok
}

// Size returns the number of members.
func (s *LongSet) Size() int {
	s.AssertInitialized()
	if s.frozen != nil {
		return s.frozen.Size()
	}
	return s.size
}

// IsEmpty reports whether the set has no members.
func (s *LongSet) IsEmpty() bool { return s.Size() == 0 }

// Clear removes every member without touching the slots.
func (s *LongSet) Clear() {
	s.AssertMutable()
	s.gen++
	if s.gen == 0 {
		clear(s.stamps)
		s.gen = 1
	}
	s.size = 0
}

// Values iterates over the members. The order is unspecified unless the set
// is frozen, in which case it is ascending.
func (s *LongSet) Values() iter.Seq[int64] {
	s.AssertInitialized()
	if s.frozen != nil {
		return s.frozen.Values()
	}
	return func(yield func(int64) bool) {
		for slot := range s.keys {
			if s.occupied(uint64(slot)) && !yield(s.keys[slot]) {
				return
			}
		}
	}
}

// Sorted returns the members in ascending order.
func (s *LongSet) Sorted() []int64 {
	return slices.Sorted(s.Values())
}

// Equal reports whether both sets have the same members.
func (s *LongSet) Equal(other *LongSet) bool {
	if s.Size() != other.Size() {
		return false
	}
	for v := range s.Values() {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Hash returns a hash of the members that does not depend on insertion
// order or storage.
func (s *LongSet) Hash() uint64 { return hashMembers(s.Values()) }

func hashMembers(values iter.Seq[int64]) uint64 {
	var h uint64
	for v := range values {
		h += checksum.HashInt64(v)
	}
	return h
}

// Compress with Resize rehashes into the smallest table that fits the
// members. Freeze replaces the table with a sorted array.
func (s *LongSet) Compress(method collection.Method) collection.Method {
	s.AssertInitialized()
	if s.IsFrozen() {
		return collection.Freeze
	}
	switch method {
	case collection.Resize:
		s.rehash(tableSizeFor(s.size))
	case collection.Freeze:
		s.frozen = newFrozen(s.Name(), s.Sorted())
		s.keys, s.stamps = nil, nil
	}
	s.MarkCompressed(method)
	return method
}

// Freeze compresses the set with Freeze and returns the immutable form.
func (s *LongSet) Freeze() *FrozenLongSet {
	s.Compress(collection.Freeze)
	return s.frozen
}

func (s *LongSet) rehash(slots int) {
	keys, stamps, gen := s.keys, s.stamps, s.gen
	if slots > math.MaxInt32 {
		collection.Fail(collection.ErrCapacityExceeded, "%s: table of %d slots", s.Name(), slots)
	}
	if slots >= collection.LargeAllocation {
		s.cfg.Logger.Debugf(logging.NSSet+"%s rehashing %d members into %d slots", s.Name(), s.size, slots)
	}
	s.allocate(slots)
	for i, v := range keys {
		if stamps[i] == gen {
			slot, _ := s.find(v)
			s.keys[slot] = v
			s.stamps[slot] = s.gen
			s.size++
		}
	}
}

// MarshalBinary encodes the name, state and sorted members. Slot layout is
// not written, so decoding rebuilds the table from members alone.
func (s *LongSet) MarshalBinary() ([]byte, error) {
	s.AssertInitialized()
	var e encoding.Encoder
	e.PutString(s.Name())
	e.PutByte(byte(s.State()))
	encodeSorted(&e, s.Sorted())
	return e.Bytes(), nil
}

// encodeSorted writes ascending members as a count, the first value and the
// unsigned gaps between neighbours.
func encodeSorted(e *encoding.Encoder, members []int64) {
	e.PutUvarint(uint64(len(members)))
	for i, v := range members {
		if i == 0 {
			e.PutVarint(v)
			continue
		}
		e.PutUvarint(uint64(v) - uint64(members[i-1]))
	}
}

func decodeSorted(d *encoding.Decoder) ([]int64, error) {
	n := d.GetCount(1)
	members := make([]int64, 0, n)
	for i := range n {
		if i == 0 {
			members = append(members, d.GetVarint())
			continue
		}
		prev := members[i-1]
		v := int64(uint64(prev) + d.GetUvarint())
		if d.Err() != nil {
			break
		}
		if v <= prev {
			return nil, collection.Corrupt("set: members not ascending", nil)
		}
		members = append(members, v)
	}
	if err := d.Err(); err != nil {
		return nil, collection.Corrupt("set", err)
	}
	return members, nil
}

// UnmarshalBinary replaces the set with the contents of data.
func (s *LongSet) UnmarshalBinary(data []byte) error {
	d := encoding.NewDecoder(data)
	name := d.GetString()
	state := collection.State(d.GetByte())
	if err := d.Err(); err != nil {
		return collection.Corrupt("set", err)
	}
	members, err := decodeSorted(d)
	if err != nil {
		return err
	}
	if err := d.Finish(); err != nil {
		return collection.Corrupt("set", err)
	}
	if state == collection.Uninitialized {
		return collection.Corrupt("set: uninitialized state", nil)
	}
	if err := s.Restore(name, state); err != nil {
		return err
	}
	s.cfg = s.cfg.WithDefaults()
	if state == collection.Frozen {
		s.keys, s.stamps, s.size = nil, nil, 0
		s.frozen = newFrozen(name, members)
		return nil
	}
	s.frozen = nil
	s.allocate(tableSizeFor(len(members)))
	for _, v := range members {
		slot, _ := s.find(v)
		s.keys[slot] = v
		s.stamps[slot] = s.gen
		s.size++
	}
	return nil
}

// FrozenLongSet is the immutable, sorted form of a LongSet.
type FrozenLongSet struct {
	members array.Frozen[int64]
}

// newFrozen takes ownership of sorted, which must be strictly ascending.
func newFrozen(name string, sorted []int64) *FrozenLongSet {
	a := array.NewLongArray(name+".members", collection.Config{InitialSize: max(len(sorted), 1), Logger: logging.Discard})
	a.Initialize()
	a.AddAll(sorted...)
	return &FrozenLongSet{members: a.Freeze()}
}

// Contains reports whether v is a member.
func (f *FrozenLongSet) Contains(v int64) bool {
	lo, hi := 0, f.members.Size()
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch m := f.members.Get(mid); {
		case m == v:
			return true
		case m < v:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false
}

// Size returns the number of members.
func (f *FrozenLongSet) Size() int { return f.members.Size() }

// IsEmpty reports whether the set has no members.
func (f *FrozenLongSet) IsEmpty() bool { return f.members.Size() == 0 }

// Values iterates over the members in ascending order.
func (f *FrozenLongSet) Values() iter.Seq[int64] { return f.members.Values() }

// Hash returns the same value as LongSet.Hash for the same members.
func (f *FrozenLongSet) Hash() uint64 { return hashMembers(f.members.Values()) }

// Equal reports whether both sets have the same members.
func (f *FrozenLongSet) Equal(other *FrozenLongSet) bool {
	return f.Size() == other.Size() && slices.Equal(f.members.Slice(), other.members.Slice())
}
