package packstore

import (
	"fmt"

	"github.com/aalhour/packstore/array"
	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/multimap"
	"github.com/aalhour/packstore/packed"
	"github.com/aalhour/packstore/set"
)

// NewCollection returns an empty, uninitialized collection of kind, suitable
// as an Unmarshal target.
func NewCollection(kind collection.Kind) (collection.Collection, error) {
	var cfg collection.Config
	switch kind {
	case collection.KindByteArray:
		return array.NewByteArray("", cfg), nil
	case collection.KindShortArray:
		return array.NewShortArray("", cfg), nil
	case collection.KindIntArray:
		return array.NewIntArray("", cfg), nil
	case collection.KindLongArray:
		return array.NewLongArray("", cfg), nil
	case collection.KindByteArrayArray:
		return array.NewByteArrayArray("", cfg), nil
	case collection.KindIntArrayArray:
		return array.NewIntArrayArray("", cfg), nil
	case collection.KindLongArrayArray:
		return array.NewLongArrayArray("", cfg), nil
	case collection.KindPackedStringArray:
		return packed.NewStringArray("", packed.Config{}), nil
	case collection.KindLongToLongFixedMultiMap:
		return multimap.NewLongToLongFixedMultiMap("", 0, cfg), nil
	case collection.KindIntToByteFixedMultiMap:
		return multimap.NewIntToByteFixedMultiMap("", 0, cfg), nil
	case collection.KindLongToLongMultiMap:
		return multimap.NewLongToLongMultiMap("", cfg), nil
	case collection.KindLongToIntMultiMap:
		return multimap.NewLongToIntMultiMap("", cfg), nil
	case collection.KindLongSet:
		return set.New("", cfg), nil
	default:
		return nil, fmt.Errorf("%w: no collection for kind %s", ErrKindMismatch, kind)
	}
}
