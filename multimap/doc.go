// Package multimap maps primitive keys to sequences of primitive values.
//
// Fixed multimaps hold one complete value sequence per key, bounded in length
// at construction. PutAll replaces a key's sequence; replaced sequences stay
// in the store until Compress reclaims them.
//
// Dynamic multimaps grow a list per key. Each Add prepends to the key's list,
// so Get and Iterator return values newest first:
//
//	m := multimap.NewLongToLongMultiMap("edges", collection.Config{})
//	m.Initialize()
//	m.Add(1, 10)
//	m.Add(1, 20)
//	m.Get(1)          // [20 10]
//	m.Iterator(2)     // nil: key 2 was never used
//
// Multimaps are not safe for concurrent use.
package multimap

import (
	"github.com/aalhour/packstore/array"
)

// Key is the set of key types a multimap accepts.
type Key interface {
	~int32 | ~int64
}

// Value is the set of value types a multimap stores.
type Value = array.Primitive
