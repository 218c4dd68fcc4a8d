// Package array implements growable primitive arrays and arrays of arrays.
//
// An Array is an append-oriented buffer of fixed-width integers with explicit
// capacity control. Growth doubles the backing storage, so appends cost
// amortized O(1). Compress(Resize) trims the storage to the logical size and
// Compress(Freeze) additionally makes the array immutable. Freeze returns a
// Frozen value that has no mutators at all.
//
// An ArrayArray stores many variable-length sub-arrays in a single backing
// Array plus an (offset, length) index, addressed by dense integer handles:
//
//	aa := array.NewByteArrayArray("tags", collection.Config{})
//	aa.Initialize()
//	h := aa.Add([]byte("abc"))
//	aa.Get(h) // []byte("abc")
//
// Arrays are not safe for concurrent use.
package array
