/*
Package packstore stores packed primitive collections as self-describing,
checksummed blobs.

The collections themselves live in subpackages:

  - array: growable primitive arrays and arrays of arrays
  - packed: a packed, interned string array
  - multimap: fixed and dynamic primitive multimaps
  - set: an open-addressed int64 set

Every collection follows the same lifecycle. It is created uninitialized,
Initialize allocates it, and Compress either trims storage (Resize) or trims
and makes it immutable (Freeze). Misuse such as reading before Initialize or
writing after Freeze panics with an error wrapping a sentinel from package
collection.

# Blobs

Marshal frames a collection's binary form with a header naming its kind and
codec, optionally compresses it, and appends an XXH3 checksum:

	magic "PKST" | version | kind | compression | flags | raw length | payload | xxh3

Unmarshal verifies the checksum and the kind before decoding, so a blob can
only be loaded into a collection of the type that wrote it.

# Concurrency

Collections are not safe for concurrent use. Marshal and Unmarshal may run
concurrently on different collections.
*/
package packstore
