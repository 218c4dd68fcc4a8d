// Package collection holds what every packed collection shares: the
// Initialize/Compress lifecycle, sizing configuration, the kind tags used in
// serialized blobs, and the error taxonomy.
//
// Every structure moves through the same states:
//
//	Uninitialized -> Initialized -> [Resized] -> Frozen
//
// Frozen is terminal. Usage errors (use before Initialize, mutation after
// Freeze, index out of range, capacity exceeded) are programmer errors and
// panic with an error value wrapping one of the sentinels below, the way an
// out-of-range slice index panics. Decoding failures are returned.
package collection
