// Package mempool provides reusable scratch buffers for blob encoding.
//
// Collection payloads are built into a scratch buffer, compressed or copied
// into the final blob, and the scratch buffer is returned here.
package mempool

import "sync"

// Pool manages reusable byte slices in power-of-four size buckets.
type Pool struct {
	pools [len(BucketSizes)]sync.Pool
}

// BucketSizes defines the buffer size buckets.
var BucketSizes = [...]int{
	1 << 10, // 1KB
	1 << 12, // 4KB
	1 << 14, // 16KB
	1 << 16, // 64KB
	1 << 18, // 256KB
	1 << 20, // 1MB
}

// NewPool creates a new Pool.
func NewPool() *Pool {
	bp := &Pool{}
	for i := range bp.pools {
		size := BucketSizes[i]
		bp.pools[i].New = func() any {
			buf := make([]byte, 0, size)
			return &buf
		}
	}
	return bp
}

// Get retrieves an empty byte slice with at least the specified capacity.
func (bp *Pool) Get(minSize int) []byte {
	bucket := bucketFor(minSize)
	if bucket < 0 {
		return make([]byte, 0, minSize)
	}
	bufPtr, ok := bp.pools[bucket].Get().(*[]byte)
	if !ok {
		return make([]byte, 0, minSize)
	}
	return (*bufPtr)[:0]
}

// Put returns a byte slice to the pool. Slices that grew past the largest
// bucket are dropped so one huge blob does not pin memory.
func (bp *Pool) Put(buf []byte) {
	if cap(buf) < BucketSizes[0] || cap(buf) > BucketSizes[len(BucketSizes)-1] {
		return
	}
	// Store under the largest bucket the capacity fully satisfies.
	bucket := len(BucketSizes) - 1
	for bucket > 0 && cap(buf) < BucketSizes[bucket] {
		bucket--
	}
	buf = buf[:0]
	bp.pools[bucket].Put(&buf)
}

func bucketFor(size int) int {
	for i, bucketSize := range BucketSizes {
		if size <= bucketSize {
			return i
		}
	}
	return -1
}

// GlobalPool is the default global buffer pool.
var GlobalPool = NewPool()
