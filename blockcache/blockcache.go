// Package blockcache provides a process-wide free list of fixed-size
// blocks for the small record types the value package allocates
// (spec.md §5.3). The original C library hand-rolls a chunked free list;
// here a sync.Pool plays the same role, since Go's GC already amortizes
// the "allocate a chunk of N, hand out one at a time" strategy the C code
// implements by hand.
package blockcache

import (
	"sync"
	"sync/atomic"
)

// BlockSize is the size in bytes of one cache block — large enough to
// cover the largest small record type (spec.md §5.3: "~64 B to cover the
// largest of the small record types").
const BlockSize = 64

var (
	mu      sync.Mutex
	enabled = true
	pool    = sync.Pool{New: func() interface{} { return new([BlockSize]byte) }}

	forceHeap = struct {
		sync.Mutex
		set map[int64]bool
	}{set: make(map[int64]bool)}

	outstanding int64
)

// SetEnabled toggles the cache process-wide. Disabling routes every
// Get to the heap directly, mirroring the original's debug-build switch
// (spec.md §5.3: "On debug builds the cache is disabled").
func SetEnabled(v bool) {
	mu.Lock()
	enabled = v
	mu.Unlock()
}

// Enabled reports whether the cache is currently active.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Get returns a block, drawing from the free list when enabled, or
// allocating directly from the heap otherwise.
func Get() *[BlockSize]byte {
	atomic.AddInt64(&outstanding, 1)
	if !Enabled() {
		return new([BlockSize]byte)
	}
	return pool.Get().(*[BlockSize]byte)
}

// Put returns a block to the free list. Safe to call even when the cache
// is disabled (the block is simply dropped for the GC to reclaim).
func Put(b *[BlockSize]byte) {
	atomic.AddInt64(&outstanding, -1)
	if !Enabled() {
		return
	}
	*b = [BlockSize]byte{}
	pool.Put(b)
}

// Outstanding reports the number of blocks currently checked out (not yet
// returned via Put), for metrics collection (spec.md §5.3 "occupancy").
func Outstanding() int64 {
	return atomic.LoadInt64(&outstanding)
}

var nextCallerID int64

// CallerToken is an opaque handle a goroutine obtains once and passes to
// ForceHeap/GetFor to scope the force-heap override to itself,
// standing in for the original's implicit per-thread flag (spec.md §5.3:
// "a per-thread flag forces heap allocation for the next calls").
type CallerToken struct{ id int64 }

// NewCallerToken allocates a fresh per-caller token.
func NewCallerToken() CallerToken {
	mu.Lock()
	nextCallerID++
	id := nextCallerID
	mu.Unlock()
	return CallerToken{id: id}
}

// ForceHeap marks tok's owner to bypass the cache for its next GetFor call.
func ForceHeap(tok CallerToken) {
	forceHeap.Lock()
	forceHeap.set[tok.id] = true
	forceHeap.Unlock()
}

// GetFor returns a block for tok's owner, honouring a pending ForceHeap
// override (consumed on use) before falling back to the shared cache.
func GetFor(tok CallerToken) *[BlockSize]byte {
	forceHeap.Lock()
	forced := forceHeap.set[tok.id]
	if forced {
		delete(forceHeap.set, tok.id)
	}
	forceHeap.Unlock()
	if forced {
		atomic.AddInt64(&outstanding, 1)
		return new([BlockSize]byte)
	}
	return Get()
}
