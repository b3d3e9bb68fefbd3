package bufpool

import "sync"

// ScratchSize is the size of the thread-local scratch array that serves the
// "serialize to new array" fast path without touching the shared Pool.
const ScratchSize = 64 * 1024

// scratchPool hands out scratch byte slices sized ScratchSize. Go has no
// first-class thread-local storage, so a sync.Pool of goroutine-scoped
// buffers is the idiomatic stand-in: in steady state each active goroutine
// converges on holding its own slice, same as a true thread-local would, and
// the pool absorbs growth/shrinkage in goroutine count automatically.
var scratchPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, ScratchSize)
		return &b
	},
}

// GetScratch rents a scratch slice reset to zero length.
func GetScratch() *[]byte {
	p := scratchPool.Get().(*[]byte)
	*p = (*p)[:0]
	return p
}

// PutScratch returns a scratch slice rented from GetScratch. Slices that
// grew past ScratchSize (the writer reallocated them by append on overflow)
// are dropped instead of retained.
func PutScratch(p *[]byte) {
	if cap(*p) > ScratchSize {
		return
	}
	scratchPool.Put(p)
}
