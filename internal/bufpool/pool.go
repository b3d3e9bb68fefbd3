// Package bufpool provides the process-wide buffer pool and thread-local
// scratch region that back the msgpack writer's "serialize to new array"
// fast path, per spec.md §4.B.
package bufpool

import (
	"bytes"
	"sync"
)

// Pool rents growable byte buffers. Rentals are exclusive: once Get returns
// a buffer, the caller owns it until Put is called; the pool never hands
// the same buffer to two callers concurrently, and Put must not be called
// twice for the same rental.
type Pool struct {
	pool sync.Pool
}

// New returns a ready-to-use Pool.
func New() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

// Get rents a buffer, reset and ready to write into.
func (p *Pool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns a rented buffer to the pool. Buffers that have grown
// unreasonably large are dropped rather than retained, so one outsized
// payload doesn't permanently inflate the pool's steady-state footprint.
func (p *Pool) Put(buf *bytes.Buffer) {
	const maxRetainedCap = 1 << 20 // 1 MiB
	if buf.Cap() > maxRetainedCap {
		return
	}
	p.pool.Put(buf)
}

// Default is the package-level pool used when callers don't need an
// isolated instance (e.g. for testing pool exhaustion behavior).
var Default = New()
