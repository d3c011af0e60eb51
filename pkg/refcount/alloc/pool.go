package alloc

import (
	"fmt"
	"sync"
)

// Pool recycles fixed-size buffers through a sync.Pool.
// Buffers are zeroed on Alloc, not on Reclaim.
type Pool struct {
	size int
	pool sync.Pool // stores *[]byte

	mu   sync.Mutex
	next Handle
	live map[Handle]*[]byte
}

// NewPool creates a pool of size-byte buffers.
func NewPool(size int) *Pool {
	return &Pool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				buf := make([]byte, size)
				return &buf
			},
		},
		live: make(map[Handle]*[]byte),
	}
}

// Alloc takes a zeroed buffer from the pool.
func (p *Pool) Alloc() Handle {
	bp := p.pool.Get().(*[]byte)
	buf := *bp
	for i := range buf {
		buf[i] = 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.live[p.next] = bp
	return p.next
}

// Bytes returns the buffer behind id.
func (p *Pool) Bytes(id Handle) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bp, ok := p.live[id]
	if !ok {
		return nil, fmt.Errorf("pool %s: %w", id, ErrInvalidHandle)
	}
	return *bp, nil
}

// Reclaim puts the buffer behind id back into the pool.
func (p *Pool) Reclaim(id Handle) error {
	p.mu.Lock()
	bp, ok := p.live[id]
	delete(p.live, id)
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("pool free %s: %w", id, ErrInvalidHandle)
	}
	p.pool.Put(bp)
	return nil
}

// Live returns the number of buffers not yet returned.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Size returns the buffer size.
func (p *Pool) Size() int {
	return p.size
}
