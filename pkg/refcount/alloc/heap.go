package alloc

import (
	"fmt"
	"sync"
)

// Heap hands out independently allocated buffers.
type Heap struct {
	mu   sync.Mutex
	next Handle
	bufs map[Handle][]byte
}

// NewHeap creates an empty heap allocator.
func NewHeap() *Heap {
	return &Heap{bufs: make(map[Handle][]byte)}
}

// Alloc allocates a zeroed buffer of size bytes.
func (h *Heap) Alloc(size int) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	h.bufs[h.next] = make([]byte, size)
	return h.next
}

// Bytes returns the buffer behind id.
func (h *Heap) Bytes(id Handle) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf, ok := h.bufs[id]
	if !ok {
		return nil, fmt.Errorf("heap %s: %w", id, ErrInvalidHandle)
	}
	return buf, nil
}

// Reclaim frees the buffer behind id.
func (h *Heap) Reclaim(id Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.bufs[id]; !ok {
		return fmt.Errorf("heap free %s: %w", id, ErrInvalidHandle)
	}
	delete(h.bufs, id)
	return nil
}

// Live returns the number of outstanding allocations.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.bufs)
}
