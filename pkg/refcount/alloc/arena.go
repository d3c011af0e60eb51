package alloc

import (
	"fmt"
	"sync"
)

// Arena carves fixed-size slots out of one backing slab.
//
// Handles carry a generation in their upper 32 bits so a reused slot never
// yields a handle equal to one issued earlier.
type Arena struct {
	mu       sync.Mutex
	slotSize int
	slab     []byte
	gens     []uint32 // current generation per slot; odd while allocated
	free     []uint32 // stack of free slot indexes
}

// NewArena creates an arena with slots slots of slotSize bytes each.
func NewArena(slots, slotSize int) *Arena {
	a := &Arena{
		slotSize: slotSize,
		slab:     make([]byte, slots*slotSize),
		gens:     make([]uint32, slots),
		free:     make([]uint32, 0, slots),
	}
	for i := slots - 1; i >= 0; i-- {
		a.free = append(a.free, uint32(i))
	}
	return a
}

// Alloc reserves a slot able to hold size bytes. The slot is zeroed.
func (a *Arena) Alloc(size int) (Handle, error) {
	if size > a.slotSize {
		return 0, fmt.Errorf("arena alloc %d > slot %d: %w", size, a.slotSize, ErrSizeTooLarge)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.free) == 0 {
		return 0, ErrArenaFull
	}
	slot := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	a.gens[slot]++

	buf := a.slot(slot)
	for i := range buf {
		buf[i] = 0
	}
	return makeHandle(slot, a.gens[slot]), nil
}

// Bytes returns the slot behind id.
func (a *Arena) Bytes(id Handle) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot, ok := a.lookup(id)
	if !ok {
		return nil, fmt.Errorf("arena %s: %w", id, ErrInvalidHandle)
	}
	return a.slot(slot), nil
}

// Reclaim returns the slot behind id to the free list.
func (a *Arena) Reclaim(id Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot, ok := a.lookup(id)
	if !ok {
		return fmt.Errorf("arena free %s: %w", id, ErrInvalidHandle)
	}
	a.gens[slot]++
	a.free = append(a.free, slot)
	return nil
}

// Live returns the number of allocated slots.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.gens) - len(a.free)
}

// Cap returns the total number of slots.
func (a *Arena) Cap() int {
	return len(a.gens)
}

func (a *Arena) lookup(id Handle) (uint32, bool) {
	slot, gen := splitHandle(id)
	if !id.Valid() || int(slot) >= len(a.gens) {
		return 0, false
	}
	if a.gens[slot] != gen || gen%2 == 0 {
		return 0, false
	}
	return slot, true
}

func (a *Arena) slot(i uint32) []byte {
	off := int(i) * a.slotSize
	return a.slab[off : off+a.slotSize : off+a.slotSize]
}

// makeHandle packs slot+1 so slot 0 generation 0 can't produce the zero handle.
func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot+1))
}

func splitHandle(h Handle) (slot, gen uint32) {
	return uint32(h) - 1, uint32(h >> 32)
}
