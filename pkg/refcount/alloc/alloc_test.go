package alloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	assert.False(t, Handle(0).Valid())
	assert.True(t, Handle(1).Valid())
	assert.Equal(t, "0x1f", Handle(31).String())
}

func TestHeap(t *testing.T) {
	h := NewHeap()

	a := h.Alloc(16)
	b := h.Alloc(32)
	assert.NotEqual(t, a, b)
	assert.True(t, a.Valid())
	assert.Equal(t, 2, h.Live())

	buf, err := h.Bytes(b)
	require.NoError(t, err)
	assert.Len(t, buf, 32)

	require.NoError(t, h.Reclaim(a))
	assert.Equal(t, 1, h.Live())

	_, err = h.Bytes(a)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.ErrorIs(t, h.Reclaim(a), ErrInvalidHandle)
}

func TestArena(t *testing.T) {
	a := NewArena(2, 8)
	assert.Equal(t, 2, a.Cap())

	h1, err := a.Alloc(8)
	require.NoError(t, err)
	h2, err := a.Alloc(4)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Live())

	_, err = a.Alloc(1)
	assert.ErrorIs(t, err, ErrArenaFull)

	buf, err := a.Bytes(h1)
	require.NoError(t, err)
	assert.Len(t, buf, 8)
	copy(buf, "abcdefgh")

	// Slots don't overlap.
	other, err := a.Bytes(h2)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), other)

	require.NoError(t, a.Reclaim(h1))
	assert.Equal(t, 1, a.Live())
	assert.ErrorIs(t, a.Reclaim(h1), ErrInvalidHandle)

	// The freed slot comes back zeroed under a new handle.
	h3, err := a.Alloc(8)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
	buf, err = a.Bytes(h3)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), buf)

	_, err = a.Bytes(h1)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestArena_TooLarge(t *testing.T) {
	a := NewArena(1, 8)
	_, err := a.Alloc(9)
	assert.ErrorIs(t, err, ErrSizeTooLarge)
}

func TestArena_InvalidHandles(t *testing.T) {
	a := NewArena(1, 8)
	assert.ErrorIs(t, a.Reclaim(0), ErrInvalidHandle)
	assert.ErrorIs(t, a.Reclaim(makeHandle(5, 1)), ErrInvalidHandle)
	// Never allocated: generation is still even.
	assert.ErrorIs(t, a.Reclaim(makeHandle(0, 0)), ErrInvalidHandle)
}

func TestPool(t *testing.T) {
	p := NewPool(64)
	assert.Equal(t, 64, p.Size())

	h := p.Alloc()
	buf, err := p.Bytes(h)
	require.NoError(t, err)
	assert.Len(t, buf, 64)
	buf[0] = 0xff

	require.NoError(t, p.Reclaim(h))
	assert.Equal(t, 0, p.Live())
	assert.ErrorIs(t, p.Reclaim(h), ErrInvalidHandle)

	h2 := p.Alloc()
	assert.NotEqual(t, h, h2)
	buf, err = p.Bytes(h2)
	require.NoError(t, err)
	assert.Equal(t, byte(0), buf[0])
}

func TestConcurrentArena(t *testing.T) {
	a := NewArena(64, 16)
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				h, err := a.Alloc(16)
				if err != nil {
					continue
				}
				assert.NoError(t, a.Reclaim(h))
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, a.Live())
}
