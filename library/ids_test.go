package library

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestIDAllocatorUniqueInRange(t *testing.T) {
	a := newIDAllocator(50, seeded(1))
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		id, err := a.Allocate()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, id, 1)
		assert.LessOrEqual(t, id, 50)
		assert.False(t, seen[id], "id %d handed out twice", id)
		seen[id] = true
	}

	_, err := a.Allocate()
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
}

func TestIDAllocatorSkipsReserved(t *testing.T) {
	a := newIDAllocator(5, seeded(7))
	for _, id := range []int{1, 2, 4, 5} {
		a.Reserve(id)
	}
	id, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.True(t, a.InUse(3))
}

func TestIDAllocatorDefaultRange(t *testing.T) {
	a := NewIDAllocator(nil)
	id, err := a.Allocate()
	require.NoError(t, err)
	assert.True(t, id >= 1 && id <= MaxID)
}

func TestIDAllocatorIgnoresOutOfRangeReservations(t *testing.T) {
	a := newIDAllocator(3, seeded(5))
	for _, id := range []int{0, -4, 99, 1, 2, 2} {
		a.Reserve(id)
	}
	assert.True(t, a.InUse(99))

	id, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	_, err = a.Allocate()
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
}
