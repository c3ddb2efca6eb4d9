package identity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ontostore/internal/ir"
)

func TestAllocator_StartsAtNoID(t *testing.T) {
	a := NewAllocator()
	assert.Equal(t, ir.NoID, a.Current())
}

func TestAllocator_NextIncrementsMonotonically(t *testing.T) {
	a := NewAllocator()

	assert.Equal(t, ir.ID(1), a.Next())
	assert.Equal(t, ir.ID(2), a.Next())
	assert.Equal(t, ir.ID(3), a.Next())
	assert.Equal(t, ir.ID(3), a.Current())
}

func TestAllocator_NeverRepeats(t *testing.T) {
	a := NewAllocator()
	seen := make(map[ir.ID]bool)
	var prev ir.ID
	for i := 0; i < 1000; i++ {
		id := a.Next()
		assert.False(t, seen[id], "duplicate id %d", id)
		assert.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
}

func TestAllocator_At(t *testing.T) {
	a := NewAllocatorAt(41)
	assert.Equal(t, ir.ID(41), a.Current())
	assert.Equal(t, ir.ID(42), a.Next())
}

func TestAllocator_ObserveSkipsAhead(t *testing.T) {
	a := NewAllocator()
	a.Next()

	a.Observe(10)
	assert.Equal(t, ir.ID(11), a.Next())
}

func TestAllocator_ObserveNeverRewinds(t *testing.T) {
	a := NewAllocatorAt(20)

	a.Observe(5)
	assert.Equal(t, ir.ID(20), a.Current())
	assert.Equal(t, ir.ID(21), a.Next())
}

func TestAllocator_ExhaustionPanics(t *testing.T) {
	a := NewAllocatorAt(math.MaxUint32 - 1)
	assert.Equal(t, ir.ID(math.MaxUint32), a.Next())
	assert.Panics(t, func() { a.Next() })
}
