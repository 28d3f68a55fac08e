package slottable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqLocks_StartsEven(t *testing.T) {
	s := NewSeqLocks(3)
	for slot := 0; slot < 3; slot++ {
		assert.Equal(t, uint64(0), s.Load(slot))
	}
}

func TestSeqLocks_BeginWriteMakesCounterOdd(t *testing.T) {
	s := NewSeqLocks(1)
	s.BeginWrite(0)
	assert.Equal(t, uint64(1), s.Load(0)%2)
}

func TestSeqLocks_EndWriteRestoresEven(t *testing.T) {
	s := NewSeqLocks(1)
	s.BeginWrite(0)
	s.EndWrite(0)
	assert.Equal(t, uint64(0), s.Load(0)%2)
	assert.Equal(t, uint64(2), s.Load(0))
}

func TestSeqLocks_CountersAreIndependentPerSlot(t *testing.T) {
	s := NewSeqLocks(2)
	s.BeginWrite(0)
	s.EndWrite(0)
	assert.Equal(t, uint64(2), s.Load(0))
	assert.Equal(t, uint64(0), s.Load(1))
}
