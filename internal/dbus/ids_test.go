package dbus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDTable_Claim(t *testing.T) {
	ids := newIDTable()

	first, replaced := ids.claim(0)
	assert.Equal(t, uint32(1), first)
	assert.False(t, replaced)

	second, _ := ids.claim(0)
	assert.Equal(t, uint32(2), second)

	same, replaced := ids.claim(first)
	assert.Equal(t, first, same)
	assert.True(t, replaced)
	assert.Equal(t, 2, ids.len())
}

func TestIDTable_ReleasedIDIsFresh(t *testing.T) {
	ids := newIDTable()

	id, _ := ids.claim(0)
	assert.True(t, ids.release(id))
	assert.False(t, ids.release(id))

	next, replaced := ids.claim(id)
	assert.False(t, replaced)
	assert.NotEqual(t, id, next)
	assert.True(t, ids.contains(next))
	assert.False(t, ids.contains(id))
}

func TestIDTable_WrapSkipsZeroAndLiveIDs(t *testing.T) {
	ids := newIDTable()

	one, _ := ids.claim(0)
	ids.last = math.MaxUint32 - 1

	top, _ := ids.claim(0)
	assert.Equal(t, uint32(math.MaxUint32), top)

	wrapped, replaced := ids.claim(0)
	assert.False(t, replaced)
	assert.NotZero(t, wrapped)
	assert.NotEqual(t, one, wrapped)
	assert.Equal(t, uint32(2), wrapped)
}
