package bitmask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSetGet(t *testing.T) {
	m := New(10)
	assert.Len(t, m.Bytes(), 2)

	m.Set(0, true)
	m.Set(9, true)
	m.Set(10, true) // вне маски
	m.Set(-1, true)

	assert.True(t, m.Get(0))
	assert.True(t, m.Get(9))
	assert.False(t, m.Get(10))
	assert.False(t, m.Get(5))
	assert.Equal(t, 2, m.Count())

	m.Set(0, false)
	assert.False(t, m.Get(0))
	assert.Equal(t, 1, m.Count())
}

func TestMaskCloneIsIndependent(t *testing.T) {
	m := New(16)
	m.Set(3, true)

	c := m.Clone()
	c.Set(4, true)

	assert.True(t, c.Get(3))
	assert.False(t, m.Get(4))
}

func TestMaskFromBytesDropsTail(t *testing.T) {
	m := FromBytes(4, []byte{0xFF, 0xFF})

	assert.Equal(t, 4, m.Count())
	assert.Len(t, m.Bytes(), 1)
}
