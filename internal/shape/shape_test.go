package shape

import (
	"testing"

	"github.com/annel0/voxelkit/internal/schematic"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReplacesInPlace(t *testing.T) {
	s := New()
	s.Set(1, 2, 3, 4, 0)
	s.Set(-5, 0, 0, 1, 0)
	s.Set(1, 2, 3, 7, 2)

	require.Equal(t, 2, s.Len())
	assert.Equal(t, schematic.Voxel{X: 1, Y: 2, Z: 3, ID: 7, Meta: 2}, s.Voxels()[0])
	assert.Equal(t, block.Block{ID: 7, Meta: 2}, s.Get(1, 2, 3))
	assert.Equal(t, block.Air, s.Get(0, 0, 0))
}

func TestBounds(t *testing.T) {
	s := New()
	_, ok := s.Bounds()
	assert.False(t, ok, "пустая фигура не имеет границ")

	s.Set(3, -1, 4, 1, 0)
	s.Set(-2, 5, 0, 1, 0)

	box, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: -2, Y: -1, Z: 0}, box.Min)
	assert.Equal(t, vec.Vec3{X: 3, Y: 5, Z: 4}, box.Max)
}

func TestToSchematic(t *testing.T) {
	s := New()
	s.Set(10, 20, 30, 5, 1)
	s.Set(12, 20, 31, 6, 0)

	g := s.ToSchematic()

	assert.Equal(t, vec.Dims{X: 3, Y: 1, Z: 2}, g.Size())
	assert.Equal(t, vec.Vec3{X: 10, Y: 20, Z: 30}, g.Offset())
	assert.Equal(t, block.Block{ID: 5, Meta: 1}, g.Get(0, 0, 0))
	assert.Equal(t, block.Block{ID: 6, Meta: 0}, g.Get(2, 0, 1))
	assert.Equal(t, 2, g.Count())
}

func TestSchematicRoundTrip(t *testing.T) {
	g := schematic.New(vec.Dims{X: 4, Y: 3, Z: 2})
	g.SetOffset(vec.Vec3{X: -8, Y: 64, Z: 3})
	g.Set(0, 0, 0, 1, 0)
	g.Set(3, 2, 1, 2, 5)
	g.Set(1, 1, 0, 3, 0)

	s := FromSchematic(g)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, block.Block{ID: 2, Meta: 5}, s.Get(-5, 66, 4))

	back := s.ToSchematic()
	assert.Equal(t, g.Offset(), back.Offset())
	assert.Equal(t, g.Size(), back.Size())
	assert.Equal(t, g.IDs(), back.IDs())
	assert.Equal(t, g.Metas(), back.Metas())
}

func TestEmptyToSchematic(t *testing.T) {
	g := New().ToSchematic()
	assert.Equal(t, vec.Dims{X: 1, Y: 1, Z: 1}, g.Size())
	assert.Equal(t, 0, g.Count())
}
