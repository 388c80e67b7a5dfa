package region

import (
	"os"
	"path/filepath"
	"testing"

	mca "github.com/Tnze/go-mc/save/region"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltFileReadsWithGoMC(t *testing.T) {
	file, err := BuildRegionFile(buildTestWorld(), 0, 0, testOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), FileName(0, 0))
	require.NoError(t, os.WriteFile(path, file, 0o644))

	r, err := mca.Open(path)
	require.NoError(t, err)
	defer r.Close()

	for _, col := range []vec.Vec2{{X: 0, Z: 0}, {X: 3, Z: 5}} {
		require.True(t, r.ExistSector(col.X, col.Z), "колонка %v", col)
		payload, err := r.ReadSector(col.X, col.Z)
		require.NoError(t, err)
		require.NotEmpty(t, payload)
		assert.Equal(t, byte(CompressionZlib), payload[0])

		got, err := Decompress(Compression(payload[0]), payload[1:])
		require.NoError(t, err)
		want, err := LoadChunk(file, col.RegionSlot())
		require.NoError(t, err)
		assert.Equal(t, want, got, "колонка %v", col)
	}
	assert.False(t, r.ExistSector(1, 1))
}

func TestWriteFileDecodes(t *testing.T) {
	src := buildTestWorld()
	path := filepath.Join(t.TempDir(), FileName(0, 0))
	require.NoError(t, os.WriteFile(path, []byte("старое содержимое"), 0o644))

	opts := testOptions()
	opts.Compression = CompressionGzip
	n, err := WriteFile(path, src, 0, 0, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Zero(t, len(data)%SectorSize, "файл дополнен до целого сектора")

	h, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, []int{0, Slot(3, 5)}, h.Populated())

	dst := world.New()
	sum, err := Decode(data, dst, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Empty(t, sum.FailedChunks)
	assert.Equal(t, src.ChunkCoords(), dst.ChunkCoords())
	for _, p := range []vec.Vec3{{X: 0, Y: 0, Z: 0}, {X: 3, Y: 40, Z: 7}, {X: 50, Y: 70, Z: 89}} {
		assert.Equal(t, src.GetBlock(p.X, p.Y, p.Z), dst.GetBlock(p.X, p.Y, p.Z), "блок %v", p)
	}
}

func TestOptionsWithoutRegistry(t *testing.T) {
	file, err := BuildRegionFile(buildTestWorld(), 0, 0, testOptions())
	require.NoError(t, err)

	_, err = Decode(file, world.New(), Options{})
	assert.ErrorIs(t, err, ErrNoRegistry)

	_, err = BuildChunk(buildTestWorld(), 0, 0, Options{})
	assert.ErrorIs(t, err, ErrNoRegistry)

	_, err = BuildRegionFile(buildTestWorld(), 0, 0, Options{})
	assert.ErrorIs(t, err, ErrNoRegistry)

	_, err = WriteFile(filepath.Join(t.TempDir(), "r.0.0.mca"), buildTestWorld(), 0, 0, Options{})
	assert.ErrorIs(t, err, ErrNoRegistry)
}
