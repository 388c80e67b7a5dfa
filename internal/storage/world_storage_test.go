package storage

import (
	"testing"

	"github.com/annel0/voxelkit/internal/metrics"
	"github.com/annel0/voxelkit/internal/schematic"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world"
	"github.com/annel0/voxelkit/internal/world/block"
	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, opts ...Option) *WorldStorage {
	t.Helper()
	ws, err := Open(t.TempDir(), opts...)
	require.NoError(t, err, "не удалось создать хранилище")
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sampleChunk(c vec.Vec3) *schematic.Schematic {
	chunk := world.NewChunk(c)
	chunk.Fill(vec.Vec3{}, vec.Vec3{X: 15, Y: 0, Z: 15}, 1, 0)
	chunk.Set(3, 4, 5, 17, 4)
	return chunk
}

func TestSaveLoadChunk(t *testing.T) {
	ws := openTemp(t)
	c := vec.Vec3{X: -3, Y: 4, Z: 7}

	require.NoError(t, ws.SaveChunk(c, sampleChunk(c)))
	assert.True(t, ws.HasChunk(c))
	assert.False(t, ws.HasChunk(vec.Vec3{X: 1}))

	loaded, err := ws.LoadChunk(c)
	require.NoError(t, err)
	assert.Equal(t, c.ChunkOrigin(), loaded.Offset())
	assert.Equal(t, 257, loaded.Count())
	assert.Equal(t, block.Block{ID: 17, Meta: 4}, loaded.Get(3, 4, 5))
	assert.Nil(t, loaded.Mask())
}

func TestLoadMissingChunk(t *testing.T) {
	ws := openTemp(t)

	_, err := ws.LoadChunk(vec.Vec3{X: 9})
	assert.ErrorIs(t, err, ErrChunkNotFound)
}

func TestSaveChunkKeepsMask(t *testing.T) {
	ws := openTemp(t)
	c := vec.Vec3{}
	chunk := sampleChunk(c)
	chunk.AttachMask().Set(100, true)

	require.NoError(t, ws.SaveChunk(c, chunk))
	loaded, err := ws.LoadChunk(c)
	require.NoError(t, err)
	require.NotNil(t, loaded.Mask())
	assert.True(t, loaded.Mask().Get(100))
	assert.Equal(t, 1, loaded.Mask().Count())
}

func TestSaveChunkRejectsWrongSize(t *testing.T) {
	ws := openTemp(t)

	err := ws.SaveChunk(vec.Vec3{}, schematic.New(vec.Dims{X: 2, Y: 2, Z: 2}))
	assert.Error(t, err)
}

func TestDeleteChunk(t *testing.T) {
	ws := openTemp(t)
	c := vec.Vec3{Y: 1}
	require.NoError(t, ws.SaveChunk(c, sampleChunk(c)))

	require.NoError(t, ws.DeleteChunk(c))
	assert.False(t, ws.HasChunk(c))
}

func TestClosedStorage(t *testing.T) {
	ws, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close(), "повторное закрытие не должно падать")

	assert.ErrorIs(t, ws.SaveChunk(vec.Vec3{}, sampleChunk(vec.Vec3{})), ErrNotReady)
	_, err = ws.LoadChunk(vec.Vec3{})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, ws.HasChunk(vec.Vec3{}))
}

func TestSaveLoadWorld(t *testing.T) {
	ws := openTemp(t)

	src := world.New()
	src.SetBlock(0, 0, 0, 1, 0)
	src.SetBlock(-20, 40, 100, 5, 2)
	src.SetBlock(33, -1, 2, 12, 0)

	n, err := ws.SaveWorld(src)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	coords, err := ws.ChunkCoords()
	require.NoError(t, err)
	assert.ElementsMatch(t, src.ChunkCoords(), coords)

	dst := world.New()
	n, err = ws.LoadWorld(dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, src.ChunkCoords(), dst.ChunkCoords())
	assert.Equal(t, block.Block{ID: 5, Meta: 2}, dst.GetBlock(-20, 40, 100))
	assert.Equal(t, block.Block{ID: 12}, dst.GetBlock(33, -1, 2))
}

func TestLoadWorldSkipsCorruptChunk(t *testing.T) {
	ws := openTemp(t)
	good := vec.Vec3{X: 1}
	require.NoError(t, ws.SaveChunk(good, sampleChunk(good)))

	err := ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(vec.Vec3{X: 2}), []byte{blobVersion, 0, 0xDE, 0xAD})
	})
	require.NoError(t, err)

	w := world.New()
	n, err := ws.LoadWorld(w)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, w.HasChunk(good))
	assert.False(t, w.HasChunk(vec.Vec3{X: 2}))

	_, err = ws.LoadChunk(vec.Vec3{X: 2})
	assert.ErrorIs(t, err, ErrCorruptBlob)
}

func TestSourceMaterializesChunks(t *testing.T) {
	ws := openTemp(t)
	c := vec.Vec3{X: 2, Y: 0, Z: -1}
	require.NoError(t, ws.SaveChunk(c, sampleChunk(c)))

	w := world.New(world.WithGenerator(ws.Source()))
	assert.Equal(t, block.Air, w.GetBlock(35, 4, -11), "чтение не материализует чанк")

	chunk := w.EnsureChunk(c)
	assert.Equal(t, 257, chunk.Count())
	assert.Equal(t, block.Block{ID: 17, Meta: 4}, w.GetBlock(35, 4, -11))

	empty := w.EnsureChunk(vec.Vec3{X: 5})
	assert.Equal(t, 0, empty.Count(), "отсутствующий чанк создаётся пустым")
}

func TestChunkKeyRoundTrip(t *testing.T) {
	c := vec.Vec3{X: -12, Y: 0, Z: 345}
	got, ok := parseChunkKey(chunkKey(c))
	require.True(t, ok)
	assert.Equal(t, c, got)

	_, ok = parseChunkKey([]byte("chunk:x"))
	assert.False(t, ok)
}

func TestStorageMetrics(t *testing.T) {
	m := metrics.New()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	ws := openTemp(t, WithMetrics(m))
	c := vec.Vec3{}

	require.NoError(t, ws.SaveChunk(c, sampleChunk(c)))
	_, err := ws.LoadChunk(c)
	require.NoError(t, err)

	_, err = ws.LoadChunk(vec.Vec3{X: 1})
	require.ErrorIs(t, err, ErrChunkNotFound)

	count, err := testutil.GatherAndCount(reg, "voxelkit_storage_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "ожидаются серии save/ok и load/ok")
}

func TestSaveChanges(t *testing.T) {
	ws := openTemp(t)
	tracker := world.NewChangeTracker()
	w := world.New(world.WithObserver(tracker))

	w.SetBlock(1, 1, 1, 3, 0)
	w.SetBlock(40, 1, 1, 3, 0)
	n, err := ws.SaveChanges(w, tracker)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, tracker.Pending())

	w.SetBlock(2, 2, 2, 4, 0)
	n, err = ws.SaveChanges(w, tracker)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "сохраняется только изменённый чанк")

	loaded, err := ws.LoadChunk(vec.Vec3{})
	require.NoError(t, err)
	assert.Equal(t, block.Block{ID: 4}, loaded.Get(2, 2, 2))
}

func TestSourceMaskFollowsWorld(t *testing.T) {
	ws := openTemp(t)
	c := vec.Vec3{X: 1}
	chunk := sampleChunk(c)
	chunk.AttachMask().Set(7, true)
	require.NoError(t, ws.SaveChunk(c, chunk))

	plain := world.New(world.WithGenerator(ws.Source()))
	got := plain.EnsureChunk(c)
	assert.Nil(t, got.Mask(), "мир без масок не получает маску из хранилища")
	assert.Equal(t, 257, got.Count())

	masked := world.New(world.WithGenerator(ws.Source()), world.WithMasks())
	got = masked.EnsureChunk(c)
	require.NotNil(t, got.Mask())
	assert.True(t, got.Mask().Get(7))
	assert.Equal(t, 1, got.Mask().Count())
}
