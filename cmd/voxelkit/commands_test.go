package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/voxelkit/internal/config"
	"github.com/annel0/voxelkit/internal/logging"
	"github.com/annel0/voxelkit/internal/metrics"
	"github.com/annel0/voxelkit/internal/schemfile"
	"github.com/annel0/voxelkit/internal/storage"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world"
	"github.com/annel0/voxelkit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVec3(t *testing.T) {
	v, err := parseVec3("1, -2,30")
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3{X: 1, Y: -2, Z: 30}, v)

	_, err = parseVec3("1,2")
	assert.Error(t, err)
	_, err = parseVec3("a,b,c")
	assert.Error(t, err)
}

func TestExportAndRegionFromStorage(t *testing.T) {
	dir := t.TempDir()
	logging.Configure(t.TempDir(), logging.ERROR)
	t.Cleanup(func() { logging.GetLoggerManager().CloseAll() })

	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(dir, "data")
	cfg.Region.Dir = dir
	a := &app{cfg: cfg, metrics: metrics.New()}

	ws, err := a.openStorage()
	require.NoError(t, err)
	w := world.New()
	w.SetBlock(1, 1, 1, 1, 0)
	w.SetBlock(17, 2, 1, 4, 0)
	_, err = ws.SaveWorld(w)
	require.NoError(t, err)
	require.NoError(t, ws.Close())

	out := filepath.Join(dir, "box.schematic")
	require.NoError(t, a.export("0,0,0", "17,2,1", out, 7))

	s, err := schemfile.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, vec.Dims{X: 18, Y: 3, Z: 2}, s.Size())
	assert.Equal(t, block.Block{ID: 1}, s.Get(1, 1, 1))
	assert.Equal(t, block.Block{ID: 4}, s.Get(17, 2, 1))
	assert.Equal(t, "box", s.Identity().Name)

	require.NoError(t, a.region(0, 0, ""))
	_, err = os.Stat(filepath.Join(dir, "r.0.0.mca"))
	require.NoError(t, err)

	require.NoError(t, a.info(filepath.Join(dir, "r.0.0.mca")))

	again, err := storage.Open(cfg.Storage.Path)
	require.NoError(t, err, "хранилище должно закрываться после команд")
	require.NoError(t, again.Close())
}
