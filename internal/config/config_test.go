package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxelkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadWithoutPathGivesDefaults(t *testing.T) {
	t.Setenv("VOXELKIT_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "INFO", cfg.Log.GetLevel())
	assert.Equal(t, "logs", cfg.Log.GetDir())
	assert.Equal(t, "data", cfg.Storage.GetPath())
	assert.Equal(t, "region", cfg.Region.GetDir())
	assert.Equal(t, "zlib", cfg.Region.GetCompression())
	assert.Equal(t, 0, cfg.Export.GetStageBudget())
	assert.Equal(t, "", cfg.Metrics.GetAddr())

	id, meta := cfg.Palette.GetMissingBlock()
	assert.Equal(t, uint8(1), id)
	assert.Equal(t, uint8(0), meta)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  dir: /tmp/vk-logs
storage:
  path: /var/lib/voxelkit
region:
  dir: world/region
  compression: GZIP
palette:
  missing_block:
    id: 0
    meta: 3
export:
  stage_budget: 4096
metrics:
  addr: ":2112"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.GetLevel())
	assert.Equal(t, "/tmp/vk-logs", cfg.Log.GetDir())
	assert.Equal(t, "/var/lib/voxelkit", cfg.Storage.GetPath())
	assert.Equal(t, "world/region", cfg.Region.GetDir())
	assert.Equal(t, "gzip", cfg.Region.GetCompression())
	assert.Equal(t, 4096, cfg.Export.GetStageBudget())
	assert.Equal(t, ":2112", cfg.Metrics.GetAddr())

	id, meta := cfg.Palette.GetMissingBlock()
	assert.Equal(t, uint8(0), id, "явный ноль в конфиге не заменяется дефолтом")
	assert.Equal(t, uint8(3), meta)
}

func TestLoadFromEnvPath(t *testing.T) {
	path := writeConfig(t, "storage:\n  path: from-env\n")
	t.Setenv("VOXELKIT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Storage.GetPath())
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("VOXELKIT_STORAGE_PATH", "/env/data")
	t.Setenv("VOXELKIT_EXPORT_STAGE_BUDGET", "12")
	t.Setenv("VOXELKIT_MISSING_BLOCK_ID", "7")

	cfg := Default()
	assert.Equal(t, "/env/data", cfg.Storage.GetPath())
	assert.Equal(t, 12, cfg.Export.GetStageBudget())
	id, _ := cfg.Palette.GetMissingBlock()
	assert.Equal(t, uint8(7), id)

	cfg.Storage.Path = "explicit"
	assert.Equal(t, "explicit", cfg.Storage.GetPath(), "значение из конфига важнее окружения")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "log: [unterminated"))
	assert.Error(t, err)
}
