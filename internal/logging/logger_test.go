package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace": TRACE, "DEBUG": DEBUG, "": INFO, "warning": WARN, " error ": ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestFileLoggerWritesAllLevels(t *testing.T) {
	dir := t.TempDir()
	Configure(dir, ERROR)
	t.Cleanup(func() { Configure("logs", INFO) })

	logger, err := NewLogger("region")
	require.NoError(t, err)

	logger.Trace("трассировка %d", 1)
	logger.Warn("чанк %d пропущен", 7)
	require.NoError(t, logger.Close())
	assert.NoError(t, logger.Close(), "повторное закрытие безопасно")

	files, err := filepath.Glob(filepath.Join(dir, "region_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "[TRACE] трассировка 1"))
	assert.True(t, strings.Contains(text, "[WARN] чанк 7 пропущен"))
	assert.True(t, strings.Contains(text, "[region]"))
}

func TestNilLoggerIsSilent(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("ничего")
		logger.Error("ничего")
		_ = logger.Close()
	})
	assert.Equal(t, "", logger.Component())
}

func TestManagerReusesLoggers(t *testing.T) {
	Configure(t.TempDir(), ERROR)
	t.Cleanup(func() { Configure("logs", INFO) })

	lm := &LoggerManager{loggers: make(map[string]*Logger)}
	a, err := lm.GetLogger("storage")
	require.NoError(t, err)
	b, err := lm.GetLogger("storage")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, []string{"storage"}, lm.ListComponents())
	assert.NoError(t, lm.SetLogLevel("storage", DEBUG, DEBUG))
	assert.Error(t, lm.SetLogLevel("missing", DEBUG, DEBUG))
	assert.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}
