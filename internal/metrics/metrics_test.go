package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	c := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, c.Register(reg))

	c.ChunkDecoded()
	c.ChunkDecoded()
	c.ChunkFailed()
	c.MissingStates(3)
	c.MissingStates(0)
	c.ExportStage("blocks")
	c.StorageOp("save", nil)
	c.StorageOp("save", errors.New("диск"))
	c.StorageBytes(100)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.chunksDecoded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.chunksFailed))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.missingStates))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.exportStages.WithLabelValues("blocks")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storageOps.WithLabelValues("save", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storageOps.WithLabelValues("save", "error")))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.storageBytes))
}

func TestDoubleRegisterFails(t *testing.T) {
	c := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, c.Register(reg))
	assert.Error(t, c.Register(reg))
}

func TestNilCollectorIsNoOp(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ChunkDecoded()
		c.ChunkFailed()
		c.ChunkWritten()
		c.MissingStates(5)
		c.SectionSkipped()
		c.ExportStage("done")
		c.StorageOp("load", nil)
		c.StorageBytes(1)
	})
}
