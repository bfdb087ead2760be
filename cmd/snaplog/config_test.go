package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"snaplog/index"
	"snaplog/kv"
)

func TestConfig_Parse(t *testing.T) {
	c := defaultConfig()
	err := c.Parse([]byte(`
root_directory: /var/lib/snaplog
sector_size: 4096
index_type: ART
snapshot_interval: 0
log_level: debug
`))
	require.Nil(t, err)
	assert.Equal(t, "/var/lib/snaplog", c.RootDirectory)
	assert.Equal(t, int64(4096), c.SectorSize)
	assert.Equal(t, index.ART, c.IndexType)
	assert.Equal(t, 0, c.SnapshotInterval)
	assert.Equal(t, zapcore.DebugLevel, c.LogLevel)

	opts := c.kvOptions(zap.NewNop())
	assert.Equal(t, "/var/lib/snaplog", opts.DirPath)
	assert.Equal(t, int64(4096), opts.SectorSize)
	assert.Equal(t, index.ART, opts.IndexType)
}

func TestConfig_ParseDefaults(t *testing.T) {
	c := defaultConfig()
	require.Nil(t, c.Parse([]byte(`log_level: error`)))
	assert.Equal(t, kv.DefaultOptions.DirPath, c.RootDirectory)
	assert.Equal(t, kv.DefaultOptions.SnapshotInterval, c.SnapshotInterval)
	assert.Equal(t, index.Btree, c.IndexType)
	assert.Equal(t, zapcore.ErrorLevel, c.LogLevel)
}

func TestConfig_ParseInvalid(t *testing.T) {
	for _, data := range []string{
		"index_type: hash",
		"snapshot_interval: -1",
		"log_level: loud",
		"root_directory: [",
	} {
		assert.NotNil(t, defaultConfig().Parse([]byte(data)), data)
	}
}
