package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.PartitionWidth)
	assert.Equal(t, 320, cfg.SlotStride)
	assert.Equal(t, 128, cfg.LatencyWindow)
	assert.Equal(t, "reconnect", cfg.Reconnect)
	assert.Equal(t, 3*time.Second, cfg.ReconnectBackoff)
	assert.Equal(t, cfg.SlotStride, cfg.InflateBufferSize)
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
partition_width = 50
slot_stride = 512
ws_url = "wss://example.test/ws"
reconnect = "exit"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.PartitionWidth)
	assert.Equal(t, 512, cfg.SlotStride)
	assert.Equal(t, "wss://example.test/ws", cfg.WSURL)
	assert.Equal(t, "exit", cfg.Reconnect)
	assert.Equal(t, 512, cfg.InflateBufferSize)
}

func TestLoad_EnvOverridesMappingPath(t *testing.T) {
	t.Setenv("TICKFEED_MAPPING_PATH", "/tmp/override.mmap")
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.mmap", cfg.MappingPath)
}

func TestLoad_RejectsInvalidReconnect(t *testing.T) {
	path := writeTempConfig(t, `reconnect = "retry-forever"`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveStride(t *testing.T) {
	path := writeTempConfig(t, `slot_stride = 0`)
	_, err := Load(path)
	assert.Error(t, err)
}
