package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadServerConfigAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "listen_addr: 0.0.0.0:9443\n")
	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9443", cfg.ListenAddr)
	assert.Equal(t, DefaultMaxConcurrentConns, cfg.MaxConcurrentConns)
	assert.Equal(t, DefaultSessionTimeout, cfg.SessionTimeout)
	assert.Equal(t, uint64(DefaultMaxFileSize), cfg.MaxFileSize)
	assert.Equal(t, "classical-ecdh", cfg.Crypto.MinKEM)
}

func TestLoadServerConfigHonorsExplicitValues(t *testing.T) {
	path := writeTempConfig(t, "max_concurrent_connections: 50\nsession_timeout: 10s\n")
	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MaxConcurrentConns)
	assert.Equal(t, 10*time.Second, cfg.SessionTimeout)
}

func TestLoadServerConfigEnvOverridesYAML(t *testing.T) {
	path := writeTempConfig(t, "listen_addr: 0.0.0.0:9443\n")
	t.Setenv("LSFTP_LISTEN_ADDR", "127.0.0.1:1111")

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:1111", cfg.ListenAddr)
}

func TestLoadServerConfigMissingFileErrors(t *testing.T) {
	_, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadClientConfigAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "server_addr: example.com:9443\n")
	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "example.com:9443", cfg.ServerAddr)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
}
