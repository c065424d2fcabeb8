package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refitlabs/refit/internal/config"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "strict", cfg.Precedence)
	assert.Equal(t, filepath.Join(".refit", "runs"), cfg.RunsDir)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refit.yaml")
	content := `
runs_dir: /var/lib/refit/runs
precedence: trust
redis_addr: localhost:6379
serve:
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/refit/runs", cfg.RunsDir)
	assert.Equal(t, "trust", cfg.Precedence)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	// Unset values keep defaults.
	assert.Equal(t, "phases.yaml", cfg.PhasesFile)
}

func TestLoad_ArtifactKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refit.yaml")
	// base64 of 32 'a' bytes
	content := `
artifacts:
  encryption_key: YWFhYWFhYWFhYWFhYWFhYWFhYWFhYWFhYWFhYWFhYWE=
  redact: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	key, err := cfg.Artifacts.DecodeKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.True(t, cfg.Artifacts.Redact)
}

func TestLoad_ShortArtifactKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("artifacts:\n  encryption_key: c2hvcnQ=\n"), 0644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestLoad_InvalidPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("precedence: maybe\n"), 0644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precedence")
}
