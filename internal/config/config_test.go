package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "cpp", cfg.Language)
	assert.True(t, cfg.ResolveAliases)
	assert.True(t, cfg.CacheEnabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("language: c\nverbose: true\ncache_max_entries: 7\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "c", cfg.Language)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 7, cfg.CacheMaxEntries)
	// untouched fields keep their defaults
	assert.Equal(t, "cpg.db", cfg.DBPath)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GCPG_LANGUAGE", "c")
	t.Setenv("GCPG_VERBOSE", "1")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("language: cpp\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "c", cfg.Language, "env must override file")
	assert.True(t, cfg.Verbose)
}

func TestValidate_RejectsUnknownLanguage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Language = "rust"

	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Language = "c"
	cfg.DBPath = "out.db"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "c", loaded.Language)
	assert.Equal(t, "out.db", loaded.DBPath)
}
