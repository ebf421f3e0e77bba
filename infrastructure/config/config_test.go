package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "thoughtgraph/pkg/errors"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"CONFIG", "FILE", "ENV", "LOG_LEVEL", "IMPLICIT_TAGS", "QUERY_CACHE_TTL", "ENABLE_METRICS", "ENABLE_TRACING"} {
		t.Setenv(envPrefix+key, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadConfig_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.ImplicitTagCreation)
	assert.Empty(t, cfg.ConfigFile)

	path, err := cfg.ResolveStorePath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".thoughts", "thoughts.bin"), path)
}

func TestLoadConfig_Layers(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".thoughts", "config.yaml"), `
store_file: ~/notes/graph.bin
log_level: info
implicit_tags: false
query_cache_ttl: 5
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.ImplicitTagCreation)
		assert.False(t, cfg.DomainConfig().ImplicitTagCreation)
		assert.Equal(t, 5, cfg.QueryCacheTTL)

		path, err := cfg.ResolveStorePath("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "notes", "graph.bin"), path)
	})

	t.Run("environment over file", func(t *testing.T) {
		t.Setenv("THOUGHTS_FILE", "/tmp/env.bin")
		t.Setenv("THOUGHTS_LOG_LEVEL", "debug")
		t.Setenv("THOUGHTS_IMPLICIT_TAGS", "yes")

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.True(t, cfg.ImplicitTagCreation)

		path, err := cfg.ResolveStorePath("")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/env.bin", path)

		path, err = cfg.ResolveStorePath("./flag.bin")
		require.NoError(t, err)
		assert.Equal(t, "./flag.bin", path, "the flag wins")
	})
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
		assert.True(t, pkgerrors.IsIO(err))
	})

	t.Run("from THOUGHTS_CONFIG", func(t *testing.T) {
		path := filepath.Join(dir, "env.yaml")
		writeFile(t, path, "environment: production\n")
		t.Setenv("THOUGHTS_CONFIG", path)

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, path, cfg.ConfigFile)
		assert.False(t, cfg.DomainConfig().VerifyInvariants)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		writeFile(t, path, "")
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, Defaults().LogLevel, cfg.LogLevel)
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "colour: blue\n"},
		{"bad log level", "log_level: loud\n"},
		{"negative ttl", "query_cache_ttl: -1\n"},
		{"malformed yaml", "log_level: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			writeFile(t, path, tt.content)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err), "got %v", err)
		})
	}
}
