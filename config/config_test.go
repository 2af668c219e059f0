package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvLedger, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Config{DataDir: ".", Ledger: "file", LogLevel: slog.LevelWarn}, cfg)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv(EnvDataDir, "/var/lib/library")
	t.Setenv(EnvLedger, "sqlite")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/library", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Ledger)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadDotenv(t *testing.T) {
	// godotenv only fills unset variables; Setenv first so cleanup restores them.
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvLogLevel, "")
	os.Unsetenv(EnvDataDir)
	os.Unsetenv(EnvLogLevel)
	t.Setenv(EnvLedger, "file")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LIBRARY_DATA_DIR=/srv/books\nLIBRARY_LEDGER=sqlite\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/books", cfg.DataDir)
	// Already set in the environment, so .env does not override it.
	assert.Equal(t, "file", cfg.Ledger)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
