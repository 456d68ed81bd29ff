package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults loads the configuration without any environment variables set. It
// expects the documented defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.App.LogRequests)
	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, "contacts", cfg.DB.Name)
	assert.Equal(t, time.Hour, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxBytes())
	assert.Equal(t, BackgroundSourceDir, cfg.Backgrounds.Source)
	assert.Len(t, cfg.Backgrounds.Files, 4)
	assert.InDelta(t, 0.3, cfg.Backgrounds.Opacity, 1e-9)
}

// TestLoadFromEnvironment overrides a selection of variables.
func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SURF_DB_DRIVER", "SQLite")
	t.Setenv("SURF_DB_SQLITE_PATH", ":memory:")
	t.Setenv("SURF_LOG_REQUESTS", "false")
	t.Setenv("SURF_BACKGROUND_FILES", "a.png,b.jpg")
	t.Setenv("SURF_MAX_UPLOAD_MB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, ":memory:", cfg.DB.SQLitePath)
	assert.False(t, cfg.App.LogRequests)
	assert.Equal(t, []string{"a.png", "b.jpg"}, cfg.Backgrounds.Files)
	assert.Equal(t, int64(2<<20), cfg.Upload.MaxBytes())
}

// TestLoadInvalid expects that inconsistent settings are rejected.
func TestLoadInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":    {"SURF_DB_DRIVER": "oracle"},
		"unknown source":    {"SURF_BACKGROUND_SOURCE": "ftp"},
		"s3 without bucket": {"SURF_BACKGROUND_SOURCE": "s3"},
		"opacity too high":  {"SURF_BACKGROUND_OPACITY": "1.5"},
		"zero opacity":      {"SURF_BACKGROUND_OPACITY": "0"},
		"negative opacity":  {"SURF_BACKGROUND_OPACITY": "-0.2"},
		"zero upload size":  {"SURF_MAX_UPLOAD_MB": "0"},
		"not a number":      {"SURF_MAX_UPLOAD_MB": "lots"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// TestLoadDotEnv reads a valid file, tolerates a missing one and rejects a malformed one.
func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.env")
	require.NoError(t, os.WriteFile(valid, []byte("SURF_DOTENV_TEST_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SURF_DOTENV_TEST_LEVEL") })
	require.NoError(t, LoadDotEnv(valid))
	assert.Equal(t, "debug", os.Getenv("SURF_DOTENV_TEST_LEVEL"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	malformed := filepath.Join(dir, "malformed.env")
	require.NoError(t, os.WriteFile(malformed, []byte("SURF-LOG-LEVEL=debug\n"), 0o600))
	assert.Error(t, LoadDotEnv(malformed))
}
