package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/taskcore/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "TASKCORE_DATA_DIR", "LOG_LEVEL", "MAX_CONCURRENCY", "WORKER_POOL_SIZE", "CORS_ORIGINS"} {
		old, had := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(key, old)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 4, c.MaxConcurrency)
	assert.NotEmpty(t, c.DataDir)
	assert.Equal(t, filepath.Join(c.DataDir, "logs"), c.LogDir())
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Setenv("PORT", "9090"))
	require.NoError(t, os.Setenv("LOG_LEVEL", "debug"))
	require.NoError(t, os.Setenv("TASKCORE_DATA_DIR", "/tmp/taskcore-test"))

	c, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, slog.LevelDebug, c.SlogLevel())
	assert.Equal(t, "/tmp/taskcore-test", c.DataDir)
	assert.Equal(t, "/tmp/taskcore-test/taskcore.db", c.DBPath())
}

func TestSlogLevel_UnknownDefaultsToInfo(t *testing.T) {
	c := &config.AppConfig{LogLevel: "verbose"}
	assert.Equal(t, slog.LevelInfo, c.SlogLevel())
}
