package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TASKBOARD_SECRET_KEY", "s3cret")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "data/taskboard.db", cfg.DBPath)
	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.DocsDir)
}

func TestLoadEnvironmentAndFlags(t *testing.T) {
	t.Setenv("TASKBOARD_SECRET_KEY", "from-env")
	t.Setenv("TASKBOARD_ADDR", ":9000")
	t.Setenv("TASKBOARD_ACCESS_TOKEN_TTL", "1h")
	t.Setenv("TASKBOARD_LOG_LEVEL", "debug")
	t.Setenv("TASKBOARD_LOG_FORMAT", "JSON")

	cfg, err := Load([]string{"-addr", ":9100", "-algorithm", "hs512"})
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr, "flags win over env")
	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, "HS512", cfg.Algorithm)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("TASKBOARD_SECRET_KEY", "")

	_, err := Load(nil)
	assert.ErrorIs(t, err, errMissingSecret)

	cases := map[string][]string{
		"algorithm":  {"-secret", "x", "-algorithm", "RS256"},
		"ttl":        {"-secret", "x", "-token-ttl", "0s"},
		"log level":  {"-secret", "x", "-log-level", "loud"},
		"log format": {"-secret", "x", "-log-format", "xml"},
		"burst":      {"-secret", "x", "-login-burst", "0"},
		"unknown":    {"-secret", "x", "-nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(args)
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TASKBOARD_SECRET_KEY=dotenv\nTASKBOARD_DB_PATH=/tmp/x.db\n"), 0o600))

	t.Setenv("TASKBOARD_SECRET_KEY", "explicit")
	t.Setenv("TASKBOARD_DB_PATH", "")
	os.Unsetenv("TASKBOARD_DB_PATH")

	LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.SecretKey)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
}
