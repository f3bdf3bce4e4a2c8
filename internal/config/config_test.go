package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every REPODECK_ env var that Load() reads.
var allConfigKeys = []string{
	"REPODECK_REPO",
	"REPODECK_BRANCH",
	"REPODECK_LOCAL_PATH",
	"REPODECK_GITHUB_TOKEN",
	"REPODECK_GITHUB_USERNAME",
	"REPODECK_POLL_INTERVAL",
	"REPODECK_LISTEN_ADDR",
	"REPODECK_DB_PATH",
	"REPODECK_SECRET_KEY",
	"REPODECK_LOG_FILE",
	"REPODECK_LOG_LEVEL",
}

// isolateConfigEnv saves and unsets all REPODECK_ env vars so tests don't
// inherit values from the host environment. t.Cleanup restores original
// values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		key := key
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REPODECK_REPO", "octocat/hello")
	t.Setenv("REPODECK_BRANCH", "develop")
	t.Setenv("REPODECK_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("REPODECK_GITHUB_USERNAME", "testuser")
	t.Setenv("REPODECK_POLL_INTERVAL", "10m")
	t.Setenv("REPODECK_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("REPODECK_DB_PATH", "/tmp/test.db")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "octocat/hello", cfg.Repo)
	assert.Equal(t, "develop", cfg.Branch)
	assert.Equal(t, "ghp_test123", cfg.GitHubToken)
	assert.Equal(t, "testuser", cfg.GitHubUsername)
	assert.Equal(t, 10*time.Minute, cfg.PollInterval)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.True(t, cfg.HasGitHubCredentials())
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REPODECK_REPO", "octocat/hello")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Branch)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "repodeck.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Nil(t, cfg.SecretKey)
	assert.False(t, cfg.HasGitHubCredentials())
}

func TestLoad_MissingRepo(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPODECK_REPO")
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REPODECK_REPO", "octocat/hello")

	t.Setenv("REPODECK_POLL_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("REPODECK_POLL_INTERVAL", "-5m")
	_, err = Load()
	require.Error(t, err)
}

func TestLoad_SecretKey(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REPODECK_REPO", "octocat/hello")

	// 64 hex chars decode to a 32-byte AES-256 key.
	t.Setenv("REPODECK_SECRET_KEY", "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.SecretKey, 32)

	t.Setenv("REPODECK_SECRET_KEY", "deadbeef")
	_, err = Load()
	require.Error(t, err, "short key must be rejected")

	t.Setenv("REPODECK_SECRET_KEY", "zz")
	_, err = Load()
	require.Error(t, err, "non-hex key must be rejected")
}
