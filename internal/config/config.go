// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Repo           string // "owner/name" of the tracked repository.
	Branch         string // Branch whose commits feed the dashboard.
	LocalPath      string // Local working copy for the version/push workflow.
	GitHubToken    string
	GitHubUsername string
	PollInterval   time.Duration
	ListenAddr     string
	DBPath         string
	SecretKey      []byte // 32-byte AES-256 key; nil disables credential persistence.
	LogFile        string
	LogLevel       string
}

// HasGitHubCredentials returns true when both GitHubToken and GitHubUsername
// are non-empty. Used by the composition root to decide whether to create a
// real GitHub client at startup or start with a nil client in the provider.
func (c *Config) HasGitHubCredentials() bool {
	return c.GitHubToken != "" && c.GitHubUsername != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. REPODECK_REPO (owner/name) is required. GitHub credentials
// (REPODECK_GITHUB_TOKEN, REPODECK_GITHUB_USERNAME) are optional; if absent,
// polling stays paused until credentials are provided through the API.
// Optional variables with defaults: REPODECK_BRANCH (main),
// REPODECK_POLL_INTERVAL (2m), REPODECK_LISTEN_ADDR (127.0.0.1:8080),
// REPODECK_DB_PATH (repodeck.db), REPODECK_LOG_LEVEL (info).
// REPODECK_SECRET_KEY must be 64 hex characters when set.
func Load() (*Config, error) {
	repo := os.Getenv("REPODECK_REPO")
	if repo == "" {
		return nil, fmt.Errorf("REPODECK_REPO is required (owner/name)")
	}

	branch := "main"
	if v, ok := os.LookupEnv("REPODECK_BRANCH"); ok && v != "" {
		branch = v
	}

	pollInterval := 2 * time.Minute
	if v, ok := os.LookupEnv("REPODECK_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REPODECK_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("REPODECK_POLL_INTERVAL must be positive, got %q", v)
		}
		pollInterval = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("REPODECK_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "repodeck.db"
	if v, ok := os.LookupEnv("REPODECK_DB_PATH"); ok {
		dbPath = v
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("REPODECK_SECRET_KEY"); ok && v != "" {
		decoded, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("REPODECK_SECRET_KEY is not valid hex: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("REPODECK_SECRET_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		secretKey = decoded
	}

	logLevel := "info"
	if v, ok := os.LookupEnv("REPODECK_LOG_LEVEL"); ok && v != "" {
		logLevel = v
	}

	return &Config{
		Repo:           repo,
		Branch:         branch,
		LocalPath:      os.Getenv("REPODECK_LOCAL_PATH"),
		GitHubToken:    os.Getenv("REPODECK_GITHUB_TOKEN"),
		GitHubUsername: os.Getenv("REPODECK_GITHUB_USERNAME"),
		PollInterval:   pollInterval,
		ListenAddr:     listenAddr,
		DBPath:         dbPath,
		SecretKey:      secretKey,
		LogFile:        os.Getenv("REPODECK_LOG_FILE"),
		LogLevel:       logLevel,
	}, nil
}
