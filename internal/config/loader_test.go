package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileLoader_OverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
database:
  host: db.internal
  password: sekrit
queue:
  url: https://sqs.us-east-1.amazonaws.com/123/scan-work
  poll_backoff: 2s
api:
  cors_allowed_origins: ["https://console.example.com"]
`)

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "sekrit", cfg.Database.Password)
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/scan-work", cfg.Queue.URL)
	assert.Equal(t, 2*time.Second, cfg.Queue.PollBackoff)
	assert.Equal(t, []string{"https://console.example.com"}, cfg.API.CORSAllowedOrigins)

	// Untouched keys keep their defaults.
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, int32(20), cfg.Queue.WaitTimeSeconds)
	assert.Equal(t, int64(500*1024*1024), cfg.Scanner.MaxFileSizeBytes)
	assert.Equal(t, "0.0.0.0:6010", cfg.API.DebugHost)
}

func TestFileLoader_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewFileLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load(context.Background())
	assert.Error(t, err)
}

func TestFileLoader_MalformedYAML(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "database: [not a mapping")
	_, err := NewFileLoader(path).Load(context.Background())
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	t.Parallel()

	dsn := Database{
		Host: "db", Port: 5432, User: "app", Password: "pw",
		Name: "datasentry", SSLMode: "disable",
	}.DSN()
	assert.Equal(t, "postgres://app:pw@db:5432/datasentry?sslmode=disable", dsn)
}
