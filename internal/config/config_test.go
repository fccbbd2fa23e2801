package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Availability.DefaultDurationMinutes)
	assert.Equal(t, 90, cfg.Availability.MaxLookaheadDays)
	assert.Equal(t, 4, cfg.Availability.BatchConcurrency)
	assert.Equal(t, 50, cfg.Availability.MaxBatchSize)
	assert.Equal(t, 5*time.Second, cfg.Outbox.PollInterval)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yml := `
server:
  port: 9000
availability:
  default_duration_minutes: 20
outbox:
  poll_interval: 10s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600))
	t.Setenv("AVAILABILITY_BATCH_CONCURRENCY", "8")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Availability.DefaultDurationMinutes)
	assert.Equal(t, 8, cfg.Availability.BatchConcurrency)
	assert.Equal(t, 10*time.Second, cfg.Outbox.PollInterval)
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.Validate())

	cfg.Availability.MaxBatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg.Availability.MaxBatchSize = 50
	cfg.Availability.DefaultDurationMinutes = 0
	assert.Error(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
}
