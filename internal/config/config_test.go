package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: test
order_db:
  driver: memory
kafka_service:
  brokers: ["kafka:9092"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, 3, cfg.Lifecycle.MaxAttempts)
	assert.Equal(t, 336*time.Hour, cfg.Lifecycle.DisputeWindow)
	assert.Equal(t, "order-lifecycle-events", cfg.KafkaService.EventsTopic)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaService.Brokers)
	assert.True(t, cfg.KafkaService.Enabled)
	assert.Equal(t, 1.0, cfg.PartialRefund.MaxRatio)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
}

func TestLoad_PostgresRequiresDsn(t *testing.T) {
	path := writeConfig(t, `
order_db:
  driver: postgres
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "dsn")
}

func TestLoad_RejectsBadRatio(t *testing.T) {
	path := writeConfig(t, `
order_db:
  driver: memory
partial_refund:
  max_ratio: 1.5
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "max_ratio")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}
