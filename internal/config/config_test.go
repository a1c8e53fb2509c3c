package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFromDir(t, "")
	require.NoError(t, err)

	assert.Equal(t, "reservation-service", cfg.App.Name)
	assert.Equal(t, 3*time.Second, cfg.Lock.WaitTimeout)
	assert.Equal(t, 90*time.Second, cfg.Lock.LeaseDuration)
	assert.Equal(t, 100*time.Millisecond, cfg.Lock.RetryDelay)
	assert.Equal(t, "reservation:lock", cfg.Lock.KeyPrefix)
	assert.Equal(t, 3*time.Second, cfg.Booking.StoreTimeout)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Events.Kafka.Brokers)
	assert.Equal(t, 10*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 5, cfg.Database.ConnectAttempts)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	yaml := `
app:
  port: 9090
lock:
  wait_timeout: 1s
  lease_duration: 30s
booking:
  timezone: Europe/Lisbon
events:
  driver: webhook
`
	t.Setenv("APP_LOCK_WAIT_TIMEOUT", "2s")

	cfg, err := loadFromDir(t, yaml)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 2*time.Second, cfg.Lock.WaitTimeout, "env var should win over file")
	assert.Equal(t, 30*time.Second, cfg.Lock.LeaseDuration)
	assert.Equal(t, "webhook", cfg.Events.Driver)

	loc, err := cfg.Booking.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Lisbon", loc.String())
}

func TestLoad_RejectsLeaseShorterThanStoreTimeout(t *testing.T) {
	yaml := `
lock:
  lease_duration: 1s
booking:
  store_timeout: 3s
`
	_, err := loadFromDir(t, yaml)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lease_duration")
}

func TestLoad_RejectsUnknownEventDriver(t *testing.T) {
	_, err := loadFromDir(t, "events:\n  driver: carrier-pigeon\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events.driver")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_REDIS_PORT=6390\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("APP_REDIS_PORT") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "6390", os.Getenv("APP_REDIS_PORT"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env")), "missing .env is fine")
}

// loadFromDir writes content (when non-empty) as config.yaml in a temp dir and loads it.
func loadFromDir(t *testing.T, content string) (*Config, error) {
	t.Helper()

	dir := t.TempDir()
	if content == "" {
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })
		return Load("")
	}

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return Load(path)
}
