package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CACHE_TTL", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
	assert.Equal(t, "event_booking_en", cfg.WhatsApp.Template)
	assert.Equal(t, ":8080", cfg.HTTPServer.Address)
	assert.Equal(t, []string{"*"}, cfg.HTTPServer.CORSOrigins)
	assert.Equal(t, 2000, cfg.Limits.DailyQuota)
	assert.Equal(t, "@every 1h", cfg.Jobs.ReconcileSchedule)
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
jwt:
  secret: from-file
mongo:
  database: eventhub_prod
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "eventhub_prod", cfg.Mongo.Database)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
}
