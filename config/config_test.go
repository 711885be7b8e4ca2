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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "custodial_wallet", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, int32(5), cfg.Database.MinConns)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.False(t, cfg.AMQP.Enabled)
	assert.Equal(t, "wallet.events", cfg.AMQP.Exchange)

	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "custodial-wallet", cfg.JWT.Issuer)

	assert.Equal(t, int64(3), cfg.Pin.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Pin.Lockout)
	assert.Equal(t, 15*time.Minute, cfg.Pin.UnlockTTL)

	assert.Equal(t, 2*time.Second, cfg.Transfer.ProcessingDelay)
	assert.Equal(t, 30*time.Minute, cfg.Transfer.FlowTTL)
	assert.Equal(t, 30*time.Second, cfg.Transfer.OpLockTTL)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090
  mode: "release"
database:
  host: "db.example.com"
  port: 5433
  user: "walletuser"
  password: "secret123"
  dbname: "walletdb"
  sslmode: "require"
redis:
  host: "redis.example.com"
  port: 6380
  db: 2
jwt:
  secret: "my-jwt-secret"
  expiry: "12h"
pin:
  max_attempts: 5
  lockout: "10m"
transfer:
  processing_delay: "500ms"
log:
  level: "debug"
  pretty: true
`)
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "my-jwt-secret", cfg.JWT.Secret)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, int64(5), cfg.Pin.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Pin.Lockout)
	assert.Equal(t, 500*time.Millisecond, cfg.Transfer.ProcessingDelay)
	assert.True(t, cfg.Log.Pretty)

	// Untouched keys keep their defaults.
	assert.Equal(t, 15*time.Minute, cfg.Pin.UnlockTTL)
	assert.Equal(t, 30*time.Minute, cfg.Transfer.FlowTTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CWL_DATABASE_HOST", "env-db-host")
	t.Setenv("CWL_JWT_SECRET", "env-secret")
	t.Setenv("CWL_PIN_MAX_ATTEMPTS", "4")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-db-host", cfg.Database.Host)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, int64(4), cfg.Pin.MaxAttempts)
}

func TestDSNAndAddr(t *testing.T) {
	db := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p",
		DBName: "wallet", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@localhost:5432/wallet?sslmode=disable", db.DSN())

	r := RedisConfig{Host: "localhost", Port: 6379}
	assert.Equal(t, "localhost:6379", r.Addr())
}
