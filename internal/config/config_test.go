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

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://localhost/crm\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/crm", cfg.Database.DSN)
	assert.Equal(t, 5*time.Minute, cfg.Verification.CodeTTL)
	assert.Equal(t, 3*time.Second, cfg.Verification.PollInterval)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
auth:
  jwt_secret: from-file
verification:
  poll_interval: 1s
`)
	t.Setenv("LOANCRM_JWT_SECRET", "from-env")
	t.Setenv("LOANCRM_AMQP_URL", "amqp://guest:guest@mq:5672/")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.AMQP.URL)
	assert.Equal(t, time.Second, cfg.Verification.PollInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
