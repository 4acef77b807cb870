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

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
api:
  port: "9090"
  jwt_signing_key: test-key
  allowed_cors_domains: [http://localhost:3000]
postgres:
  user: acg
  db: acg
auth:
  token_ttl: 2h
  lead_emails: [lead@acg.example]
`)

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, "development", conf.API.Environment)
	assert.Equal(t, []string{"http://localhost:3000"}, conf.API.AllowedCORSDomains)
	assert.Equal(t, 2*time.Hour, conf.Auth.TokenTTL)
	assert.Equal(t, 10*time.Minute, conf.Auth.IdentityCacheTTL)
	assert.Equal(t, []string{"lead@acg.example"}, conf.Auth.LeadEmails)
	assert.Equal(t, "acg.events.changes", conf.NATS.Subject)
	assert.Equal(t, "host=localhost port=5432 user=acg password= dbname=acg sslmode=disable", conf.Postgres.DSN())

	require.NotNil(t, conf.Redis)
	assert.Empty(t, conf.Redis.URL)
	assert.False(t, conf.OAuth.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "api:\n  jwt_signing_key: from-file\n")
	t.Setenv("API_JWT_SIGNING_KEY", "from-env")
	t.Setenv("OAUTH_GOOGLE_CLIENT_ID", "id")
	t.Setenv("OAUTH_GOOGLE_CLIENT_SECRET", "secret")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", conf.API.JWTSigningKey)
	assert.True(t, conf.OAuth.Enabled())
}

func TestLoad_ListsFromEnv(t *testing.T) {
	path := writeConfig(t, `
api:
  jwt_signing_key: test-key
auth:
  lead_emails: [file@acg.example]
`)
	t.Setenv("AUTH_LEAD_EMAILS", "a@acg.example, b@acg.example,")
	t.Setenv("API_ALLOWED_CORS_DOMAINS", "https://acg.example,http://localhost:3000")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a@acg.example", "b@acg.example"}, conf.Auth.LeadEmails)
	assert.Equal(t, []string{"https://acg.example", "http://localhost:3000"}, conf.API.AllowedCORSDomains)
}

func TestLoad_RequiresSigningKey(t *testing.T) {
	path := writeConfig(t, "api:\n  port: \"8080\"\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
