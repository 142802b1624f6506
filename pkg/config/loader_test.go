package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfig_MergesEnvironmentOverBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: ":8080"
db:
  host: localhost
  port: 5432
`)
	writeFile(t, dir, "production.yaml", `
db:
  host: db.internal
`)

	merged, err := LoadConfig("production", dir)
	require.NoError(t, err)

	db := merged["db"].(map[string]interface{})
	assert.Equal(t, "db.internal", db["host"])
	assert.Equal(t, 5432, db["port"])
	assert.Equal(t, ":8080", merged["server"].(map[string]interface{})["port"])
}

func TestLoadConfig_MissingEnvFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \":9000\"\n")

	merged, err := LoadConfig("staging", dir)
	require.NoError(t, err)
	assert.Equal(t, ":9000", merged["server"].(map[string]interface{})["port"])
}

func TestLoadConfig_MissingBaseFails(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	require.Error(t, err)
}

func TestLoadConfig_SubstitutesSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
jwt:
  secret: "${PM_TEST_JWT_SECRET}"
server:
  cors_origins:
    - "${PM_TEST_ORIGIN}"
other: "${PM_TEST_UNKNOWN}"
`)
	writeFile(t, dir, "secrets.env", `
# comment
PM_TEST_JWT_SECRET="from-file"
PM_TEST_ORIGIN='http://localhost:5173'
`)

	merged, err := LoadConfig("", dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", merged["jwt"].(map[string]interface{})["secret"])
	origins := merged["server"].(map[string]interface{})["cors_origins"].([]interface{})
	assert.Equal(t, "http://localhost:5173", origins[0])
	assert.Equal(t, "${PM_TEST_UNKNOWN}", merged["other"])
}

func TestLoadConfig_SystemEnvWinsOverSecretsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "jwt:\n  secret: \"${PM_TEST_JWT_SECRET}\"\n")
	writeFile(t, dir, "secrets.env", "PM_TEST_JWT_SECRET=from-file\n")
	t.Setenv("PM_TEST_JWT_SECRET", "from-env")

	merged, err := LoadConfig("", dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", merged["jwt"].(map[string]interface{})["secret"])
}

func TestDecode_IntoTypedStruct(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
jwt:
  secret: s3cret
  ttl: 168h
server:
  port: ":8080"
  cors_origins: ["http://a", "http://b"]
`)

	var out struct {
		JWT    JWTConfig    `yaml:"jwt"`
		Server ServerConfig `yaml:"server"`
	}
	require.NoError(t, Decode("", dir, &out))

	assert.Equal(t, "s3cret", out.JWT.Secret)
	assert.Equal(t, 7*24*time.Hour, out.JWT.TTL)
	assert.Equal(t, []string{"http://a", "http://b"}, out.Server.CORSOrigins)
}

func TestMergeMaps_DoesNotMutateInputs(t *testing.T) {
	dst := map[string]interface{}{"a": map[string]interface{}{"x": 1}}
	src := map[string]interface{}{"a": map[string]interface{}{"y": 2}}

	merged := mergeMaps(dst, src)

	assert.Equal(t, map[string]interface{}{"x": 1, "y": 2}, merged["a"])
	assert.Equal(t, map[string]interface{}{"x": 1}, dst["a"])
}

func TestOverrideServerFromEnv_SplitsOrigins(t *testing.T) {
	t.Setenv("SERVER_PORT", ":7000")
	t.Setenv("CORS_ORIGINS", "http://a, ,http://b")

	cfg := ServerConfig{Port: ":8080", CORSOrigins: []string{"http://old"}}
	OverrideServerFromEnv(&cfg)

	assert.Equal(t, ":7000", cfg.Port)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.CORSOrigins)
}
