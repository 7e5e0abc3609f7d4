// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers YAML parsing, env expansion, defaults, and required fields

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
debug: true
database:
  url: sqlite:///var/lib/tk/tk.sqlite
  pool_size: 4
api:
  addr: 0.0.0.0
  port: 9090
admin:
  username: admin
  password: hunter2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "sqlite:///var/lib/tk/tk.sqlite", cfg.Database.URL)
	assert.Equal(t, 4, cfg.Database.PoolSize)
	assert.Equal(t, "0.0.0.0", cfg.API.Addr)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "hunter2", cfg.Admin.Password)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
admin:
  username: admin
  password: hunter2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, "sqlite://./tk.sqlite", cfg.Database.URL)
	assert.Equal(t, 8, cfg.Database.PoolSize)
	assert.Equal(t, "127.0.0.1", cfg.API.Addr)
	assert.Equal(t, 8080, cfg.API.Port)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TK_TEST_PASSWORD", "s3cret")

	path := writeConfig(t, `
admin:
  username: admin
  password: ${TK_TEST_PASSWORD}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Admin.Password)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingAdmin(t *testing.T) {
	path := writeConfig(t, `
database:
  url: sqlite://./tk.sqlite
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "admin.username")
}

func TestValidate_PoolSize(t *testing.T) {
	cfg := Default()
	cfg.Admin = AdminConfig{Username: "admin", Password: "x"}
	cfg.Database.PoolSize = 0

	assert.ErrorContains(t, cfg.Validate(), "pool_size")
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trapperkeeper.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, 8, cfg.Database.PoolSize)
}
