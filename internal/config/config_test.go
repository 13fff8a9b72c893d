package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SCREENKIT_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/admin", cfg.Server.BasePath)
	assert.Equal(t, filepath.Join(home, ".local", "share", "screenkit", "screenkit.db"), cfg.Database.Path)
	assert.Equal(t, "screenkit", cfg.Telemetry.ServiceName)
	assert.Equal(t, "X-User-Email", cfg.Auth.Header)
	assert.Empty(t, cfg.Auth.DefaultUser)
	assert.Equal(t, "en", cfg.Locale)
}

func TestLoad_HomeConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SCREENKIT_CONFIG", "")

	dir := filepath.Join(home, ".config", "screenkit")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
locale = "nl"

[server]
base_path = "/panel"

[auth]
default_user = "admin@example.com"
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/panel", cfg.Server.BasePath)
	assert.Equal(t, "admin@example.com", cfg.Auth.DefaultUser)
	assert.Equal(t, "nl", cfg.Locale)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_ExplicitFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "screenkit.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9000"

[telemetry]
endpoint = "localhost:4318"
insecure = true
`), 0o644))
	t.Setenv("SCREENKIT_CONFIG", path)
	t.Setenv("SCREENKIT_SERVER_ADDR", ":9100")
	t.Setenv("SCREENKIT_DATABASE_PATH", ":memory:")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "localhost:4318", cfg.Telemetry.Endpoint)
	assert.True(t, cfg.Telemetry.Insecure)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SCREENKIT_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load()
	assert.ErrorContains(t, err, "read config")
}
