package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	require.Equal(t, "messages", cfg.Table.Name)
	require.Equal(t, "csv", cfg.Console.Mode)
	require.Equal(t, "dark", cfg.Console.Theme)
	require.Equal(t, 5000, cfg.Console.QueryLimit)
	require.Equal(t, ":8000", cfg.Daemon.Addr)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  base_url: http://example.test:9000
console:
  mode: db
  admin_name: support
  auto_refresh_sec: 30
table:
  name: support_messages
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	require.NoError(t, err)

	require.Equal(t, "http://example.test:9000", cfg.API.BaseURL)
	require.Equal(t, "db", cfg.Console.Mode)
	require.Equal(t, "support", cfg.Console.AdminName)
	require.Equal(t, "support_messages", cfg.Table.Name)
	require.Equal(t, 30*time.Second, cfg.AutoRefresh())

	// Untouched keys keep their defaults.
	require.Equal(t, "dark", cfg.Console.Theme)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("console:\n  mode: csv\n"), 0o644))

	t.Setenv("MSGDESK_CONSOLE_MODE", "db")
	t.Setenv("MSGDESK_API_BASE_URL", "http://env.test:8000")

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	require.NoError(t, err)

	require.Equal(t, "db", cfg.Console.Mode)
	require.Equal(t, "http://env.test:8000", cfg.API.BaseURL)
}

func TestExplicitMissingFileFails(t *testing.T) {
	loader := NewLoader()
	loader.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := loader.Load()
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Console.Mode = "postgres"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Console.Theme = "solarized"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Table.Name = "  "
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Console.QueryLimit = -1
	require.Error(t, cfg.Validate())

	require.NoError(t, DefaultConfig().Validate())
}

func TestColumnsFallBackToDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Table.Columns = " , "
	require.Equal(t, []string{"id", "user_identifier", "sender", "admin_name", "message", "file", "created_at"}, cfg.Columns())
}
