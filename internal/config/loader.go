package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// MSGDESK_CONSOLE_MODE maps to console.mode, and so on.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ConfigFileUsed returns the path of the config file actually loaded, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "msgdesk"))
	}

	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "msgdesk"))
	}

	v.AddConfigPath(".")

	v.SetEnvPrefix("MSGDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envKeyReplacer)

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.db_url", cfg.API.DBURL)
	v.SetDefault("table.name", cfg.Table.Name)
	v.SetDefault("table.columns", cfg.Table.Columns)
	v.SetDefault("console.mode", cfg.Console.Mode)
	v.SetDefault("console.admin_name", cfg.Console.AdminName)
	v.SetDefault("console.after", cfg.Console.After)
	v.SetDefault("console.auto_refresh_sec", cfg.Console.AutoRefreshSec)
	v.SetDefault("console.theme", cfg.Console.Theme)
	v.SetDefault("console.query_limit", cfg.Console.QueryLimit)
	v.SetDefault("daemon.addr", cfg.Daemon.Addr)
	v.SetDefault("daemon.db_path", cfg.Daemon.DBPath)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)
}

func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}
	return l.v.ReadInConfig()
}
