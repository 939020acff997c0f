// Package config handles msgdesk configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tOgg1/msgdesk/internal/msg"
)

// Config is the root configuration structure for the console.
type Config struct {
	// API settings for the backend row service.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Table describes the backing table and its columns.
	Table TableConfig `yaml:"table" mapstructure:"table"`

	// Console settings.
	Console ConsoleConfig `yaml:"console" mapstructure:"console"`

	// Daemon settings for msgdeskd.
	Daemon DaemonConfig `yaml:"daemon" mapstructure:"daemon"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	// BaseURL is the backend row API base, e.g. http://localhost:8000.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// DBURL is forwarded to the backend for per-request database selection.
	// Leave empty to use the backend's own DATABASE_URL.
	DBURL string `yaml:"db_url" mapstructure:"db_url"`
}

// TableConfig describes the backing table.
type TableConfig struct {
	// Name is the table name (default: messages).
	Name string `yaml:"name" mapstructure:"name"`

	// Columns is the comma-separated column list used for query, send, and
	// CSV export.
	Columns string `yaml:"columns" mapstructure:"columns"`
}

// ConsoleConfig contains operator-facing settings.
type ConsoleConfig struct {
	// Mode selects the row source: db or csv.
	Mode string `yaml:"mode" mapstructure:"mode"`

	// AdminName is the display attribution on outgoing replies.
	AdminName string `yaml:"admin_name" mapstructure:"admin_name"`

	// After filters fetches to rows newer than this date or timestamp.
	After string `yaml:"after" mapstructure:"after"`

	// AutoRefreshSec is the background poll interval in seconds; 0 disables.
	AutoRefreshSec int `yaml:"auto_refresh_sec" mapstructure:"auto_refresh_sec"`

	// Theme is the TUI theme (dark, light).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// QueryLimit caps rows per fetch.
	QueryLimit int `yaml:"query_limit" mapstructure:"query_limit"`
}

// DaemonConfig contains msgdeskd settings.
type DaemonConfig struct {
	// Addr is the listen address, e.g. :8000.
	Addr string `yaml:"addr" mapstructure:"addr"`

	// DBPath is the SQLite database file backing the row API.
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
		},
		Table: TableConfig{
			Name:    "messages",
			Columns: strings.Join(msg.DefaultColumns, ", "),
		},
		Console: ConsoleConfig{
			Mode:       "csv",
			Theme:      "dark",
			QueryLimit: 5000,
		},
		Daemon: DaemonConfig{
			Addr:   ":8000",
			DBPath: "msgdesk.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Columns returns the parsed column list.
func (c *Config) Columns() []string {
	cols := msg.ParseColumns(c.Table.Columns)
	if len(cols) == 0 {
		cols = append([]string(nil), msg.DefaultColumns...)
	}
	return cols
}

// AutoRefresh returns the poll interval as a duration.
func (c *Config) AutoRefresh() time.Duration {
	if c.Console.AutoRefreshSec <= 0 {
		return 0
	}
	return time.Duration(c.Console.AutoRefreshSec) * time.Second
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Console.Mode {
	case "db", "csv":
	default:
		return fmt.Errorf("invalid console.mode %q (want db or csv)", c.Console.Mode)
	}

	switch c.Console.Theme {
	case "", "dark", "light":
	default:
		return fmt.Errorf("invalid console.theme %q (want dark or light)", c.Console.Theme)
	}

	if c.Console.QueryLimit < 0 {
		return fmt.Errorf("console.query_limit must be non-negative")
	}
	if c.Console.AutoRefreshSec < 0 {
		return fmt.Errorf("console.auto_refresh_sec must be non-negative")
	}

	if strings.TrimSpace(c.Table.Name) == "" {
		return fmt.Errorf("table.name is required")
	}

	return nil
}
