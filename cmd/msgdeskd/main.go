// Package main is the entry point for the msgdeskd daemon.
// msgdeskd serves the thin HTTP row API over the messages table that the
// msgdesk console polls and writes through.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tOgg1/msgdesk/internal/config"
	"github.com/tOgg1/msgdesk/internal/db"
	"github.com/tOgg1/msgdesk/internal/logging"
	"github.com/tOgg1/msgdesk/internal/server"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	addr := flag.String("addr", "", "listen address (default from config, :8000)")
	dbPath := flag.String("db", "", "sqlite database path (default from config)")
	configFile := flag.String("config", "", "config file (default is $HOME/.config/msgdesk/config.yaml)")
	logLevel := flag.String("log-level", "", "override logging level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "override logging format (json, console)")
	flag.Parse()

	// Local .env files are how deployments pass MSGDESK_* settings.
	_ = godotenv.Load()

	cfg, loader, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}
	if *addr != "" {
		cfg.Daemon.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Daemon.DBPath = *dbPath
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	logger := logging.Component("msgdeskd")

	if cfgUsed := loader.ConfigFileUsed(); cfgUsed != "" {
		logger.Debug().Str("config_file", cfgUsed).Msg("loaded config file")
	}

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("built", date).
		Msg("msgdeskd starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(cfg.Daemon.DBPath)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Daemon.DBPath).Msg("failed to open database")
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(server.Config{
		Addr:         cfg.Daemon.Addr,
		DBPath:       cfg.Daemon.DBPath,
		DefaultTable: cfg.Table.Name,
	}, store)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("msgdeskd exited with error")
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
			os.Exit(1)
		}
	}
}

func loadConfig(path string) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	if path != "" {
		loader.SetConfigFile(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}
