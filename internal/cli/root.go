// Package cli implements the msgdesk console commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tOgg1/msgdesk/internal/api"
	"github.com/tOgg1/msgdesk/internal/config"
	"github.com/tOgg1/msgdesk/internal/logging"
	"github.com/tOgg1/msgdesk/internal/session"
	"github.com/tOgg1/msgdesk/internal/tui"
)

// Execute runs the msgdesk command tree.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(version).ExecuteContext(ctx)
}

// ExecuteTUI launches the interactive console directly, used for bare
// invocations.
func ExecuteTUI(version string) error {
	_ = godotenv.Load()

	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	sess := newSession(cfg)
	defer sess.Close()

	return tui.Run(sess, tui.Config{
		Theme:        cfg.Console.Theme,
		PollInterval: cfg.AutoRefresh(),
	})
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "msgdesk",
		Short:         "Admin console for user message threads",
		Long:          "msgdesk synchronizes, browses, and answers user message threads from a backing table or CSV snapshots.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.config/msgdesk/config.yaml)")
	flags.String("mode", "", "row source: db or csv")
	flags.String("base-url", "", "backend row API base URL")
	flags.String("db-url", "", "database URL forwarded to the backend")
	flags.String("table", "", "backing table name")
	flags.String("columns", "", "comma-separated column list")
	flags.String("admin-name", "", "display attribution on outgoing replies")
	flags.String("after", "", "only fetch rows newer than this date or timestamp")
	flags.Int("limit", 0, "max rows per fetch")
	flags.String("csv", "", "CSV snapshot to load in csv mode")
	flags.String("log-level", "", "override logging level (debug, info, warn, error)")

	cmd.AddCommand(
		newLogCmd(),
		newSendCmd(),
		newUsersCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newCSVCmd(),
	)

	return cmd
}

// loadCmdConfig resolves config for a subcommand: defaults < file < env <
// flags.
func loadCmdConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	loader := config.NewLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader.SetConfigFile(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Console.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("base-url") {
		cfg.API.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("db-url") {
		cfg.API.DBURL, _ = flags.GetString("db-url")
	}
	if flags.Changed("table") {
		cfg.Table.Name, _ = flags.GetString("table")
	}
	if flags.Changed("columns") {
		cfg.Table.Columns, _ = flags.GetString("columns")
	}
	if flags.Changed("admin-name") {
		cfg.Console.AdminName, _ = flags.GetString("admin-name")
	}
	if flags.Changed("after") {
		cfg.Console.After, _ = flags.GetString("after")
	}
	if flags.Changed("limit") {
		cfg.Console.QueryLimit, _ = flags.GetInt("limit")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	return cfg, nil
}

func newSession(cfg *config.Config, opts ...session.Option) *session.Session {
	settings := session.Settings{
		Mode:       session.Mode(cfg.Console.Mode),
		DBURL:      cfg.API.DBURL,
		Table:      cfg.Table.Name,
		Columns:    cfg.Columns(),
		AdminName:  cfg.Console.AdminName,
		After:      cfg.Console.After,
		QueryLimit: cfg.Console.QueryLimit,
	}
	backend := api.NewClient(cfg.API.BaseURL)
	return session.New(settings, backend, opts...)
}

// openSession builds a session and loads rows: a fetch in db mode, the --csv
// snapshot in csv mode.
func openSession(cmd *cobra.Command, opts ...session.Option) (*session.Session, *config.Config, error) {
	cfg, err := loadCmdConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	sess := newSession(cfg, opts...)

	switch sess.Mode() {
	case session.ModeCSV:
		path, _ := cmd.Flags().GetString("csv")
		if strings.TrimSpace(path) == "" {
			return sess, cfg, nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			sess.Close()
			return nil, nil, Exitf(ExitCodeFailure, "read csv: %v", err)
		}
		if _, err := sess.LoadCSV(string(data)); err != nil {
			sess.Close()
			return nil, nil, Exitf(ExitCodeFailure, "parse csv: %v", err)
		}
	case session.ModeDB:
		if _, err := sess.RefreshAll(cmd.Context()); err != nil {
			sess.Close()
			return nil, nil, Exitf(ExitCodeFailure, "fetch rows: %v", err)
		}
	}
	return sess, cfg, nil
}
