package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tOgg1/msgdesk/internal/logging"
	"github.com/tOgg1/msgdesk/internal/session"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend health and effective settings",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCmdConfig(cmd)
	if err != nil {
		return err
	}

	sess := newSession(cfg)
	defer sess.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mode:        %s\n", cfg.Console.Mode)
	fmt.Fprintf(out, "base url:    %s\n", cfg.API.BaseURL)
	if cfg.API.DBURL != "" {
		fmt.Fprintf(out, "db url:      %s\n", logging.RedactURL(cfg.API.DBURL))
	}
	fmt.Fprintf(out, "table:       %s\n", cfg.Table.Name)
	fmt.Fprintf(out, "columns:     %s\n", cfg.Table.Columns)
	if cfg.Console.After != "" {
		fmt.Fprintf(out, "after:       %s\n", session.NormalizeAfter(cfg.Console.After))
	}
	fmt.Fprintf(out, "query limit: %d\n", cfg.Console.QueryLimit)

	if sess.Mode() != session.ModeDB {
		fmt.Fprintln(out, "backend:     n/a (csv mode)")
		return nil
	}

	if sess.CheckHealth(cmd.Context()) {
		fmt.Fprintln(out, "backend:     online")
	} else {
		fmt.Fprintln(out, "backend:     unreachable")
	}

	if sess.TestConnection(cmd.Context()) {
		fmt.Fprintln(out, "database:    connected")
	} else {
		fmt.Fprintln(out, "database:    not connected")
		return &ExitError{Code: ExitCodeFailure, Printed: true}
	}
	return nil
}
