package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/msgdesk/internal/msg"
	"github.com/tOgg1/msgdesk/internal/session"
)

const defaultWatchInterval = 5 * time.Second

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new messages and print them as they arrive",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().Duration("interval", 0, "poll interval (default 5s or console.auto_refresh_sec)")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCmdConfig(cmd)
	if err != nil {
		return err
	}

	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = cfg.AutoRefresh()
	}
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	out := cmd.OutOrStdout()
	streaming := false
	sess := newSession(cfg, session.WithOnInserted(func(rows []msg.Message) {
		if !streaming {
			return
		}
		for _, row := range rows {
			fmt.Fprintln(out, formatLogLine(row))
		}
	}))
	defer sess.Close()

	if sess.Mode() != session.ModeDB {
		return Exitf(ExitCodeUsage, "watch requires db mode")
	}

	// Seed the cursor so only rows after startup stream out.
	if _, err := sess.RefreshAll(cmd.Context()); err != nil {
		return Exitf(ExitCodeFailure, "initial fetch: %v", err)
	}
	streaming = true
	fmt.Fprintf(out, "watching %s every %s (ctrl+c to stop)\n", cfg.Table.Name, interval)

	sess.SetAutoRefresh(cmd.Context(), interval)
	<-cmd.Context().Done()
	return nil
}
