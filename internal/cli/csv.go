package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/msgdesk/internal/csvio"
)

func newCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Import and export CSV snapshots",
	}
	cmd.AddCommand(newCSVExportCmd(), newCSVImportCmd())
	return cmd
}

func newCSVExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Write the current rows as a CSV snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCSVExport,
	}
}

func runCSVExport(cmd *cobra.Command, args []string) error {
	sess, _, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	snapshot, err := sess.ExportCSV()
	if err != nil {
		return Exitf(ExitCodeFailure, "export: %v", err)
	}

	if len(args) == 0 {
		fmt.Fprint(cmd.OutOrStdout(), snapshot)
		return nil
	}

	path := args[0]
	if err := os.WriteFile(path, []byte(snapshot), 0o644); err != nil {
		return Exitf(ExitCodeFailure, "write %s: %v", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func newCSVImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Load a CSV snapshot and print the directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runCSVImport,
	}
}

func runCSVImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadCmdConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Console.Mode = "csv"

	data, err := os.ReadFile(args[0])
	if err != nil {
		return Exitf(ExitCodeFailure, "read csv: %v", err)
	}

	// Surface parse problems before touching the session.
	if _, err := csvio.ParseString(string(data)); err != nil {
		return Exitf(ExitCodeFailure, "parse csv: %v", err)
	}

	sess := newSession(cfg)
	defer sess.Close()

	count, err := sess.LoadCSV(string(data))
	if err != nil {
		return Exitf(ExitCodeFailure, "load csv: %v", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "loaded %d rows\n", count)

	conversations := sess.Store().Conversations()
	if len(conversations) == 0 {
		return nil
	}
	users := make([]string, 0, len(conversations))
	for _, conv := range conversations {
		users = append(users, fmt.Sprintf("%s (%d)", conv.UserID, conv.Count))
	}
	fmt.Fprintln(out, strings.Join(users, ", "))
	return nil
}
