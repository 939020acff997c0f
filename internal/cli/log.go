package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/msgdesk/internal/msg"
)

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log <user>",
		Short: "Print the conversation with a user",
		Args:  cobra.ExactArgs(1),
		RunE:  runLog,
	}
	cmd.Flags().Bool("json", false, "emit rows as JSON")
	cmd.Flags().Int("tail", 0, "only show the last N messages")
	return cmd
}

func runLog(cmd *cobra.Command, args []string) error {
	sess, _, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	userID := strings.TrimSpace(args[0])
	rows := sess.Store().MessagesFor(userID)
	if tail, _ := cmd.Flags().GetInt("tail"); tail > 0 && tail < len(rows) {
		rows = rows[len(rows)-tail:]
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return Exitf(ExitCodeFailure, "encode rows: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	if len(rows) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no messages for %s\n", userID)
		return nil
	}

	for _, row := range rows {
		fmt.Fprintln(cmd.OutOrStdout(), formatLogLine(row))
	}
	return nil
}

func formatLogLine(row msg.Message) string {
	who := row.UserID
	if msg.IsAdmin(row.Sender) {
		who = "admin"
		if strings.TrimSpace(row.AdminName) != "" {
			who = row.AdminName
		}
	}

	line := fmt.Sprintf("%s  %-12s  %s", row.CreatedAt, who, row.Body)
	if row.File != "" {
		line += "  [attachment]"
	}
	if msg.IsAdmin(row.Sender) && row.Status != "" && row.Status != msg.StatusSent {
		line += "  (" + string(row.Status) + ")"
	}
	return line
}
