package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List conversations, most recent activity first",
		Args:  cobra.NoArgs,
		RunE:  runUsers,
	}
	cmd.Flags().Bool("json", false, "emit the directory as JSON")
	return cmd
}

func runUsers(cmd *cobra.Command, _ []string) error {
	sess, _, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	conversations := sess.Store().Conversations()

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		payload, err := json.MarshalIndent(conversations, "", "  ")
		if err != nil {
			return Exitf(ExitCodeFailure, "encode directory: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	if len(conversations) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no conversations")
		return nil
	}

	rows := make([][]string, 0, len(conversations))
	for _, conv := range conversations {
		rows = append(rows, []string{
			conv.UserID,
			strconv.Itoa(conv.Count),
			strconv.Itoa(conv.Unread),
			conv.LastMessage.CreatedAt,
		})
	}
	return writeTable(cmd.OutOrStdout(), []string{"USER", "MSGS", "UNREAD", "LAST"}, rows)
}
