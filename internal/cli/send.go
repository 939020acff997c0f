package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/msgdesk/internal/msg"
)

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <user> [message]",
		Short: "Send an admin reply to a user",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runSendMessage,
	}
	cmd.Flags().String("file", "", "attach a file (pdf, png, or jpeg)")
	return cmd
}

func runSendMessage(cmd *cobra.Command, args []string) error {
	sess, _, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	userID := strings.TrimSpace(args[0])
	if userID == "" {
		return Exitf(ExitCodeUsage, "user is required")
	}
	sess.Store().Select(userID)

	text := ""
	if len(args) > 1 {
		text = args[1]
	}
	if strings.TrimSpace(text) == "" {
		piped, err := readStdinIfPiped()
		if err != nil {
			return Exitf(ExitCodeFailure, "read stdin: %v", err)
		}
		text = piped
	}

	attachment, err := loadAttachment(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" && attachment == nil {
		return Exitf(ExitCodeUsage, "message body or --file is required")
	}

	sent, err := sess.Send(cmd.Context(), text, attachment)
	if err != nil {
		return Exitf(ExitCodeFailure, "send: %v", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", sent.Status, msg.Key(sent))
	return nil
}

func loadAttachment(cmd *cobra.Command) (*msg.Attachment, error) {
	path, _ := cmd.Flags().GetString("file")
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "read file: %v", err)
	}
	attachment := &msg.Attachment{
		Name: filepath.Base(path),
		Data: data,
	}
	if err := attachment.Validate(); err != nil {
		return nil, Exitf(ExitCodeFailure, "%v", err)
	}
	return attachment, nil
}

func readStdinIfPiped() (string, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
