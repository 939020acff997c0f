package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/msgdesk/internal/msg"
	"github.com/tOgg1/msgdesk/internal/session"
)

const usersPaneWidth = 28

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 3 {
		contentHeight = 3
	}

	composeHeight := 3
	threadHeight := contentHeight - composeHeight
	threadWidth := m.width - usersPaneWidth - 1
	if threadWidth < 10 {
		threadWidth = 10
	}

	users := m.renderUsers(usersPaneWidth, contentHeight)
	thread := m.renderThread(threadWidth, threadHeight)
	compose := m.renderCompose(threadWidth, composeHeight)
	right := lipgloss.JoinVertical(lipgloss.Left, thread, compose)

	body := lipgloss.JoinHorizontal(lipgloss.Top, users, " ", right)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Header)).Render("msgdesk")

	mode := string(m.sess.Mode())
	health := "offline"
	healthColor := m.theme.Offline
	if m.sess.Mode() == session.ModeCSV {
		health = "local"
		healthColor = m.theme.Muted
	} else if m.healthy {
		health = "online"
		healthColor = m.theme.Online
	}
	healthLabel := lipgloss.NewStyle().Foreground(lipgloss.Color(healthColor)).Render("● " + health)

	refreshed := "never"
	if !m.lastRefresh.IsZero() {
		refreshed = relativeTime(m.lastRefresh, time.Now())
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted))
	right := muted.Render("mode:"+mode+"  ") + healthLabel + muted.Render("  refreshed "+refreshed)

	gap := maxInt(1, m.width-lipgloss.Width(title)-lipgloss.Width(right))
	return title + strings.Repeat(" ", gap) + right
}

func (m *Model) renderFooter() string {
	hint := "tab panes  enter open/send  r refresh  R reload  c compose  t theme  m mode  q quit"
	if m.status != "" {
		hint = m.status + "  |  " + hint
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Footer)).Render(truncateVis(hint, m.width))
}

func (m *Model) renderUsers(width, height int) string {
	border := m.paneBorder(m.focus == paneUsers)
	inner := width - 2

	conversations := m.sess.Store().Conversations()
	selected := m.sess.Store().Selected()

	lines := make([]string, 0, height)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Accent))
	lines = append(lines, titleStyle.Render(truncateVis(fmt.Sprintf("Users (%d)", len(conversations)), inner)))

	if len(conversations) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Render("no conversations"))
	}

	for i, conv := range conversations {
		if len(lines) >= height-2 {
			break
		}
		label := userLabel(conv.UserID)
		if conv.Unread > 0 {
			badge := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.UnreadBadge)).Bold(true).
				Render(fmt.Sprintf(" (%d)", conv.Unread))
			label = truncateVis(label, maxInt(1, inner-lipgloss.Width(badge)-2)) + badge
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Foreground))
		prefix := "  "
		if conv.UserID == selected {
			style = style.Foreground(lipgloss.Color(m.theme.SelectedItem))
			prefix = "* "
		}
		if i == m.userIdx && m.focus == paneUsers {
			style = style.Bold(true).Underline(true)
		}
		lines = append(lines, style.Render(truncateVis(prefix+label, inner)))

		if preview := previewLine(conv.LastMessage.Body); preview != "" && len(lines) < height-2 {
			muted := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted))
			lines = append(lines, muted.Render(truncateVis("    "+preview, inner)))
		}
	}

	return border.Width(inner).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderThread(width, height int) string {
	border := m.paneBorder(m.focus == paneThread)
	inner := width - 2
	innerHeight := height - 2

	selected := m.sess.Store().Selected()
	if selected == "" {
		empty := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Render("select a user to open the conversation")
		return border.Width(inner).Height(innerHeight).Render(empty)
	}

	rows := m.sess.Store().MessagesFor(selected)
	lines := m.threadLines(rows, inner)

	// Scroll from the bottom; newest messages stay in view by default.
	end := len(lines) - m.threadScroll
	if end > len(lines) {
		end = len(lines)
	}
	start := end - innerHeight
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return border.Width(inner).Height(innerHeight).Render(strings.Join(lines[start:end], "\n"))
}

func (m *Model) threadLines(rows []msg.Message, width int) []string {
	now := time.Now()
	lines := make([]string, 0, len(rows)*2)
	for _, row := range rows {
		lines = append(lines, m.messageHeaderLine(row, now, width))
		for _, body := range wrapText(row.Body, width-2) {
			lines = append(lines, "  "+body)
		}
		if row.File != "" {
			attach := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).
				Render("  [attachment " + displayMime(row.FileMime) + "]")
			lines = append(lines, attach)
		}
	}
	return lines
}

func (m *Model) messageHeaderLine(row msg.Message, now time.Time, width int) string {
	color := m.theme.UserMsg
	name := userLabel(row.UserID)
	if msg.IsAdmin(row.Sender) {
		color = m.theme.AdminMsg
		name = row.AdminName
		if strings.TrimSpace(name) == "" {
			name = "admin"
		}
	}
	nameLabel := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(name)

	timeLabel := row.CreatedAt
	if t, ok := msg.ParseTime(row.CreatedAt); ok {
		timeLabel = relativeTime(t, now)
	}
	meta := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Render(timeLabel)

	glyph := m.statusGlyph(row)
	line := nameLabel + " " + meta
	if glyph != "" {
		line += " " + glyph
	}
	return truncateVis(line, width)
}

// statusGlyph marks outgoing delivery state: ◷ pending, ✓✓ sent, ! failed.
func (m *Model) statusGlyph(row msg.Message) string {
	if !msg.IsAdmin(row.Sender) {
		return ""
	}
	switch row.Status {
	case msg.StatusPending:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Pending)).Render("◷")
	case msg.StatusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Failed)).Render("!")
	case msg.StatusSent:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Sent)).Render("✓✓")
	}
	return ""
}

func (m *Model) renderCompose(width, height int) string {
	border := m.paneBorder(m.focus == paneCompose)
	inner := width - 2

	prompt := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Render("> ")
	return border.Width(inner).Height(height - 2).Render(prompt + m.compose.Render(inner-2))
}

func (m *Model) paneBorder(active bool) lipgloss.Style {
	color := m.theme.InactivePane
	if active {
		color = m.theme.ActivePane
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color))
}

// userLabel renders a short operator-facing handle for a user identifier.
func userLabel(userID string) string {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return "(unknown)"
	}
	if len(trimmed) > 6 {
		return "USER " + strings.ToUpper(trimmed[len(trimmed)-6:])
	}
	return "USER " + strings.ToUpper(trimmed)
}

// previewLine flattens a message body to its first non-empty line.
func previewLine(body string) string {
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func displayMime(mime string) string {
	if i := strings.IndexByte(mime, '/'); i >= 0 && i+1 < len(mime) {
		return mime[i+1:]
	}
	if mime == "" {
		return "file"
	}
	return mime
}

func relativeTime(ts time.Time, now time.Time) string {
	if ts.IsZero() {
		return "unknown"
	}
	delta := now.Sub(ts)
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta < time.Minute:
		return fmt.Sprintf("%ds ago", int(delta.Seconds()))
	case delta < time.Hour:
		return fmt.Sprintf("%dm ago", int(delta.Minutes()))
	case delta < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(delta.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(delta.Hours()/24))
	}
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 1
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > width {
			out = append(out, string(runes[:width]))
			runes = runes[width:]
		}
		out = append(out, string(runes))
	}
	return out
}

func truncateVis(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
