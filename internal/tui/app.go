// Package tui implements the msgdesk operator console: a user directory
// pane, a conversation pane, and a one-line compose input over a shared
// inbox session.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/msgdesk/internal/msg"
	"github.com/tOgg1/msgdesk/internal/session"
)

const (
	defaultPollInterval   = 5 * time.Second
	defaultHealthInterval = 5 * time.Second
	requestTimeout        = 15 * time.Second
)

type pane int

const (
	paneUsers pane = iota
	paneThread
	paneCompose
)

// Config holds console settings.
type Config struct {
	Theme          string
	PollInterval   time.Duration
	HealthInterval time.Duration
}

type refreshTickMsg struct{}

type healthTickMsg struct{}

type refreshedMsg struct {
	added int
	err   error
}

type healthMsg struct {
	ok bool
}

type sentMsg struct {
	row msg.Message
	err error
}

// Model is the root bubbletea model for the console.
type Model struct {
	sess      *session.Session
	theme     Theme
	themeName string
	poll      time.Duration
	health    time.Duration

	width  int
	height int

	focus        pane
	userIdx      int
	threadScroll int // lines scrolled up from the newest message
	compose      composeInput

	healthy     bool
	lastRefresh time.Time
	status      string
}

// NewModel builds the console model over an existing session.
func NewModel(sess *session.Session, cfg Config) (*Model, error) {
	name := cfg.Theme
	if name == "" {
		name = "dark"
	}
	theme, ok := Themes[name]
	if !ok {
		return nil, fmt.Errorf("invalid theme %q", cfg.Theme)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = defaultHealthInterval
	}

	return &Model{
		sess:      sess,
		theme:     theme,
		themeName: name,
		poll:      cfg.PollInterval,
		health:    cfg.HealthInterval,
		focus:     paneUsers,
	}, nil
}

// Run starts the console and blocks until it exits.
func Run(sess *session.Session, cfg Config) error {
	model, err := NewModel(sess, cfg)
	if err != nil {
		return err
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.refreshCmd(true, true),
		refreshTick(m.poll),
		healthTick(m.health),
	)
}

func refreshTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func healthTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

// refreshCmd fetches rows off the UI loop. Manual refreshes raise the unread
// gate; timed polls count unread only after the first load has landed.
func (m *Model) refreshCmd(incremental, manual bool) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var (
			rows []msg.Message
			err  error
		)
		if incremental {
			rows, err = sess.RefreshIncremental(ctx, manual)
		} else {
			rows, err = sess.RefreshAll(ctx)
		}
		return refreshedMsg{added: len(rows), err: err}
	}
}

func (m *Model) healthCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return healthMsg{ok: sess.CheckHealth(ctx)}
	}
}

func (m *Model) sendCmd(text string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		row, err := sess.Send(ctx, text, nil)
		return sentMsg{row: row, err: err}
	}
}

func (m *Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil

	case refreshTickMsg:
		// The tick chain stays alive across mode switches; polling is a
		// db-mode behavior only.
		if m.sess.Mode() != session.ModeDB {
			return m, refreshTick(m.poll)
		}
		return m, tea.Batch(m.refreshCmd(true, false), refreshTick(m.poll))

	case healthTickMsg:
		if m.sess.Mode() != session.ModeDB {
			return m, healthTick(m.health)
		}
		return m, tea.Batch(m.healthCmd(), healthTick(m.health))

	case refreshedMsg:
		m.lastRefresh = time.Now()
		if typed.err != nil {
			m.status = "refresh failed: " + typed.err.Error()
			return m, nil
		}
		if typed.added > 0 {
			m.status = fmt.Sprintf("%d new", typed.added)
		}
		m.clampUserIdx()
		return m, nil

	case healthMsg:
		m.healthy = typed.ok
		return m, nil

	case sentMsg:
		if typed.err != nil {
			m.status = "send failed: " + typed.err.Error()
			return m, nil
		}
		m.status = "sent to " + userLabel(typed.row.UserID)
		m.threadScroll = 0
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m *Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		m.sess.Close()
		return m, tea.Quit
	case "tab":
		m.focus = (m.focus + 1) % 3
		return m, nil
	case "shift+tab":
		m.focus = (m.focus + 2) % 3
		return m, nil
	}

	if m.focus == paneCompose {
		if key.Type == tea.KeyEnter {
			if m.compose.Empty() {
				return m, nil
			}
			text := m.compose.Value()
			m.compose.Reset()
			return m, m.sendCmd(text)
		}
		if m.compose.Handle(key) {
			return m, nil
		}
		if key.Type == tea.KeyEsc {
			m.focus = paneUsers
		}
		return m, nil
	}

	switch key.String() {
	case "q", "esc":
		m.sess.Close()
		return m, tea.Quit
	case "r":
		m.status = "refreshing..."
		return m, m.refreshCmd(true, true)
	case "R":
		m.status = "reloading..."
		return m, m.refreshCmd(false, true)
	case "c":
		m.focus = paneCompose
		return m, nil
	case "t":
		if m.themeName == "dark" {
			m.themeName, m.theme = "light", LightTheme
		} else {
			m.themeName, m.theme = "dark", DarkTheme
		}
		return m, nil
	case "m":
		if m.sess.Mode() == session.ModeDB {
			m.sess.SetMode(session.ModeCSV)
			m.status = "csv mode"
			return m, nil
		}
		m.sess.SetMode(session.ModeDB)
		m.status = "db mode"
		return m, m.refreshCmd(false, true)
	}

	switch m.focus {
	case paneUsers:
		return m.handleUsersKey(key)
	case paneThread:
		return m.handleThreadKey(key)
	}
	return m, nil
}

func (m *Model) handleUsersKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	conversations := m.sess.Store().Conversations()
	switch key.String() {
	case "up", "k":
		if m.userIdx > 0 {
			m.userIdx--
		}
	case "down", "j":
		if m.userIdx < len(conversations)-1 {
			m.userIdx++
		}
	case "enter":
		if m.userIdx < len(conversations) {
			uid := conversations[m.userIdx].UserID
			m.sess.Store().Select(uid)
			m.threadScroll = 0
			m.status = "viewing " + userLabel(uid)
		}
	}
	return m, nil
}

func (m *Model) handleThreadKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		m.threadScroll++
	case "down", "j":
		if m.threadScroll > 0 {
			m.threadScroll--
		}
	case "G":
		m.threadScroll = 0
	}
	return m, nil
}

func (m *Model) clampUserIdx() {
	n := len(m.sess.Store().Conversations())
	if n == 0 {
		m.userIdx = 0
		return
	}
	if m.userIdx >= n {
		m.userIdx = n - 1
	}
}
