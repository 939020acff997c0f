package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// composeInput is a single-line text input with cursor movement. It stays
// deliberately small; multi-line drafts are out of scope for the console.
type composeInput struct {
	runes  []rune
	cursor int
}

func (c *composeInput) Value() string {
	return string(c.runes)
}

func (c *composeInput) Empty() bool {
	return strings.TrimSpace(string(c.runes)) == ""
}

func (c *composeInput) Reset() {
	c.runes = nil
	c.cursor = 0
}

// Handle applies one key event. Returns true when the event was consumed.
func (c *composeInput) Handle(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		c.insert(msg.Runes)
		return true
	case tea.KeySpace:
		c.insert([]rune{' '})
		return true
	case tea.KeyBackspace:
		if c.cursor > 0 {
			c.runes = append(c.runes[:c.cursor-1], c.runes[c.cursor:]...)
			c.cursor--
		}
		return true
	case tea.KeyDelete:
		if c.cursor < len(c.runes) {
			c.runes = append(c.runes[:c.cursor], c.runes[c.cursor+1:]...)
		}
		return true
	case tea.KeyLeft:
		if c.cursor > 0 {
			c.cursor--
		}
		return true
	case tea.KeyRight:
		if c.cursor < len(c.runes) {
			c.cursor++
		}
		return true
	case tea.KeyHome, tea.KeyCtrlA:
		c.cursor = 0
		return true
	case tea.KeyEnd, tea.KeyCtrlE:
		c.cursor = len(c.runes)
		return true
	case tea.KeyCtrlU:
		c.runes = append([]rune(nil), c.runes[c.cursor:]...)
		c.cursor = 0
		return true
	}
	return false
}

func (c *composeInput) insert(runes []rune) {
	if len(runes) == 0 {
		return
	}
	out := make([]rune, 0, len(c.runes)+len(runes))
	out = append(out, c.runes[:c.cursor]...)
	out = append(out, runes...)
	out = append(out, c.runes[c.cursor:]...)
	c.runes = out
	c.cursor += len(runes)
}

// Render returns the visible input with a block cursor, clipped to width.
func (c *composeInput) Render(width int) string {
	if width <= 1 {
		return ""
	}
	text := string(c.runes)
	cursor := c.cursor

	// Keep the cursor in view when the draft is wider than the pane.
	if len(c.runes) >= width {
		start := cursor - width + 1
		if start < 0 {
			start = 0
		}
		end := start + width - 1
		if end > len(c.runes) {
			end = len(c.runes)
		}
		text = string(c.runes[start:end])
		cursor -= start
	}

	if cursor >= len([]rune(text)) {
		return text + "█"
	}
	visible := []rune(text)
	return string(visible[:cursor]) + "█" + string(visible[cursor+1:])
}
