package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUserLabel(t *testing.T) {
	require.Equal(t, "USER F9A2C1", userLabel("7b3ef9a2c1"))
	require.Equal(t, "USER AB12", userLabel("ab12"))
	require.Equal(t, "USER AB12", userLabel("  ab12  "))
	require.Equal(t, "(unknown)", userLabel(""))
	require.Equal(t, "(unknown)", userLabel("   "))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, "unknown", relativeTime(time.Time{}, now))
	require.Equal(t, "30s ago", relativeTime(now.Add(-30*time.Second), now))
	require.Equal(t, "5m ago", relativeTime(now.Add(-5*time.Minute), now))
	require.Equal(t, "3h ago", relativeTime(now.Add(-3*time.Hour), now))
	require.Equal(t, "2d ago", relativeTime(now.Add(-49*time.Hour), now))

	// Clock skew renders as a magnitude, not a negative.
	require.Equal(t, "10s ago", relativeTime(now.Add(10*time.Second), now))
}

func TestDisplayMime(t *testing.T) {
	require.Equal(t, "pdf", displayMime("application/pdf"))
	require.Equal(t, "png", displayMime("image/png"))
	require.Equal(t, "file", displayMime(""))
	require.Equal(t, "weird", displayMime("weird"))
}

func TestWrapText(t *testing.T) {
	require.Equal(t, []string{"abcd", "efg"}, wrapText("abcdefg", 4))
	require.Equal(t, []string{"ab", "cd"}, wrapText("ab\ncd", 10))
	require.Nil(t, wrapText("   ", 10))
}

func TestTruncateVis(t *testing.T) {
	require.Equal(t, "short", truncateVis("short", 10))
	require.Equal(t, "lon…", truncateVis("longer text", 4))
	require.Equal(t, "", truncateVis("anything", 0))
}
