package inbox

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/msgdesk/internal/msg"
)

func TestConversationsOrdering(t *testing.T) {
	s := New(WithNow(fixedNow))
	s.InsertBatch([]msg.Message{
		row("1", "u1", "user", "2024-01-01T10:00:00Z", "a"),
		row("2", "u2", "user", "2024-01-01T11:00:00Z", "b"),
		row("3", "u1", "admin", "2024-01-01T10:30:00Z", "c"),
	}, false)

	conversations := s.Conversations()
	require.Len(t, conversations, 2)

	// Most recent activity first.
	require.Equal(t, "u2", conversations[0].UserID)
	require.Equal(t, "u1", conversations[1].UserID)
	require.Equal(t, 2, conversations[1].Count)
	require.Equal(t, "c", conversations[1].LastMessage.Body)
}

func TestConversationsTieBreaksByUserID(t *testing.T) {
	s := New(WithNow(fixedNow))
	s.InsertBatch([]msg.Message{
		row("1", "u2", "user", "2024-01-01T10:00:00Z", "a"),
		row("2", "u1", "user", "2024-01-01T10:00:00Z", "b"),
	}, false)

	conversations := s.Conversations()
	require.Equal(t, "u1", conversations[0].UserID)
	require.Equal(t, "u2", conversations[1].UserID)
}

func TestConversationsSkipEmptyUser(t *testing.T) {
	s := New(WithNow(fixedNow))
	s.InsertBatch([]msg.Message{
		row("1", "", "user", "2024-01-01T10:00:00Z", "orphan"),
		row("2", "u1", "user", "2024-01-01T10:00:00Z", "b"),
	}, false)

	conversations := s.Conversations()
	require.Len(t, conversations, 1)
	require.Equal(t, "u1", conversations[0].UserID)
}

func TestConversationsCarryUnread(t *testing.T) {
	s := New(WithNow(fixedNow))
	s.MarkLoaded()
	s.SetAllowUnread(true)
	s.InsertBatch([]msg.Message{row("1", "u1", "user", "2024-01-01T10:00:00Z", "a")}, true)

	conversations := s.Conversations()
	require.Equal(t, 1, conversations[0].Unread)
}
