package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/msgdesk/internal/msg"
)

func TestSendOptimisticThenSent(t *testing.T) {
	backend := newFakeBackend()
	sess := New(dbSettings(), backend, WithNow(testNow))
	defer sess.Close()

	sess.Store().Select("u1")

	sent, err := sess.Send(context.Background(), "hello there", nil)
	require.NoError(t, err)
	require.Equal(t, msg.StatusSent, sent.Status)
	require.Equal(t, "admin", sent.Sender)
	require.Equal(t, "support", sent.AdminName)
	require.Equal(t, "2024-06-01T12:00:00Z", sent.CreatedAt)

	require.Len(t, backend.sends, 1)
	require.Equal(t, "u1", backend.sends[0].UserID)
	require.Equal(t, "hello there", backend.sends[0].Body)
	require.Nil(t, backend.sends[0].FileBase64)

	rows := sess.Store().MessagesFor("u1")
	require.Len(t, rows, 1)
	require.Equal(t, msg.StatusSent, rows[0].Status)
}

func TestSendTransportFailureMarksFailed(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("boom")
	sess := New(dbSettings(), backend, WithNow(testNow))
	defer sess.Close()
	sess.Store().Select("u1")

	sent, err := sess.Send(context.Background(), "hello", nil)
	require.Error(t, err)
	require.Equal(t, msg.StatusFailed, sent.Status)

	// The optimistic row stays visible, flagged failed.
	rows := sess.Store().MessagesFor("u1")
	require.Len(t, rows, 1)
	require.Equal(t, msg.StatusFailed, rows[0].Status)
}

func TestSendRejectedMarksFailed(t *testing.T) {
	backend := newFakeBackend()
	backend.sendOK = false
	sess := New(dbSettings(), backend, WithNow(testNow))
	defer sess.Close()
	sess.Store().Select("u1")

	sent, err := sess.Send(context.Background(), "hello", nil)
	require.ErrorIs(t, err, ErrSendRejected)
	require.Equal(t, msg.StatusFailed, sent.Status)
}

func TestSendEmptyRejectedLocally(t *testing.T) {
	backend := newFakeBackend()
	sess := New(dbSettings(), backend, WithNow(testNow))
	defer sess.Close()
	sess.Store().Select("u1")

	_, err := sess.Send(context.Background(), "   ", nil)
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.Empty(t, backend.sends)
}

func TestSendNoConversation(t *testing.T) {
	sess := New(dbSettings(), newFakeBackend(), WithNow(testNow))
	defer sess.Close()

	_, err := sess.Send(context.Background(), "hello", nil)
	require.ErrorIs(t, err, ErrNoUser)
}

func TestSendDefaultsToFirstConversation(t *testing.T) {
	backend := newFakeBackend()
	sess := New(dbSettings(), backend, WithNow(testNow))
	defer sess.Close()

	sess.Store().InsertBatch([]msg.Message{
		serverRow("1", "zeta", "2024-01-01T10:00:00Z", "a"),
		serverRow("2", "alpha", "2024-01-01T11:00:00Z", "b"),
	}, false)

	sent, err := sess.Send(context.Background(), "hello", nil)
	require.NoError(t, err)
	require.Equal(t, "alpha", sent.UserID, "lowest user id wins when nothing is selected")
	require.Equal(t, "alpha", sess.Store().Selected())
}

func TestSendCSVModeIsLocal(t *testing.T) {
	backend := newFakeBackend()
	sess := New(Settings{Mode: ModeCSV, AdminName: "support"}, backend, WithNow(testNow))
	defer sess.Close()
	sess.Store().Select("u1")

	sent, err := sess.Send(context.Background(), "hello", nil)
	require.NoError(t, err)
	require.Equal(t, msg.StatusSent, sent.Status)
	require.Empty(t, backend.sends, "csv mode never talks to the backend")
}

func TestSendAttachmentValidation(t *testing.T) {
	backend := newFakeBackend()
	sess := New(dbSettings(), backend, WithNow(testNow))
	defer sess.Close()
	sess.Store().Select("u1")

	bad := &msg.Attachment{Data: []byte("not a known type")}
	_, err := sess.Send(context.Background(), "", bad)
	require.ErrorIs(t, err, msg.ErrAttachmentType)
	require.Empty(t, backend.sends)

	good := &msg.Attachment{Name: "doc.pdf", Data: []byte("%PDF-1.4 content")}
	sent, err := sess.Send(context.Background(), "see attached", good)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", sent.FileMime)
	require.NotEmpty(t, sent.File)
	require.NotNil(t, backend.sends[0].FileBase64)
}

func TestPollReconcilesInFlightSend(t *testing.T) {
	backend := newFakeBackend()
	sess := New(dbSettings(), backend, WithNow(testNow))
	defer sess.Close()
	sess.Store().Select("u1")

	// The compose path inserts the optimistic row before the send round-trip
	// completes; a background poll can land in that window carrying the
	// server-confirmed copy with an id and a reformatted timestamp.
	pending := msg.Message{UserID: "u1", Sender: "admin", AdminName: "support",
		Body: "hello", CreatedAt: "2024-06-01T12:00:00Z", Status: msg.StatusPending}
	sess.Store().InsertBatch([]msg.Message{pending}, false)

	echo := msg.Message{ID: "99", UserID: "u1", Sender: "admin", AdminName: "support",
		Body: "hello", CreatedAt: "2024-06-01T12:00:02Z"}
	backend.rows = append(backend.rows, echo)

	_, err := sess.RefreshIncremental(context.Background(), false)
	require.NoError(t, err)

	rows := sess.Store().MessagesFor("u1")
	require.Len(t, rows, 1)
	require.Equal(t, "99", rows[0].ID)
}
