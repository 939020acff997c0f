package msg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyPrefersServerID(t *testing.T) {
	m := Message{ID: "15", UserID: "u1", Sender: "user", CreatedAt: "2024-01-01T00:00:00Z", Body: "hello"}
	require.Equal(t, "id:15", Key(m))

	m.ID = ""
	require.Equal(t, "h:c47a9904", Key(m))
}

func TestKeyDeterministic(t *testing.T) {
	a := Message{UserID: "42", Sender: "admin", CreatedAt: "2024-06-01T12:00:00Z", Body: "hi"}
	b := a
	require.Equal(t, Key(a), Key(b))
	require.Equal(t, "h:800c7003", Key(a))

	// Any tuple field participates in the hash.
	b.Body = "hi!"
	require.NotEqual(t, Key(a), Key(b))
	b = a
	b.Sender = "user"
	require.NotEqual(t, Key(a), Key(b))
}

func TestKeyIgnoresTransientFields(t *testing.T) {
	a := Message{UserID: "u1", Sender: "admin", CreatedAt: "2024-01-01T00:00:00Z", Body: "x"}
	b := a
	b.Status = StatusPending
	b.AdminName = "support"
	b.File = "Zm9v"
	require.Equal(t, Key(a), Key(b))
}
