// Package msg defines the message record shared by every msgdesk component
// and the normalization applied at the single ingestion boundary.
package msg

import (
	"encoding/json"
	"strings"
	"time"
)

// AdminSender is the sender tag for operator-originated messages. Any other
// sender value means user/customer.
const AdminSender = "admin"

// Status is the local-only delivery state of an optimistic message. Rows
// sourced from the server or a CSV snapshot carry no status and are treated
// as sent.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Message is a single row of a conversation. ID is the server-assigned
// identifier and is empty for sends that have not been confirmed yet. File
// holds a base64-encoded attachment; empty means none (null and "" are
// equivalent on the wire).
type Message struct {
	ID        string
	UserID    string
	Sender    string
	AdminName string
	Body      string
	File      string
	FileMime  string
	CreatedAt string

	// Status is transient and never serialized.
	Status Status
}

// IsAdmin reports whether a sender value is the admin role tag.
func IsAdmin(sender string) bool {
	return strings.EqualFold(strings.TrimSpace(sender), AdminSender)
}

// Pending reports whether the message is an unconfirmed optimistic send.
func (m *Message) Pending() bool {
	return m.ID == "" && m.Status == StatusPending
}

// Normalize applies ingestion defaults: sender falls back to "user",
// created_at falls back to the current time. It never rejects a row;
// malformed input degrades rather than erroring.
func Normalize(m Message, now func() time.Time) Message {
	if strings.TrimSpace(m.Sender) == "" {
		m.Sender = "user"
	}
	if strings.TrimSpace(m.CreatedAt) == "" {
		m.CreatedAt = now().UTC().Format(time.RFC3339)
	}
	return m
}

type messageWire struct {
	ID        json.RawMessage `json:"id,omitempty"`
	UserID    string          `json:"user_identifier"`
	Sender    string          `json:"sender,omitempty"`
	AdminName string          `json:"admin_name,omitempty"`
	Body      string          `json:"message"`
	File      *string         `json:"file,omitempty"`
	FileMime  string          `json:"file_mime,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// UnmarshalJSON accepts the row shape produced by the backend, where id may
// be a number, a string, or null depending on the column type.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.ID = decodeID(wire.ID)
	m.UserID = wire.UserID
	m.Sender = wire.Sender
	m.AdminName = wire.AdminName
	m.Body = wire.Body
	if wire.File != nil {
		m.File = *wire.File
	} else {
		m.File = ""
	}
	m.FileMime = wire.FileMime
	m.CreatedAt = wire.CreatedAt
	m.Status = ""
	return nil
}

// MarshalJSON emits the wire shape; id is a JSON string when present.
func (m Message) MarshalJSON() ([]byte, error) {
	wire := messageWire{
		UserID:    m.UserID,
		Sender:    m.Sender,
		AdminName: m.AdminName,
		Body:      m.Body,
		FileMime:  m.FileMime,
		CreatedAt: m.CreatedAt,
	}
	if m.ID != "" {
		id, err := json.Marshal(m.ID)
		if err != nil {
			return nil, err
		}
		wire.ID = id
	}
	if m.File != "" {
		file := m.File
		wire.File = &file
	}
	return json.Marshal(wire)
}

func decodeID(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	// Numeric id: keep the literal digits.
	return trimmed
}
