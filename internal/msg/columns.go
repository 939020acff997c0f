package msg

import "strings"

// DefaultColumns is the backing table's column list when none is configured.
var DefaultColumns = []string{"id", "user_identifier", "sender", "admin_name", "message", "file", "created_at"}

// ParseColumns splits a comma-separated column configuration, trimming
// whitespace and dropping empties.
func ParseColumns(spec string) []string {
	parts := strings.Split(spec, ",")
	cols := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cols = append(cols, trimmed)
		}
	}
	return cols
}

// Field returns the value of a column by its wire name. Unknown columns
// return the empty string.
func (m *Message) Field(col string) string {
	switch col {
	case "id":
		return m.ID
	case "user_identifier":
		return m.UserID
	case "sender":
		return m.Sender
	case "admin_name":
		return m.AdminName
	case "message":
		return m.Body
	case "file":
		return m.File
	case "file_mime":
		return m.FileMime
	case "created_at":
		return m.CreatedAt
	}
	return ""
}

// SetField assigns a column value by its wire name. Unknown columns are
// ignored so ragged CSV snapshots merge without error.
func (m *Message) SetField(col, value string) {
	switch col {
	case "id":
		m.ID = strings.TrimSpace(value)
	case "user_identifier":
		m.UserID = value
	case "sender":
		m.Sender = value
	case "admin_name":
		m.AdminName = value
	case "message":
		m.Body = value
	case "file":
		m.File = value
	case "file_mime":
		m.FileMime = value
	case "created_at":
		m.CreatedAt = value
	}
}
