package db

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tOgg1/msgdesk/internal/msg"
)

// Message repository errors.
var (
	ErrInvalidIdent  = errors.New("invalid identifier")
	ErrNoColumns     = errors.New("columns must be a non-empty list")
	ErrMissingUser   = errors.New("user_identifier is required")
	ErrEmptyPayload  = errors.New("message or attachment is required")
	ErrNoInsertables = errors.New("no insertable columns found")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const (
	defaultQueryLimit = 2000
	maxQueryLimit     = 5000
)

// MessageRepository reads and writes rows of the messages table. Table and
// column names are caller-supplied, so every identifier is validated before
// it is interpolated into SQL.
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListQuery bounds a row fetch. Since is exclusive; nil requests a full scan
// bounded by Limit.
type ListQuery struct {
	Table   string
	Columns []string
	Since   *time.Time
	Limit   int
}

// List returns rows ordered ascending by created_at. Timestamps are
// normalized to RFC 3339 UTC and attachment bytes to base64, matching the
// wire shape the console expects.
func (r *MessageRepository) List(ctx context.Context, q ListQuery) ([]msg.Message, error) {
	table, columns, err := validateIdents(q.Table, q.Columns)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	var sb strings.Builder
	args := make([]any, 0, 2)
	fmt.Fprintf(&sb, "select %s from %s", strings.Join(columns, ","), table)
	if q.Since != nil && containsColumn(columns, "created_at") {
		sb.WriteString(" where created_at > ?")
		args = append(args, q.Since.UTC().Format(time.RFC3339))
	}
	sb.WriteString(" order by created_at asc limit ?")
	args = append(args, limit)

	rows, err := r.db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []msg.Message
	values := make([]any, len(columns))
	for i := range values {
		values[i] = new(any)
	}

	for rows.Next() {
		if err := rows.Scan(values...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var m msg.Message
		for i, col := range columns {
			m.SetField(col, renderValue(*(values[i].(*any))))
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertRow is the payload for one admin send.
type InsertRow struct {
	UserID    string
	Sender    string
	AdminName string
	Body      string
	File      []byte
	FileMime  string
	CreatedAt time.Time
}

// Insert writes one row, restricted to the intersection of the requested
// column list and the known payload fields.
func (r *MessageRepository) Insert(ctx context.Context, table string, columns []string, row InsertRow) error {
	table, columns, err := validateIdents(table, columns)
	if err != nil {
		return err
	}

	if strings.TrimSpace(row.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(row.Body) == "" && len(row.File) == 0 {
		return ErrEmptyPayload
	}
	if row.Sender == "" {
		row.Sender = msg.AdminSender
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	payload := map[string]any{
		"user_identifier": row.UserID,
		"sender":          row.Sender,
		"admin_name":      row.AdminName,
		"message":         row.Body,
		"file":            row.File,
		"file_mime":       row.FileMime,
		"created_at":      row.CreatedAt.UTC().Format(time.RFC3339),
	}

	var insertCols []string
	var args []any
	for _, col := range columns {
		if value, ok := payload[col]; ok {
			insertCols = append(insertCols, col)
			args = append(args, value)
		}
	}
	if len(insertCols) == 0 {
		return ErrNoInsertables
	}

	query := fmt.Sprintf(
		"insert into %s (%s) values (%s)",
		table,
		strings.Join(insertCols, ","),
		strings.TrimSuffix(strings.Repeat("?,", len(insertCols)), ","),
	)

	return r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

func validateIdents(table string, columns []string) (string, []string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		table = "messages"
	}
	if !identPattern.MatchString(table) {
		return "", nil, fmt.Errorf("%w: table %q", ErrInvalidIdent, table)
	}

	if len(columns) == 0 {
		columns = append([]string(nil), msg.DefaultColumns...)
	}
	for _, col := range columns {
		if !identPattern.MatchString(col) {
			return "", nil, fmt.Errorf("%w: column %q", ErrInvalidIdent, col)
		}
	}
	return table, columns, nil
}

func containsColumn(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}

// renderValue converts a scanned SQL value into its wire string form.
func renderValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case []byte:
		return base64.StdEncoding.EncodeToString(value)
	case string:
		return value
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case time.Time:
		return value.UTC().Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(value)
	}
	return fmt.Sprint(v)
}
