// Package csvio reads and writes CSV snapshots of the message store. The
// header row defines column names; data rows may be ragged, with missing
// cells defaulting to the empty string.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tOgg1/msgdesk/internal/msg"
)

// ErrEmptySnapshot means the input had no header row.
var ErrEmptySnapshot = errors.New("csv snapshot is empty")

// Parse decodes a CSV snapshot into raw message records. Unknown columns are
// ignored; missing columns stay at their zero value and are defaulted later
// at the ingestion boundary.
func Parse(r io.Reader) ([]msg.Message, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptySnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []msg.Message
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		var m msg.Message
		empty := true
		for i, col := range header {
			value := ""
			if i < len(record) {
				value = record[i]
			}
			if strings.TrimSpace(value) != "" {
				empty = false
			}
			m.SetField(col, value)
		}
		if empty {
			continue
		}
		rows = append(rows, m)
	}
	return rows, nil
}

// ParseString decodes a CSV snapshot held in memory.
func ParseString(text string) ([]msg.Message, error) {
	return Parse(strings.NewReader(text))
}

// Encode writes rows under the configured column list with RFC-4180 quoting.
func Encode(w io.Writer, rows []msg.Message, columns []string) error {
	if len(columns) == 0 {
		columns = msg.DefaultColumns
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(columns))
	for i := range rows {
		for j, col := range columns {
			record[j] = rows[i].Field(col)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// EncodeString renders rows to a CSV string.
func EncodeString(rows []msg.Message, columns []string) (string, error) {
	var sb strings.Builder
	if err := Encode(&sb, rows, columns); err != nil {
		return "", err
	}
	return sb.String(), nil
}
