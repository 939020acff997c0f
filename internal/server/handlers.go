package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tOgg1/msgdesk/internal/api"
	"github.com/tOgg1/msgdesk/internal/db"
	"github.com/tOgg1/msgdesk/internal/msg"
)

func (s *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		OK: true,
		TS: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleDBTest(w http.ResponseWriter, req *http.Request) {
	var body api.DBTestRequest
	if err := decodeJSON(req, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, api.DBTestResponse{OK: false, Error: err.Error()})
		return
	}

	// Connectivity failures are a result, not a protocol error.
	if err := s.store.Ping(req.Context()); err != nil {
		writeJSON(w, http.StatusOK, api.DBTestResponse{OK: false, Connected: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, api.DBTestResponse{OK: true, Connected: true})
}

func (s *Server) handleQuery(w http.ResponseWriter, req *http.Request) {
	var body api.QueryRequest
	if err := decodeJSON(req, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, api.QueryResponse{OK: false, Error: err.Error()})
		return
	}

	q := db.ListQuery{
		Table:   firstNonEmpty(body.Table, s.cfg.DefaultTable),
		Columns: body.Columns,
		Limit:   body.Limit,
	}
	if body.Since != nil {
		if t, ok := msg.ParseTime(*body.Since); ok {
			q.Since = &t
		}
	}

	rows, err := s.repo.List(req.Context(), q)
	if err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, api.QueryResponse{OK: false, Error: err.Error()})
		return
	}
	if rows == nil {
		rows = []msg.Message{}
	}
	writeJSON(w, http.StatusOK, api.QueryResponse{OK: true, Rows: rows})
}

func (s *Server) handleSend(w http.ResponseWriter, req *http.Request) {
	var body api.SendRequest
	if err := decodeJSON(req, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, api.SendResponse{OK: false, Error: err.Error()})
		return
	}

	row := db.InsertRow{
		UserID:    strings.TrimSpace(body.UserID),
		Sender:    body.Sender,
		AdminName: body.AdminName,
		Body:      body.Body,
	}
	if row.Sender == "" {
		row.Sender = msg.AdminSender
	}
	if t, ok := msg.ParseTime(body.CreatedAt); ok {
		row.CreatedAt = t
	}

	if body.FileBase64 != nil && *body.FileBase64 != "" {
		raw := *body.FileBase64
		if len(raw) > base64.StdEncoding.EncodedLen(msg.MaxAttachmentBytes) {
			writeJSON(w, http.StatusBadRequest, api.SendResponse{OK: false, Error: msg.ErrAttachmentTooLarge.Error()})
			return
		}
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, api.SendResponse{OK: false, Error: "file_base64 is not valid base64"})
			return
		}
		att := msg.Attachment{Data: data}
		if err := att.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, api.SendResponse{OK: false, Error: err.Error()})
			return
		}
		row.File = data
		row.FileMime = att.Mime()
	}

	err := s.repo.Insert(req.Context(), firstNonEmpty(body.Table, s.cfg.DefaultTable), body.Columns, row)
	if err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, api.SendResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, api.SendResponse{OK: true, Inserted: true})
}

func decodeJSON(req *http.Request, out any) error {
	defer req.Body.Close()
	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(out); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func isValidationError(err error) bool {
	return errors.Is(err, db.ErrInvalidIdent) ||
		errors.Is(err, db.ErrNoColumns) ||
		errors.Is(err, db.ErrMissingUser) ||
		errors.Is(err, db.ErrEmptyPayload) ||
		errors.Is(err, db.ErrNoInsertables)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
