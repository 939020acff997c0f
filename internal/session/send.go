package session

import (
	"context"
	"strings"
	"time"

	"github.com/tOgg1/msgdesk/internal/api"
	"github.com/tOgg1/msgdesk/internal/msg"
)

// Send composes an admin reply to the selected conversation. A pending row
// is inserted immediately (optimistic UI); in db mode the backend write then
// moves it to sent or failed, and a follow-up incremental refresh lets the
// reconciler swap the optimistic row for the server-confirmed one.
func (s *Session) Send(ctx context.Context, text string, attachment *msg.Attachment) (msg.Message, error) {
	userID := s.ensureSelectedUser()
	if userID == "" {
		return msg.Message{}, ErrNoUser
	}

	text = strings.TrimSpace(text)
	if text == "" && attachment == nil {
		return msg.Message{}, ErrEmptyMessage
	}
	if attachment != nil {
		if err := attachment.Validate(); err != nil {
			return msg.Message{}, err
		}
	}

	settings := s.Settings()
	pending := msg.Message{
		UserID:    userID,
		Sender:    msg.AdminSender,
		AdminName: settings.AdminName,
		Body:      text,
		CreatedAt: s.now().Format(time.RFC3339),
		Status:    msg.StatusPending,
	}
	if attachment != nil {
		pending.File = base64Of(attachment.Data)
		pending.FileMime = attachment.Mime()
	}

	s.store.InsertBatch([]msg.Message{pending}, false)
	key := msg.Key(pending)

	if s.Mode() == ModeCSV {
		// CSV mode has no transport; the local row is the record.
		s.store.UpdateStatus(key, msg.StatusSent)
		pending.Status = msg.StatusSent
		return pending, nil
	}

	if err := s.ensureConnected(ctx); err != nil {
		s.store.UpdateStatus(key, msg.StatusFailed)
		pending.Status = msg.StatusFailed
		return pending, err
	}

	req := api.SendRequest{
		DBURL:     settings.DBURL,
		Table:     settings.Table,
		Columns:   settings.Columns,
		UserID:    pending.UserID,
		Sender:    msg.AdminSender,
		AdminName: pending.AdminName,
		Body:      pending.Body,
		CreatedAt: pending.CreatedAt,
	}
	if pending.File != "" {
		file := pending.File
		req.FileBase64 = &file
	}

	resp, err := s.backend.Send(ctx, req)
	if err != nil || !resp.OK {
		s.store.UpdateStatus(key, msg.StatusFailed)
		pending.Status = msg.StatusFailed
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("send failed")
			return pending, err
		}
		s.logger.Warn().Str("user_id", userID).Str("error", resp.Error).Msg("send rejected")
		return pending, ErrSendRejected
	}

	s.store.UpdateStatus(key, msg.StatusSent)
	pending.Status = msg.StatusSent

	// Best effort: pick up the server-assigned id so the reconciler can
	// retire the optimistic row. Failures here leave a sent row behind,
	// which the next poll resolves.
	if _, err := s.RefreshIncremental(ctx, false); err != nil {
		s.logger.Debug().Err(err).Msg("post-send refresh failed")
	}
	return pending, nil
}

// ensureSelectedUser returns the open conversation, selecting the first
// directory entry (ascending by id) when none is open yet.
func (s *Session) ensureSelectedUser() string {
	if selected := s.store.Selected(); selected != "" {
		return selected
	}

	conversations := s.store.Conversations()
	if len(conversations) == 0 {
		return ""
	}
	first := conversations[0].UserID
	for _, c := range conversations[1:] {
		if c.UserID < first {
			first = c.UserID
		}
	}
	s.store.Select(first)
	return first
}
