// Package session orchestrates fetch-merge cycles between a row source (the
// backend HTTP API or a loaded CSV snapshot) and the inbox store, and owns
// the optimistic-send lifecycle.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/msgdesk/internal/api"
	"github.com/tOgg1/msgdesk/internal/csvio"
	"github.com/tOgg1/msgdesk/internal/inbox"
	"github.com/tOgg1/msgdesk/internal/logging"
	"github.com/tOgg1/msgdesk/internal/msg"
	"github.com/tOgg1/msgdesk/internal/poller"
)

// Mode selects the row source.
type Mode string

const (
	ModeDB  Mode = "db"
	ModeCSV Mode = "csv"
)

// Session errors.
var (
	ErrNotConnected  = errors.New("database not connected")
	ErrNoUser        = errors.New("no conversation selected")
	ErrEmptyMessage  = errors.New("message or attachment required")
	ErrWrongMode     = errors.New("operation not available in this mode")
	ErrSendRejected  = errors.New("backend rejected send")
	ErrQueryRejected = errors.New("backend rejected query")
)

const defaultQueryLimit = 5000

// Backend is the transport surface the session needs. *api.Client satisfies
// it; tests substitute fakes.
type Backend interface {
	Query(ctx context.Context, req api.QueryRequest) (api.QueryResponse, error)
	Send(ctx context.Context, req api.SendRequest) (api.SendResponse, error)
	Health(ctx context.Context) (api.HealthResponse, error)
	TestDB(ctx context.Context, dbURL string) (api.DBTestResponse, error)
}

// Settings holds the operator-configurable knobs.
type Settings struct {
	Mode      Mode
	DBURL     string
	Table     string
	Columns   []string
	AdminName string
	// After is the optional "show messages after" filter (date or ISO-8601).
	After string
	// AutoRefresh is the background poll interval; zero disables it.
	AutoRefresh time.Duration
	QueryLimit  int
}

func (s *Settings) normalize() {
	if s.Mode != ModeDB {
		s.Mode = ModeCSV
	}
	if strings.TrimSpace(s.Table) == "" {
		s.Table = "messages"
	}
	if len(s.Columns) == 0 {
		s.Columns = append([]string(nil), msg.DefaultColumns...)
	}
	if s.QueryLimit <= 0 {
		s.QueryLimit = defaultQueryLimit
	}
}

// Session owns the store, the backend client, and the unread gate lifecycle.
type Session struct {
	store   *inbox.Store
	backend Backend
	logger  zerolog.Logger
	now     func() time.Time
	auto    *poller.Scheduler

	mu        sync.Mutex
	settings  Settings
	connected bool

	onInserted func([]msg.Message)
}

// Option configures a Session.
type Option func(*Session)

// WithNow overrides the clock used for optimistic rows and defaults.
func WithNow(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOnInserted registers a callback invoked with each batch of newly
// merged rows (auto-refresh and manual refreshes alike).
func WithOnInserted(fn func([]msg.Message)) Option {
	return func(s *Session) {
		s.onInserted = fn
	}
}

// New creates a session over the given backend.
func New(settings Settings, backend Backend, opts ...Option) *Session {
	settings.normalize()
	s := &Session{
		backend:  backend,
		logger:   logging.Component("session"),
		now:      func() time.Time { return time.Now().UTC() },
		settings: settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = inbox.New(inbox.WithNow(s.now))
	s.auto = poller.New("auto-refresh", func(ctx context.Context) {
		// Timed polls never bump unread counters.
		if _, err := s.refresh(ctx, true, false); err != nil {
			s.logger.Debug().Err(err).Msg("timed refresh failed")
		}
	})
	return s
}

// Store exposes the inbox store for read paths.
func (s *Session) Store() *inbox.Store {
	return s.store
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.settings
	out.Columns = append([]string(nil), s.settings.Columns...)
	return out
}

// Mode returns the active row source.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Mode
}

// SetMode switches the row source and discards merged data; settings are
// kept. A still-pending fetch from the previous mode merges harmlessly due
// to idempotent insertion.
func (s *Session) SetMode(mode Mode) {
	s.mu.Lock()
	if mode != ModeDB {
		mode = ModeCSV
	}
	changed := s.settings.Mode != mode
	s.settings.Mode = mode
	s.mu.Unlock()

	if changed {
		s.store.Reset()
	}
}

// Connected reports the last known database connectivity.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// TestConnection asks the backend to verify database reachability and
// records the outcome.
func (s *Session) TestConnection(ctx context.Context) bool {
	s.mu.Lock()
	dbURL := s.settings.DBURL
	s.mu.Unlock()

	resp, err := s.backend.TestDB(ctx, dbURL)
	ok := err == nil && resp.Connected
	if err != nil {
		s.logger.Warn().Err(err).Msg("db test failed")
	}

	s.mu.Lock()
	s.connected = ok
	s.mu.Unlock()
	return ok
}

// CheckHealth probes backend liveness.
func (s *Session) CheckHealth(ctx context.Context) bool {
	resp, err := s.backend.Health(ctx)
	return err == nil && resp.OK
}

// RefreshAll performs a full (non-incremental) refresh: local state is
// discarded and the cursor re-seeds from the "after" filter, if configured.
func (s *Session) RefreshAll(ctx context.Context) ([]msg.Message, error) {
	return s.refresh(ctx, false, false)
}

// RefreshIncremental fetches rows newer than the watermark. Manual refreshes
// raise the unread gate for the duration of the merge; background callers
// must pass manual=false.
func (s *Session) RefreshIncremental(ctx context.Context, manual bool) ([]msg.Message, error) {
	return s.refresh(ctx, true, manual)
}

func (s *Session) refresh(ctx context.Context, incremental, manual bool) ([]msg.Message, error) {
	if s.Mode() != ModeDB {
		return nil, nil
	}
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	settings := s.Settings()
	after := NormalizeAfter(settings.After)

	var since *string
	if incremental {
		if cursor := s.store.Cursor(); cursor != "" {
			since = &cursor
		} else if after != "" {
			since = &after
		}
	} else {
		if after != "" {
			since = &after
		}
		s.store.Reset()
		s.store.SeedCursor(after)
	}

	resp, err := s.backend.Query(ctx, api.QueryRequest{
		DBURL:   settings.DBURL,
		Table:   settings.Table,
		Columns: settings.Columns,
		Since:   since,
		Limit:   settings.QueryLimit,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s", ErrQueryRejected, resp.Error)
	}

	inserted := s.merge(resp.Rows, manual)
	s.store.MarkLoaded()
	s.store.AdvanceCursor()

	s.logger.Debug().
		Int("fetched", len(resp.Rows)).
		Int("inserted", len(inserted)).
		Bool("incremental", incremental).
		Msg("refresh merged")
	return inserted, nil
}

// RefreshUser refetches the selected conversation. When useAfterFilter is
// set, cached rows for that user strictly older than the filter boundary are
// purged first so the local view matches the server-side bound.
func (s *Session) RefreshUser(ctx context.Context, useAfterFilter bool) ([]msg.Message, error) {
	if s.Mode() != ModeDB {
		return nil, nil
	}
	userID := s.store.Selected()
	if userID == "" {
		return nil, ErrNoUser
	}
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	settings := s.Settings()
	after := ""
	if useAfterFilter {
		after = NormalizeAfter(settings.After)
	}

	var since *string
	if after != "" {
		since = &after
	}

	resp, err := s.backend.Query(ctx, api.QueryRequest{
		DBURL:   settings.DBURL,
		Table:   settings.Table,
		Columns: settings.Columns,
		Since:   since,
		Limit:   settings.QueryLimit,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s", ErrQueryRejected, resp.Error)
	}

	var forUser []msg.Message
	for _, row := range resp.Rows {
		if row.UserID == userID {
			forUser = append(forUser, row)
		}
	}

	if after != "" {
		if threshold, ok := msg.ParseTime(after); ok {
			s.store.PurgeUserBefore(userID, threshold)
		}
	}

	inserted := s.merge(forUser, true)
	s.store.MarkLoaded()
	return inserted, nil
}

// LoadCSV replaces the store contents with a parsed snapshot. The unread
// gate is raised for the merge; the first load of a session still counts
// nothing because the loaded-once flag is only set afterwards.
func (s *Session) LoadCSV(text string) (int, error) {
	rows, err := csvio.ParseString(text)
	if err != nil {
		return 0, err
	}

	s.store.Reset()
	inserted := s.merge(rows, true)
	s.store.MarkLoaded()
	return len(inserted), nil
}

// ExportCSV renders the full store under the configured column list.
func (s *Session) ExportCSV() (string, error) {
	return csvio.EncodeString(s.store.Rows(), s.Settings().Columns)
}

// SetAutoRefresh replaces the background poll schedule; zero disables it.
// The previous timer is always cancelled first.
func (s *Session) SetAutoRefresh(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	s.settings.AutoRefresh = interval
	s.mu.Unlock()
	s.auto.Set(ctx, interval)
}

// Close stops background work.
func (s *Session) Close() {
	s.auto.Clear()
}

// merge inserts a batch under the requested unread gating and fans out the
// inserted rows to the observer, if any.
func (s *Session) merge(rows []msg.Message, allowUnread bool) []msg.Message {
	s.store.SetAllowUnread(allowUnread)
	inserted := s.store.InsertBatch(rows, true)
	s.store.SetAllowUnread(false)

	if s.onInserted != nil && len(inserted) > 0 {
		s.onInserted(inserted)
	}
	return inserted
}

func (s *Session) ensureConnected(ctx context.Context) error {
	if s.Connected() {
		return nil
	}
	if s.TestConnection(ctx) {
		return nil
	}
	return ErrNotConnected
}

// NormalizeAfter converts the operator's "after" filter into an API since
// value. Bare dates become midnight UTC; anything else parseable becomes
// RFC 3339; unparseable input passes through for the backend to reject.
func NormalizeAfter(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if len(v) == len("2006-01-02") {
		if _, err := time.Parse("2006-01-02", v); err == nil {
			return v + "T00:00:00Z"
		}
	}
	if t, ok := msg.ParseTime(v); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return v
}

// base64Of is a seam for attachment encoding.
func base64Of(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
