// Package inbox maintains the merged, deduplicated, chronologically ordered
// view of all known messages across conversations, the per-user unread
// counters, and the incremental fetch watermark.
package inbox

import (
	"sort"
	"sync"
	"time"

	"github.com/tOgg1/msgdesk/internal/msg"
)

// Store is the single owned collection of message rows. It is a set keyed by
// the dedup key, not by server id. All methods are safe for concurrent use;
// overlapping refreshes merge commutatively because insertion is idempotent.
type Store struct {
	now func() time.Time

	mu    sync.Mutex
	rows  []msg.Message
	byKey map[string]struct{}

	unread      map[string]int
	selected    string
	allowUnread bool
	loadedOnce  bool

	// cursor is the created_at watermark for the next incremental fetch.
	cursor string
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the clock used to default missing timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:    func() time.Time { return time.Now().UTC() },
		byKey:  make(map[string]struct{}),
		unread: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InsertBatch normalizes and merges a batch of raw rows. Each row first runs
// through pending-send reconciliation, then the dedup key gates insertion.
// The whole store is re-sorted ascending by parsed created_at after the batch
// (unparseable timestamps sort as epoch 0; ties keep insertion order).
// Returns the rows that were actually inserted, in input order.
//
// Unread counters increment by at most one per inserted row, only when
// markUnread is set, both gate flags are up, and the row belongs to a
// non-empty, non-selected conversation.
func (s *Store) InsertBatch(rows []msg.Message, markUnread bool) []msg.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted []msg.Message
	for _, raw := range rows {
		m := msg.Normalize(raw, s.now)

		s.reconcilePending(m)

		key := msg.Key(m)
		if _, dup := s.byKey[key]; dup {
			continue
		}
		s.byKey[key] = struct{}{}
		s.rows = append(s.rows, m)
		inserted = append(inserted, m)

		canIncrement := s.allowUnread && s.loadedOnce
		if markUnread && canIncrement && m.UserID != "" && m.UserID != s.selected {
			s.unread[m.UserID]++
		}
	}

	sort.SliceStable(s.rows, func(i, j int) bool {
		return msg.TimeOrEpoch(s.rows[i].CreatedAt) < msg.TimeOrEpoch(s.rows[j].CreatedAt)
	})

	return inserted
}

// MessagesFor returns the timeline for one conversation, in store order.
func (s *Store) MessagesFor(userID string) []msg.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []msg.Message
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// Rows returns a snapshot of the full store in store order.
func (s *Store) Rows() []msg.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]msg.Message, len(s.rows))
	copy(out, s.rows)
	return out
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// PurgeUserBefore drops rows for one conversation whose parsed time is
// strictly earlier than threshold. Rows with unparseable timestamps are kept
// (fail open) so bad input never loses data.
func (s *Store) PurgeUserBefore(userID string, threshold time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.UserID == userID {
			if t, ok := msg.ParseTime(r.CreatedAt); ok && t.Before(threshold) {
				continue
			}
		}
		kept = append(kept, r)
	}
	s.rows = kept
	s.rebuildKeysLocked()
}

// UpdateStatus transitions the status of the row with the given dedup key.
// This is the only in-place mutation the store permits; it is used for the
// pending -> sent|failed transitions of optimistic rows.
func (s *Store) UpdateStatus(key string, status msg.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		if msg.Key(s.rows[i]) == key {
			s.rows[i].Status = status
			return true
		}
	}
	return false
}

// Select marks a conversation as the open one and unconditionally zeroes its
// unread counter, regardless of the gating flags.
func (s *Store) Select(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = userID
	s.unread[userID] = 0
}

// Selected returns the currently open conversation, if any.
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// UnreadCount returns the unread counter for a conversation.
func (s *Store) UnreadCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[userID]
}

// SetAllowUnread raises or lowers the operator-action gate. It is raised for
// manual refreshes and CSV loads and lowered for background timed polls so a
// concurrent timer cannot double-count an in-flight manual refresh.
func (s *Store) SetAllowUnread(allow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowUnread = allow
}

// MarkLoaded records that the first successful fetch of the session has
// completed; unread counting is suppressed until then.
func (s *Store) MarkLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadedOnce = true
}

// Loaded reports whether the first fetch has completed.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedOnce
}

// Cursor returns the current incremental watermark ("" when unset).
func (s *Store) Cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// AdvanceCursor moves the watermark to the created_at of the chronologically
// last row in the entire store. This is deliberately a single global
// timeline: it may re-request a few boundary rows, which the dedup key
// absorbs. Overlapping refreshes advance last-write-wins by completion order.
func (s *Store) AdvanceCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) == 0 {
		return
	}
	if last := s.rows[len(s.rows)-1].CreatedAt; last != "" {
		s.cursor = last
	}
}

// SeedCursor sets the watermark directly, used by a full refresh to re-seed
// from the configured "after" filter.
func (s *Store) SeedCursor(since string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = since
}

// Reset clears rows, keys, unread counters, and the cursor while keeping the
// selection and gate flags. Used by full refreshes, mode switches, and CSV
// loads.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.byKey = make(map[string]struct{})
	s.unread = make(map[string]int)
	s.cursor = ""
}

func (s *Store) rebuildKeysLocked() {
	s.byKey = make(map[string]struct{}, len(s.rows))
	for i := range s.rows {
		s.byKey[msg.Key(s.rows[i])] = struct{}{}
	}
}
