package inbox

import (
	"time"

	"github.com/tOgg1/msgdesk/internal/msg"
)

// reconcileTolerance bounds the clock-skew/latency window within which an
// optimistic pending row and its server-confirmed counterpart are considered
// the same send. The 10s window and the first-match-in-store-order tie-break
// are tunables inherited from observed behavior, not a guaranteed-correct
// algorithm: two genuinely distinct sends with identical text inside the
// window will merge.
const reconcileTolerance = 10 * time.Second

// reconcilePending retracts at most one optimistic pending admin row that
// describes the same logical send as an incoming server-confirmed row, so
// the incoming row replaces it instead of duplicating it. Match criteria are
// conjunctive: no id on the candidate, same conversation, same sender, close
// timestamps (byte-equal strings when either side fails to parse), equal
// body, equal attachment, and the candidate must be a pending admin row.
//
// Caller holds s.mu.
func (s *Store) reconcilePending(incoming msg.Message) {
	if incoming.ID == "" || incoming.UserID == "" || incoming.CreatedAt == "" {
		return
	}

	inTime, inOK := msg.ParseTime(incoming.CreatedAt)

	for i := range s.rows {
		candidate := &s.rows[i]
		if candidate.ID != "" {
			continue
		}
		if candidate.UserID != incoming.UserID {
			continue
		}
		if candidate.Sender != incoming.Sender {
			continue
		}

		candTime, candOK := msg.ParseTime(candidate.CreatedAt)
		if inOK && candOK {
			delta := inTime.Sub(candTime)
			if delta < 0 {
				delta = -delta
			}
			if delta > reconcileTolerance {
				continue
			}
		} else if candidate.CreatedAt != incoming.CreatedAt {
			// Unparseable on either side: fall back to exact string match.
			continue
		}

		if candidate.Body != incoming.Body {
			continue
		}
		if candidate.File != incoming.File {
			continue
		}
		if !msg.IsAdmin(candidate.Sender) || candidate.Status != msg.StatusPending {
			continue
		}

		delete(s.byKey, msg.Key(*candidate))
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
		return
	}
}
