package inbox

import (
	"sort"

	"github.com/tOgg1/msgdesk/internal/msg"
)

// Conversation summarizes one user's thread for the directory pane.
type Conversation struct {
	UserID      string
	LastMessage msg.Message
	Count       int
	Unread      int
}

// Conversations derives the directory from the store: one entry per distinct
// non-empty user_identifier, ordered by most recent message descending, ties
// broken by ascending user id. The store is kept ascending by time, so the
// most recent message is each group's last row.
func (s *Store) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]int)
	var out []Conversation
	for _, r := range s.rows {
		if r.UserID == "" {
			continue
		}
		i, ok := index[r.UserID]
		if !ok {
			index[r.UserID] = len(out)
			out = append(out, Conversation{UserID: r.UserID})
			i = len(out) - 1
		}
		out[i].LastMessage = r
		out[i].Count++
	}

	for i := range out {
		out[i].Unread = s.unread[out[i].UserID]
	}

	sort.Slice(out, func(i, j int) bool {
		ti := msg.TimeOrEpoch(out[i].LastMessage.CreatedAt)
		tj := msg.TimeOrEpoch(out[j].LastMessage.CreatedAt)
		if ti != tj {
			return ti > tj
		}
		return out[i].UserID < out[j].UserID
	})

	return out
}
