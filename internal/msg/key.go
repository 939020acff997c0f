package msg

import "strconv"

// FNV-1a constants, 32-bit.
const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

// Key derives the dedup key for a message. Rows carrying a server id always
// key as id:<id>; everything else keys as h:<hex> over the ordered tuple
// (user_identifier, sender, created_at, message). Two records with the same
// id collide by construction; tuple collisions across different content are
// accepted as a negligible risk.
func Key(m Message) string {
	if m.ID != "" {
		return "id:" + m.ID
	}
	return "h:" + strconv.FormatUint(uint64(hashTuple(m.UserID, m.Sender, m.CreatedAt, m.Body)), 16)
}

func hashTuple(parts ...string) uint32 {
	h := fnvOffset
	for i, part := range parts {
		if i > 0 {
			h ^= uint32('|')
			h *= fnvPrime
		}
		for j := 0; j < len(part); j++ {
			h ^= uint32(part[j])
			h *= fnvPrime
		}
	}
	return h
}
