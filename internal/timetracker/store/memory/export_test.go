package memory

import (
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

// Records returns a copy of every stored record.
func (s *AttendanceStore) Records() []types.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.AttendanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Rows returns a copy of the log in insertion order.
func (s *MessageStore) Rows() []store.MessageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.MessageRecord, len(s.rows))
	copy(out, s.rows)
	return out
}

// Len counts entries, expired or not.
func (c *LocationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
