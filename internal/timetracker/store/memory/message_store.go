package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
)

// MessageStore is an in-memory audit log of inbound messages.
type MessageStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []store.MessageRecord
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) Create(_ context.Context, rec store.MessageRecord) (int64, error) {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	rec.Processed = false
	rec.Response = ""
	s.rows = append(s.rows, rec)
	return rec.ID, nil
}

func (s *MessageStore) MarkProcessed(_ context.Context, id int64, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Processed = true
			s.rows[i].Response = response
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *MessageStore) Recent(_ context.Context, limit int) ([]store.MessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	out := make([]store.MessageRecord, len(s.rows))
	copy(out, s.rows)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MessageStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	var deleted int64
	for _, r := range s.rows {
		if r.ReceivedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return deleted, nil
}

func (s *MessageStore) deletePhone(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.Phone != phone {
			kept = append(kept, r)
		}
	}
	s.rows = kept
}
