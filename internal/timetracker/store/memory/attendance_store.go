package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

// AttendanceStore is an in-memory append-only attendance log.
type AttendanceStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []types.AttendanceRecord
}

func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{}
}

func (s *AttendanceStore) Append(_ context.Context, rec types.AttendanceRecord) (types.AttendanceRecord, error) {
	if !rec.Type.Valid() {
		return types.AttendanceRecord{}, fmt.Errorf("Append: invalid record type %q", rec.Type)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	if rec.Location != nil {
		loc := *rec.Location
		rec.Location = &loc
	}
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *AttendanceStore) Latest(_ context.Context, employeeID int64) (*types.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *types.AttendanceRecord
	for i := range s.records {
		r := s.records[i]
		if r.EmployeeID != employeeID {
			continue
		}
		// Later appends win ties.
		if latest == nil || !r.Timestamp.Before(latest.Timestamp) {
			latest = &r
		}
	}
	return latest, nil
}

func (s *AttendanceStore) Between(_ context.Context, employeeID int64, from, to time.Time) ([]types.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.AttendanceRecord
	for _, r := range s.records {
		if r.EmployeeID != employeeID || r.Timestamp.Before(from) || !r.Timestamp.Before(to) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *AttendanceStore) deleteEmployee(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	for _, r := range s.records {
		if r.EmployeeID != id {
			kept = append(kept, r)
		}
	}
	s.records = kept
}
