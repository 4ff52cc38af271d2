package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

// EmployeeStore is an in-memory employee directory for tests and dev.
// Delete cascades into the attendance and message stores it was given.
type EmployeeStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]types.Employee

	attendance *AttendanceStore
	messages   *MessageStore
}

func NewEmployeeStore(attendance *AttendanceStore, messages *MessageStore) *EmployeeStore {
	return &EmployeeStore{
		byID:       make(map[int64]types.Employee),
		attendance: attendance,
		messages:   messages,
	}
}

func (s *EmployeeStore) GetByPhone(_ context.Context, phone string) (types.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.byID {
		if e.Phone == phone {
			return e, nil
		}
	}
	return types.Employee{}, store.ErrNotFound
}

func (s *EmployeeStore) GetByID(_ context.Context, id int64) (types.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return types.Employee{}, store.ErrNotFound
	}
	return e, nil
}

func (s *EmployeeStore) ListActive(_ context.Context) ([]types.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Employee
	for _, e := range s.byID {
		if e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *EmployeeStore) Create(_ context.Context, e types.Employee) (types.Employee, error) {
	e.Phone = strings.TrimSpace(e.Phone)
	if e.Phone == "" {
		return types.Employee{}, fmt.Errorf("Create: empty phone")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if other.Phone == e.Phone {
			return types.Employee{}, fmt.Errorf("Create: phone %s already registered", e.Phone)
		}
	}
	s.nextID++
	e.ID = s.nextID
	s.byID[e.ID] = e
	return e, nil
}

func (s *EmployeeStore) SetActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Active = active
	s.byID[id] = e
	return nil
}

func (s *EmployeeStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	e, ok := s.byID[id]
	if ok {
		delete(s.byID, id)
	}
	s.mu.Unlock()
	if !ok {
		return store.ErrNotFound
	}

	if s.attendance != nil {
		s.attendance.deleteEmployee(id)
	}
	if s.messages != nil {
		s.messages.deletePhone(e.Phone)
	}
	return nil
}
