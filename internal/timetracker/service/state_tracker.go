package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/attendance"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
)

// StateTracker caches the attendance state of each employee. The
// attendance log is only read on a cache miss.
type StateTracker struct {
	attendance store.AttendanceStore
	loc        *time.Location

	mu     sync.Mutex
	states map[int64]attendance.State
}

func NewStateTracker(as store.AttendanceStore, loc *time.Location) *StateTracker {
	if loc == nil {
		loc = time.UTC
	}
	return &StateTracker{
		attendance: as,
		loc:        loc,
		states:     make(map[int64]attendance.State),
	}
}

// Current returns the state of employeeID as of now, rolled over to now's
// calendar day.
func (t *StateTracker) Current(ctx context.Context, employeeID int64, now time.Time) (attendance.State, error) {
	day := attendance.DayKey(now, t.loc)

	t.mu.Lock()
	s, ok := t.states[employeeID]
	t.mu.Unlock()
	if ok {
		return s.Rollover(day), nil
	}

	latest, err := t.attendance.Latest(ctx, employeeID)
	if err != nil {
		return attendance.State{}, fmt.Errorf("replay latest: %w", err)
	}
	from, to := attendance.DayBounds(now, t.loc)
	today, err := t.attendance.Between(ctx, employeeID, from, to)
	if err != nil {
		return attendance.State{}, fmt.Errorf("replay today: %w", err)
	}
	s = attendance.Replay(latest, today, day)

	t.mu.Lock()
	defer t.mu.Unlock()
	// A concurrent Put wins over a replay that started before it.
	if cached, ok := t.states[employeeID]; ok {
		return cached.Rollover(day), nil
	}
	t.states[employeeID] = s
	return s, nil
}

// Put records the state after an accepted transition.
func (t *StateTracker) Put(employeeID int64, s attendance.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[employeeID] = s
}

// Forget drops the cached state; the next Current replays the log. Used
// when a write outcome is unknown.
func (t *StateTracker) Forget(employeeID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, employeeID)
}
