package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultStartTime = "08:00"
	DefaultEndTime   = "17:00"
)

// TimeOfDay is minutes after local midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("time of day %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q: bad minute", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On returns the instant of t on the calendar day of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), int(t)/60, int(t)%60, 0, 0, loc)
}

// WorkWindow gates clock-ins. Both ends are inclusive at minute precision.
type WorkWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

func DefaultWorkWindow() WorkWindow {
	start, _ := ParseTimeOfDay(DefaultStartTime)
	end, _ := ParseTimeOfDay(DefaultEndTime)
	return WorkWindow{Start: start, End: end}
}

// NewWorkWindow parses HH:MM bounds; empty values fall back to the defaults.
func NewWorkWindow(start, end string) (WorkWindow, error) {
	if strings.TrimSpace(start) == "" {
		start = DefaultStartTime
	}
	if strings.TrimSpace(end) == "" {
		end = DefaultEndTime
	}
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return WorkWindow{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return WorkWindow{}, err
	}
	return WorkWindow{Start: s, End: e}, nil
}

// Contains reports whether local (already in the organisation's zone)
// falls inside the window.
func (w WorkWindow) Contains(local time.Time) bool {
	m := TimeOfDayOf(local)
	return m >= w.Start && m <= w.End
}

// AlwaysOpen contains every minute of the day.
func AlwaysOpen() WorkWindow {
	return WorkWindow{Start: 0, End: 23*60 + 59}
}
