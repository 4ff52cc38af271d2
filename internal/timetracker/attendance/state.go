package attendance

import (
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

type Kind int

const (
	Absent Kind = iota
	Working
	OnBreak
	ClockedOut
)

func (k Kind) String() string {
	switch k {
	case Working:
		return "working"
	case OnBreak:
		return "on_break"
	case ClockedOut:
		return "clocked_out"
	}
	return "absent"
}

// State is an employee's attendance state. Kind and Since come from the
// latest record overall; the *Today flags refer to the calendar day in Day.
type State struct {
	Kind            Kind
	Since           time.Time
	Day             string
	ClockedInToday  bool
	ClockedOutToday bool
}

const dayLayout = "2006-01-02"

// DayKey is the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

// DayBounds returns [start, end) of the calendar day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Replay rebuilds the state from the event log: the latest record overall
// and the records of the given day.
func Replay(latest *types.AttendanceRecord, today []types.AttendanceRecord, day string) State {
	s := State{Kind: Absent, Day: day}
	if latest != nil {
		s.Kind = kindOf(latest.Type)
		s.Since = latest.Timestamp
	}
	for _, r := range today {
		switch r.Type {
		case types.RecordEntrada:
			s.ClockedInToday = true
		case types.RecordSaida:
			s.ClockedOutToday = true
		}
	}
	return s
}

// Rollover clears the per-day flags when day differs from s.Day.
func (s State) Rollover(day string) State {
	if s.Day == day {
		return s
	}
	s.Day = day
	s.ClockedInToday = false
	s.ClockedOutToday = false
	return s
}

func (s State) Status() types.EmployeeStatus {
	switch s.Kind {
	case Working:
		return types.StatusWorking
	case OnBreak:
		return types.StatusOnBreak
	case ClockedOut:
		return types.StatusClockedOut
	}
	return types.StatusAbsent
}

func kindOf(t types.RecordType) Kind {
	switch t {
	case types.RecordEntrada, types.RecordVolta:
		return Working
	case types.RecordPausa:
		return OnBreak
	case types.RecordSaida:
		return ClockedOut
	}
	return Absent
}

// StatusOf derives the status from a record type; nil means absent.
func StatusOf(latest *types.AttendanceRecord) types.EmployeeStatus {
	if latest == nil {
		return types.StatusAbsent
	}
	return State{Kind: kindOf(latest.Type)}.Status()
}

type Reason int

const (
	Accepted Reason = iota
	AlreadyClockedIn
	NotClockedIn
	AlreadyClockedOut
	NotWorking
	AlreadyOnBreak
	NotOnBreak
	NoTransition
)

func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case AlreadyClockedIn:
		return "already_clocked_in"
	case NotClockedIn:
		return "not_clocked_in"
	case AlreadyClockedOut:
		return "already_clocked_out"
	case NotWorking:
		return "not_working"
	case AlreadyOnBreak:
		return "already_on_break"
	case NotOnBreak:
		return "not_on_break"
	}
	return "no_transition"
}

// Decision is the result of applying a command to a state. Record and Next
// are only meaningful when Reason is Accepted.
type Decision struct {
	Reason Reason
	Record types.RecordType
	Next   State
}

func (d Decision) Accepted() bool { return d.Reason == Accepted }

// Transition applies a clock command at now. It does not check the
// work-hour window, which depends on settings.
func Transition(s State, cmd Command, now time.Time) Decision {
	next := s
	next.Since = now

	switch cmd {
	case CmdEntrada:
		if s.ClockedInToday {
			return Decision{Reason: AlreadyClockedIn}
		}
		next.Kind = Working
		next.ClockedInToday = true
		return Decision{Reason: Accepted, Record: types.RecordEntrada, Next: next}

	case CmdSaida:
		if !s.ClockedInToday {
			return Decision{Reason: NotClockedIn}
		}
		if s.ClockedOutToday {
			return Decision{Reason: AlreadyClockedOut}
		}
		next.Kind = ClockedOut
		next.ClockedOutToday = true
		return Decision{Reason: Accepted, Record: types.RecordSaida, Next: next}

	case CmdPausa:
		if s.Kind == OnBreak {
			return Decision{Reason: AlreadyOnBreak}
		}
		if s.Kind != Working {
			return Decision{Reason: NotWorking}
		}
		next.Kind = OnBreak
		return Decision{Reason: Accepted, Record: types.RecordPausa, Next: next}

	case CmdVolta:
		if s.Kind != OnBreak {
			return Decision{Reason: NotOnBreak}
		}
		next.Kind = Working
		return Decision{Reason: Accepted, Record: types.RecordVolta, Next: next}
	}

	return Decision{Reason: NoTransition}
}
