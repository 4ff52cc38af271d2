package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/attendance"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

var (
	ErrInvalidPhone = errors.New("phone is required")
)

// LocationOnlyText is what the bridge sends as text for a bare location
// share, and what the audit log stores for it.
const LocationOnlyText = "location_received"

type MessageServiceDeps struct {
	Employees  store.EmployeeStore
	Attendance store.AttendanceStore
	Messages   store.MessageStore
	Settings   store.SettingsStore
	Locations  store.LocationCache
	Tracker    *StateTracker

	Clock    clock.Clock
	Location *time.Location
	Logger   *log.Logger
}

// MessageService turns inbound WhatsApp messages into attendance records and
// reply texts. Messages are handled one at a time.
type MessageService struct {
	employees  store.EmployeeStore
	attendance store.AttendanceStore
	messages   store.MessageStore
	settings   store.SettingsStore
	locations  store.LocationCache
	tracker    *StateTracker

	clock  clock.Clock
	loc    *time.Location
	logger *log.Logger

	mu sync.Mutex
}

func NewMessageService(d MessageServiceDeps) *MessageService {
	if d.Clock == nil {
		d.Clock = clock.WallClock
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Tracker == nil {
		d.Tracker = NewStateTracker(d.Attendance, d.Location)
	}
	return &MessageService{
		employees:  d.Employees,
		attendance: d.Attendance,
		messages:   d.Messages,
		settings:   d.Settings,
		locations:  d.Locations,
		tracker:    d.Tracker,
		clock:      d.Clock,
		loc:        d.Location,
		logger:     d.Logger,
	}
}

// Process handles one inbound event and returns the reply to send back.
// Rejections and storage failures come back as reply text; the only error
// is ErrInvalidPhone.
func (s *MessageService) Process(ctx context.Context, msg types.InboundMessage) (types.InboundReply, error) {
	phone := strings.TrimSpace(msg.Phone)
	if phone == "" {
		return types.InboundReply{}, ErrInvalidPhone
	}
	text := strings.TrimSpace(msg.Text)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if msg.Location != nil && (text == "" || text == LocationOnlyText) {
		return s.handleLocation(ctx, phone, *msg.Location, now), nil
	}

	cmd, found := attendance.ParseCommand(text)

	auditID, err := s.messages.Create(ctx, store.MessageRecord{
		Phone:      phone,
		Message:    msg.Text,
		Command:    string(cmd),
		ReceivedAt: now,
	})
	if err != nil {
		s.logger.Printf("message audit failed from=%s: %v", phone, err)
		return failure(cmd), nil
	}

	reply := s.handleCommand(ctx, phone, cmd, found, msg.Location, now)
	if err := s.messages.MarkProcessed(ctx, auditID, reply.Reply); err != nil {
		s.logger.Printf("mark processed failed id=%d: %v", auditID, err)
	}
	s.logger.Printf("whatsapp from=%s command=%s ok=%t", phone, commandLabel(cmd), reply.OK)
	return reply, nil
}

func (s *MessageService) handleLocation(ctx context.Context, phone string, loc types.Location, now time.Time) types.InboundReply {
	auditID, err := s.messages.Create(ctx, store.MessageRecord{
		Phone:      phone,
		Message:    LocationOnlyText,
		ReceivedAt: now,
	})
	if err != nil {
		s.logger.Printf("message audit failed from=%s: %v", phone, err)
		return failure("")
	}

	reply := types.InboundReply{OK: true, Reply: attendance.LocationReceivedReply()}
	if err := s.locations.Put(ctx, phone, loc); err != nil {
		s.logger.Printf("location cache put failed from=%s: %v", phone, err)
		reply = failure("")
	} else {
		s.logger.Printf("location received from=%s lat=%f lng=%f", phone, loc.Latitude, loc.Longitude)
	}

	if err := s.messages.MarkProcessed(ctx, auditID, reply.Reply); err != nil {
		s.logger.Printf("mark processed failed id=%d: %v", auditID, err)
	}
	return reply
}

func (s *MessageService) handleCommand(
	ctx context.Context,
	phone string,
	cmd attendance.Command,
	found bool,
	loc *types.Location,
	now time.Time,
) types.InboundReply {
	if !found {
		return types.InboundReply{OK: true, Reply: attendance.HelpReply()}
	}

	emp, err := s.employees.GetByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return types.InboundReply{OK: false, Command: string(cmd), Reply: attendance.ReplyEmployeeNotFound}
	}
	if err != nil {
		s.logger.Printf("employee lookup failed phone=%s: %v", phone, err)
		return failure(cmd)
	}
	if !emp.Active {
		return types.InboundReply{OK: false, Command: string(cmd), Reply: attendance.ReplyInactive}
	}

	if cmd == attendance.CmdHoras {
		return s.hours(ctx, emp, now)
	}
	return s.clockEvent(ctx, emp, cmd, loc, now)
}

func (s *MessageService) hours(ctx context.Context, emp types.Employee, now time.Time) types.InboundReply {
	from, to := attendance.DayBounds(now, s.loc)
	records, err := s.attendance.Between(ctx, emp.ID, from, to)
	if err != nil {
		s.logger.Printf("horas lookup failed employee=%d: %v", emp.ID, err)
		return failure(attendance.CmdHoras)
	}
	sum := attendance.Summarize(records, now)
	return types.InboundReply{OK: true, Command: string(attendance.CmdHoras), Reply: attendance.SummaryReply(emp.Name, sum)}
}

func (s *MessageService) clockEvent(
	ctx context.Context,
	emp types.Employee,
	cmd attendance.Command,
	loc *types.Location,
	now time.Time,
) types.InboundReply {
	state, err := s.tracker.Current(ctx, emp.ID, now)
	if err != nil {
		s.logger.Printf("state lookup failed employee=%d: %v", emp.ID, err)
		return failure(cmd)
	}

	d := attendance.Transition(state, cmd, now)
	if !d.Accepted() {
		return types.InboundReply{OK: false, Command: string(cmd), Reply: attendance.RejectionReply(emp.Name, d.Reason)}
	}

	local := now.In(s.loc)
	if d.Record == types.RecordEntrada {
		window := s.workWindow(ctx)
		if !window.Contains(local) {
			return types.InboundReply{OK: false, Command: string(cmd), Reply: attendance.OutsideHoursReply(window, local)}
		}
	}

	fromCache := false
	if loc == nil {
		cached, ok, err := s.locations.Get(ctx, emp.Phone)
		if err != nil {
			s.logger.Printf("location cache get failed phone=%s: %v", emp.Phone, err)
		} else if ok {
			loc = &cached
			fromCache = true
		}
	}

	if _, err := s.attendance.Append(ctx, types.AttendanceRecord{
		EmployeeID: emp.ID,
		Type:       d.Record,
		Timestamp:  now,
		Message:    attendance.RecordMessage(d.Record),
		Location:   loc,
	}); err != nil {
		// The row may have committed anyway (e.g. the caller's context was
		// cancelled after the write); rebuild from the log next time.
		s.tracker.Forget(emp.ID)
		s.logger.Printf("append %s failed employee=%d: %v", d.Record, emp.ID, err)
		return failure(cmd)
	}
	s.tracker.Put(emp.ID, d.Next)

	if fromCache {
		if err := s.locations.Clear(ctx, emp.Phone); err != nil {
			s.logger.Printf("location cache clear failed phone=%s: %v", emp.Phone, err)
		}
	}

	return types.InboundReply{
		OK:      true,
		Command: string(cmd),
		Reply:   attendance.ConfirmationReply(emp.Name, d.Record, local, loc != nil),
	}
}

// workWindow reads the configured window. Missing keys use the defaults;
// a failed or unparsable read disables the check.
func (s *MessageService) workWindow(ctx context.Context) attendance.WorkWindow {
	start, _, err := s.settings.Get(ctx, store.SettingStartTime)
	if err != nil {
		s.logger.Printf("settings read failed, not enforcing work hours: %v", err)
		return attendance.AlwaysOpen()
	}
	end, _, err := s.settings.Get(ctx, store.SettingEndTime)
	if err != nil {
		s.logger.Printf("settings read failed, not enforcing work hours: %v", err)
		return attendance.AlwaysOpen()
	}
	w, err := attendance.NewWorkWindow(start, end)
	if err != nil {
		s.logger.Printf("bad work window %q-%q, not enforcing: %v", start, end, err)
		return attendance.AlwaysOpen()
	}
	return w
}

func failure(cmd attendance.Command) types.InboundReply {
	return types.InboundReply{OK: false, Command: string(cmd), Reply: attendance.ReplyInternalError}
}

func commandLabel(cmd attendance.Command) string {
	if cmd == "" {
		return "none"
	}
	return string(cmd)
}
