package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/juju/clock"
	"golang.org/x/time/rate"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/attendance"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/whatsapp"
)

const (
	dailyTick = time.Minute
	breakTick = 5 * time.Minute
)

type ReminderKind string

const (
	ReminderClockIn  ReminderKind = "clock-in"
	ReminderClockOut ReminderKind = "clock-out"
	ReminderBreak    ReminderKind = "break"
)

// ReminderConfig holds the parameters for NewReminderScheduler. Zero values
// take the defaults noted on each field.
type ReminderConfig struct {
	Location *time.Location // UTC

	ClockIn  attendance.TimeOfDay // 09:00
	ClockOut attendance.TimeOfDay // 18:00

	// Tolerance is how late a daily reminder may still fire after its due
	// time. 10m; never below one minute.
	Tolerance time.Duration

	BreakLimit    time.Duration // 15m
	BreakCooldown time.Duration // 30m

	// SendSpacing is the gap between two sends. Negative disables spacing;
	// zero means 2s.
	SendSpacing time.Duration
	SendTimeout time.Duration // 15s
}

func (c *ReminderConfig) setDefaults() {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.ClockIn == 0 {
		c.ClockIn = 9 * 60
	}
	if c.ClockOut == 0 {
		c.ClockOut = 18 * 60
	}
	if c.Tolerance == 0 {
		c.Tolerance = 10 * time.Minute
	}
	if c.Tolerance < time.Minute {
		c.Tolerance = time.Minute
	}
	if c.BreakLimit <= 0 {
		c.BreakLimit = 15 * time.Minute
	}
	if c.BreakCooldown <= 0 {
		c.BreakCooldown = 30 * time.Minute
	}
	if c.SendSpacing == 0 {
		c.SendSpacing = 2 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 15 * time.Second
	}
}

type breakNotice struct {
	since  time.Time // start of the break that was reminded
	sentAt time.Time
}

// ReminderScheduler sends the daily clock-in/clock-out reminders and the
// break-overrun reminder. Runs are serialized; a run finishes for every
// employee before the next one starts.
type ReminderScheduler struct {
	employees store.EmployeeStore
	tracker   *StateTracker
	sender    whatsapp.Sender
	clock     clock.Clock
	cfg       ReminderConfig
	limiter   *rate.Limiter
	logger    *log.Logger

	mu        sync.Mutex
	lastDaily map[ReminderKind]string // kind -> local day it fired
	lastBreak map[int64]breakNotice

	cancel context.CancelFunc
	done   chan struct{}
}

func NewReminderScheduler(
	es store.EmployeeStore,
	tracker *StateTracker,
	sender whatsapp.Sender,
	clk clock.Clock,
	cfg ReminderConfig,
	logger *log.Logger,
) *ReminderScheduler {
	cfg.setDefaults()
	if clk == nil {
		clk = clock.WallClock
	}

	limit := rate.Inf
	if cfg.SendSpacing > 0 {
		limit = rate.Every(cfg.SendSpacing)
	}

	return &ReminderScheduler{
		employees: es,
		tracker:   tracker,
		sender:    sender,
		clock:     clk,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
		lastDaily: make(map[ReminderKind]string),
		lastBreak: make(map[int64]breakNotice),
		done:      make(chan struct{}),
	}
}

// Start begins the background loop. It exits when ctx is cancelled or Stop
// is called.
func (s *ReminderScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)

	s.logger.Printf("reminder scheduler started (clock_in=%s, clock_out=%s, tz=%s, tolerance=%s)",
		s.cfg.ClockIn, s.cfg.ClockOut, s.cfg.Location, s.cfg.Tolerance)
}

// Stop signals the loop to exit and waits for it. Must follow Start.
func (s *ReminderScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *ReminderScheduler) loop(ctx context.Context) {
	defer close(s.done)

	daily := s.clock.After(dailyTick)
	breaks := s.clock.After(breakTick)

	for {
		select {
		case <-ctx.Done():
			return
		case <-daily:
			s.dailyTick(ctx)
			daily = s.clock.After(dailyTick)
		case <-breaks:
			s.RunBreakCheck(ctx)
			breaks = s.clock.After(breakTick)
		}
	}
}

func (s *ReminderScheduler) dailyTick(ctx context.Context) {
	now := s.clock.Now()
	if s.claimDaily(ReminderClockIn, s.cfg.ClockIn, now) {
		s.RunClockIn(ctx)
	}
	if s.claimDaily(ReminderClockOut, s.cfg.ClockOut, now) {
		s.RunClockOut(ctx)
	}
}

// claimDaily reports whether the reminder of kind is due at now and has not
// fired yet today, and marks it fired. A reminder is due from its time of
// day until Tolerance later; outside that window it is skipped for the day.
func (s *ReminderScheduler) claimDaily(kind ReminderKind, at attendance.TimeOfDay, now time.Time) bool {
	due := at.On(now, s.cfg.Location)
	late := now.Sub(due)
	if late < 0 || late >= s.cfg.Tolerance {
		return false
	}

	day := attendance.DayKey(now, s.cfg.Location)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastDaily[kind] == day {
		return false
	}
	s.lastDaily[kind] = day
	return true
}

// RunClockIn reminds every active employee with no entrada today. Returns
// the number of reminders delivered.
func (s *ReminderScheduler) RunClockIn(ctx context.Context) int {
	return s.runDaily(ctx, ReminderClockIn, func(st attendance.State) bool {
		return !st.ClockedInToday
	}, func(e types.Employee) string {
		return attendance.ClockInReminder(e.Name, s.cfg.ClockIn)
	})
}

// RunClockOut reminds every active employee with an entrada and no saida
// today.
func (s *ReminderScheduler) RunClockOut(ctx context.Context) int {
	return s.runDaily(ctx, ReminderClockOut, func(st attendance.State) bool {
		return st.ClockedInToday && !st.ClockedOutToday
	}, func(e types.Employee) string {
		return attendance.ClockOutReminder(e.Name, s.cfg.ClockOut)
	})
}

func (s *ReminderScheduler) runDaily(
	ctx context.Context,
	kind ReminderKind,
	wants func(attendance.State) bool,
	text func(types.Employee) string,
) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	emps, err := s.employees.ListActive(ctx)
	if err != nil {
		s.logger.Printf("%s reminder: list employees: %v", kind, err)
		return 0
	}

	sent := 0
	for _, e := range emps {
		st, err := s.tracker.Current(ctx, e.ID, now)
		if err != nil {
			s.logger.Printf("%s reminder: state employee=%d: %v", kind, e.ID, err)
			continue
		}
		if !wants(st) {
			continue
		}
		if s.send(ctx, kind, e, text(e)) {
			sent++
		}
	}
	s.logger.Printf("%s reminder: sent=%d active=%d", kind, sent, len(emps))
	return sent
}

// RunBreakCheck reminds employees whose current break has lasted at least
// BreakLimit. The same break is not reminded again within BreakCooldown of
// the last delivered reminder.
func (s *ReminderScheduler) RunBreakCheck(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	emps, err := s.employees.ListActive(ctx)
	if err != nil {
		s.logger.Printf("break reminder: list employees: %v", err)
		return 0
	}

	sent := 0
	onBreak := make(map[int64]bool, len(emps))
	for _, e := range emps {
		st, err := s.tracker.Current(ctx, e.ID, now)
		if err != nil {
			s.logger.Printf("break reminder: state employee=%d: %v", e.ID, err)
			continue
		}
		if st.Kind != attendance.OnBreak {
			continue
		}
		onBreak[e.ID] = true

		elapsed := now.Sub(st.Since)
		if elapsed < s.cfg.BreakLimit {
			continue
		}
		if last, ok := s.lastBreak[e.ID]; ok && last.since.Equal(st.Since) && now.Sub(last.sentAt) < s.cfg.BreakCooldown {
			continue
		}
		if s.send(ctx, ReminderBreak, e, attendance.BreakReminder(e.Name, elapsed)) {
			s.lastBreak[e.ID] = breakNotice{since: st.Since, sentAt: now}
			sent++
		}
	}

	for id := range s.lastBreak {
		if !onBreak[id] {
			delete(s.lastBreak, id)
		}
	}
	return sent
}

// Run dispatches a manual trigger by kind. ok is false for an unknown kind.
func (s *ReminderScheduler) Run(ctx context.Context, kind ReminderKind) (sent int, ok bool) {
	switch kind {
	case ReminderClockIn:
		return s.RunClockIn(ctx), true
	case ReminderClockOut:
		return s.RunClockOut(ctx), true
	case ReminderBreak:
		return s.RunBreakCheck(ctx), true
	}
	return 0, false
}

func (s *ReminderScheduler) send(ctx context.Context, kind ReminderKind, e types.Employee, text string) bool {
	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Printf("%s reminder: wait employee=%d: %v", kind, e.ID, err)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	if err := s.sender.Send(sendCtx, e.Phone, text); err != nil {
		s.logger.Printf("%s reminder: send employee=%d phone=%s: %v", kind, e.ID, e.Phone, err)
		return false
	}
	return true
}
