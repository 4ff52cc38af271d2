package service_test

import (
	"context"
	"errors"
	"io"
	"log"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/service"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store/memory"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/whatsapp"
)

var lisbon = mustLoad("Europe/Lisbon")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// day is a Tuesday before the March DST switch, so Lisbon equals UTC.
func at(hh, mm int) time.Time {
	return time.Date(2026, 3, 10, hh, mm, 0, 0, lisbon)
}

// flakyAttendance fails Append with err once set. With commit, the record
// is stored before the error is returned, like a write whose caller gave
// up after the transaction committed.
type flakyAttendance struct {
	*memory.AttendanceStore

	mu     sync.Mutex
	err    error
	commit bool
}

func (a *flakyAttendance) Append(ctx context.Context, rec types.AttendanceRecord) (types.AttendanceRecord, error) {
	a.mu.Lock()
	err, commit := a.err, a.commit
	a.mu.Unlock()

	if err == nil {
		return a.AttendanceStore.Append(ctx, rec)
	}
	if commit {
		if _, cerr := a.AttendanceStore.Append(ctx, rec); cerr != nil {
			return types.AttendanceRecord{}, cerr
		}
	}
	return types.AttendanceRecord{}, err
}

func (a *flakyAttendance) fail(err error, commit bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err, a.commit = err, commit
}

type flakySettings struct {
	*memory.SettingsStore

	mu  sync.Mutex
	err error
}

func (s *flakySettings) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return "", false, err
	}
	return s.SettingsStore.Get(ctx, key)
}

func (s *flakySettings) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type fixture struct {
	clock      *testclock.Clock
	employees  *memory.EmployeeStore
	attendance *flakyAttendance
	messages   *memory.MessageStore
	settings   *flakySettings
	locations  *memory.LocationCache
	tracker    *service.StateTracker
	svc        *service.MessageService
}

func newFixture(t *testing.T, start time.Time) *fixture {
	t.Helper()

	clk := testclock.NewClock(start)
	as := memory.NewAttendanceStore()
	ms := memory.NewMessageStore()
	f := &fixture{
		clock:      clk,
		attendance: &flakyAttendance{AttendanceStore: as},
		messages:   ms,
		employees:  memory.NewEmployeeStore(as, ms),
		settings: &flakySettings{SettingsStore: memory.NewSettingsStore(map[string]string{
			store.SettingStartTime: "08:00",
			store.SettingEndTime:   "17:00",
		})},
		locations: memory.NewLocationCache(clk, 0),
	}
	f.tracker = service.NewStateTracker(f.attendance, lisbon)
	f.svc = service.NewMessageService(service.MessageServiceDeps{
		Employees:  f.employees,
		Attendance: f.attendance,
		Messages:   f.messages,
		Settings:   f.settings,
		Locations:  f.locations,
		Tracker:    f.tracker,
		Clock:      clk,
		Location:   lisbon,
		Logger:     silentLogger(),
	})
	return f
}

func (f *fixture) addEmployee(t *testing.T, name, phone string, active bool) types.Employee {
	t.Helper()
	e, err := f.employees.Create(context.Background(), types.Employee{Name: name, Phone: phone, Active: active})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return e
}

// send processes text from phone at the given local wall time.
func (f *fixture) send(t *testing.T, phone, text string, when time.Time) types.InboundReply {
	t.Helper()
	f.setNow(t, when)
	reply, err := f.svc.Process(context.Background(), types.InboundMessage{Phone: phone, Text: text})
	if err != nil {
		t.Fatalf("Process(%q): %v", text, err)
	}
	return reply
}

func (f *fixture) setNow(t *testing.T, when time.Time) {
	t.Helper()
	d := when.Sub(f.clock.Now())
	if d < 0 {
		t.Fatalf("cannot move clock backwards to %v", when)
	}
	f.clock.Advance(d)
}

func (f *fixture) recordsOf(t *testing.T, id int64) []types.AttendanceRecord {
	t.Helper()
	recs, err := f.attendance.Between(context.Background(), id, time.Time{}, farFuture)
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	return recs
}

// auditRows returns the message log oldest first.
func (f *fixture) auditRows(t *testing.T) []store.MessageRecord {
	t.Helper()
	return oldestFirst(t, f.messages)
}

var farFuture = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

func oldestFirst(t *testing.T, ms store.MessageStore) []store.MessageRecord {
	t.Helper()
	rows, err := ms.Recent(context.Background(), 1000)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	slices.Reverse(rows)
	return rows
}

type sentMessage struct {
	phone string
	text  string
}

// fakeSender records every send. Phones in fail get an error instead.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]bool
}

func newFakeSender(failPhones ...string) *fakeSender {
	f := &fakeSender{fail: make(map[string]bool)}
	for _, p := range failPhones {
		f.fail[p] = true
	}
	return f
}

func (s *fakeSender) Send(_ context.Context, phone, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[phone] {
		return errors.New("bridge unavailable")
	}
	s.sent = append(s.sent, sentMessage{phone: phone, text: text})
	return nil
}

func (s *fakeSender) Status() whatsapp.Status {
	return whatsapp.Status{Ready: true, Service: "fake"}
}

func (s *fakeSender) phones() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, m := range s.sent {
		out[i] = m.phone
	}
	return out
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}
