package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store/memory"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

func TestMemory_DeleteCascades(t *testing.T) {
	as := memory.NewAttendanceStore()
	ms := memory.NewMessageStore()
	es := memory.NewEmployeeStore(as, ms)
	ctx := context.Background()

	ana, err := es.Create(ctx, types.Employee{Name: "Ana", Phone: "+351900000001", Active: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	bruno, _ := es.Create(ctx, types.Employee{Name: "Bruno", Phone: "+351900000002", Active: true})

	as.Append(ctx, types.AttendanceRecord{EmployeeID: ana.ID, Type: types.RecordEntrada})
	as.Append(ctx, types.AttendanceRecord{EmployeeID: bruno.ID, Type: types.RecordEntrada})
	ms.Create(ctx, store.MessageRecord{Phone: ana.Phone, Message: "entrada"})

	if err := es.Delete(ctx, ana.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got := len(as.Records()); got != 1 {
		t.Errorf("expected 1 record left, got %d", got)
	}
	if got := len(ms.Rows()); got != 0 {
		t.Errorf("expected message history removed, got %d", got)
	}
	if _, err := es.GetByPhone(ctx, ana.Phone); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_AttendanceLatestAndBetween(t *testing.T) {
	as := memory.NewAttendanceStore()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	as.Append(ctx, types.AttendanceRecord{EmployeeID: 1, Type: types.RecordPausa, Timestamp: t0.Add(2 * time.Hour)})
	as.Append(ctx, types.AttendanceRecord{EmployeeID: 1, Type: types.RecordEntrada, Timestamp: t0})
	as.Append(ctx, types.AttendanceRecord{EmployeeID: 1, Type: types.RecordVolta, Timestamp: t0.Add(2 * time.Hour)})

	latest, _ := as.Latest(ctx, 1)
	if latest == nil || latest.Type != types.RecordVolta {
		t.Fatalf("expected volta, got %+v", latest)
	}

	recs, _ := as.Between(ctx, 1, t0, t0.Add(2*time.Hour))
	if len(recs) != 1 || recs[0].Type != types.RecordEntrada {
		t.Errorf("expected only entrada in [t0, t0+2h), got %+v", recs)
	}

	if l, _ := as.Latest(ctx, 2); l != nil {
		t.Errorf("expected nil for unknown employee, got %+v", l)
	}
}

func TestMemory_MessageRecentAndPrune(t *testing.T) {
	ms := memory.NewMessageStore()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	old, _ := ms.Create(ctx, store.MessageRecord{Phone: "p", Message: "old", ReceivedAt: t0})
	ms.Create(ctx, store.MessageRecord{Phone: "p", Message: "new", ReceivedAt: t0.Add(time.Hour)})

	if err := ms.MarkProcessed(ctx, old, "ok"); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	recent, _ := ms.Recent(ctx, 1)
	if len(recent) != 1 || recent[0].Message != "new" {
		t.Errorf("expected newest row, got %+v", recent)
	}

	n, _ := ms.PruneOlderThan(ctx, t0.Add(time.Minute))
	if n != 1 || len(ms.Rows()) != 1 {
		t.Errorf("expected 1 pruned, got %d (left %d)", n, len(ms.Rows()))
	}
}
