package service_test

import (
	"context"
	"testing"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/attendance"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/service"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store/memory"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

func TestStateTracker_ReplaysOnMissThenServesCache(t *testing.T) {
	as := memory.NewAttendanceStore()
	ctx := context.Background()
	as.Append(ctx, types.AttendanceRecord{EmployeeID: 7, Type: types.RecordEntrada, Timestamp: at(8, 0)})

	tr := service.NewStateTracker(as, lisbon)
	st, err := tr.Current(ctx, 7, at(9, 0))
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if st.Kind != attendance.Working || !st.ClockedInToday {
		t.Fatalf("replayed state = %+v", st)
	}

	// The cache is authoritative once populated.
	as.Append(ctx, types.AttendanceRecord{EmployeeID: 7, Type: types.RecordPausa, Timestamp: at(9, 30)})
	if st, _ := tr.Current(ctx, 7, at(9, 31)); st.Kind != attendance.Working {
		t.Errorf("expected cached Working, got %v", st.Kind)
	}

	tr.Forget(7)
	if st, _ := tr.Current(ctx, 7, at(9, 32)); st.Kind != attendance.OnBreak {
		t.Errorf("expected replayed OnBreak after Forget, got %v", st.Kind)
	}
}

func TestStateTracker_RollsOverOnNewDay(t *testing.T) {
	as := memory.NewAttendanceStore()
	tr := service.NewStateTracker(as, lisbon)
	ctx := context.Background()

	st, _ := tr.Current(ctx, 1, at(8, 0))
	d := attendance.Transition(st, attendance.CmdEntrada, at(8, 0))
	tr.Put(1, d.Next)

	next, err := tr.Current(ctx, 1, at(8, 0).AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if next.ClockedInToday {
		t.Error("per-day flags must reset on a new day")
	}
	if next.Kind != attendance.Working {
		t.Errorf("kind should carry over, got %v", next.Kind)
	}
}
