package store

import (
	"context"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

// AttendanceStore is the append-only event log. Records are never updated.
type AttendanceStore interface {
	// Append stores rec and returns it with ID set.
	Append(ctx context.Context, rec types.AttendanceRecord) (types.AttendanceRecord, error)
	// Latest returns the most recent record of the employee, nil when there
	// is none.
	Latest(ctx context.Context, employeeID int64) (*types.AttendanceRecord, error)
	// Between returns records with from <= timestamp < to, oldest first.
	Between(ctx context.Context, employeeID int64, from, to time.Time) ([]types.AttendanceRecord, error)
}
