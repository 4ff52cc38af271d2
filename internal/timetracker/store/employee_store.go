package store

import (
	"context"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

type EmployeeStore interface {
	// GetByPhone matches the phone exactly as stored. Returns ErrNotFound
	// when no employee has it.
	GetByPhone(ctx context.Context, phone string) (types.Employee, error)
	GetByID(ctx context.Context, id int64) (types.Employee, error)
	ListActive(ctx context.Context) ([]types.Employee, error)
	Create(ctx context.Context, e types.Employee) (types.Employee, error)
	SetActive(ctx context.Context, id int64, active bool) error
	// Delete removes the employee together with their attendance records and
	// the message history of their phone.
	Delete(ctx context.Context, id int64) error
}
