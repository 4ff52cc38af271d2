package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/db"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

type EmployeeStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEmployeeStore(db *sql.DB, writer *dbpkg.Worker) *EmployeeStore {
	return &EmployeeStore{db: db, writer: writer}
}

const employeeColumns = `id, name, phone, department, is_active, created_at_ms`

func scanEmployee(row interface{ Scan(...any) error }) (types.Employee, error) {
	var (
		e         types.Employee
		active    int
		createdMs int64
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Phone, &e.Department, &active, &createdMs); err != nil {
		return types.Employee{}, err
	}
	e.Active = active == 1
	e.CreatedAt = time.UnixMilli(createdMs).UTC()
	return e, nil
}

func (s *EmployeeStore) GetByPhone(ctx context.Context, phone string) (types.Employee, error) {
	e, err := scanEmployee(s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE phone = ?;`, phone))
	if err == sql.ErrNoRows {
		return types.Employee{}, store.ErrNotFound
	}
	if err != nil {
		return types.Employee{}, fmt.Errorf("GetByPhone: %w", err)
	}
	return e, nil
}

func (s *EmployeeStore) GetByID(ctx context.Context, id int64) (types.Employee, error) {
	e, err := scanEmployee(s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?;`, id))
	if err == sql.ErrNoRows {
		return types.Employee{}, store.ErrNotFound
	}
	if err != nil {
		return types.Employee{}, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

func (s *EmployeeStore) ListActive(ctx context.Context) ([]types.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE is_active = 1 ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer rows.Close()

	var out []types.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *EmployeeStore) Create(ctx context.Context, e types.Employee) (types.Employee, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.Phone = strings.TrimSpace(e.Phone)
	e.Department = strings.TrimSpace(e.Department)
	if e.Phone == "" {
		return types.Employee{}, fmt.Errorf("Create: empty phone")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var active int
	if e.Active {
		active = 1
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO employees(name, phone, department, is_active, created_at_ms)
VALUES (?, ?, ?, ?, ?);
`, e.Name, e.Phone, e.Department, active, e.CreatedAt.UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("Create insert: %w", err)
		}
		e.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return types.Employee{}, err
	}
	return e, nil
}

func (s *EmployeeStore) SetActive(ctx context.Context, id int64, active bool) error {
	v := 0
	if active {
		v = 1
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE employees SET is_active = ? WHERE id = ?;`, v, id)
		if err != nil {
			return fmt.Errorf("SetActive: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// Delete relies on the attendance_records foreign key for the cascade; the
// message log is keyed by phone and is cleared explicitly.
func (s *EmployeeStore) Delete(ctx context.Context, id int64) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var phone string
		err := tx.QueryRowContext(ctx, `SELECT phone FROM employees WHERE id = ?;`, id).Scan(&phone)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("Delete lookup: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM whatsapp_messages WHERE phone = ?;`, phone); err != nil {
			return fmt.Errorf("Delete messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE id = ?;`, id); err != nil {
			return fmt.Errorf("Delete employee: %w", err)
		}
		return nil
	})
}
