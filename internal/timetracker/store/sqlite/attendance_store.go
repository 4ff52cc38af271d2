package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/db"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

type AttendanceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAttendanceStore(db *sql.DB, writer *dbpkg.Worker) *AttendanceStore {
	return &AttendanceStore{db: db, writer: writer}
}

const attendanceColumns = `id, employee_id, type, timestamp_ms, message, latitude, longitude, address`

func scanRecord(row interface{ Scan(...any) error }) (types.AttendanceRecord, error) {
	var (
		r       types.AttendanceRecord
		typ     string
		tsMs    int64
		message sql.NullString
		lat     sql.NullFloat64
		lng     sql.NullFloat64
		address sql.NullString
	)
	if err := row.Scan(&r.ID, &r.EmployeeID, &typ, &tsMs, &message, &lat, &lng, &address); err != nil {
		return types.AttendanceRecord{}, err
	}
	r.Type = types.RecordType(typ)
	r.Timestamp = time.UnixMilli(tsMs).UTC()
	r.Message = message.String
	if lat.Valid && lng.Valid {
		r.Location = &types.Location{Latitude: lat.Float64, Longitude: lng.Float64, Address: address.String}
	}
	return r, nil
}

func (s *AttendanceStore) Append(ctx context.Context, rec types.AttendanceRecord) (types.AttendanceRecord, error) {
	if !rec.Type.Valid() {
		return types.AttendanceRecord{}, fmt.Errorf("Append: invalid record type %q", rec.Type)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	var lat, lng, address any
	if rec.Location != nil {
		lat = rec.Location.Latitude
		lng = rec.Location.Longitude
		if rec.Location.Address != "" {
			address = rec.Location.Address
		}
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO attendance_records(
  employee_id, type, timestamp_ms, message, latitude, longitude, address
) VALUES (?, ?, ?, ?, ?, ?, ?);
`, rec.EmployeeID, string(rec.Type), rec.Timestamp.UTC().UnixMilli(), rec.Message, lat, lng, address)
		if err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		rec.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return types.AttendanceRecord{}, err
	}
	return rec, nil
}

// Latest orders by id as a tie-breaker so two records in the same
// millisecond resolve to the one appended last.
func (s *AttendanceStore) Latest(ctx context.Context, employeeID int64) (*types.AttendanceRecord, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, `
SELECT `+attendanceColumns+`
FROM attendance_records
WHERE employee_id = ?
ORDER BY timestamp_ms DESC, id DESC
LIMIT 1;
`, employeeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return &r, nil
}

func (s *AttendanceStore) Between(ctx context.Context, employeeID int64, from, to time.Time) ([]types.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+attendanceColumns+`
FROM attendance_records
WHERE employee_id = ? AND timestamp_ms >= ? AND timestamp_ms < ?
ORDER BY timestamp_ms ASC, id ASC;
`, employeeID, from.UTC().UnixMilli(), to.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("Between: %w", err)
	}
	defer rows.Close()

	var out []types.AttendanceRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("Between scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
