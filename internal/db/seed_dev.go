package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type SeedEmployee struct {
	Name       string
	Phone      string
	Department string
}

type SeedDevOptions struct {
	Employees []SeedEmployee

	// Work-hour window written to settings unless already present.
	StartTime string
	EndTime   string
}

// SeedDev inserts development fixtures. Existing rows are left untouched so
// it can run on every start in dev.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	if opt.StartTime == "" {
		opt.StartTime = "08:00"
	}
	if opt.EndTime == "" {
		opt.EndTime = "17:00"
	}

	for key, value := range map[string]string{"startTime": opt.StartTime, "endTime": opt.EndTime} {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO settings(key, value, type, updated_at_ms)
VALUES (?, ?, 'string', ?);`, key, value, now); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}

	for _, e := range opt.Employees {
		phone := strings.TrimSpace(e.Phone)
		if phone == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO employees(name, phone, department, is_active, created_at_ms)
VALUES (?, ?, ?, 1, ?);`, strings.TrimSpace(e.Name), phone, strings.TrimSpace(e.Department), now); err != nil {
			return fmt.Errorf("seed employee %s: %w", phone, err)
		}
	}

	return nil
}

// ParseSeedEmployees reads "Name|phone|department" entries.
func ParseSeedEmployees(entries []string) []SeedEmployee {
	out := make([]SeedEmployee, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, "|")
		if len(parts) < 2 {
			continue
		}
		e := SeedEmployee{
			Name:  strings.TrimSpace(parts[0]),
			Phone: strings.TrimSpace(parts[1]),
		}
		if len(parts) > 2 {
			e.Department = strings.TrimSpace(parts[2])
		}
		if e.Phone == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}
