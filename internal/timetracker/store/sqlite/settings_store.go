package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/db"
)

type SettingsStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewSettingsStore(db *sql.DB, writer *dbpkg.Worker) *SettingsStore {
	return &SettingsStore{db: db, writer: writer}
}

func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?;`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("settings Get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value, typ string) error {
	if typ == "" {
		typ = "string"
	}
	now := time.Now().UTC().UnixMilli()
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO settings(key, value, type, updated_at_ms) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  value = excluded.value,
  type = excluded.type,
  updated_at_ms = excluded.updated_at_ms;
`, key, value, typ, now); err != nil {
			return fmt.Errorf("settings Set %s: %w", key, err)
		}
		return nil
	})
}
