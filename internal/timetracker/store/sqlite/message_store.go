package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/db"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
)

type MessageStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewMessageStore(db *sql.DB, writer *dbpkg.Worker) *MessageStore {
	return &MessageStore{db: db, writer: writer}
}

func (s *MessageStore) Create(ctx context.Context, rec store.MessageRecord) (int64, error) {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}

	var command any
	if rec.Command != "" {
		command = rec.Command
	}

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO whatsapp_messages(phone, message, command, processed, timestamp_ms)
VALUES (?, ?, ?, 0, ?);
`, rec.Phone, rec.Message, command, rec.ReceivedAt.UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("Create message: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (s *MessageStore) MarkProcessed(ctx context.Context, id int64, response string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE whatsapp_messages SET processed = 1, response = ? WHERE id = ?;
`, response, id)
		if err != nil {
			return fmt.Errorf("MarkProcessed: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *MessageStore) Recent(ctx context.Context, limit int) ([]store.MessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, phone, message, command, processed, response, timestamp_ms
FROM whatsapp_messages
ORDER BY timestamp_ms DESC, id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	defer rows.Close()

	var out []store.MessageRecord
	for rows.Next() {
		var (
			m         store.MessageRecord
			command   sql.NullString
			response  sql.NullString
			processed int
			tsMs      int64
		)
		if err := rows.Scan(&m.ID, &m.Phone, &m.Message, &command, &processed, &response, &tsMs); err != nil {
			return nil, fmt.Errorf("Recent scan: %w", err)
		}
		m.Command = command.String
		m.Response = response.String
		m.Processed = processed == 1
		m.ReceivedAt = time.UnixMilli(tsMs).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// PruneOlderThan deletes audit rows received before cutoff and returns the
// number removed. Uses idx_whatsapp_messages_time.
func (s *MessageStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM whatsapp_messages WHERE timestamp_ms < ?;`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
