package store

import (
	"context"
	"time"
)

// MessageRecord is one row of the inbound message audit log.
type MessageRecord struct {
	ID         int64
	Phone      string
	Message    string
	Command    string // empty when the text held no command
	Processed  bool
	Response   string
	ReceivedAt time.Time
}

type MessageStore interface {
	Create(ctx context.Context, rec MessageRecord) (int64, error)
	MarkProcessed(ctx context.Context, id int64, response string) error
	// Recent returns up to limit rows, newest first.
	Recent(ctx context.Context, limit int) ([]MessageRecord, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
