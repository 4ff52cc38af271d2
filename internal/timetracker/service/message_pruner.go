package service

import (
	"context"
	"log"
	"time"

	"github.com/juju/clock"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
)

// MessagePruner periodically deletes audit-log messages older than a
// configurable retention period. A retention of 0 disables pruning.
type MessagePruner struct {
	store     store.MessageStore
	clock     clock.Clock
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewMessagePruner.
type PrunerConfig struct {
	// RetentionDays is how many days of message history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs. Defaults to 6.
	IntervalHours int
}

// NewMessagePruner creates a pruner but does not start it.
func NewMessagePruner(s store.MessageStore, clk clock.Clock, cfg PrunerConfig, logger *log.Logger) *MessagePruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if clk == nil {
		clk = clock.WallClock
	}

	return &MessagePruner{
		store:     s,
		clock:     clk,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start prunes once immediately, then every interval, until ctx is
// cancelled or Stop is called.
func (p *MessagePruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Printf("message pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Printf("message pruner started (retention=%dd, interval=%dh)",
		int(p.retention.Hours()/24), int(p.interval.Hours()))
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *MessagePruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *MessagePruner) loop(ctx context.Context) {
	defer close(p.done)

	// Clear any backlog left from before the restart.
	p.PruneOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.clock.After(p.interval):
			p.PruneOnce(ctx)
		}
	}
}

// PruneOnce deletes rows older than the retention and returns how many.
func (p *MessagePruner) PruneOnce(ctx context.Context) int64 {
	cutoff := p.clock.Now().UTC().Add(-p.retention)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Printf("message prune error: %v", err)
		return 0
	}
	if deleted > 0 {
		p.logger.Printf("message prune: deleted %d rows older than %s",
			deleted, cutoff.Format(time.RFC3339))
	}
	return deleted
}
