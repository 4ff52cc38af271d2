package memory

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

type pendingLocation struct {
	loc        types.Location
	capturedAt time.Time
}

// LocationCache keeps the last shared location per phone in process memory.
// Expired entries are never returned; they are swept on the next Put.
type LocationCache struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]pendingLocation
}

// NewLocationCache uses store.LocationTTL when ttl <= 0 and the wall clock
// when clk is nil.
func NewLocationCache(clk clock.Clock, ttl time.Duration) *LocationCache {
	if clk == nil {
		clk = clock.WallClock
	}
	if ttl <= 0 {
		ttl = store.LocationTTL
	}
	return &LocationCache{
		clock:   clk,
		ttl:     ttl,
		entries: make(map[string]pendingLocation),
	}
}

func (c *LocationCache) Put(_ context.Context, phone string, loc types.Location) error {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for p, e := range c.entries {
		if now.Sub(e.capturedAt) > c.ttl {
			delete(c.entries, p)
		}
	}
	c.entries[phone] = pendingLocation{loc: loc, capturedAt: now}
	return nil
}

func (c *LocationCache) Get(_ context.Context, phone string) (types.Location, bool, error) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[phone]
	if !ok || now.Sub(e.capturedAt) > c.ttl {
		return types.Location{}, false, nil
	}
	return e.loc, true, nil
}

func (c *LocationCache) Clear(_ context.Context, phone string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, phone)
	return nil
}
