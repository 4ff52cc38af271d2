package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/juju/clock"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

const keyPrefix = "timetracker:location:"

type entry struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address,omitempty"`
	CapturedAtMs int64   `json:"captured_at_ms"`
}

// LocationCache stores pending locations in Redis with SET EX. Redis
// expiry does the sweeping; Get also compares the capture time against the
// injected clock so an entry is never returned past the TTL.
type LocationCache struct {
	rdb   *redis.Client
	clock clock.Clock
	ttl   time.Duration
}

func NewLocationCache(rdb *redis.Client, clk clock.Clock, ttl time.Duration) *LocationCache {
	if clk == nil {
		clk = clock.WallClock
	}
	if ttl <= 0 {
		ttl = store.LocationTTL
	}
	return &LocationCache{rdb: rdb, clock: clk, ttl: ttl}
}

func (c *LocationCache) Put(ctx context.Context, phone string, loc types.Location) error {
	b, err := json.Marshal(entry{
		Latitude:     loc.Latitude,
		Longitude:    loc.Longitude,
		Address:      loc.Address,
		CapturedAtMs: c.clock.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("location Put encode: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+phone, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("location Put: %w", err)
	}
	return nil
}

func (c *LocationCache) Get(ctx context.Context, phone string) (types.Location, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+phone).Bytes()
	if err == redis.Nil {
		return types.Location{}, false, nil
	}
	if err != nil {
		return types.Location{}, false, fmt.Errorf("location Get: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return types.Location{}, false, fmt.Errorf("location Get decode: %w", err)
	}
	if c.clock.Now().Sub(time.UnixMilli(e.CapturedAtMs)) > c.ttl {
		return types.Location{}, false, nil
	}
	return types.Location{Latitude: e.Latitude, Longitude: e.Longitude, Address: e.Address}, true, nil
}

func (c *LocationCache) Clear(ctx context.Context, phone string) error {
	if err := c.rdb.Del(ctx, keyPrefix+phone).Err(); err != nil {
		return fmt.Errorf("location Clear: %w", err)
	}
	return nil
}
