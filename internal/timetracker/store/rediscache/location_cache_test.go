package rediscache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/juju/clock/testclock"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store/rediscache"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

func newCache(t *testing.T) (*rediscache.LocationCache, *miniredis.Miniredis, *testclock.Clock) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	clk := testclock.NewClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	return rediscache.NewLocationCache(rdb, clk, 0), mr, clk
}

func TestRedisLocationCache_RoundTripAndClear(t *testing.T) {
	c, mr, _ := newCache(t)
	ctx := context.Background()
	loc := types.Location{Latitude: 38.7223, Longitude: -9.1393, Address: "Lisboa"}

	if err := c.Put(ctx, "+351900000001", loc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ttl := mr.TTL("timetracker:location:+351900000001"); ttl != 5*time.Minute {
		t.Errorf("redis TTL = %v, want 5m", ttl)
	}

	got, ok, err := c.Get(ctx, "+351900000001")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != loc {
		t.Errorf("got %+v, want %+v", got, loc)
	}

	if err := c.Clear(ctx, "+351900000001"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, err := c.Get(ctx, "+351900000001"); ok || err != nil {
		t.Errorf("expected miss after Clear, ok=%v err=%v", ok, err)
	}
}

func TestRedisLocationCache_StaleEntryHiddenBeforeRedisExpiry(t *testing.T) {
	c, _, clk := newCache(t)
	ctx := context.Background()

	c.Put(ctx, "+351900000001", types.Location{Latitude: 1, Longitude: 2})

	// Redis has not expired the key, but the capture time is too old.
	clk.Advance(5*time.Minute + time.Second)
	if _, ok, err := c.Get(ctx, "+351900000001"); ok || err != nil {
		t.Errorf("expected stale entry hidden, ok=%v err=%v", ok, err)
	}
}

func TestRedisLocationCache_RedisExpiry(t *testing.T) {
	c, mr, _ := newCache(t)
	ctx := context.Background()

	c.Put(ctx, "+351900000001", types.Location{Latitude: 1, Longitude: 2})
	mr.FastForward(6 * time.Minute)

	if _, ok, err := c.Get(ctx, "+351900000001"); ok || err != nil {
		t.Errorf("expected key expired by redis, ok=%v err=%v", ok, err)
	}
}

func TestRedisLocationCache_ServerDownIsAnError(t *testing.T) {
	c, mr, _ := newCache(t)
	mr.Close()

	if _, _, err := c.Get(context.Background(), "+351900000001"); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}
