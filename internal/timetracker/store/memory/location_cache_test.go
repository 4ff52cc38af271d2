package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store/memory"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

var lisboa = types.Location{Latitude: 38.7223, Longitude: -9.1393, Address: "Lisboa"}

func TestLocationCache_ExpiresAfterTTL(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	c := memory.NewLocationCache(clk, 0)
	ctx := context.Background()

	if err := c.Put(ctx, "+351900000001", lisboa); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clk.Advance(5 * time.Minute)
	got, ok, err := c.Get(ctx, "+351900000001")
	if err != nil || !ok {
		t.Fatalf("expected entry at exactly 5 minutes, ok=%v err=%v", ok, err)
	}
	if got != lisboa {
		t.Errorf("got %+v", got)
	}

	clk.Advance(time.Second)
	if _, ok, _ := c.Get(ctx, "+351900000001"); ok {
		t.Error("expired entry must not be returned")
	}
}

func TestLocationCache_GetDoesNotConsume(t *testing.T) {
	c := memory.NewLocationCache(testclock.NewClock(time.Now()), 0)
	ctx := context.Background()

	c.Put(ctx, "+351900000001", lisboa)
	for i := 0; i < 2; i++ {
		if _, ok, _ := c.Get(ctx, "+351900000001"); !ok {
			t.Fatalf("read %d: expected entry", i)
		}
	}

	if err := c.Clear(ctx, "+351900000001"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "+351900000001"); ok {
		t.Error("expected entry gone after Clear")
	}
}

func TestLocationCache_PutOverwritesAndSweeps(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	c := memory.NewLocationCache(clk, 0)
	ctx := context.Background()

	c.Put(ctx, "+351900000001", lisboa)
	c.Put(ctx, "+351900000002", lisboa)

	clk.Advance(6 * time.Minute)
	porto := types.Location{Latitude: 41.1579, Longitude: -8.6291}
	c.Put(ctx, "+351900000002", porto)

	if c.Len() != 1 {
		t.Errorf("expected stale entry swept, %d left", c.Len())
	}
	got, ok, _ := c.Get(ctx, "+351900000002")
	if !ok || got != porto {
		t.Errorf("expected overwritten entry, got %+v ok=%v", got, ok)
	}
}
