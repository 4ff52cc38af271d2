package sqlite_test

import (
	"context"
	"testing"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	sqlitestore "github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store/sqlite"
)

func TestSettingsStore_GetMissingAndUpsert(t *testing.T) {
	conn := openTestDB(t)
	ss := sqlitestore.NewSettingsStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if _, ok, err := ss.Get(ctx, store.SettingStartTime); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := ss.Set(ctx, store.SettingStartTime, "07:30", ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := ss.Set(ctx, store.SettingStartTime, "08:15", "string"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	v, ok, err := ss.Get(ctx, store.SettingStartTime)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if v != "08:15" {
		t.Errorf("value = %q, want 08:15", v)
	}
	if n := countRows(t, conn, `SELECT COUNT(*) FROM settings`); n != 1 {
		t.Errorf("expected a single row, got %d", n)
	}
}
