package store

import "context"

const (
	SettingStartTime = "startTime"
	SettingEndTime   = "endTime"
)

type SettingsStore interface {
	// Get reports ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value, typ string) error
}
