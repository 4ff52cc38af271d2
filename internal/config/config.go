package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/attendance"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/whatsapp"
)

const (
	StoreBackendSQLite = "sqlite"
	StoreBackendMemory = "memory"

	LocationBackendMemory = "memory"
	LocationBackendRedis  = "redis"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string // empty disables the health server

	// DB
	Env          string // "dev" | "prod"
	StoreBackend string // "sqlite" | "memory" (memory loses everything on restart)
	DBPath       string // e.g. "./data/timetracker.db"

	Location *time.Location

	// Reminders
	ClockIn           attendance.TimeOfDay
	ClockOut          attendance.TimeOfDay
	ReminderTolerance time.Duration
	BreakLimit        time.Duration
	BreakCooldown     time.Duration
	SendSpacing       time.Duration
	SendTimeout       time.Duration

	LocationBackend string // "memory" | "redis"
	RedisAddr       string
	RedisPassword   string

	ZAPI whatsapp.ZAPIConfig

	// Message log retention
	MessageRetentionDays int // 0 = keep forever
	PruneIntervalHours   int // how often the pruner runs (default 6)

	// "Name|phone|department" entries seeded in dev.
	DevEmployees []string
}

// Load reads an optional .env file into the environment, then calls FromEnv.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	env := strings.ToLower(getenvDefault("TIMETRACKER_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	tz := getenvDefault("TIMETRACKER_TIMEZONE", "Europe/Lisbon")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("TIMETRACKER_TIMEZONE %q: %w", tz, err)
	}

	clockIn, err := attendance.ParseTimeOfDay(getenvDefault("TIMETRACKER_CLOCK_IN_REMINDER", "09:00"))
	if err != nil {
		return Config{}, fmt.Errorf("TIMETRACKER_CLOCK_IN_REMINDER: %w", err)
	}
	clockOut, err := attendance.ParseTimeOfDay(getenvDefault("TIMETRACKER_CLOCK_OUT_REMINDER", "18:00"))
	if err != nil {
		return Config{}, fmt.Errorf("TIMETRACKER_CLOCK_OUT_REMINDER: %w", err)
	}

	storeBackend := strings.ToLower(getenvDefault("TIMETRACKER_STORE_BACKEND", StoreBackendSQLite))
	if storeBackend != StoreBackendSQLite && storeBackend != StoreBackendMemory {
		return Config{}, fmt.Errorf("TIMETRACKER_STORE_BACKEND %q: want sqlite or memory", storeBackend)
	}

	backend := strings.ToLower(getenvDefault("TIMETRACKER_LOCATION_BACKEND", LocationBackendMemory))
	switch backend {
	case LocationBackendMemory:
	case LocationBackendRedis:
		if strings.TrimSpace(os.Getenv("TIMETRACKER_REDIS_ADDR")) == "" {
			return Config{}, errors.New("TIMETRACKER_REDIS_ADDR is required for the redis location backend")
		}
	default:
		return Config{}, fmt.Errorf("TIMETRACKER_LOCATION_BACKEND %q: want memory or redis", backend)
	}

	cfg := Config{
		HTTPAddr: getenvDefault("TIMETRACKER_HTTP_ADDR", ":8080"),
		GRPCAddr: getenvOptional("TIMETRACKER_GRPC_ADDR", ":9090"),
		Env:      env,
		DBPath:   getenvDefault("TIMETRACKER_DB_PATH", "./data/timetracker.db"),
		Location: loc,

		StoreBackend: storeBackend,

		ClockIn:           clockIn,
		ClockOut:          clockOut,
		ReminderTolerance: time.Duration(getenvInt("TIMETRACKER_REMINDER_TOLERANCE_MINUTES", 10)) * time.Minute,
		BreakLimit:        time.Duration(getenvInt("TIMETRACKER_BREAK_LIMIT_MINUTES", 15)) * time.Minute,
		BreakCooldown:     time.Duration(getenvInt("TIMETRACKER_BREAK_COOLDOWN_MINUTES", 30)) * time.Minute,
		SendSpacing:       time.Duration(getenvInt("TIMETRACKER_SEND_SPACING_SECONDS", 2)) * time.Second,
		SendTimeout:       time.Duration(getenvInt("TIMETRACKER_SEND_TIMEOUT_SECONDS", 15)) * time.Second,

		LocationBackend: backend,
		RedisAddr:       strings.TrimSpace(os.Getenv("TIMETRACKER_REDIS_ADDR")),
		RedisPassword:   os.Getenv("TIMETRACKER_REDIS_PASSWORD"),

		ZAPI: whatsapp.ZAPIConfig{
			BaseURL:     getenvDefault("TIMETRACKER_ZAPI_BASE_URL", whatsapp.DefaultZAPIBaseURL),
			Instance:    strings.TrimSpace(os.Getenv("TIMETRACKER_ZAPI_INSTANCE")),
			Token:       strings.TrimSpace(os.Getenv("TIMETRACKER_ZAPI_TOKEN")),
			ClientToken: strings.TrimSpace(os.Getenv("TIMETRACKER_ZAPI_CLIENT_TOKEN")),
		},

		MessageRetentionDays: getenvInt("TIMETRACKER_MESSAGE_RETENTION_DAYS", 90),
		PruneIntervalHours:   getenvInt("TIMETRACKER_PRUNE_INTERVAL_HOURS", 6),

		DevEmployees: splitCSV(os.Getenv("TIMETRACKER_DEV_EMPLOYEES")),
	}
	if cfg.SendSpacing == 0 {
		// 0 seconds means no spacing; the scheduler reads negative as "off".
		cfg.SendSpacing = -1
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// getenvOptional returns def when key is unset, and "" when it is set empty.
func getenvOptional(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return strings.TrimSpace(v)
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
