package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-redis/redis/v8"
	"github.com/juju/clock"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/config"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/db"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/grpcapi"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/httpapi"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/attendance"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/service"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store/memory"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store/rediscache"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/store/sqlite"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/whatsapp"
)

func main() {
	logger := log.New(os.Stdout, "timetracker-server ", log.LstdFlags|log.LUTC)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		stores storeSet
		pinger grpcapi.Pinger
	)
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		logger.Printf("store backend: memory (data is lost on restart)")
		stores = memoryStores()
		var employees []db.SeedEmployee
		if cfg.Env == "dev" {
			employees = db.ParseSeedEmployees(cfg.DevEmployees)
		}
		if err := seedStores(ctx, stores, employees); err != nil {
			logger.Fatalf("seed: %v", err)
		}
	default:
		sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
		if err != nil {
			logger.Fatalf("db: %v", err)
		}
		defer sqlDB.Close()

		if cfg.Env == "dev" {
			seed := db.SeedDevOptions{Employees: db.ParseSeedEmployees(cfg.DevEmployees)}
			if err := db.SeedDev(ctx, sqlDB, seed); err != nil {
				logger.Fatalf("seed: %v", err)
			}
		}

		writer := db.NewWorker(sqlDB)
		defer writer.Close()

		stores = storeSet{
			employees:  sqlite.NewEmployeeStore(sqlDB, writer),
			attendance: sqlite.NewAttendanceStore(sqlDB, writer),
			messages:   sqlite.NewMessageStore(sqlDB, writer),
			settings:   sqlite.NewSettingsStore(sqlDB, writer),
		}
		pinger = sqlDB
	}

	var locations store.LocationCache
	switch cfg.LocationBackend {
	case config.LocationBackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatalf("redis ping %s: %v", cfg.RedisAddr, err)
		}
		locations = rediscache.NewLocationCache(rdb, clock.WallClock, store.LocationTTL)
	default:
		locations = memory.NewLocationCache(clock.WallClock, store.LocationTTL)
	}
	logger.Printf("location cache: %s", cfg.LocationBackend)

	// WhatsApp
	var sender whatsapp.Sender
	if cfg.ZAPI.Configured() {
		sender = whatsapp.NewZAPIClient(cfg.ZAPI, &http.Client{Timeout: cfg.SendTimeout}, logger)
	} else {
		logger.Printf("Z-API not configured; replies are logged only")
		sender = whatsapp.NewLogSender(logger)
	}

	// Services
	tracker := service.NewStateTracker(stores.attendance, cfg.Location)
	messageSvc := service.NewMessageService(service.MessageServiceDeps{
		Employees:  stores.employees,
		Attendance: stores.attendance,
		Messages:   stores.messages,
		Settings:   stores.settings,
		Locations:  locations,
		Tracker:    tracker,
		Clock:      clock.WallClock,
		Location:   cfg.Location,
		Logger:     logger,
	})

	reminders := service.NewReminderScheduler(stores.employees, tracker, sender, clock.WallClock, service.ReminderConfig{
		Location:      cfg.Location,
		ClockIn:       cfg.ClockIn,
		ClockOut:      cfg.ClockOut,
		Tolerance:     cfg.ReminderTolerance,
		BreakLimit:    cfg.BreakLimit,
		BreakCooldown: cfg.BreakCooldown,
		SendSpacing:   cfg.SendSpacing,
		SendTimeout:   cfg.SendTimeout,
	}, logger)
	reminders.Start(ctx)

	pruner := service.NewMessagePruner(stores.messages, clock.WallClock, service.PrunerConfig{
		RetentionDays: cfg.MessageRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           cfg.HTTPAddr,
		MessageService: messageSvc,
		MessageLog:     stores.messages,
		Sender:         sender,
		Reminders:      reminders,
		SendTimeout:    cfg.SendTimeout,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	// gRPC health
	var health *grpcapi.Server
	if cfg.GRPCAddr != "" {
		health = grpcapi.NewServer(grpcapi.Dependencies{
			Logger: logger,
			Addr:   cfg.GRPCAddr,
			DB:     pinger,
			Sender: sender,
		})
		go func() {
			logger.Printf("grpc health listening on %s", cfg.GRPCAddr)
			if err := health.Start(); err != nil {
				logger.Printf("grpc server error: %v", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if health != nil {
		health.Shutdown(shutdownCtx)
	}
	reminders.Stop()
	pruner.Stop()
}

type storeSet struct {
	employees  store.EmployeeStore
	attendance store.AttendanceStore
	messages   store.MessageStore
	settings   store.SettingsStore
}

func memoryStores() storeSet {
	as := memory.NewAttendanceStore()
	ms := memory.NewMessageStore()
	return storeSet{
		employees:  memory.NewEmployeeStore(as, ms),
		attendance: as,
		messages:   ms,
		settings:   memory.NewSettingsStore(nil),
	}
}

// seedStores writes the default work window and the dev employees through
// the store interfaces. Used for the memory backend, which starts empty.
func seedStores(ctx context.Context, s storeSet, employees []db.SeedEmployee) error {
	for key, value := range map[string]string{
		store.SettingStartTime: attendance.DefaultStartTime,
		store.SettingEndTime:   attendance.DefaultEndTime,
	} {
		if err := s.settings.Set(ctx, key, value, "string"); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	for _, e := range employees {
		if _, err := s.employees.Create(ctx, types.Employee{
			Name:       e.Name,
			Phone:      e.Phone,
			Department: e.Department,
			Active:     true,
		}); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.Phone, err)
		}
	}
	return nil
}
