// Package main - точка входа фоновых процессов (Worker) TypeFlow.
//
// Worker отвечает за периодические задачи:
// - Полный пересчёт рейтинга из сессий (самовосстановление после сбоев)
// - Ночной прогон после полуночи, закрывающий вчерашние временные корзины
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/typeflow-app/typeflow-backend/config"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/persistence/postgres"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/persistence/redis"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/scheduler"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/scheduler/jobs"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/service"
	"github.com/typeflow-app/typeflow-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting TypeFlow worker",
		"env", cfg.App.Environment,
		"timezone", cfg.App.Timezone,
		"rebuild_interval", cfg.Scheduler.RebuildInterval.String(),
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled, nothing to do")
		return nil
	}

	timeutil.SetLocation(cfg.App.Location)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := connectDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Миграции запускает API сервер; worker только проверяет их статус.
	migrator := postgres.NewMigrator(dbConn)
	if status, err := migrator.Status(ctx); err == nil {
		pending := 0
		for _, m := range status {
			if !m.IsApplied {
				pending++
			}
		}
		if pending > 0 {
			log.Warn("database has pending migrations", "pending", pending)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально, для сброса кэша страниц после пересчёта)
	// ─────────────────────────────────────────────────────────────────────────
	var leaderboardCache *redis.LeaderboardCache
	if !cfg.Redis.Disabled {
		rcfg := redis.DefaultConfig()
		rcfg.Host = cfg.Redis.Host
		rcfg.Port = cfg.Redis.Port
		rcfg.Password = cfg.Redis.Password
		rcfg.DB = cfg.Redis.DB

		redisCache, err := redis.NewCache(ctx, rcfg)
		if err != nil {
			log.Warn("failed to connect to Redis, cache invalidation disabled", "error", err)
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
		}
	}
	cacheAdapter := service.NewLeaderboardCacheAdapter(leaderboardCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПЛАНИРОВЩИК И ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	userRepo := postgres.NewUserRepository(dbConn)
	sessionRepo := postgres.NewSessionRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	rebuildJob := jobs.NewRebuildLeaderboardJob(
		userRepo,
		sessionRepo,
		leaderboardRepo,
		cacheAdapter,
		log,
		jobs.RebuildLeaderboardConfig{Timeout: cfg.Scheduler.JobTimeout},
	)

	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	// Периодический полный пересчёт: чинит всё, что упустили события.
	if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildInterval)); err != nil {
		return fmt.Errorf("failed to register rebuild job: %w", err)
	}

	// Ночной прогон после полуночи: сессии, записанные до границы суток,
	// уже лежат во вчерашних корзинах, но кэш и all_time нужно освежить.
	settle := &namedJob{Job: rebuildJob, name: "settle_period_rollover"}
	if err := sched.Register(settle, scheduler.NewDailySchedule(cfg.Scheduler.SettleHour, cfg.Scheduler.SettleMinute)); err != nil {
		return fmt.Errorf("failed to register settle job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("TypeFlow worker is running")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// namedJob регистрирует один и тот же Job под другим именем,
// чтобы планировщик видел две независимые записи.
type namedJob struct {
	scheduler.Job
	name string
}

func (j *namedJob) Name() string { return j.name }

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// connectDatabase подключается к PostgreSQL по URL из конфигурации,
// либо с дефолтными параметрами для локальной разработки.
func connectDatabase(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	if cfg.Database.URL != "" {
		settings := postgres.PoolSettings{
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
			LogQueries:      cfg.Database.LogQueries,
		}
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL, settings)
	}
	return postgres.NewConnection(ctx, postgres.DefaultConfig())
}
