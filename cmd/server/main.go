// Package main - точка входа REST API сервера TypeFlow.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: репозитории, кэш, шина событий
// - Interface: HTTP handlers
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/typeflow-app/typeflow-backend/config"
	"github.com/typeflow-app/typeflow-backend/internal/application/command"
	"github.com/typeflow-app/typeflow-backend/internal/application/eventhandler"
	"github.com/typeflow-app/typeflow-backend/internal/application/query"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/auth"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/messaging"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/persistence/postgres"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/persistence/redis"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/service"
	httpserver "github.com/typeflow-app/typeflow-backend/internal/interface/http"
	"github.com/typeflow-app/typeflow-backend/pkg/logger"
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
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ И ЧАСОВОГО ПОЯСА
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting TypeFlow API server",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"timezone", cfg.App.Timezone,
	)

	// Границы периодов рейтинга считаются в настроенном часовом поясе.
	timeutil.SetLocation(cfg.App.Location)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := connectDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(ctx, redisConfigFrom(cfg))
		if err != nil {
			// Кэш не обязателен: чтение рейтинга падает обратно в PostgreSQL.
			log.Warn("failed to connect to Redis, page caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
			// Страничный кэш рейтинга можно погасить флагом, не трогая
			// остальные потребители Redis.
			if cfg.Features.IsEnabled(config.FeatureLeaderboardPageCache, nil) {
				leaderboardCache = redis.NewLeaderboardCache(redisCache)
			} else {
				log.Info("leaderboard page cache disabled by feature flag")
			}
		}
	}

	cacheAdapter := service.NewLeaderboardCacheAdapter(leaderboardCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	userRepo := postgres.NewUserRepository(dbConn)
	sessionRepo := postgres.NewSessionRepository(dbConn)
	textRepo := postgres.NewTextRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. АУТЕНТИФИКАЦИЯ
	// ─────────────────────────────────────────────────────────────────────────
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	registerCmd := command.NewRegisterUserHandler(userRepo, hasher, tokens, eventBus)
	loginCmd := command.NewLoginUserHandler(userRepo, hasher, tokens)
	updateProfileCmd := command.NewUpdateProfileHandler(userRepo)
	recordSessionCmd := command.NewRecordSessionHandler(sessionRepo, eventBus)
	updateSessionCmd := command.NewUpdateSessionHandler(sessionRepo, eventBus)
	deleteSessionCmd := command.NewDeleteSessionHandler(sessionRepo, eventBus)
	createTextCmd := command.NewCreateTextHandler(textRepo)
	updateLeaderboardCmd := command.NewUpdateLeaderboardHandler(sessionRepo, leaderboardRepo, eventBus)

	leaderboardQuery := query.NewGetLeaderboardHandler(leaderboardRepo, cacheAdapter)
	userRankQuery := query.NewGetUserRankHandler(userRepo, leaderboardRepo)
	listSessionsQuery := query.NewListSessionsHandler(sessionRepo)
	getSessionQuery := query.NewGetSessionHandler(sessionRepo)
	typingStatsQuery := query.NewGetTypingStatsHandler(sessionRepo)
	findTextsQuery := query.NewFindTextsHandler(textRepo)
	getTextQuery := query.NewGetTextHandler(textRepo)
	getProfileQuery := query.NewGetProfileHandler(userRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")
	err = eventhandler.Register(eventBus,
		eventhandler.NewOnSessionRecorded(updateLeaderboardCmd, cacheAdapter, log),
		eventhandler.NewOnSessionDeleted(updateLeaderboardCmd, cacheAdapter, log),
	)
	if err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	httpDeps := httpserver.Dependencies{
		RegisterUserHandler:   registerCmd,
		LoginUserHandler:      loginCmd,
		UpdateProfileHandler:  updateProfileCmd,
		RecordSessionHandler:  recordSessionCmd,
		UpdateSessionHandler:  updateSessionCmd,
		DeleteSessionHandler:  deleteSessionCmd,
		CreateTextHandler:     createTextCmd,
		GetLeaderboardHandler: leaderboardQuery,
		GetUserRankHandler:    userRankQuery,
		ListSessionsHandler:   listSessionsQuery,
		GetSessionHandler:     getSessionQuery,
		GetTypingStatsHandler: typingStatsQuery,
		FindTextsHandler:      findTextsQuery,
		GetTextHandler:        getTextQuery,
		GetProfileHandler:     getProfileQuery,
		Tokens:                tokens,
		Logger:                logger.Default(),
		HealthChecker:         service.NewHealthService(dbConn, redisCache),
	}

	server := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()
	log.Info("TypeFlow API server is running", "address", server.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
			return err
		}
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	if cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
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
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL, poolSettingsFrom(cfg))
	}
	return postgres.NewConnection(ctx, postgres.DefaultConfig())
}

// poolSettingsFrom переносит настройки пула соединений из конфигурации.
func poolSettingsFrom(cfg *config.Config) postgres.PoolSettings {
	return postgres.PoolSettings{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		LogQueries:      cfg.Database.LogQueries,
	}
}

// redisConfigFrom собирает конфиг Redis-клиента.
func redisConfigFrom(cfg *config.Config) redis.Config {
	rcfg := redis.DefaultConfig()
	rcfg.Host = cfg.Redis.Host
	rcfg.Port = cfg.Redis.Port
	rcfg.Password = cfg.Redis.Password
	rcfg.DB = cfg.Redis.DB
	rcfg.PoolSize = cfg.Redis.PoolSize
	rcfg.MinIdleConns = cfg.Redis.MinIdleConns
	rcfg.DialTimeout = cfg.Redis.DialTimeout
	rcfg.ReadTimeout = cfg.Redis.ReadTimeout
	rcfg.WriteTimeout = cfg.Redis.WriteTimeout
	return rcfg
}
