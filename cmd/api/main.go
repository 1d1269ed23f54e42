// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/estate-market/internal/admin"
	"github.com/carterperez-dev/estate-market/internal/auth"
	"github.com/carterperez-dev/estate-market/internal/config"
	"github.com/carterperez-dev/estate-market/internal/core"
	"github.com/carterperez-dev/estate-market/internal/health"
	"github.com/carterperez-dev/estate-market/internal/media"
	"github.com/carterperez-dev/estate-market/internal/middleware"
	"github.com/carterperez-dev/estate-market/internal/property"
	"github.com/carterperez-dev/estate-market/internal/server"
	"github.com/carterperez-dev/estate-market/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"database", cfg.Mongo.Database,
		"max_pool_size", cfg.Mongo.MaxPoolSize,
	)

	if err := user.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	if err := property.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis, cfg.App.Name)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token manager initialized",
		"algorithm", "HS256",
		"expiry", cfg.JWT.AccessTokenExpire.String(),
	)

	var objectStore media.ObjectStore
	if cfg.Media.Enabled {
		s3Store, s3Err := media.NewS3Store(ctx, cfg.Media)
		if s3Err != nil {
			return s3Err
		}
		objectStore = s3Store
		logger.Info("media store configured", "bucket", cfg.Media.Bucket)
	} else {
		logger.Info("media store disabled, image uploads will be refused")
	}
	mediaSvc := media.NewService(objectStore, cfg.Media)

	userRepo := user.NewRepository(db)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	propertyRepo := property.NewRepository(db)
	propertySvc := property.NewService(propertyRepo, mediaSvc)
	propertyHandler := property.NewHandler(propertySvc, cfg.Media.MaxUploadBytes)

	userSvc.SetListingRemover(propertySvc)

	authSvc := auth.NewService(tokens, userSvc, cfg.Admin)
	authHandler := auth.NewHandler(authSvc)

	deps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if mediaSvc.Enabled() {
		deps = append(deps, health.Dependency{Name: "media", Checker: mediaSvc})
	}
	healthHandler := health.NewHandler(deps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Users:      userSvc,
		Properties: propertySvc,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	if telemetry != nil {
		router.Use(middleware.Tracing)
	}
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics)
	}
	router.Use(middleware.NewRateLimiter(
		redis.Client,
		middleware.APIPolicy(cfg.RateLimit),
	).Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	resolver := middleware.NewIdentityResolver(userSvc, cfg.Admin.Name)

	server.RegisterAPI(router, server.Handlers{
		Auth:          authHandler,
		Users:         userHandler,
		Properties:    propertyHandler,
		Admin:         adminHandler,
		Authenticator: middleware.Authenticator(tokens, resolver),
		AuthLimiter:   middleware.AuthLimit(redis.Client, cfg.RateLimit),
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(shutdownCtx); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
