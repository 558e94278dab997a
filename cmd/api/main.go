// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"

	"github.com/azadnexus/backend/internal/admin"
	"github.com/azadnexus/backend/internal/auth"
	"github.com/azadnexus/backend/internal/blog"
	"github.com/azadnexus/backend/internal/config"
	"github.com/azadnexus/backend/internal/core"
	"github.com/azadnexus/backend/internal/health"
	"github.com/azadnexus/backend/internal/inquiry"
	"github.com/azadnexus/backend/internal/listing"
	"github.com/azadnexus/backend/internal/middleware"
	"github.com/azadnexus/backend/internal/server"
	"github.com/azadnexus/backend/internal/user"
)

const sessionPurgeInterval = time.Hour

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	generateKeys := flag.Bool("generate-keys", false, "write an ES256 key pair and exit")
	privateKey := flag.String("private-key", "keys/private.pem", "private key path for -generate-keys")
	publicKey := flag.String("public-key", "keys/public.pem", "public key path for -generate-keys")
	flag.Parse()

	var err error
	if *generateKeys {
		err = writeKeys(*privateKey, *publicKey)
	} else {
		err = run(*configPath)
	}

	if err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func writeKeys(privatePath, publicPath string) error {
	if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
		return fmt.Errorf("generate keys: %w", err)
	}

	slog.Info("key pair written",
		"private_key", privatePath,
		"public_key", publicPath,
	)
	return nil
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
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

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry exporter", "error", err)
		telemetry = &core.Telemetry{}
	}
	if telemetry.Exporting() {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
		"connect_attempts", cfg.Redis.ConnectAttempts,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	userSvc := user.NewService(user.NewRepository(db.DB))
	userHandler := user.NewHandler(userSvc)

	if _, err := userSvc.EnsureBootstrapAdmin(
		ctx,
		cfg.Admin.BootstrapUsername,
		cfg.Admin.BootstrapPassword,
	); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	authSvc := auth.NewService(auth.NewRepository(db.DB), jwtManager, userSvc, redis.Client)
	authHandler := auth.NewHandler(authSvc)

	inquirySvc := inquiry.NewService(inquiry.NewRepository(db.DB))
	inquiryHandler := inquiry.NewHandler(inquirySvc)

	blogSvc := blog.NewService(blog.NewRepository(db.DB))
	blogHandler := blog.NewHandler(blogSvc)

	listingSvc := listing.NewService(listing.NewRepository(db.DB))
	listingHandler := listing.NewHandler(listingSvc)

	healthHandler := health.NewHandler().
		Register("database", db).
		Register("redis", redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Inquiries:  inquirySvc,
		BlogPosts:  blogSvc,
		Services:   listingSvc,
		DBStats:    db.Stats,
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
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	optionalAuth := middleware.OptionalAuth(authSvc)
	adminOnly := middleware.RequireAdmin(authSvc, authSvc)

	loginLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginBurst),
		KeyFunc:  middleware.KeyWithScope("login", middleware.KeyByIP),
		FailOpen: true,
	}).Handler

	submitLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(cfg.RateLimit.SubmitRequests, cfg.RateLimit.SubmitBurst),
		KeyFunc:  middleware.KeyWithScope("inquiry", middleware.KeyByIP),
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, optionalAuth, loginLimiter)

		inquiryHandler.RegisterRoutes(r, submitLimiter)
		blogHandler.RegisterRoutes(r)
		listingHandler.RegisterRoutes(r)

		inquiryHandler.RegisterAdminRoutes(r, adminOnly)
		blogHandler.RegisterAdminRoutes(r, adminOnly)
		listingHandler.RegisterAdminRoutes(r, adminOnly)
		userHandler.RegisterAdminRoutes(r, adminOnly)
		adminHandler.RegisterRoutes(r, adminOnly)
	})

	go purgeSessions(ctx, authSvc, logger)

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

	drainDelay := cfg.Server.DrainDelay

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func purgeSessions(ctx context.Context, authSvc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		n, err := authSvc.PurgeExpiredSessions(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Warn("session purge failed", "error", err)
		} else if n > 0 {
			logger.Info("expired sessions purged", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
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
