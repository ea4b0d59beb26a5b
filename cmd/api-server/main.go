package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/api"
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/content"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/i18n"
	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/metrics"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/submission"
)

var version = "dev"

const lockAcquireWait = 250 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api-server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("content_api", cfg.ContentAPIURL),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var (
		checks   []api.DependencyCheck
		events   booking.EventRepository = booking.NopEvents{}
		store    booking.SessionStore
		locker   redisclient.Locker
		langs    i18n.PreferenceStore
		memStore *booking.MemoryStore
	)

	if cfg.PostgresDSN != "" {
		pool, err := connectPostgres(rootCtx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		events = booking.NewPgEventRepository(pool)
		checks = append(checks, api.DependencyCheck{Name: "postgres", Ping: pool.Ping})
		logger.Info("connected to Postgres")
	} else {
		logger.Warn("POSTGRES_DSN not set, booking events are discarded")
	}

	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("redis connection error: %w", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		store = redisclient.NewSessionStore(rdb)
		locker = redisclient.NewRedisFormLocker(rdb, cfg.LockTTL,
			redisclient.WithAcquireWait(lockAcquireWait),
			redisclient.WithLockLogger(logger.Named("lock")),
		)
		langs = redisclient.NewLanguageStore(rdb)
		checks = append(checks, api.DependencyCheck{
			Name:     "redis",
			Critical: true,
			Ping:     func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		logger.Info("connected to Redis")
	} else {
		memStore = booking.NewMemoryStore()
		store = memStore
		locker = booking.NewLocalLocker()
		langs = i18n.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, sessions and language preferences are kept in memory")
	}

	gateway := content.NewGateway(cfg.ContentAPIURL, logger.Named("content"),
		content.WithMetrics(m),
		content.WithTimeout(cfg.ContentTimeout),
	)
	pipeline := submission.NewPipeline(cfg.ContentAPIURL, logger.Named("submission"),
		submission.WithMetrics(m),
		submission.WithTimeout(cfg.SubmitTimeout),
	)

	svc := booking.NewService(booking.Deps{
		Store:       store,
		Locker:      locker,
		Events:      events,
		Departments: gateway,
		Sender:      pipeline,
		Logger:      logger.Named("booking"),
		Metrics:     m,
	}, booking.Options{
		ResetDelay:       cfg.SuccessResetDelay,
		WindowDays:       cfg.BookingWindowDays,
		StaleSubmitAfter: cfg.SubmitStaleAfter,
	}, cfg.FormIdleTTL)

	router := api.NewRouter(api.RouterConfig{
		Bookings:         svc,
		Content:          gateway,
		Resumes:          pipeline,
		Languages:        langs,
		Gatherer:         registry,
		Checks:           checks,
		Logger:           logger.Named("http"),
		Env:              cfg.Env,
		Version:          version,
		AllowedOrigins:   cfg.AllowedOrigins,
		SubmitRatePerMin: cfg.SubmitRatePerMin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if memStore != nil {
		go sweepSessions(rootCtx, memStore, cfg.WorkerInterval, logger)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-rootCtx.Done():
	}

	logger.Info("shutting down api-server", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func connectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(pgCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}
	if err := db.EnsureSchema(pgCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// sweepSessions drops expired in-memory sessions; Redis expires its own keys.
func sweepSessions(ctx context.Context, store *booking.MemoryStore, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Sweep(now); n > 0 {
				logger.Debug("swept idle form sessions", zap.Int("removed", n), zap.Int("remaining", store.Len()))
			}
		}
	}
}
