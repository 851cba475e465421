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

	"vedabeam-landing/internal/config"
	"vedabeam-landing/internal/httpapi"
	"vedabeam-landing/internal/logging"
	"vedabeam-landing/internal/site"
	"vedabeam-landing/internal/waitlist"
	"vedabeam-landing/middleware/ratelimit/domain"
	"vedabeam-landing/middleware/ratelimit/infra"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}

	code := 0
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	os.Exit(code)
}

// janitor é implementado pelos dois stores de rate limit.
type janitor interface {
	domain.LimiterStore
	StartJanitor(ctx infra.DoneContext)
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var limiter janitor
	if cfg.RateLimit.Enabled {
		limiter = newLimiterStore(cfg.RateLimit)
		limiter.StartJanitor(ctx)
	}

	stats, closeStats, err := newStatsStore(ctx, cfg.Stats)
	if err != nil {
		return err
	}
	defer closeStats()

	landing, err := site.New(cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("load site assets: %w", err)
	}

	deps := httpapi.Deps{
		Config:    cfg,
		Logger:    logger,
		Signups:   waitlist.NewService(waitlist.NewSignupLogger(logger), logger),
		Stats:     stats,
		Site:      landing,
		StartedAt: time.Now(),
	}
	if limiter != nil {
		deps.Limiter = limiter
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	logger.Info("server listening",
		zap.String("addr", srv.Addr),
		zap.String("environment", cfg.Env),
		zap.Bool("rate_enabled", cfg.RateLimit.Enabled),
		zap.String("rate_algorithm", cfg.RateLimit.Algorithm),
		zap.Int("rate_max", cfg.RateLimit.Max),
		zap.Duration("rate_window", cfg.RateLimit.Window),
		zap.Bool("rate_stats_redis", cfg.Stats.Enabled),
		zap.Int("concurrency_max", cfg.Concurrency.Max),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr == nil {
			return nil
		}
		logger.Error("server error, shutting down", zap.Error(serveErr))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown timed out, forcing close",
			zap.Duration("timeout", cfg.ShutdownTimeout),
			zap.Error(err),
		)
		_ = srv.Close()
	} else {
		logger.Info("server stopped")
	}
	return serveErr
}

func newLimiterStore(rl config.RateLimit) janitor {
	if rl.Algorithm == config.AlgorithmTokenBucket {
		return infra.NewWindowStore(rl.Max, rl.Window)
	}
	return infra.NewFixedWindowStore(rl.Max, rl.Window, infra.WithMaxKeys(rl.MaxKeys))
}

// newStatsStore devolve o store de estatísticas e a função que libera seus recursos.
// O Redis fica atrás de uma fila: a requisição nunca espera por ele.
func newStatsStore(ctx context.Context, cfg config.Stats) (domain.StatsStore, func(), error) {
	if !cfg.Enabled {
		return infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.TrackKeys)), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		// deadlines do ctx valem para leitura/escrita (status e fila de stats)
		ContextTimeoutEnabled: true,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis stats ping: %w", err)
	}

	store := infra.NewAsyncStatsStore(infra.NewRedisStatsStore(
		rdb,
		infra.WithStatsPrefix(cfg.Prefix),
		infra.WithStatsTTL(cfg.TTL),
		infra.WithStatsBucket(cfg.Bucket),
		infra.WithStatsTrackKeys(cfg.TrackKeys),
	))
	store.Start(ctx)
	return store, func() { _ = rdb.Close() }, nil
}
