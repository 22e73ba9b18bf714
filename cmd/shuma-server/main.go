package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/backend"
	"github.com/shuma-massage/shuma-backend/internal/config"
	"github.com/shuma-massage/shuma-backend/internal/health"
	"github.com/shuma-massage/shuma-backend/internal/httpapi"
	"github.com/shuma-massage/shuma-backend/internal/logging"
	"github.com/shuma-massage/shuma-backend/internal/metrics"
	"github.com/shuma-massage/shuma-backend/internal/ratelimit"
	"github.com/shuma-massage/shuma-backend/internal/shuma/service"
	"github.com/shuma-massage/shuma-backend/internal/shuma/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat, cfg.Env),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.Env != "prod" && cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("using the default JWT secret; set JWT_SECRET before deploying")
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// Stores
	stores, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Warn("closing stores", "error", err)
		}
	}()

	// Services
	policy := service.AnyTransition
	if cfg.StrictTransitions {
		policy = service.StrictTransitions
	}
	bookingSvc := service.NewBookingService(stores.Bookings, stores.Audit,
		service.WithPolicy(policy),
		service.WithMetrics(m),
		service.WithLogger(logger),
	)

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	logger.Info("session tokens", "ttl", issuer.TTL())
	authSvc := service.NewAuthService(stores.Admins, issuer,
		service.WithBcryptCost(cfg.BcryptCost),
		service.WithAuthMetrics(m),
		service.WithAuthLogger(logger),
	)

	// Rate limiting
	apiLimiter, bookingLimiter, closeLimiters, err := newLimiters(ctx, cfg.RateLimit, logger)
	if err != nil {
		return err
	}
	defer closeLimiters()

	resolver, err := ratelimit.NewIPResolver(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	// Health
	checker := health.NewChecker(stores.Pinger, health.Config{Interval: cfg.HealthInterval}, logger, m)
	checker.Start(ctx)
	defer checker.Stop()

	errCh := make(chan error, 2)

	if cfg.GRPCAddr != "" {
		gs := health.NewGRPCServer(checker)
		go func() { errCh <- health.Serve(ctx, cfg.GRPCAddr, gs, logger) }()
	}

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           cfg.HTTPAddr,
		Bookings:       bookingSvc,
		Auth:           authSvc,
		Metrics:        m,
		Health:         checker,
		APILimiter:     apiLimiter,
		BookingLimiter: bookingLimiter,
		IPResolver:     resolver,
		CORSOrigins:    cfg.CORSOrigins,
		MaxPageSize:    cfg.MaxPageSize,
	})

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "env", cfg.Env, "db", cfg.DBDriver,
			"rate_limit_backend", cfg.RateLimit.Backend)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	return runErr
}

// newLimiters builds the API-wide and booking limiters on the configured
// backend. The returned func releases them.
func newLimiters(ctx context.Context, cfg config.RateLimitConfig, logger *slog.Logger) (api, bookings ratelimit.Limiter, closeFn func(), err error) {
	apiRule := ratelimit.Rule{Limit: cfg.APILimit, Window: cfg.APIWindow}
	bookingRule := ratelimit.Rule{Limit: cfg.BookingLimit, Window: cfg.BookingWindow}

	if cfg.Backend == "redis" {
		client := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := ratelimit.Ping(ctx, client); err != nil {
			// Requests are admitted while redis is unreachable.
			logger.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
		a, err := ratelimit.NewRedis(client, apiRule, "shuma:rl:")
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		b, err := ratelimit.NewRedis(client, bookingRule, "shuma:rl:")
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		return a, b, func() { _ = client.Close() }, nil
	}

	a, err := ratelimit.NewSlidingWindow(apiRule, ratelimit.DefaultCleanupInterval)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := ratelimit.NewSlidingWindow(bookingRule, ratelimit.DefaultCleanupInterval)
	if err != nil {
		a.Stop()
		return nil, nil, nil, err
	}
	return a, b, func() { a.Stop(); b.Stop() }, nil
}
