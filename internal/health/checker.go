// Package health tracks database reachability and publishes it through the
// standard gRPC health service.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/shuma-massage/shuma-backend/internal/metrics"
)

// ServiceName is the gRPC health service name reported alongside "".
const ServiceName = "shuma.booking.v1.BookingAPI"

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Config struct {
	Interval time.Duration // default 15s
	Timeout  time.Duration // default 2s
}

// Checker pings the database on an interval and keeps the gRPC health
// server in step with the result.
type Checker struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	srv      *health.Server

	mu      sync.RWMutex
	serving bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewChecker creates a checker in the NOT_SERVING state. Call Start to
// begin checking.
func NewChecker(p Pinger, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Checker {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	c := &Checker{
		pinger:   p,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
		metrics:  m,
		srv:      health.NewServer(),
		done:     make(chan struct{}),
	}
	c.publish(false)
	return c
}

// Start runs one check immediately, then repeats on the interval until
// ctx is cancelled or Stop is called.
func (c *Checker) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.Check(ctx)
	go c.loop(ctx)
}

// Stop ends the loop and marks every service NOT_SERVING.
func (c *Checker) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.srv.Shutdown()
}

func (c *Checker) Serving() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serving
}

// Status is Serving expressed as a gRPC health status.
func (c *Checker) Status() healthpb.HealthCheckResponse_ServingStatus {
	if c.Serving() {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// Check pings once and publishes the result.
func (c *Checker) Check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.pinger.PingContext(pingCtx)
	ok := err == nil

	c.mu.Lock()
	changed := c.serving != ok
	c.serving = ok
	c.mu.Unlock()

	if changed {
		if ok {
			c.logger.Info("database reachable")
		} else {
			c.logger.Error("database unreachable", "error", err)
		}
	}
	c.publish(ok)
}

// Register adds the health service to s.
func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.srv)
}

func (c *Checker) loop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

func (c *Checker) publish(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	c.srv.SetServingStatus("", status)
	c.srv.SetServingStatus(ServiceName, status)
	c.metrics.SetDBUp(ok)
}
