package health_test

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/shuma-massage/shuma-backend/internal/health"
	"github.com/shuma-massage/shuma-backend/internal/logging"
	"github.com/shuma-massage/shuma-backend/internal/metrics"
)

type fakePinger struct{ down atomic.Bool }

func (p *fakePinger) PingContext(context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestChecker_FollowsPing(t *testing.T) {
	p := &fakePinger{}
	m := metrics.New()
	c := health.NewChecker(p, health.Config{Interval: time.Hour}, logging.Nop(), m)
	assert.False(t, c.Serving(), "starts not serving")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	assert.True(t, c.Serving())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, c.Status())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBUp))

	p.down.Store(true)
	c.Check(ctx)
	assert.False(t, c.Serving())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DBUp))
}

func TestChecker_StopWithoutStart(t *testing.T) {
	c := health.NewChecker(&fakePinger{}, health.Config{}, logging.Nop(), nil)
	c.Stop()
}

func TestGRPCHealth(t *testing.T) {
	p := &fakePinger{}
	c := health.NewChecker(p, health.Config{Interval: time.Hour}, logging.Nop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	lis := bufconn.Listen(1 << 20)
	srv := health.NewGRPCServer(c)
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: health.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	p.down.Store(true)
	c.Check(ctx)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
