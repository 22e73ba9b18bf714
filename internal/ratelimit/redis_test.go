package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shuma-massage/shuma-backend/internal/ratelimit"
)

func TestRedisLimiter(t *testing.T) {
	if testing.Short() {
		t.Skip("redis container tests skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, c)

	endpoint, err := c.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)

	client := ratelimit.NewRedisClient(endpoint, "", 0)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, ratelimit.Ping(ctx, client))

	rl, err := ratelimit.NewRedis(client, ratelimit.Rule{Limit: 3, Window: time.Hour}, "test:")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		d, err := rl.Allow(ctx, "bookings:203.0.113.7")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := rl.Allow(ctx, "bookings:203.0.113.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, 59*time.Minute)

	d, err = rl.Allow(ctx, "bookings:198.51.100.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
