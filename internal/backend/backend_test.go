package backend_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shuma-massage/shuma-backend/internal/backend"
	"github.com/shuma-massage/shuma-backend/internal/config"
	"github.com/shuma-massage/shuma-backend/internal/logging"
	"github.com/shuma-massage/shuma-backend/internal/shuma/password"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

func sqliteConfig(t *testing.T) config.Config {
	cfg := config.FromEnv()
	cfg.Env = "dev"
	cfg.DBDriver = "sqlite"
	cfg.DBPath = filepath.Join(t.TempDir(), "shuma.db")
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func TestOpen_SQLiteSeedsDevAdminOnce(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DevAdminUser = "dev"
	cfg.DevAdminPassword = "devpass"
	ctx := context.Background()

	s, err := backend.Open(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Pinger.PingContext(ctx))

	u, err := s.Admins.GetAdminByUsername(ctx, "dev")
	require.NoError(t, err)
	require.NoError(t, password.Verify(u.PasswordHash, "devpass"))

	b, err := s.Bookings.CreateBooking(ctx, types.Booking{
		Name: "Jana", Email: "j@example.cz", Phone: "123", Service: "Thai",
		Duration: 60, PreferredDate: "2025-06-15", PreferredTime: "14:00", Status: types.StatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopen: data persists and the seed does not replace the password.
	cfg.DevAdminPassword = "changed"
	s, err = backend.Open(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Bookings.GetBooking(ctx, b.ID)
	assert.NoError(t, err)
	u, err = s.Admins.GetAdminByUsername(ctx, "dev")
	require.NoError(t, err)
	assert.NoError(t, password.Verify(u.PasswordHash, "devpass"))
}

func TestOpen_NoSeedInProd(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Env = "prod"
	cfg.DevAdminUser = "dev"
	cfg.DevAdminPassword = "devpass"
	ctx := context.Background()

	s, err := backend.Open(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Admins.GetAdminByUsername(ctx, "dev")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DBDriver = "oracle"
	_, err := backend.Open(context.Background(), cfg, logging.Nop())
	assert.Error(t, err)
}

func TestOpen_MemoryDriverSeedsDevAdmin(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DBDriver = "memory"
	cfg.DevAdminUser = "dev"
	cfg.DevAdminPassword = "devpass"
	ctx := context.Background()

	s, err := backend.Open(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Pinger.PingContext(ctx))
	u, err := s.Admins.GetAdminByUsername(ctx, "dev")
	require.NoError(t, err)
	assert.NoError(t, password.Verify(u.PasswordHash, "devpass"))

	b, err := s.Bookings.CreateBooking(ctx, types.Booking{Name: "Jana Novak", Status: types.StatusPending})
	require.NoError(t, err)
	_, err = s.Bookings.DeleteBooking(ctx, store.Deletion{BookingID: b.ID, Actor: "dev"})
	require.NoError(t, err)
	entries, err := s.Audit.ListAuditEntries(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
