package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shuma-massage/shuma-backend/internal/shuma/password"
	"github.com/shuma-massage/shuma-backend/internal/shuma/service"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store/memory"
	"github.com/shuma-massage/shuma-backend/internal/shuma/token"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// clock is a settable time source shared by services under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock { return &clock{t: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func janaRequest() types.BookingRequest {
	return types.BookingRequest{
		Name:          "Jana Novak",
		Email:         "jana@example.cz",
		Phone:         "+420 777 123 456",
		Service:       "Thai massage",
		Duration:      "60",
		PreferredDate: "2025-06-15",
		PreferredTime: "14:00",
	}
}

func newBookingService(t *testing.T, c *clock, opts ...service.BookingOption) (*service.BookingService, *memory.BookingStore) {
	t.Helper()
	bs := memory.NewBookingStore()
	opts = append([]service.BookingOption{service.WithClock(c.Now)}, opts...)
	return service.NewBookingService(bs, bs, opts...), bs
}

func newAuthService(t *testing.T, c *clock) (*service.AuthService, *memory.AdminStore, *token.Issuer) {
	t.Helper()
	admins := memory.NewAdminStore()
	hash, err := password.Hash("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	email := "owner@shuma.cz"
	_, err = admins.UpsertAdmin(context.Background(), store.AdminUpsert{
		Username: "admin", PasswordHash: hash, Email: &email,
	})
	require.NoError(t, err)

	iss, err := token.NewIssuer("test-secret", 8*time.Hour, token.WithClock(c.Now))
	require.NoError(t, err)
	auth := service.NewAuthService(admins, iss,
		service.WithAuthClock(c.Now),
		service.WithBcryptCost(bcrypt.MinCost),
	)
	return auth, admins, iss
}

func upsertOf(username, hash string) store.AdminUpsert {
	return store.AdminUpsert{Username: username, PasswordHash: hash}
}
