// Package backend opens the storage selected by configuration and hands
// back the stores the services need.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shuma-massage/shuma-backend/internal/config"
	"github.com/shuma-massage/shuma-backend/internal/db"
	"github.com/shuma-massage/shuma-backend/internal/health"
	"github.com/shuma-massage/shuma-backend/internal/shuma/password"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store/memory"
	pgstore "github.com/shuma-massage/shuma-backend/internal/shuma/store/postgres"
	sqlitestore "github.com/shuma-massage/shuma-backend/internal/shuma/store/sqlite"
)

type Stores struct {
	Bookings store.BookingStore
	Audit    store.AuditStore
	Admins   store.AdminStore
	Pinger   health.Pinger

	closers []func() error
}

// Close releases the stores in reverse order of opening.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open connects to the configured driver, applies migrations and, in dev,
// seeds the dev admin account. The memory driver keeps nothing across
// restarts.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stores, error) {
	var (
		s   *Stores
		err error
	)
	switch cfg.DBDriver {
	case "postgres":
		s, err = openPostgres(ctx, cfg, logger)
	case "sqlite", "":
		s, err = openSQLite(ctx, cfg)
	case "memory":
		s = Memory()
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := seedDevAdmin(ctx, cfg, s); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Memory returns process-local stores. Nothing survives a restart.
func Memory() *Stores {
	bs := memory.NewBookingStore()
	return &Stores{
		Bookings: bs,
		Audit:    bs,
		Admins:   memory.NewAdminStore(),
		Pinger:   alwaysUp{},
	}
}

func openSQLite(ctx context.Context, cfg config.Config) (*Stores, error) {
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	w := db.NewWorker(conn)

	return &Stores{
		Bookings: sqlitestore.NewBookingStore(conn, w),
		Audit:    sqlitestore.NewAuditStore(conn),
		Admins:   sqlitestore.NewAdminStore(conn, w),
		Pinger:   conn,
		closers: []func() error{
			conn.Close,
			func() error { w.Close(); return nil },
		},
	}, nil
}

func openPostgres(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stores, error) {
	conn, err := db.OpenPostgres(ctx, db.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Name:     cfg.Postgres.Name,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return &Stores{
		Bookings: pgstore.NewBookingStore(conn, logger),
		Audit:    pgstore.NewAuditStore(conn),
		Admins:   pgstore.NewAdminStore(conn),
		Pinger:   conn,
		closers:  []func() error{conn.Close},
	}, nil
}

func seedDevAdmin(ctx context.Context, cfg config.Config, s *Stores) error {
	user := strings.TrimSpace(cfg.DevAdminUser)
	if cfg.Env != "dev" || user == "" || cfg.DevAdminPassword == "" {
		return nil
	}
	if _, err := s.Admins.GetAdminByUsername(ctx, user); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("seed dev admin: %w", err)
	}

	hash, err := password.Hash(cfg.DevAdminPassword, cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("seed dev admin: %w", err)
	}
	if _, err := s.Admins.UpsertAdmin(ctx, store.AdminUpsert{Username: user, PasswordHash: hash}); err != nil {
		return fmt.Errorf("seed dev admin: %w", err)
	}
	return nil
}

type alwaysUp struct{}

func (alwaysUp) PingContext(context.Context) error { return nil }
