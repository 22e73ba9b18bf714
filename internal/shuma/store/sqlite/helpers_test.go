package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shuma-massage/shuma-backend/internal/db"
	sqlitestore "github.com/shuma-massage/shuma-backend/internal/shuma/store/sqlite"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production. The connection is closed when the test ends.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Shared cache keeps the in-memory database alive for the pool's lifetime.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		name,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}
	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed when the test ends.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

func newBookingStore(t *testing.T) (*sql.DB, *sqlitestore.BookingStore) {
	t.Helper()
	conn := openTestDB(t)
	return conn, sqlitestore.NewBookingStore(conn, newTestWriter(t, conn))
}

func sampleBooking(name string, createdAt time.Time) types.Booking {
	return types.Booking{
		Name:          name,
		Email:         "jana@example.cz",
		Phone:         "+420 777 123 456",
		Service:       "Thai massage",
		Duration:      60,
		PreferredDate: "2025-06-15",
		PreferredTime: "14:00",
		Status:        types.StatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func mustCreate(t *testing.T, s *sqlitestore.BookingStore, b types.Booking) types.Booking {
	t.Helper()
	out, err := s.CreateBooking(context.Background(), b)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	return out
}
