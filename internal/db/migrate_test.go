package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBind(t *testing.T) {
	q := "UPDATE bookings SET status = ? WHERE id = ? AND status <> ?;"

	if got := bind(DialectSQLite, q); got != q {
		t.Errorf("sqlite: expected query unchanged, got %q", got)
	}
	want := "UPDATE bookings SET status = $1 WHERE id = $2 AND status <> $3;"
	if got := bind(DialectPostgres, q); got != want {
		t.Errorf("postgres:\n got %q\nwant %q", got, want)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"0001_init.sql", 1, false},
		{"0012_add_index.sql", 12, false},
		{"0000_empty.sql", 0, false},
		{"init.sql", 0, true},
		{"abc_init.sql", 0, true},
	}
	for _, tc := range tests {
		got, err := parseVersion(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%s: got (%d, %v), want %d", tc.name, got, err, tc.want)
		}
	}
}

func TestLoadMigrations_BothDialectsMatch(t *testing.T) {
	lite, err := loadMigrations(DialectSQLite)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	pg, err := loadMigrations(DialectPostgres)
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	if len(lite) == 0 || len(lite) != len(pg) {
		t.Fatalf("expected matching non-empty sets, got sqlite=%d postgres=%d", len(lite), len(pg))
	}
	for i := range lite {
		if lite[i].version != pg[i].version {
			t.Errorf("migration %d: sqlite v%d vs postgres v%d", i, lite[i].version, pg[i].version)
		}
		if i > 0 && lite[i].version <= lite[i-1].version {
			t.Errorf("migrations not sorted: %s after %s", lite[i].name, lite[i-1].name)
		}
	}
}

func TestOpen_MigratesOnceAndCreatesTables(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "shuma.db")

	conn, err := Open(ctx, Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	for _, table := range []string{"bookings", "audit_log", "admin_users"} {
		var n int
		if err := conn.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?;", table,
		).Scan(&n); err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	// A second run finds everything applied.
	if err := Migrate(ctx, conn); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var applied int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations;").Scan(&applied); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	ms, _ := loadMigrations(DialectSQLite)
	if applied != len(ms) {
		t.Errorf("expected %d applied migrations, got %d", len(ms), applied)
	}
}

func TestDSN(t *testing.T) {
	dev := dsn(Config{Path: "/tmp/a.db", Env: "dev"})
	prod := dsn(Config{Path: "/tmp/a.db", Env: "prod", BusyTimeout: 2 * time.Second})

	for _, want := range []string{"file:/tmp/a.db?", "synchronous%28NORMAL%29", "busy_timeout%285000%29", "_txlock=immediate"} {
		if !strings.Contains(dev, want) {
			t.Errorf("dev dsn %q missing %q", dev, want)
		}
	}
	for _, want := range []string{"synchronous%28FULL%29", "busy_timeout%282000%29", "foreign_keys%281%29"} {
		if !strings.Contains(prod, want) {
			t.Errorf("prod dsn %q missing %q", prod, want)
		}
	}
}
