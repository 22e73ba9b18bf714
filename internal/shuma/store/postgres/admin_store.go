package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

const adminColumns = `id, username, password_hash, email, last_login, created_at`

type AdminStore struct {
	db *sqlx.DB
}

func NewAdminStore(db *sqlx.DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) GetAdminByUsername(ctx context.Context, username string) (types.AdminUser, error) {
	var row adminRow
	err := s.db.GetContext(ctx, &row, `SELECT `+adminColumns+` FROM admin_users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return types.AdminUser{}, store.ErrNotFound
	}
	if err != nil {
		return types.AdminUser{}, fmt.Errorf("GetAdminByUsername query: %w", err)
	}
	return row.admin(), nil
}

func (s *AdminStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE admin_users SET last_login = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("TouchLastLogin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *AdminStore) UpsertAdmin(ctx context.Context, in store.AdminUpsert) (types.AdminUser, error) {
	if in.At.IsZero() {
		in.At = time.Now().UTC()
	}
	var row adminRow
	err := s.db.QueryRowxContext(ctx, `
INSERT INTO admin_users (username, password_hash, email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (username) DO UPDATE
SET password_hash = EXCLUDED.password_hash,
    email         = EXCLUDED.email,
    updated_at    = EXCLUDED.updated_at
RETURNING `+adminColumns, in.Username, in.PasswordHash, in.Email, in.At.UTC(),
	).StructScan(&row)
	if err != nil {
		return types.AdminUser{}, fmt.Errorf("UpsertAdmin: %w", err)
	}
	return row.admin(), nil
}
