package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/shuma-massage/shuma-backend/internal/db"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

type AdminStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAdminStore(db *sql.DB, writer *dbpkg.Worker) *AdminStore {
	return &AdminStore{db: db, writer: writer}
}

func (s *AdminStore) GetAdminByUsername(ctx context.Context, username string) (types.AdminUser, error) {
	u, err := scanAdmin(s.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, email, last_login_ms, created_at_ms
FROM admin_users
WHERE username = ?;
`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return types.AdminUser{}, store.ErrNotFound
	}
	if err != nil {
		return types.AdminUser{}, fmt.Errorf("GetAdminByUsername query: %w", err)
	}
	return u, nil
}

func (s *AdminStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	ms := at.UTC().UnixMilli()
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE admin_users
SET last_login_ms = ?
WHERE id = ?;
`, ms, id)
		if err != nil {
			return fmt.Errorf("TouchLastLogin: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *AdminStore) UpsertAdmin(ctx context.Context, in store.AdminUpsert) (types.AdminUser, error) {
	if in.At.IsZero() {
		in.At = time.Now().UTC()
	}
	ms := in.At.UTC().UnixMilli()

	var email any
	if in.Email != nil {
		email = *in.Email
	}

	var u types.AdminUser
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		u, err = scanAdmin(tx.QueryRowContext(ctx, `
INSERT INTO admin_users(username, password_hash, email, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
  password_hash = excluded.password_hash,
  email         = excluded.email,
  updated_at_ms = excluded.updated_at_ms
RETURNING id, username, password_hash, email, last_login_ms, created_at_ms;
`, in.Username, in.PasswordHash, email, ms, ms))
		if err != nil {
			return fmt.Errorf("UpsertAdmin: %w", err)
		}
		return nil
	})
	return u, err
}

func scanAdmin(r rowScanner) (types.AdminUser, error) {
	var (
		u         types.AdminUser
		email     sql.NullString
		lastLogin sql.NullInt64
		createdMs int64
	)
	if err := r.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &lastLogin, &createdMs); err != nil {
		return types.AdminUser{}, err
	}
	if email.Valid {
		e := email.String
		u.Email = &e
	}
	if lastLogin.Valid {
		t := fromMs(lastLogin.Int64)
		u.LastLogin = &t
	}
	u.CreatedAt = fromMs(createdMs)
	return u, nil
}
