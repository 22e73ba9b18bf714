package store

import (
	"context"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// AdminUpsert creates an admin account or replaces the password hash and
// email of an existing one with the same username.
type AdminUpsert struct {
	Username     string
	PasswordHash string
	Email        *string
	At           time.Time
}

type AdminStore interface {
	GetAdminByUsername(ctx context.Context, username string) (types.AdminUser, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	UpsertAdmin(ctx context.Context, u AdminUpsert) (types.AdminUser, error)
}
