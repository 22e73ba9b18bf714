package store

import (
	"context"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// AuditStore reads the append-only audit log. Writes happen only through
// BookingStore so that they share the mutation's transaction.
type AuditStore interface {
	ListAuditEntries(ctx context.Context, bookingID int64) ([]types.AuditEntry, error)
}
