package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

type AuditStore struct {
	db *sqlx.DB
}

func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) ListAuditEntries(ctx context.Context, bookingID int64) ([]types.AuditEntry, error) {
	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, `
SELECT id, booking_id, action, old_status, new_status, admin_user, created_at
FROM audit_log
WHERE booking_id = $1
ORDER BY id ASC`, bookingID); err != nil {
		return nil, fmt.Errorf("ListAuditEntries query: %w", err)
	}

	out := make([]types.AuditEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}
