package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) ListAuditEntries(ctx context.Context, bookingID int64) ([]types.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, booking_id, action, old_status, new_status, admin_user, created_at_ms
FROM audit_log
WHERE booking_id = ?
ORDER BY id ASC;
`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("ListAuditEntries query: %w", err)
	}
	defer rows.Close()

	out := []types.AuditEntry{}
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAuditEntries scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAuditEntries rows: %w", err)
	}
	return out, nil
}
