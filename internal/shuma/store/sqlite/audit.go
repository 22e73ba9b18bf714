package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// appendAudit inserts one audit row and returns it with its id set.
//
// Must be called inside the transaction of the mutation it records.
func appendAudit(ctx context.Context, tx *sql.Tx, e types.AuditEntry) (types.AuditEntry, error) {
	res, err := tx.ExecContext(ctx, `
INSERT INTO audit_log(booking_id, action, old_status, new_status, admin_user, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, e.BookingID, string(e.Action), statusArg(e.OldStatus), statusArg(e.NewStatus),
		e.AdminUser, e.CreatedAt.UTC().UnixMilli())
	if err != nil {
		return types.AuditEntry{}, fmt.Errorf("appendAudit %s booking=%d: %w", e.Action, e.BookingID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.AuditEntry{}, fmt.Errorf("appendAudit last id: %w", err)
	}
	e.ID = id
	return e, nil
}
