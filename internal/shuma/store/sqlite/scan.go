package sqlite

import (
	"database/sql"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

const bookingColumns = `id, name, email, phone, service, duration_min, preferred_date,
preferred_time, message, status, created_at_ms, updated_at_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(r rowScanner) (types.Booking, error) {
	var (
		b         types.Booking
		status    string
		createdMs int64
		updatedMs int64
	)
	if err := r.Scan(
		&b.ID, &b.Name, &b.Email, &b.Phone, &b.Service, &b.Duration, &b.PreferredDate,
		&b.PreferredTime, &b.Message, &status, &createdMs, &updatedMs,
	); err != nil {
		return types.Booking{}, err
	}
	b.Status = types.Status(status)
	b.CreatedAt = fromMs(createdMs)
	b.UpdatedAt = fromMs(updatedMs)
	return b, nil
}

func scanAudit(r rowScanner) (types.AuditEntry, error) {
	var (
		e         types.AuditEntry
		action    string
		oldStatus sql.NullString
		newStatus sql.NullString
		createdMs int64
	)
	if err := r.Scan(&e.ID, &e.BookingID, &action, &oldStatus, &newStatus, &e.AdminUser, &createdMs); err != nil {
		return types.AuditEntry{}, err
	}
	e.Action = types.AuditAction(action)
	e.OldStatus = nullStatus(oldStatus)
	e.NewStatus = nullStatus(newStatus)
	e.CreatedAt = fromMs(createdMs)
	return e, nil
}

func nullStatus(ns sql.NullString) *types.Status {
	if !ns.Valid {
		return nil
	}
	return types.StatusPtr(types.Status(ns.String))
}

func statusArg(s *types.Status) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func fromMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
