package postgres

import (
	"database/sql"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

const bookingColumns = `id, name, email, phone, service, duration,
to_char(preferred_date, 'YYYY-MM-DD') AS preferred_date, preferred_time, message,
status, created_at, updated_at`

type bookingRow struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	Phone         string    `db:"phone"`
	Service       string    `db:"service"`
	Duration      int       `db:"duration"`
	PreferredDate string    `db:"preferred_date"`
	PreferredTime string    `db:"preferred_time"`
	Message       string    `db:"message"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r bookingRow) booking() types.Booking {
	return types.Booking{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Service:       r.Service,
		Duration:      r.Duration,
		PreferredDate: r.PreferredDate,
		PreferredTime: r.PreferredTime,
		Message:       r.Message,
		Status:        types.Status(r.Status),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type auditRow struct {
	ID        int64          `db:"id"`
	BookingID int64          `db:"booking_id"`
	Action    string         `db:"action"`
	OldStatus sql.NullString `db:"old_status"`
	NewStatus sql.NullString `db:"new_status"`
	AdminUser string         `db:"admin_user"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r auditRow) entry() types.AuditEntry {
	e := types.AuditEntry{
		ID:        r.ID,
		BookingID: r.BookingID,
		Action:    types.AuditAction(r.Action),
		AdminUser: r.AdminUser,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.OldStatus.Valid {
		e.OldStatus = types.StatusPtr(types.Status(r.OldStatus.String))
	}
	if r.NewStatus.Valid {
		e.NewStatus = types.StatusPtr(types.Status(r.NewStatus.String))
	}
	return e
}

type adminRow struct {
	ID           int64          `db:"id"`
	Username     string         `db:"username"`
	PasswordHash string         `db:"password_hash"`
	Email        sql.NullString `db:"email"`
	LastLogin    sql.NullTime   `db:"last_login"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r adminRow) admin() types.AdminUser {
	u := types.AdminUser{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
	if r.Email.Valid {
		e := r.Email.String
		u.Email = &e
	}
	if r.LastLogin.Valid {
		t := r.LastLogin.Time.UTC()
		u.LastLogin = &t
	}
	return u
}

func statusArg(s *types.Status) any {
	if s == nil {
		return nil
	}
	return string(*s)
}
