package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

type BookingStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewBookingStore(db *sqlx.DB, logger *slog.Logger) *BookingStore {
	return &BookingStore{db: db, logger: logger}
}

func (s *BookingStore) CreateBooking(ctx context.Context, b types.Booking) (types.Booking, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}

	var row bookingRow
	err := s.db.QueryRowxContext(ctx, `
INSERT INTO bookings (name, email, phone, service, duration, preferred_date, preferred_time,
                      message, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+bookingColumns,
		b.Name, b.Email, b.Phone, b.Service, b.Duration, b.PreferredDate, b.PreferredTime,
		b.Message, string(b.Status), b.CreatedAt, b.UpdatedAt,
	).StructScan(&row)
	if err != nil {
		return types.Booking{}, fmt.Errorf("CreateBooking insert: %w", err)
	}
	return row.booking(), nil
}

func (s *BookingStore) GetBooking(ctx context.Context, id int64) (types.Booking, error) {
	var row bookingRow
	err := s.db.GetContext(ctx, &row, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Booking{}, store.ErrNotFound
	}
	if err != nil {
		return types.Booking{}, fmt.Errorf("GetBooking query: %w", err)
	}
	return row.booking(), nil
}

func (s *BookingStore) ListBookings(ctx context.Context, f types.BookingFilter) ([]types.Booking, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Date != "" {
		args = append(args, f.Date)
		where = append(where, fmt.Sprintf("preferred_date = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("ListBookings count: %w", err)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + clause + ` ORDER BY created_at DESC, id DESC`
	pageArgs := append([]any{}, args...)
	if f.Limit > 0 {
		pageArgs = append(pageArgs, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(pageArgs))
	}
	pageArgs = append(pageArgs, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(pageArgs))

	var rows []bookingRow
	if err := s.db.SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("ListBookings query: %w", err)
	}

	out := make([]types.Booking, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.booking())
	}
	return out, total, nil
}

func (s *BookingStore) ChangeStatus(ctx context.Context, c store.StatusChange) (types.Booking, types.AuditEntry, error) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}

	var (
		booking types.Booking
		entry   types.AuditEntry
	)
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var from string
		err := tx.GetContext(ctx, &from, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, c.BookingID)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("ChangeStatus read: %w", err)
		}

		if c.Check != nil {
			if err := c.Check(types.Status(from)); err != nil {
				return err
			}
		}

		var row bookingRow
		if err := tx.QueryRowxContext(ctx, `
UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3
RETURNING `+bookingColumns, string(c.To), c.At, c.BookingID).StructScan(&row); err != nil {
			return fmt.Errorf("ChangeStatus update: %w", err)
		}
		booking = row.booking()

		entry, err = appendAudit(ctx, tx, types.AuditEntry{
			BookingID: c.BookingID,
			Action:    types.AuditStatusChange,
			OldStatus: types.StatusPtr(types.Status(from)),
			NewStatus: types.StatusPtr(c.To),
			AdminUser: c.Actor,
			CreatedAt: c.At,
		})
		return err
	})
	if err != nil {
		return types.Booking{}, types.AuditEntry{}, err
	}
	return booking, entry, nil
}

func (s *BookingStore) DeleteBooking(ctx context.Context, d store.Deletion) (types.AuditEntry, error) {
	if d.At.IsZero() {
		d.At = time.Now().UTC()
	}

	var entry types.AuditEntry
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.GetContext(ctx, &id, `DELETE FROM bookings WHERE id = $1 RETURNING id`, d.BookingID)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("DeleteBooking delete: %w", err)
		}

		entry, err = appendAudit(ctx, tx, types.AuditEntry{
			BookingID: d.BookingID,
			Action:    types.AuditDelete,
			AdminUser: d.Actor,
			CreatedAt: d.At,
		})
		return err
	})
	if err != nil {
		return types.AuditEntry{}, err
	}
	return entry, nil
}

func (s *BookingStore) Stats(ctx context.Context, w store.StatsWindow) (types.Stats, error) {
	var st struct {
		Total      int64 `db:"total_bookings"`
		Pending    int64 `db:"pending"`
		Confirmed  int64 `db:"confirmed"`
		Completed  int64 `db:"completed"`
		Cancelled  int64 `db:"cancelled"`
		Last7Days  int64 `db:"last_7_days"`
		Last30Days int64 `db:"last_30_days"`
	}
	err := s.db.GetContext(ctx, &st, `
SELECT
  COUNT(*)                                          AS total_bookings,
  COUNT(*) FILTER (WHERE status = 'pending')        AS pending,
  COUNT(*) FILTER (WHERE status = 'confirmed')      AS confirmed,
  COUNT(*) FILTER (WHERE status = 'completed')      AS completed,
  COUNT(*) FILTER (WHERE status = 'cancelled')      AS cancelled,
  COUNT(*) FILTER (WHERE created_at >= $1)          AS last_7_days,
  COUNT(*) FILTER (WHERE created_at >= $2)          AS last_30_days
FROM bookings`, w.Since7Days, w.Since30Days)
	if err != nil {
		return types.Stats{}, fmt.Errorf("Stats query: %w", err)
	}
	return types.Stats{
		TotalBookings: st.Total,
		Pending:       st.Pending,
		Confirmed:     st.Confirmed,
		Completed:     st.Completed,
		Cancelled:     st.Cancelled,
		Last7Days:     st.Last7Days,
		Last30Days:    st.Last30Days,
	}, nil
}

// inTx runs fn in a transaction bound to ctx; it commits only when fn
// returns nil.
func (s *BookingStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback failed", "error", rbErr, "cause", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func appendAudit(ctx context.Context, tx *sqlx.Tx, e types.AuditEntry) (types.AuditEntry, error) {
	var row auditRow
	err := tx.QueryRowxContext(ctx, `
INSERT INTO audit_log (booking_id, action, old_status, new_status, admin_user, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, booking_id, action, old_status, new_status, admin_user, created_at`,
		e.BookingID, string(e.Action), statusArg(e.OldStatus), statusArg(e.NewStatus), e.AdminUser, e.CreatedAt,
	).StructScan(&row)
	if err != nil {
		return types.AuditEntry{}, fmt.Errorf("appendAudit %s booking=%d: %w", e.Action, e.BookingID, err)
	}
	return row.entry(), nil
}
