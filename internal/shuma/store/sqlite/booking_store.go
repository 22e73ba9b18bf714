package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/shuma-massage/shuma-backend/internal/db"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

type BookingStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewBookingStore(db *sql.DB, writer *dbpkg.Worker) *BookingStore {
	return &BookingStore{db: db, writer: writer}
}

func (s *BookingStore) CreateBooking(ctx context.Context, b types.Booking) (types.Booking, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO bookings(
  name, email, phone, service, duration_min, preferred_date, preferred_time,
  message, status, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, b.Name, b.Email, b.Phone, b.Service, b.Duration, b.PreferredDate, b.PreferredTime,
			b.Message, string(b.Status), b.CreatedAt.UTC().UnixMilli(), b.UpdatedAt.UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("CreateBooking insert: %w", err)
		}
		b.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("CreateBooking last id: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Booking{}, err
	}

	// Round-trip precision to what the table stores.
	b.CreatedAt = fromMs(b.CreatedAt.UTC().UnixMilli())
	b.UpdatedAt = fromMs(b.UpdatedAt.UTC().UnixMilli())
	return b, nil
}

func (s *BookingStore) GetBooking(ctx context.Context, id int64) (types.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Booking{}, store.ErrNotFound
	}
	if err != nil {
		return types.Booking{}, fmt.Errorf("GetBooking query: %w", err)
	}
	return b, nil
}

func (s *BookingStore) ListBookings(ctx context.Context, f types.BookingFilter) ([]types.Booking, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Date != "" {
		where = append(where, "preferred_date = ?")
		args = append(args, f.Date)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+clause+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListBookings count: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	pageArgs := append(append([]any{}, args...), limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings`+clause+`
ORDER BY created_at_ms DESC, id DESC
LIMIT ? OFFSET ?;`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListBookings query: %w", err)
	}
	defer rows.Close()

	out := []types.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListBookings scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListBookings rows: %w", err)
	}
	return out, total, nil
}

func (s *BookingStore) ChangeStatus(ctx context.Context, c store.StatusChange) (types.Booking, types.AuditEntry, error) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	atMs := c.At.UTC().UnixMilli()

	var (
		booking types.Booking
		entry   types.AuditEntry
	)
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var from string
		err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?;`, c.BookingID).Scan(&from)
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

		if _, err := tx.ExecContext(ctx, `
UPDATE bookings
SET status = ?,
    updated_at_ms = ?
WHERE id = ?;
`, string(c.To), atMs, c.BookingID); err != nil {
			return fmt.Errorf("ChangeStatus update: %w", err)
		}

		entry, err = appendAudit(ctx, tx, types.AuditEntry{
			BookingID: c.BookingID,
			Action:    types.AuditStatusChange,
			OldStatus: types.StatusPtr(types.Status(from)),
			NewStatus: types.StatusPtr(c.To),
			AdminUser: c.Actor,
			CreatedAt: fromMs(atMs),
		})
		if err != nil {
			return err
		}

		booking, err = scanBooking(tx.QueryRowContext(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE id = ?;`, c.BookingID))
		if err != nil {
			return fmt.Errorf("ChangeStatus reread: %w", err)
		}
		return nil
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
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
DELETE FROM bookings WHERE id = ? RETURNING id;
`, d.BookingID).Scan(&id)
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
			CreatedAt: fromMs(d.At.UTC().UnixMilli()),
		})
		return err
	})
	if err != nil {
		return types.AuditEntry{}, err
	}
	return entry, nil
}

func (s *BookingStore) Stats(ctx context.Context, w store.StatsWindow) (types.Stats, error) {
	var st types.Stats
	err := s.db.QueryRowContext(ctx, `
SELECT
  COUNT(*),
  COALESCE(SUM(CASE WHEN status = 'pending'   THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN status = 'confirmed' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN created_at_ms >= ? THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN created_at_ms >= ? THEN 1 ELSE 0 END), 0)
FROM bookings;
`, w.Since7Days.UTC().UnixMilli(), w.Since30Days.UTC().UnixMilli()).Scan(
		&st.TotalBookings, &st.Pending, &st.Confirmed, &st.Completed, &st.Cancelled,
		&st.Last7Days, &st.Last30Days,
	)
	if err != nil {
		return types.Stats{}, fmt.Errorf("Stats query: %w", err)
	}
	return st, nil
}
