package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/metrics"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

const DefaultPageSize = 50

type BookingService struct {
	bookings store.BookingStore
	audit    store.AuditStore
	policy   TransitionPolicy
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type BookingOption func(*BookingService)

func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func WithPolicy(p TransitionPolicy) BookingOption {
	return func(s *BookingService) {
		if p != nil {
			s.policy = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) BookingOption {
	return func(s *BookingService) { s.metrics = m }
}

func WithLogger(l *slog.Logger) BookingOption {
	return func(s *BookingService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewBookingService(bs store.BookingStore, as store.AuditStore, opts ...BookingOption) *BookingService {
	s := &BookingService{
		bookings: bs,
		audit:    as,
		policy:   AnyTransition,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates a public submission and stores it as pending.
func (s *BookingService) Create(ctx context.Context, req types.BookingRequest) (types.Booking, error) {
	b, err := validateBooking(req)
	if err != nil {
		return types.Booking{}, err
	}

	now := s.now().UTC()
	b.Status = types.StatusPending
	b.CreatedAt = now
	b.UpdatedAt = now

	created, err := s.bookings.CreateBooking(ctx, b)
	if err != nil {
		return types.Booking{}, fmt.Errorf("Create: %w", err)
	}
	s.metrics.BookingCreated()
	s.logger.Info("booking created", "booking_id", created.ID, "service", created.Service,
		"preferred_date", created.PreferredDate)
	return created, nil
}

// List returns one page of bookings, newest first, and the number of
// bookings matching the filter regardless of paging. A zero Limit means
// DefaultPageSize.
func (s *BookingService) List(ctx context.Context, f types.BookingFilter) ([]types.Booking, int, error) {
	if err := validateFilter(f); err != nil {
		return nil, 0, err
	}
	if f.Limit == 0 {
		f.Limit = DefaultPageSize
	}
	out, total, err := s.bookings.ListBookings(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	return out, total, nil
}

func (s *BookingService) Get(ctx context.Context, id int64) (types.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return types.Booking{}, mapStoreErr("Get", err)
	}
	return b, nil
}

// UpdateStatus moves a booking to status and records the change in the
// audit log atomically with the update.
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, status types.Status, actor string) (types.Booking, error) {
	if !status.Valid() {
		return types.Booking{}, ErrInvalidStatus
	}

	b, entry, err := s.bookings.ChangeStatus(ctx, store.StatusChange{
		BookingID: id,
		To:        status,
		Actor:     actor,
		At:        s.now().UTC(),
		Check: func(from types.Status) error {
			return s.policy(from, status)
		},
	})
	if err != nil {
		return types.Booking{}, mapStoreErr("UpdateStatus", err)
	}

	from := ""
	if entry.OldStatus != nil {
		from = string(*entry.OldStatus)
	}
	s.metrics.StatusChanged(from, string(status))
	s.logger.Info("booking status changed", "booking_id", id, "from", from, "to", status, "admin", actor)
	return b, nil
}

// Delete removes a booking. Only a delete that actually removed a row is
// written to the audit log.
func (s *BookingService) Delete(ctx context.Context, id int64, actor string) error {
	entry, err := s.bookings.DeleteBooking(ctx, store.Deletion{
		BookingID: id,
		Actor:     actor,
		At:        s.now().UTC(),
	})
	if err != nil {
		return mapStoreErr("Delete", err)
	}
	s.metrics.BookingDeleted()
	s.logger.Info("booking deleted", "booking_id", id, "admin", actor, "audit_id", entry.ID)
	return nil
}

// Stats counts bookings per status and those created in the last 7 and 30
// days, where day boundaries are UTC midnights and today is included.
func (s *BookingService) Stats(ctx context.Context) (types.Stats, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	st, err := s.bookings.Stats(ctx, store.StatsWindow{
		Since7Days:  today.AddDate(0, 0, -7),
		Since30Days: today.AddDate(0, 0, -30),
	})
	if err != nil {
		return types.Stats{}, fmt.Errorf("Stats: %w", err)
	}
	return st, nil
}

// AuditTrail returns the audit entries for a booking id in the order they
// were written. Entries of deleted bookings are included.
func (s *BookingService) AuditTrail(ctx context.Context, bookingID int64) ([]types.AuditEntry, error) {
	entries, err := s.audit.ListAuditEntries(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("AuditTrail: %w", err)
	}
	return entries, nil
}

func mapStoreErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrInvalidTransition):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
