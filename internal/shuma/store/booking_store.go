package store

import (
	"context"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// StatusChange describes one admin status update. Check is called inside
// the storage transaction with the booking's current status; a non-nil
// error aborts the change and is returned unwrapped.
type StatusChange struct {
	BookingID int64
	To        types.Status
	Actor     string
	At        time.Time
	Check     func(from types.Status) error
}

// Deletion describes one admin delete.
type Deletion struct {
	BookingID int64
	Actor     string
	At        time.Time
}

// StatsWindow carries the recency cutoffs for Stats.
type StatsWindow struct {
	Since7Days  time.Time
	Since30Days time.Time
}

// BookingStore persists bookings. ChangeStatus and DeleteBooking append the
// matching audit entry in the same transaction as the mutation.
type BookingStore interface {
	CreateBooking(ctx context.Context, b types.Booking) (types.Booking, error)
	GetBooking(ctx context.Context, id int64) (types.Booking, error)
	ListBookings(ctx context.Context, f types.BookingFilter) ([]types.Booking, int, error)
	ChangeStatus(ctx context.Context, c StatusChange) (types.Booking, types.AuditEntry, error)
	DeleteBooking(ctx context.Context, d Deletion) (types.AuditEntry, error)
	Stats(ctx context.Context, w StatsWindow) (types.Stats, error)
}
