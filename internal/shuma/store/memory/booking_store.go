package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// BookingStore keeps bookings and their audit log behind one mutex, so a
// status change and its audit entry are applied together. It is intended
// for tests and dev environments. It implements both store.BookingStore and
// store.AuditStore.
type BookingStore struct {
	mu       sync.Mutex
	nextID   int64
	nextAud  int64
	bookings map[int64]types.Booking
	audit    []types.AuditEntry
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[int64]types.Booking)}
}

func (s *BookingStore) CreateBooking(ctx context.Context, b types.Booking) (types.Booking, error) {
	if err := ctx.Err(); err != nil {
		return types.Booking{}, err
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	s.bookings[b.ID] = b
	return b, nil
}

func (s *BookingStore) GetBooking(_ context.Context, id int64) (types.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return types.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (s *BookingStore) ListBookings(_ context.Context, f types.BookingFilter) ([]types.Booking, int, error) {
	s.mu.Lock()
	matched := make([]types.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Date != "" && b.PreferredDate != f.Date {
			continue
		}
		matched = append(matched, b)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if f.Offset >= total {
		return []types.Booking{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (s *BookingStore) ChangeStatus(ctx context.Context, c store.StatusChange) (types.Booking, types.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return types.Booking{}, types.AuditEntry{}, err
	}
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[c.BookingID]
	if !ok {
		return types.Booking{}, types.AuditEntry{}, store.ErrNotFound
	}
	from := b.Status
	if c.Check != nil {
		if err := c.Check(from); err != nil {
			return types.Booking{}, types.AuditEntry{}, err
		}
	}

	b.Status = c.To
	b.UpdatedAt = c.At
	s.bookings[b.ID] = b

	entry := s.appendAuditLocked(types.AuditEntry{
		BookingID: b.ID,
		Action:    types.AuditStatusChange,
		OldStatus: types.StatusPtr(from),
		NewStatus: types.StatusPtr(c.To),
		AdminUser: c.Actor,
		CreatedAt: c.At,
	})
	return b, entry, nil
}

func (s *BookingStore) DeleteBooking(ctx context.Context, d store.Deletion) (types.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return types.AuditEntry{}, err
	}
	if d.At.IsZero() {
		d.At = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[d.BookingID]; !ok {
		return types.AuditEntry{}, store.ErrNotFound
	}
	delete(s.bookings, d.BookingID)

	return s.appendAuditLocked(types.AuditEntry{
		BookingID: d.BookingID,
		Action:    types.AuditDelete,
		AdminUser: d.Actor,
		CreatedAt: d.At,
	}), nil
}

func (s *BookingStore) Stats(_ context.Context, w store.StatsWindow) (types.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st types.Stats
	for _, b := range s.bookings {
		st.TotalBookings++
		switch b.Status {
		case types.StatusPending:
			st.Pending++
		case types.StatusConfirmed:
			st.Confirmed++
		case types.StatusCompleted:
			st.Completed++
		case types.StatusCancelled:
			st.Cancelled++
		}
		if !b.CreatedAt.Before(w.Since7Days) {
			st.Last7Days++
		}
		if !b.CreatedAt.Before(w.Since30Days) {
			st.Last30Days++
		}
	}
	return st, nil
}

func (s *BookingStore) ListAuditEntries(_ context.Context, bookingID int64) ([]types.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.AuditEntry{}
	for _, e := range s.audit {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

// AuditEntries returns a copy of the whole audit log.  Test-only helper.
func (s *BookingStore) AuditEntries() []types.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

func (s *BookingStore) appendAuditLocked(e types.AuditEntry) types.AuditEntry {
	s.nextAud++
	e.ID = s.nextAud
	s.audit = append(s.audit, e)
	return e
}
