package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	sqlitestore "github.com/shuma-massage/shuma-backend/internal/shuma/store/sqlite"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

func TestAuditStore_ListAuditEntries_OldestFirst(t *testing.T) {
	conn, bs := newBookingStore(t)
	as := sqlitestore.NewAuditStore(conn)
	ctx := context.Background()

	b := mustCreate(t, bs, sampleBooking("Jana", t0))
	other := mustCreate(t, bs, sampleBooking("Other", t0))

	steps := []types.Status{types.StatusConfirmed, types.StatusCompleted}
	for i, to := range steps {
		if _, _, err := bs.ChangeStatus(ctx, store.StatusChange{
			BookingID: b.ID, To: to, Actor: "admin", At: t0.Add(time.Duration(i+1) * time.Minute),
		}); err != nil {
			t.Fatalf("ChangeStatus %s: %v", to, err)
		}
	}
	if _, _, err := bs.ChangeStatus(ctx, store.StatusChange{BookingID: other.ID, To: types.StatusCancelled, Actor: "admin"}); err != nil {
		t.Fatalf("ChangeStatus other: %v", err)
	}
	if _, err := bs.DeleteBooking(ctx, store.Deletion{BookingID: b.ID, Actor: "boss", At: t0.Add(time.Hour)}); err != nil {
		t.Fatalf("DeleteBooking: %v", err)
	}

	entries, err := as.ListAuditEntries(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListAuditEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if *entries[0].NewStatus != types.StatusConfirmed || *entries[1].NewStatus != types.StatusCompleted {
		t.Errorf("unexpected order: %+v", entries)
	}
	last := entries[2]
	if last.Action != types.AuditDelete || last.AdminUser != "boss" || last.OldStatus != nil || last.NewStatus != nil {
		t.Errorf("unexpected delete entry: %+v", last)
	}

	none, err := as.ListAuditEntries(ctx, 12345)
	if err != nil {
		t.Fatalf("ListAuditEntries none: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no entries, got %d", len(none))
	}
}
