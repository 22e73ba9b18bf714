package types

import "time"

type AuditAction string

const (
	AuditStatusChange AuditAction = "status_change"
	AuditDelete       AuditAction = "delete"
)

// AuditEntry records one mutating admin action. BookingID is a weak
// reference: entries outlive the booking they describe.
type AuditEntry struct {
	ID        int64       `json:"id"`
	BookingID int64       `json:"booking_id"`
	Action    AuditAction `json:"action"`
	OldStatus *Status     `json:"old_status"`
	NewStatus *Status     `json:"new_status"`
	AdminUser string      `json:"admin_user"`
	CreatedAt time.Time   `json:"created_at"`
}

// StatusPtr is a convenience for filling the nullable audit columns.
func StatusPtr(s Status) *Status { return &s }
