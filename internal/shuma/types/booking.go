package types

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Statuses lists every valid booking status.
func Statuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Service       string    `json:"service"`
	Duration      int       `json:"duration"` // minutes
	PreferredDate string    `json:"preferred_date"`
	PreferredTime string    `json:"preferred_time"`
	Message       string    `json:"message"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookingFilter narrows an admin listing. Zero values mean "no filter".
type BookingFilter struct {
	Status Status
	Date   string // YYYY-MM-DD
	Limit  int
	Offset int
}

type Stats struct {
	TotalBookings int64 `json:"total_bookings"`
	Pending       int64 `json:"pending"`
	Confirmed     int64 `json:"confirmed"`
	Completed     int64 `json:"completed"`
	Cancelled     int64 `json:"cancelled"`
	Last7Days     int64 `json:"last_7_days"`
	Last30Days    int64 `json:"last_30_days"`
}
