package types

import (
	"bytes"
	"encoding/json"
)

// ── Public ───────────────────────────────────────────────────────────────────

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// BookingRequest is the public submission body.
type BookingRequest struct {
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Service       string      `json:"service"`
	Duration      NumberText  `json:"duration"`
	PreferredDate string      `json:"preferred_date"`
	PreferredTime string      `json:"preferred_time"`
	Message       string      `json:"message,omitempty"`
}

// NumberText holds a JSON number, or a string holding one, as raw text.
// Any other JSON value is kept verbatim so validation reports it against
// the field instead of failing the whole body.
type NumberText string

func (n *NumberText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumberText(s)
	default:
		*n = NumberText(b)
	}
	return nil
}

func (n NumberText) String() string { return string(n) }

type CreateBookingResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Booking Booking `json:"booking"`
}

// ── Admin ────────────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserInfo struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
}

type LoginResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    UserInfo `json:"user"`
}

type ListBookingsResponse struct {
	Success  bool      `json:"success"`
	Bookings []Booking `json:"bookings"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

type BookingResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Booking Booking `json:"booking"`
}

type StatusUpdateRequest struct {
	Status Status `json:"status"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AuditTrailResponse struct {
	Success bool         `json:"success"`
	Entries []AuditEntry `json:"entries"`
}

type StatsResponse struct {
	Success bool  `json:"success"`
	Stats   Stats `json:"stats"`
}

// ── Errors ───────────────────────────────────────────────────────────────────

type ErrorResponse struct {
	Error string `json:"error"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}
