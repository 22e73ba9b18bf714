package service

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// Column widths of the bookings table.
const (
	maxNameLen    = 255
	maxEmailLen   = 255
	maxPhoneLen   = 50
	maxServiceLen = 100
)

const (
	minDuration = 30
	maxDuration = 180
	dateLayout  = "2006-01-02"
)

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-+()]+$`)
	timePattern  = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

// validateBooking checks every field of req and returns the normalized
// booking (status and timestamps unset) together with all field failures.
func validateBooking(req types.BookingRequest) (types.Booking, error) {
	var (
		v ValidationError
		b types.Booking
	)

	b.Name = strings.TrimSpace(req.Name)
	switch n := utf8.RuneCountInString(b.Name); {
	case n < 2:
		v.add("name", "Name must be at least 2 characters")
	case n > maxNameLen:
		v.add("name", "Name must be at most 255 characters")
	}

	if email, ok := normalizeEmail(req.Email); ok && utf8.RuneCountInString(email) <= maxEmailLen {
		b.Email = email
	} else {
		v.add("email", "Valid email is required")
	}

	b.Phone = strings.TrimSpace(req.Phone)
	switch {
	case !phonePattern.MatchString(b.Phone):
		v.add("phone", "Phone may contain only digits, spaces and + - ( )")
	case utf8.RuneCountInString(b.Phone) > maxPhoneLen:
		v.add("phone", "Phone must be at most 50 characters")
	}

	b.Service = strings.TrimSpace(req.Service)
	switch n := utf8.RuneCountInString(b.Service); {
	case n == 0:
		v.add("service", "Service is required")
	case n > maxServiceLen:
		v.add("service", "Service must be at most 100 characters")
	}

	if d, ok := parseDuration(req.Duration.String()); ok {
		b.Duration = d
	} else {
		v.add("duration", "Duration must be a whole number of minutes between 30 and 180")
	}

	b.PreferredDate = strings.TrimSpace(req.PreferredDate)
	if !validDate(b.PreferredDate) {
		v.add("preferred_date", "Preferred date must be a valid YYYY-MM-DD date")
	}

	b.PreferredTime = strings.TrimSpace(req.PreferredTime)
	if !timePattern.MatchString(b.PreferredTime) {
		v.add("preferred_time", "Preferred time must be HH:MM (24h)")
	}

	b.Message = strings.TrimSpace(req.Message)

	return b, v.err()
}

func validateFilter(f types.BookingFilter) error {
	var v ValidationError
	if f.Status != "" && !f.Status.Valid() {
		v.add("status", "Invalid status")
	}
	if f.Date != "" && !validDate(f.Date) {
		v.add("date", "Date must be YYYY-MM-DD")
	}
	if f.Limit < 0 {
		v.add("limit", "Limit must not be negative")
	}
	if f.Offset < 0 {
		v.add("offset", "Offset must not be negative")
	}
	return v.err()
}

// normalizeEmail accepts a bare addr-spec with a dotted domain and returns
// it with the domain lowercased.
func normalizeEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return "", false
	}
	at := strings.LastIndexByte(raw, '@')
	local, domain := raw[:at], raw[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", false
	}
	return local + "@" + strings.ToLower(domain), true
}

func parseDuration(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < minDuration || n > maxDuration {
		return 0, false
	}
	return n, true
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
