package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shuma-massage/shuma-backend/internal/shuma/service"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// ── Path ─────────────────────────────────────────────────────────────────────

// pathID parses the {id} wildcard. Anything that is not a positive integer
// cannot name a booking.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ── Query ────────────────────────────────────────────────────────────────────

// parseFilter reads status, date, limit and offset from q. Status and date
// are validated by the service; limit is capped at maxPage.
func parseFilter(q url.Values, maxPage int) (types.BookingFilter, error) {
	var (
		f      types.BookingFilter
		fields []types.FieldError
	)

	f.Status = types.Status(strings.TrimSpace(q.Get("status")))
	f.Date = strings.TrimSpace(q.Get("date"))

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields = append(fields, types.FieldError{Field: "limit", Message: "Limit must be a positive integer"})
		} else {
			f.Limit = min(n, maxPage)
		}
	}

	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields = append(fields, types.FieldError{Field: "offset", Message: "Offset must be a non-negative integer"})
		} else {
			f.Offset = n
		}
	}

	if len(fields) > 0 {
		return f, &service.ValidationError{Fields: fields}
	}
	return f, nil
}
