package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/shuma-massage/shuma-backend/internal/health"
	"github.com/shuma-massage/shuma-backend/internal/metrics"
	"github.com/shuma-massage/shuma-backend/internal/ratelimit"
	"github.com/shuma-massage/shuma-backend/internal/shuma/service"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

const serviceName = "shuma-booking-api"

type Dependencies struct {
	Logger *slog.Logger
	Addr   string

	Bookings *service.BookingService
	Auth     *service.AuthService

	// Optional. A nil Metrics disables /metrics; a nil Health reports
	// healthy unconditionally.
	Metrics *metrics.Metrics
	Health  *health.Checker

	// Optional. A nil limiter admits everything.
	APILimiter     ratelimit.Limiter
	BookingLimiter ratelimit.Limiter
	IPResolver     *ratelimit.IPResolver

	CORSOrigins []string
	MaxPageSize int
}

type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	mux         *http.ServeMux
	bookings    *service.BookingService
	auth        *service.AuthService
	metrics     *metrics.Metrics
	health      *health.Checker
	maxPageSize int
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:      d.Logger,
		mux:         mux,
		bookings:    d.Bookings,
		auth:        d.Auth,
		metrics:     d.Metrics,
		health:      d.Health,
		maxPageSize: d.MaxPageSize,
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = 200
	}

	bookingGuard := guard(d.BookingLimiter, d.IPResolver, "bookings",
		"Too many booking attempts, please try again later.", d)
	apiGuard := guard(d.APILimiter, d.IPResolver, "api",
		"Too many requests from this IP, please try again later.", d)

	// Public
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("POST /api/bookings", bookingGuard(http.HandlerFunc(s.handleCreateBooking)))

	// Admin
	mux.HandleFunc("POST /api/admin/login", s.handleLogin)
	mux.HandleFunc("GET /api/admin/bookings", s.requireAuth(s.handleListBookings))
	mux.HandleFunc("GET /api/admin/bookings/{id}", s.requireAuth(s.handleGetBooking))
	mux.HandleFunc("PATCH /api/admin/bookings/{id}", s.requireAuth(s.handleUpdateStatus))
	mux.HandleFunc("DELETE /api/admin/bookings/{id}", s.requireAuth(s.handleDeleteBooking))
	mux.HandleFunc("GET /api/admin/bookings/{id}/audit", s.requireAuth(s.handleAuditTrail))
	mux.HandleFunc("GET /api/admin/stats", s.requireAuth(s.handleStats))

	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Unmatched paths and wrong methods on known paths.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})

	var handler http.Handler = mux
	handler = apiOnly(apiGuard, handler)
	handler = corsMiddleware(d.CORSOrigins, handler)
	handler = securityHeaders(handler)
	handler = loggingMiddleware(d.Logger, d.Metrics, handler)
	handler = requestIDMiddleware(handler)
	handler = recoverMiddleware(d.Logger, handler)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Public ───────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	serving := s.health == nil || s.health.Serving()

	if wantsProtobuf(r) {
		status := healthpb.HealthCheckResponse_SERVING
		if !serving {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		writeProto(w, http.StatusOK, &healthpb.HealthCheckResponse{Status: status})
		return
	}

	resp := types.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Service:   serviceName,
	}
	code := http.StatusOK
	if !serving {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req types.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := s.bookings.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "create booking", err)
		return
	}

	writeJSON(w, http.StatusCreated, types.CreateBookingResponse{
		Success: true,
		Message: "Booking created successfully",
		Booking: b,
	})
}

// ── Admin ────────────────────────────────────────────────────────────────────

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.writeServiceError(w, r, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, types.LoginResponse{
		Success: true,
		Token:   res.Token,
		User:    res.User,
	})
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), s.maxPageSize)
	if err != nil {
		s.writeServiceError(w, r, "list bookings", err)
		return
	}

	if f.Limit == 0 {
		f.Limit = min(service.DefaultPageSize, s.maxPageSize)
	}

	out, total, err := s.bookings.List(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, "list bookings", err)
		return
	}
	if out == nil {
		out = []types.Booking{}
	}
	writeJSON(w, http.StatusOK, types.ListBookingsResponse{
		Success:  true,
		Bookings: out,
		Total:    total,
		Limit:    f.Limit,
		Offset:   f.Offset,
	})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}

	b, err := s.bookings.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "get booking", err)
		return
	}
	writeJSON(w, http.StatusOK, types.BookingResponse{Success: true, Booking: b})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}

	var req types.StatusUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := principalFrom(r.Context())
	b, err := s.bookings.UpdateStatus(r.Context(), id, req.Status, p.Username)
	if err != nil {
		s.writeServiceError(w, r, "update status", err)
		return
	}

	writeJSON(w, http.StatusOK, types.BookingResponse{
		Success: true,
		Message: "Booking updated successfully",
		Booking: b,
	})
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}

	p := principalFrom(r.Context())
	if err := s.bookings.Delete(r.Context(), id, p.Username); err != nil {
		s.writeServiceError(w, r, "delete booking", err)
		return
	}

	writeJSON(w, http.StatusOK, types.MessageResponse{
		Success: true,
		Message: "Booking deleted successfully",
	})
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}

	entries, err := s.bookings.AuditTrail(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "audit trail", err)
		return
	}
	if entries == nil {
		entries = []types.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, types.AuditTrailResponse{Success: true, Entries: entries})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.bookings.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, types.StatsResponse{Success: true, Stats: st})
}

// writeServiceError maps service errors to responses. Anything unexpected
// is logged and answered with a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, types.ValidationErrorResponse{Errors: ve.Fields})
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Booking not found")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Status transition not allowed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away or the request timed out; nothing useful to send.
		s.logger.Warn(op+" aborted", "request_id", requestIDFrom(r.Context()), "error", err)
		writeError(w, http.StatusServiceUnavailable, "Request timed out")
	default:
		s.logger.Error(op+" failed", "request_id", requestIDFrom(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// guard builds the middleware for one limiter, or a pass-through when the
// limiter is nil.
func guard(l ratelimit.Limiter, resolver *ratelimit.IPResolver, scope, msg string, d Dependencies) func(http.Handler) http.Handler {
	if l == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	g := ratelimit.Guard{
		Limiter:   l,
		Resolver:  resolver,
		Scope:     scope,
		Message:   msg,
		Logger:    d.Logger,
		OnLimited: d.Metrics.Limited,
	}
	return g.Wrap
}

// apiOnly applies mw to requests under /api/ and passes the rest through.
func apiOnly(mw func(http.Handler) http.Handler, next http.Handler) http.Handler {
	limited := mw(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
