package ratelimit

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
)

// Guard wraps handlers with one limiter. Keys are Scope plus the client IP.
type Guard struct {
	Limiter  Limiter
	Resolver *IPResolver
	Scope    string
	Message  string
	Logger   *slog.Logger

	// OnLimited, when set, is called for every rejected request.
	OnLimited func(scope string)
}

// Wrap admits or rejects each request before it reaches next. Limiter
// errors let the request through.
func (g Guard) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := g.Resolver.ClientIP(r)
		d, err := g.Limiter.Allow(r.Context(), g.Scope+":"+ip)
		if err != nil {
			if g.Logger != nil {
				g.Logger.Warn("rate limiter unavailable", "scope", g.Scope, "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			if g.OnLimited != nil {
				g.OnLimited(g.Scope)
			}
			if g.Logger != nil {
				g.Logger.Info("rate limited", "scope", g.Scope, "ip", ip, "path", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": g.Message})
			return
		}

		next.ServeHTTP(w, r)
	})
}
