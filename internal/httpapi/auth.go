package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shuma-massage/shuma-backend/internal/shuma/service"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

type principalKey struct{}

func principalFrom(ctx context.Context) types.Principal {
	p, _ := ctx.Value(principalKey{}).(types.Principal)
	return p
}

// bearerToken returns the second whitespace-separated field of the
// Authorization header, or "" when there is none.
func bearerToken(r *http.Request) string {
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// requireAuth admits requests carrying a valid session token. A missing
// token is 401; a present but unusable one is 403.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.auth.Verify(bearerToken(r))
		switch {
		case err == nil:
		case errors.Is(err, service.ErrMissingToken):
			writeError(w, http.StatusUnauthorized, "Access token required")
			return
		default:
			writeError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, p)
		next(w, r.WithContext(ctx))
	}
}
