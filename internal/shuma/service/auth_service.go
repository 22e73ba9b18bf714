package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/metrics"
	"github.com/shuma-massage/shuma-backend/internal/shuma/password"
	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/token"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      types.UserInfo
}

type AuthService struct {
	admins  store.AdminStore
	issuer  *token.Issuer
	now     func() time.Time
	cost    int
	metrics *metrics.Metrics
	logger  *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

type AuthOption func(*AuthService)

func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// WithBcryptCost sets the cost of the hash compared against when the
// username is unknown. It should match the cost of stored hashes.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

func WithAuthMetrics(m *metrics.Metrics) AuthOption {
	return func(s *AuthService) { s.metrics = m }
}

func WithAuthLogger(l *slog.Logger) AuthOption {
	return func(s *AuthService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewAuthService(admins store.AdminStore, issuer *token.Issuer, opts ...AuthOption) *AuthService {
	s := &AuthService{
		admins: admins,
		issuer: issuer,
		now:    time.Now,
		cost:   password.DefaultCost,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login checks the credentials and returns a signed session token. Unknown
// users and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, plain string) (LoginResult, error) {
	username = strings.TrimSpace(username)

	var v ValidationError
	if username == "" {
		v.add("username", "Username is required")
	}
	if plain == "" {
		v.add("password", "Password is required")
	}
	if err := v.err(); err != nil {
		return LoginResult{}, err
	}

	u, err := s.admins.GetAdminByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		// Burn the same bcrypt time as a real comparison.
		_ = password.Verify(s.dummy(), plain)
		s.metrics.Login(false)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("Login lookup: %w", err)
	}

	if err := password.Verify(u.PasswordHash, plain); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.logger.Warn("password verification failed", "admin", username, "error", err)
		}
		s.metrics.Login(false)
		return LoginResult{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.admins.TouchLastLogin(ctx, u.ID, now); err != nil {
		return LoginResult{}, fmt.Errorf("Login touch: %w", err)
	}

	raw, exp, err := s.issuer.Sign(u.ID, u.Username)
	if err != nil {
		return LoginResult{}, fmt.Errorf("Login sign: %w", err)
	}

	s.metrics.Login(true)
	s.logger.Info("admin logged in", "admin", u.Username)
	return LoginResult{
		Token:     raw,
		ExpiresAt: exp,
		User:      types.UserInfo{ID: u.ID, Username: u.Username, Email: u.Email},
	}, nil
}

// Verify resolves a bearer token to the admin it was issued to. It never
// touches storage.
func (s *AuthService) Verify(raw string) (types.Principal, error) {
	if strings.TrimSpace(raw) == "" {
		return types.Principal{}, ErrMissingToken
	}
	p, err := s.issuer.Parse(raw)
	if err != nil {
		return types.Principal{}, ErrInvalidToken
	}
	return p, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := password.Hash("shuma-dummy-password", s.cost)
		if err != nil {
			s.logger.Error("dummy hash failed", "error", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
