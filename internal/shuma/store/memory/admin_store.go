package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shuma-massage/shuma-backend/internal/shuma/store"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

type AdminStore struct {
	mu     sync.RWMutex
	nextID int64
	byName map[string]types.AdminUser
}

func NewAdminStore() *AdminStore {
	return &AdminStore{byName: make(map[string]types.AdminUser)}
}

func (s *AdminStore) GetAdminByUsername(_ context.Context, username string) (types.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byName[username]
	if !ok {
		return types.AdminUser{}, store.ErrNotFound
	}
	return u, nil
}

func (s *AdminStore) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, u := range s.byName {
		if u.ID == id {
			t := at.UTC()
			u.LastLogin = &t
			s.byName[name] = u
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *AdminStore) UpsertAdmin(_ context.Context, in store.AdminUpsert) (types.AdminUser, error) {
	if in.At.IsZero() {
		in.At = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byName[in.Username]
	if !ok {
		s.nextID++
		u = types.AdminUser{ID: s.nextID, Username: in.Username, CreatedAt: in.At}
	}
	u.PasswordHash = in.PasswordHash
	u.Email = in.Email
	s.byName[in.Username] = u
	return u, nil
}
