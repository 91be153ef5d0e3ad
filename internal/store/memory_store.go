package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/kvitka/internal/models"
)

// MemoryStore is an in-memory AccountStore for tests. It deep-copies on every
// read and write so callers observe snapshot semantics, matching the
// read-then-write behavior of the Postgres store.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*models.User
	verifications []models.SMSVerification
}

// NewMemoryStore builds an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *MemoryStore) Insert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.EnsureID()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findBy(func(u *models.User) bool { return u.Email == email })
}

func (s *MemoryStore) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	return s.findBy(func(u *models.User) bool { return u.Phone == phone })
}

func (s *MemoryStore) findBy(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			return copyUser(user), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateByID(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, *copyUser(user))
	}
	return out, nil
}

func (s *MemoryStore) CreateVerification(_ context.Context, v *models.SMSVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v.EnsureID()
	v.CreatedAt = time.Now()
	s.verifications = append(s.verifications, *v)
	return nil
}

func (s *MemoryStore) LatestVerificationByPhone(_ context.Context, phone string) (*models.SMSVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Records are appended in creation order; scan backwards for the newest.
	for i := len(s.verifications) - 1; i >= 0; i-- {
		if s.verifications[i].Phone == phone {
			v := s.verifications[i]
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.OrderHistory = append(cp.OrderHistory[:0:0], u.OrderHistory...)
	cp.BonusEntries = append(cp.BonusEntries[:0:0], u.BonusEntries...)
	return &cp
}
