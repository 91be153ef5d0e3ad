package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/kvitka/internal/models"
	"github.com/example/kvitka/internal/store"
	"github.com/example/kvitka/internal/utils"
)

var (
	// ErrPasswordIncorrect is returned when the password does not match.
	ErrPasswordIncorrect = errors.New("password incorrect")
	// ErrTokenIncorrect is returned for malformed, unverifiable or orphaned
	// tokens.
	ErrTokenIncorrect = errors.New("token incorrect")
)

// NotActiveError reports a login against an account whose phone has not been
// verified yet. It carries the phone so a client can re-trigger verification.
type NotActiveError struct {
	Phone string
}

func (e *NotActiveError) Error() string {
	return fmt.Sprintf("account %s is not active", e.Phone)
}

// Service issues and verifies identity tokens.
type Service struct {
	store  store.AccountStore
	secret string
	ttl    time.Duration
}

// NewService constructs the authentication service.
func NewService(st store.AccountStore, secret string, ttl time.Duration) *Service {
	return &Service{store: st, secret: secret, ttl: ttl}
}

// Login matches the identifier against email first, then phone, verifies the
// password and returns a signed token. Inactive accounts yield NotActiveError.
func (s *Service) Login(ctx context.Context, identifier, password string) (string, error) {
	user, err := s.store.FindByEmail(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.store.FindByPhone(ctx, identifier)
	}
	if err != nil {
		return "", err
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return "", ErrPasswordIncorrect
	}

	if !user.IsActive {
		return "", &NotActiveError{Phone: user.Phone}
	}

	return utils.GenerateToken(s.secret, user.ID, s.ttl)
}

// Verify validates the token and returns the account it identifies. Any
// parse, signature or expiry failure, and tokens whose account no longer
// exists, yield ErrTokenIncorrect.
func (s *Service) Verify(ctx context.Context, token string) (*models.User, error) {
	userID, err := utils.ParseToken(s.secret, token)
	if err != nil {
		return nil, ErrTokenIncorrect
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTokenIncorrect
		}
		return nil, err
	}
	return user, nil
}
