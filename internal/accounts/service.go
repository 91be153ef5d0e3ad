package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/example/kvitka/internal/models"
	"github.com/example/kvitka/internal/services"
	"github.com/example/kvitka/internal/store"
	"github.com/example/kvitka/internal/utils"
)

var (
	// ErrAlreadyExists is returned when the registration email is taken.
	ErrAlreadyExists = errors.New("account already exists")
	// ErrCodeIncorrect is returned when the submitted OTP does not match.
	ErrCodeIncorrect = errors.New("verification code incorrect")
	// ErrPasswordIncorrect is returned when the current password does not
	// match on a password change.
	ErrPasswordIncorrect = errors.New("password incorrect")
)

// Service implements registration, phone verification and profile mutation.
type Service struct {
	store   store.AccountStore
	gateway services.Gateway
	locks   *store.KeyedMutex
}

// NewService constructs the account service.
func NewService(st store.AccountStore, gateway services.Gateway, locks *store.KeyedMutex) *Service {
	return &Service{store: st, gateway: gateway, locks: locks}
}

// RegisterInput carries the candidate account fields.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Birthday  string
}

// Register creates an inactive account with empty bonus state, stores a fresh
// 4-digit verification code for the candidate's phone and asks the SMS
// gateway to deliver it. A gateway failure is logged but does not undo the
// registration; the code can be re-sent later.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if _, err := s.store.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: passwordHash,
		Birthday:     in.Birthday,
		OrderHistory: pq.StringArray{},
		IsActive:     false,
		BonusScore:   "0",
	}
	if err := s.store.Insert(ctx, user); err != nil {
		return nil, err
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	verification := &models.SMSVerification{Phone: in.Phone, Code: code}
	if err := s.store.CreateVerification(ctx, verification); err != nil {
		return nil, err
	}

	if err := s.gateway.SendCode(ctx, in.Phone, code); err != nil {
		log.Printf("[accounts] verification sms for %s failed: %v", in.Phone, err)
	}

	return user, nil
}

// SubmitCode checks the submitted code against the latest stored one for the
// phone and activates the matching account. Wrong codes change nothing and
// may be retried without limit.
func (s *Service) SubmitCode(ctx context.Context, phone, code string) error {
	verification, err := s.store.LatestVerificationByPhone(ctx, phone)
	if err != nil {
		return err
	}

	if verification.Code != code {
		return ErrCodeIncorrect
	}

	user, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	user, err = s.store.FindByID(ctx, user.ID)
	if err != nil {
		return err
	}
	if user.IsActive {
		return nil
	}
	user.IsActive = true
	return s.store.UpdateByID(ctx, user)
}

// ResendCode re-sends the stored verification code for the phone. The code is
// never regenerated; gateway failures propagate to the caller.
func (s *Service) ResendCode(ctx context.Context, phone string) error {
	verification, err := s.store.LatestVerificationByPhone(ctx, phone)
	if err != nil {
		return err
	}
	return s.gateway.SendCode(ctx, phone, verification.Code)
}

// DataFields is the full personal-data sub-record. ChangeData overwrites the
// stored values with these wholesale; omitted fields are lost.
type DataFields struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Birthday     string
	OrderHistory []string
}

// ChangeData replaces the account's personal data sub-record.
func (s *Service) ChangeData(ctx context.Context, id uuid.UUID, fields DataFields) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	user.FirstName = fields.FirstName
	user.LastName = fields.LastName
	user.Email = fields.Email
	user.Phone = fields.Phone
	user.Birthday = fields.Birthday
	user.OrderHistory = pq.StringArray(fields.OrderHistory)
	return s.store.UpdateByID(ctx, user)
}

// ChangeDelivery replaces the account's delivery address wholesale.
func (s *Service) ChangeDelivery(ctx context.Context, id uuid.UUID, delivery models.DeliveryAddress) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	user.Delivery = delivery
	return s.store.UpdateByID(ctx, user)
}

// ChangePassword verifies the current password and stores a hash of the new
// one. On mismatch nothing is mutated.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, currentPassword) {
		return ErrPasswordIncorrect
	}

	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = passwordHash
	return s.store.UpdateByID(ctx, user)
}

// generateVerificationCode draws a uniformly random 4-digit code, zero-padded.
func generateVerificationCode() (string, error) {
	max := big.NewInt(10000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
