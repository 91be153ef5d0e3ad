package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/kvitka/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// AccountStore persists user accounts and their phone-verification records.
// Reads return the full account aggregate including bonus entries; UpdateByID
// replaces the stored aggregate with the supplied one wholesale.
//
// The store guarantees read-your-write consistency within a single operation
// chain but offers no cross-operation transaction; callers serialize
// conflicting mutations themselves (see KeyedMutex).
type AccountStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateByID(ctx context.Context, user *models.User) error
	ListAll(ctx context.Context) ([]models.User, error)

	CreateVerification(ctx context.Context, v *models.SMSVerification) error
	// LatestVerificationByPhone returns the most recently created record for
	// the phone. Multiple records per phone can coexist; the newest wins.
	LatestVerificationByPhone(ctx context.Context, phone string) (*models.SMSVerification, error)
}
