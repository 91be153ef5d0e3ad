package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/kvitka/internal/models"
)

// GormStore implements AccountStore on top of a gorm-managed Postgres
// database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore builds a Postgres-backed account store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Insert creates a new user together with its bonus entries.
func (s *GormStore) Insert(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// FindByID loads the full account aggregate by primary key.
func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

// FindByEmail loads the account registered under the given email.
func (s *GormStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

// FindByPhone loads the account registered under the given phone.
func (s *GormStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.findOne(ctx, "phone = ?", phone)
}

func (s *GormStore) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("BonusEntries").Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateByID replaces the stored aggregate with the supplied one. Bonus
// entries are replaced wholesale so removed entries disappear from the table.
func (s *GormStore) UpdateByID(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).Save(user)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.BonusEntry{}).Error; err != nil {
			return err
		}
		if len(user.BonusEntries) == 0 {
			return nil
		}
		for i := range user.BonusEntries {
			user.BonusEntries[i].UserID = user.ID
		}
		return tx.Create(&user.BonusEntries).Error
	})
}

// ListAll returns every account aggregate. Used by the expiration sweep.
func (s *GormStore) ListAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Preload("BonusEntries").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreateVerification inserts a new OTP record. Stale records for the same
// phone are left in place; lookups pick the newest.
func (s *GormStore) CreateVerification(ctx context.Context, v *models.SMSVerification) error {
	return s.db.WithContext(ctx).Create(v).Error
}

// LatestVerificationByPhone returns the newest OTP record for the phone.
func (s *GormStore) LatestVerificationByPhone(ctx context.Context, phone string) (*models.SMSVerification, error) {
	var v models.SMSVerification
	err := s.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at desc").
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
