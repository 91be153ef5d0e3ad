package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Bonus entry lifecycle states.
const (
	BonusStatusPending   = "pending"
	BonusStatusActivated = "activated"
)

// DeliveryAddress holds the customer's delivery details. All fields are
// optional free-form strings.
type DeliveryAddress struct {
	Region      string `json:"region"`
	City        string `json:"city"`
	Street      string `json:"street"`
	House       string `json:"house"`
	PostalIndex string `json:"index"`
}

// User represents a registered customer account together with its embedded
// bonus state.
type User struct {
	BaseModel
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	Phone        string `gorm:"index" json:"phone"`
	PasswordHash string `json:"-"`
	Birthday     string `json:"birthday"`

	Delivery DeliveryAddress `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery"`

	// OrderHistory is an append-only list of order ids placed by this user.
	OrderHistory pq.StringArray `gorm:"type:text[]" json:"order_history"`

	// IsActive is false until the phone number has been verified. It gates
	// login and is flipped exactly once by a successful code submission.
	IsActive bool `json:"is_active"`

	// BonusScore is the accumulated points balance, stored as a
	// string-encoded non-negative integer.
	BonusScore string `json:"bonus_score"`

	// StartBonusDate marks the day the current 12-month earning window
	// opened, formatted 2006-01-02. Empty when no window is open.
	StartBonusDate string `json:"start_bonus_date"`

	BonusEntries []BonusEntry `json:"bonus_entries,omitempty"`
}

// BonusEntry is a loyalty credit tied to an order. It starts pending and is
// moved to activated when confirmed; the (user, entry) pair is unique across
// both states.
type BonusEntry struct {
	BaseModel
	UserID      uuid.UUID  `gorm:"type:uuid;index:idx_user_bonus_entry,unique" json:"user_id"`
	EntryID     string     `gorm:"index:idx_user_bonus_entry,unique" json:"entry_id"`
	Amount      int64      `json:"amount"`
	Status      string     `json:"status"`
	ActivatedAt *time.Time `json:"activated_at"`
}

// SMSVerification keeps track of OTP codes sent to users. A new record is
// created per registration; lookups take the latest by creation time.
type SMSVerification struct {
	BaseModel
	Phone string `gorm:"index" json:"phone"`
	Code  string `json:"code"`
}

// PendingEntries returns the subset of bonus entries awaiting activation.
func (u *User) PendingEntries() []BonusEntry {
	var pending []BonusEntry
	for _, e := range u.BonusEntries {
		if e.Status == BonusStatusPending {
			pending = append(pending, e)
		}
	}
	return pending
}

// FindBonusEntry returns the entry with the given id, or nil.
func (u *User) FindBonusEntry(entryID string) *BonusEntry {
	for i := range u.BonusEntries {
		if u.BonusEntries[i].EntryID == entryID {
			return &u.BonusEntries[i]
		}
	}
	return nil
}
