package bonus

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/example/kvitka/internal/models"
	"github.com/example/kvitka/internal/store"
)

// ErrConflict is returned when a pending entry with the same id already
// exists for the account.
var ErrConflict = errors.New("bonus entry already recorded")

const (
	dateLayout = "2006-01-02"

	// bonusWindow is how long accrued points stay valid, counted from the
	// first non-zero accrual.
	bonusWindow = 365 * 24 * time.Hour
)

// Service manages the pending → active → expired bonus lifecycle.
type Service struct {
	store store.AccountStore
	locks *store.KeyedMutex
	now   func() time.Time
}

// NewService constructs the bonus service.
func NewService(st store.AccountStore, locks *store.KeyedMutex) *Service {
	return &Service{store: st, locks: locks, now: time.Now}
}

// RecordPending appends a pending bonus entry for the order. Duplicate entry
// ids are rejected with ErrConflict regardless of their state, so re-sent
// order events are idempotent.
func (s *Service) RecordPending(ctx context.Context, accountID uuid.UUID, entryID string, amount int64) error {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	user, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if user.FindBonusEntry(entryID) != nil {
		return ErrConflict
	}

	user.BonusEntries = append(user.BonusEntries, models.BonusEntry{
		UserID:  user.ID,
		EntryID: entryID,
		Amount:  amount,
		Status:  models.BonusStatusPending,
	})
	return s.store.UpdateByID(ctx, user)
}

// Activate moves a pending entry into the history and credits its amount to
// the score. The first transition away from a zero score opens a new 12-month
// earning window. Entries that are absent or already activated yield
// store.ErrNotFound.
func (s *Service) Activate(ctx context.Context, accountID uuid.UUID, entryID string) error {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	user, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	entry := user.FindBonusEntry(entryID)
	if entry == nil || entry.Status != models.BonusStatusPending {
		return store.ErrNotFound
	}

	score := parseScore(user.BonusScore)
	if score == 0 {
		user.StartBonusDate = s.now().Format(dateLayout)
	}
	user.BonusScore = strconv.FormatInt(score+entry.Amount, 10)

	activatedAt := s.now()
	entry.Status = models.BonusStatusActivated
	entry.ActivatedAt = &activatedAt

	return s.store.UpdateByID(ctx, user)
}

// SweepExpirations walks every account and resets the bonus state of those
// whose earning window has elapsed. A failure on one account is logged and
// does not stop the sweep. Intended to run on a schedule, one run at a time.
func (s *Service) SweepExpirations(ctx context.Context) error {
	users, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}

	for i := range users {
		if users[i].StartBonusDate == "" {
			continue
		}
		if err := s.expireIfElapsed(ctx, users[i].ID); err != nil {
			log.Printf("[bonus] sweep of account %s failed: %v", users[i].ID, err)
		}
	}
	return nil
}

// expireIfElapsed re-reads the account under its lock and clears the bonus
// state when the window has run out.
func (s *Service) expireIfElapsed(ctx context.Context, accountID uuid.UUID) error {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	user, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if user.StartBonusDate == "" {
		return nil
	}

	started, err := time.Parse(dateLayout, user.StartBonusDate)
	if err != nil {
		log.Printf("[bonus] account %s has unparseable start date %q", user.ID, user.StartBonusDate)
		return nil
	}
	if s.now().Sub(started) < bonusWindow {
		return nil
	}

	user.BonusScore = "0"
	user.BonusEntries = nil
	user.StartBonusDate = ""
	return s.store.UpdateByID(ctx, user)
}

func parseScore(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
