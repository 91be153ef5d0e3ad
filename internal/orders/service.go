package orders

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/example/kvitka/internal/services"
	"github.com/example/kvitka/internal/store"
)

// Order statuses. Incoming orders carry the order system's local-language
// processing status; everything else is treated as rejected.
const (
	StatusProcessing = "В процесі оброблення"
	StatusLoading    = "loading"
	StatusRejected   = "rejected"
)

// Service records orders against the remote order-management system and the
// account's order history.
type Service struct {
	store     store.AccountStore
	forwarder services.OrderForwarder
	locks     *store.KeyedMutex
}

// NewService constructs the order service.
func NewService(st store.AccountStore, forwarder services.OrderForwarder, locks *store.KeyedMutex) *Service {
	return &Service{store: st, forwarder: forwarder, locks: locks}
}

// Create forwards the order to the remote system and appends its id to the
// account's history. The processing status is translated to "loading" before
// forwarding; any other status, and any forwarding failure, is downgraded to
// "rejected" rather than failing the request. The returned string is the
// final status.
func (s *Service) Create(ctx context.Context, accountID uuid.UUID, order services.OrderPayload) (string, error) {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	user, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return "", err
	}

	status := StatusRejected
	if order.Status == StatusProcessing {
		status = StatusLoading
	}
	order.Status = status
	order.UserID = user.ID.String()

	if err := s.forwarder.Submit(ctx, order); err != nil {
		log.Printf("[orders] forwarding order %s failed: %v", order.ID, err)
		status = StatusRejected
	}

	user.OrderHistory = append(user.OrderHistory, order.ID)
	if err := s.store.UpdateByID(ctx, user); err != nil {
		return "", err
	}

	return status, nil
}
