package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/example/kvitka/internal/models"
	"github.com/example/kvitka/internal/services"
	"github.com/example/kvitka/internal/store"
)

type fakeForwarder struct {
	submitted []services.OrderPayload
	err       error
}

func (f *fakeForwarder) Submit(_ context.Context, order services.OrderPayload) error {
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, order)
	return nil
}

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *fakeForwarder) {
	t.Helper()
	st := store.NewMemoryStore()
	fw := &fakeForwarder{}
	return NewService(st, fw, store.NewKeyedMutex()), st, fw
}

func insertAccount(t *testing.T, st *store.MemoryStore) *models.User {
	t.Helper()
	user := &models.User{Email: "a@x.com", Phone: "+100", IsActive: true, BonusScore: "0"}
	if err := st.Insert(context.Background(), user); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return user
}

func TestCreateTranslatesProcessingStatus(t *testing.T) {
	svc, st, fw := newTestService(t)
	ctx := context.Background()
	user := insertAccount(t, st)

	status, err := svc.Create(ctx, user.ID, services.OrderPayload{ID: "order-1", Status: StatusProcessing})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if status != StatusLoading {
		t.Fatalf("expected %q, got %q", StatusLoading, status)
	}

	if len(fw.submitted) != 1 {
		t.Fatalf("expected one forwarded order, got %d", len(fw.submitted))
	}
	if fw.submitted[0].Status != StatusLoading {
		t.Fatalf("forwarded status %q, want %q", fw.submitted[0].Status, StatusLoading)
	}
	if fw.submitted[0].UserID != user.ID.String() {
		t.Fatalf("forwarded user id %q, want %q", fw.submitted[0].UserID, user.ID)
	}

	got, _ := st.FindByID(ctx, user.ID)
	if len(got.OrderHistory) != 1 || got.OrderHistory[0] != "order-1" {
		t.Fatalf("order history not appended: %v", got.OrderHistory)
	}
}

func TestCreateUnknownStatusRejected(t *testing.T) {
	svc, st, _ := newTestService(t)
	user := insertAccount(t, st)

	status, err := svc.Create(context.Background(), user.ID, services.OrderPayload{ID: "order-1", Status: "shipped"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if status != StatusRejected {
		t.Fatalf("expected %q, got %q", StatusRejected, status)
	}
}

func TestCreateForwarderFailureDowngradedToRejected(t *testing.T) {
	svc, st, fw := newTestService(t)
	ctx := context.Background()
	user := insertAccount(t, st)
	fw.err = services.ErrGateway

	status, err := svc.Create(ctx, user.ID, services.OrderPayload{ID: "order-1", Status: StatusProcessing})
	if err != nil {
		t.Fatalf("forwarder failure must not fail the request: %v", err)
	}
	if status != StatusRejected {
		t.Fatalf("expected %q, got %q", StatusRejected, status)
	}

	// The order is still recorded locally.
	got, _ := st.FindByID(ctx, user.ID)
	if len(got.OrderHistory) != 1 {
		t.Fatalf("order history not appended on gateway failure: %v", got.OrderHistory)
	}
}

func TestCreateUnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), uuid.New(), services.OrderPayload{ID: "order-1"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
