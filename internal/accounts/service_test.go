package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/example/kvitka/internal/models"
	"github.com/example/kvitka/internal/services"
	"github.com/example/kvitka/internal/store"
	"github.com/example/kvitka/internal/utils"
)

type fakeGateway struct {
	sent []sentCode
	err  error
}

type sentCode struct {
	phone string
	code  string
}

func (g *fakeGateway) SendCode(_ context.Context, phone, code string) error {
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentCode{phone: phone, code: code})
	return nil
}

func newTestService() (*Service, *store.MemoryStore, *fakeGateway) {
	st := store.NewMemoryStore()
	gw := &fakeGateway{}
	return NewService(st, gw, store.NewKeyedMutex()), st, gw
}

func register(t *testing.T, svc *Service, email, phone string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Olena",
		LastName:  "Kovalenko",
		Email:     email,
		Phone:     phone,
		Password:  "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestRegisterSendsFourDigitCode(t *testing.T) {
	svc, st, gw := newTestService()
	ctx := context.Background()

	user := register(t, svc, "a@x.com", "+100")
	if user.IsActive {
		t.Fatal("new account must start inactive")
	}
	if user.BonusScore != "0" {
		t.Fatalf("expected zero bonus score, got %q", user.BonusScore)
	}

	if len(gw.sent) != 1 {
		t.Fatalf("expected one sms, got %d", len(gw.sent))
	}
	if len(gw.sent[0].code) != 4 {
		t.Fatalf("expected 4-digit code, got %q", gw.sent[0].code)
	}

	stored, err := st.LatestVerificationByPhone(ctx, "+100")
	if err != nil {
		t.Fatalf("verification lookup: %v", err)
	}
	if stored.Code != gw.sent[0].code {
		t.Fatalf("stored code %q differs from sent code %q", stored.Code, gw.sent[0].code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first := register(t, svc, "a@x.com", "+100")

	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Phone: "+200", Password: "other"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// First account is unaffected.
	got, err := svc.store.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("find first account: %v", err)
	}
	if got.Phone != "+100" {
		t.Fatalf("first account mutated: %+v", got)
	}
}

func TestRegisterSucceedsWhenGatewayFails(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &fakeGateway{err: services.ErrGateway}
	svc := NewService(st, gw, store.NewKeyedMutex())

	user := register(t, svc, "a@x.com", "+100")

	// The account and code exist; only the dispatch failed.
	if _, err := st.FindByID(context.Background(), user.ID); err != nil {
		t.Fatalf("account missing after gateway failure: %v", err)
	}
	if _, err := st.LatestVerificationByPhone(context.Background(), "+100"); err != nil {
		t.Fatalf("verification missing after gateway failure: %v", err)
	}
}

func TestSubmitCode(t *testing.T) {
	svc, st, gw := newTestService()
	ctx := context.Background()

	user := register(t, svc, "a@x.com", "+100")
	code := gw.sent[0].code

	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}

	// Wrong code: no state change, repeatable without lockout.
	for i := 0; i < 3; i++ {
		if err := svc.SubmitCode(ctx, "+100", wrong); !errors.Is(err, ErrCodeIncorrect) {
			t.Fatalf("expected ErrCodeIncorrect, got %v", err)
		}
	}
	got, _ := st.FindByID(ctx, user.ID)
	if got.IsActive {
		t.Fatal("wrong code must not activate the account")
	}

	if err := svc.SubmitCode(ctx, "+100", code); err != nil {
		t.Fatalf("submit correct code: %v", err)
	}
	got, _ = st.FindByID(ctx, user.ID)
	if !got.IsActive {
		t.Fatal("correct code must activate the account")
	}

	// Re-submission against an active account stays successful.
	if err := svc.SubmitCode(ctx, "+100", code); err != nil {
		t.Fatalf("resubmit after activation: %v", err)
	}
}

func TestSubmitCodeUnknownPhone(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.SubmitCode(context.Background(), "+999", "1234")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitCodeChecksLatestRecord(t *testing.T) {
	svc, st, gw := newTestService()
	ctx := context.Background()

	register(t, svc, "a@x.com", "+100")
	first := gw.sent[0].code

	// A later record for the same phone supersedes the first.
	if err := st.CreateVerification(ctx, &models.SMSVerification{Phone: "+100", Code: "7777"}); err != nil {
		t.Fatalf("create verification: %v", err)
	}

	if first != "7777" {
		if err := svc.SubmitCode(ctx, "+100", first); !errors.Is(err, ErrCodeIncorrect) {
			t.Fatalf("stale code should be rejected, got %v", err)
		}
	}
	if err := svc.SubmitCode(ctx, "+100", "7777"); err != nil {
		t.Fatalf("latest code should activate: %v", err)
	}
}

func TestResendCode(t *testing.T) {
	svc, _, gw := newTestService()
	ctx := context.Background()

	register(t, svc, "a@x.com", "+100")
	code := gw.sent[0].code

	if err := svc.ResendCode(ctx, "+100"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if len(gw.sent) != 2 || gw.sent[1].code != code {
		t.Fatalf("resend must dispatch the stored code, got %+v", gw.sent)
	}

	if err := svc.ResendCode(ctx, "+999"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown phone, got %v", err)
	}
}

func TestResendCodePropagatesGatewayError(t *testing.T) {
	svc, _, gw := newTestService()
	ctx := context.Background()

	register(t, svc, "a@x.com", "+100")
	gw.err = services.ErrGateway

	if err := svc.ResendCode(ctx, "+100"); !errors.Is(err, services.ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestChangeDataReplacesWholesale(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()

	user := register(t, svc, "a@x.com", "+100")

	// Only first name supplied: every other field is cleared, not merged.
	err := svc.ChangeData(ctx, user.ID, DataFields{FirstName: "Iryna"})
	if err != nil {
		t.Fatalf("change data: %v", err)
	}

	got, _ := st.FindByID(ctx, user.ID)
	if got.FirstName != "Iryna" {
		t.Fatalf("first name not updated: %q", got.FirstName)
	}
	if got.LastName != "" || got.Email != "" || got.Phone != "" {
		t.Fatalf("change data must replace, not merge: %+v", got)
	}
}

func TestChangeDelivery(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()

	user := register(t, svc, "a@x.com", "+100")

	full := models.DeliveryAddress{Region: "Kyivska", City: "Kyiv", Street: "Khreshchatyk", House: "1", PostalIndex: "01001"}
	if err := svc.ChangeDelivery(ctx, user.ID, full); err != nil {
		t.Fatalf("change delivery: %v", err)
	}

	if err := svc.ChangeDelivery(ctx, user.ID, models.DeliveryAddress{City: "Lviv"}); err != nil {
		t.Fatalf("change delivery again: %v", err)
	}

	got, _ := st.FindByID(ctx, user.ID)
	if got.Delivery.City != "Lviv" || got.Delivery.Region != "" || got.Delivery.Street != "" {
		t.Fatalf("delivery must be replaced wholesale: %+v", got.Delivery)
	}
}

func TestChangePassword(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()

	user := register(t, svc, "a@x.com", "+100")

	err := svc.ChangePassword(ctx, user.ID, "wrong", "newpass1")
	if !errors.Is(err, ErrPasswordIncorrect) {
		t.Fatalf("expected ErrPasswordIncorrect, got %v", err)
	}
	got, _ := st.FindByID(ctx, user.ID)
	if !utils.CheckPassword(got.PasswordHash, "secret1") {
		t.Fatal("failed change must not mutate the stored hash")
	}

	if err := svc.ChangePassword(ctx, user.ID, "secret1", "newpass1"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	got, _ = st.FindByID(ctx, user.ID)
	if !utils.CheckPassword(got.PasswordHash, "newpass1") {
		t.Fatal("new password not stored")
	}
}
