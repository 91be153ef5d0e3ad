package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/kvitka/internal/accounts"
	"github.com/example/kvitka/internal/auth"
	"github.com/example/kvitka/internal/services"
	"github.com/example/kvitka/internal/store"
)

// AuthHandler bundles dependencies for registration and authentication
// endpoints.
type AuthHandler struct {
	accounts *accounts.Service
	auth     *auth.Service
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accountsSvc *accounts.Service, authSvc *auth.Service) *AuthHandler {
	return &AuthHandler{accounts: accountsSvc, auth: authSvc}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Birthday  string `json:"birthday"`
}

// Register creates a new inactive account and triggers SMS verification.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Phone == "" || req.Password == "" || req.FirstName == "" {
		return fail(c, fiber.StatusBadRequest, "missing required fields")
	}

	user, err := h.accounts.Register(c.Context(), accounts.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Birthday:  req.Birthday,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrAlreadyExists) {
			return fail(c, fiber.StatusConflict, "already exists")
		}
		return err
	}

	return envelope(c, fiber.StatusCreated, "created", fiber.Map{
		"user": fiber.Map{
			"id":         user.ID,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"email":      user.Email,
			"phone":      user.Phone,
		},
	})
}

type acceptPhoneRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// AcceptPhone validates the submitted SMS code and activates the account.
func (h *AuthHandler) AcceptPhone(c *fiber.Ctx) error {
	var req acceptPhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.accounts.SubmitCode(c.Context(), req.Phone, req.Code); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fail(c, fiber.StatusNotFound, "not found")
		case errors.Is(err, accounts.ErrCodeIncorrect):
			return fail(c, fiber.StatusUnauthorized, "code incorrect")
		}
		return err
	}

	return envelope(c, fiber.StatusOK, "activated", nil)
}

type resendCodeRequest struct {
	Phone string `json:"phone"`
}

// ResendCode re-dispatches the stored verification code via the SMS gateway.
func (h *AuthHandler) ResendCode(c *fiber.Ctx) error {
	var req resendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.accounts.ResendCode(c.Context(), req.Phone); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fail(c, fiber.StatusNotFound, "not found")
		case errors.Is(err, services.ErrGateway):
			return fail(c, fiber.StatusBadRequest, "gateway error")
		}
		return err
	}

	return envelope(c, fiber.StatusOK, "sent", nil)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login authenticates by email or phone and returns a signed token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.auth.Login(c.Context(), req.Login, req.Password)
	if err != nil {
		var notActive *auth.NotActiveError
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fail(c, fiber.StatusNotFound, "not found")
		case errors.Is(err, auth.ErrPasswordIncorrect):
			return fail(c, fiber.StatusUnauthorized, "password incorrect")
		case errors.As(err, &notActive):
			return envelope(c, fiber.StatusForbidden, "account not active", fiber.Map{
				"phone": notActive.Phone,
			})
		}
		return err
	}

	return envelope(c, fiber.StatusOK, "ok", fiber.Map{"token": token})
}

type verifyRequest struct {
	Token string `json:"token"`
}

// Verify validates a token and returns the account it identifies.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.auth.Verify(c.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenIncorrect) {
			return fail(c, fiber.StatusUnauthorized, "token incorrect")
		}
		return err
	}

	return envelope(c, fiber.StatusOK, "ok", fiber.Map{"user": user})
}
