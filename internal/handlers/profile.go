package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/kvitka/internal/accounts"
	"github.com/example/kvitka/internal/middleware"
	"github.com/example/kvitka/internal/models"
	"github.com/example/kvitka/internal/store"
)

// ProfileHandler manages profile mutation endpoints. The target account is
// always the authenticated one, so ownership is enforced by the token.
type ProfileHandler struct {
	accounts *accounts.Service
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(accountsSvc *accounts.Service) *ProfileHandler {
	return &ProfileHandler{accounts: accountsSvc}
}

type changeDataRequest struct {
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Birthday     string   `json:"birthday"`
	OrderHistory []string `json:"order_history"`
}

// ChangeData replaces the personal-data sub-record wholesale. Fields omitted
// from the request body are cleared.
func (h *ProfileHandler) ChangeData(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req changeDataRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	err := h.accounts.ChangeData(c.Context(), userID, accounts.DataFields{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Birthday:     req.Birthday,
		OrderHistory: req.OrderHistory,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "not found")
		}
		return err
	}

	return envelope(c, fiber.StatusOK, "updated", nil)
}

type changeDeliveryRequest struct {
	Region string `json:"region"`
	City   string `json:"city"`
	Street string `json:"street"`
	House  string `json:"house"`
	Index  string `json:"index"`
}

// ChangeDelivery replaces the delivery address wholesale.
func (h *ProfileHandler) ChangeDelivery(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req changeDeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	err := h.accounts.ChangeDelivery(c.Context(), userID, models.DeliveryAddress{
		Region:      req.Region,
		City:        req.City,
		Street:      req.Street,
		House:       req.House,
		PostalIndex: req.Index,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "not found")
		}
		return err
	}

	return envelope(c, fiber.StatusOK, "updated", nil)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword verifies the current password and stores the new one.
func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.NewPassword == "" {
		return fail(c, fiber.StatusBadRequest, "new password is required")
	}

	err := h.accounts.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fail(c, fiber.StatusNotFound, "not found")
		case errors.Is(err, accounts.ErrPasswordIncorrect):
			return fail(c, fiber.StatusUnauthorized, "password incorrect")
		}
		return err
	}

	return envelope(c, fiber.StatusOK, "updated", nil)
}
