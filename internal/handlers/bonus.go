package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/kvitka/internal/bonus"
	"github.com/example/kvitka/internal/middleware"
	"github.com/example/kvitka/internal/store"
)

// BonusHandler exposes the bonus-points lifecycle for the authenticated user.
type BonusHandler struct {
	bonus *bonus.Service
}

// NewBonusHandler constructs BonusHandler.
func NewBonusHandler(bonusSvc *bonus.Service) *BonusHandler {
	return &BonusHandler{bonus: bonusSvc}
}

type recordPendingRequest struct {
	EntryID string `json:"entry_id"`
	Amount  int64  `json:"amount"`
}

// RecordPending registers a pending bonus credit for an order.
func (h *BonusHandler) RecordPending(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req recordPendingRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.EntryID == "" {
		return fail(c, fiber.StatusBadRequest, "entry id is required")
	}
	if req.Amount < 0 {
		return fail(c, fiber.StatusBadRequest, "amount must not be negative")
	}

	if err := h.bonus.RecordPending(c.Context(), userID, req.EntryID, req.Amount); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fail(c, fiber.StatusNotFound, "not found")
		case errors.Is(err, bonus.ErrConflict):
			return fail(c, fiber.StatusConflict, "duplicate entry")
		}
		return err
	}

	return envelope(c, fiber.StatusCreated, "created", fiber.Map{"entry_id": req.EntryID})
}

type activateBonusRequest struct {
	EntryID string `json:"entry_id"`
}

// Activate moves a pending entry into the bonus history and credits its
// amount to the score.
func (h *BonusHandler) Activate(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req activateBonusRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.bonus.Activate(c.Context(), userID, req.EntryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "not found")
		}
		return err
	}

	return envelope(c, fiber.StatusOK, "activated", fiber.Map{"entry_id": req.EntryID})
}
