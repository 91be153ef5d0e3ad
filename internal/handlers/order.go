package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/kvitka/internal/middleware"
	"github.com/example/kvitka/internal/orders"
	"github.com/example/kvitka/internal/services"
	"github.com/example/kvitka/internal/store"
)

// OrderHandler forwards orders to the remote order system on behalf of the
// authenticated user.
type OrderHandler struct {
	orders *orders.Service
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(ordersSvc *orders.Service) *OrderHandler {
	return &OrderHandler{orders: ordersSvc}
}

type createOrderRequest struct {
	ID            string                  `json:"id"`
	Status        string                  `json:"statusOrder"`
	City          string                  `json:"city"`
	Delivery      string                  `json:"delivery"`
	Address       string                  `json:"address"`
	PaymentSelect string                  `json:"paymentSelect"`
	DateSend      string                  `json:"dateSend"`
	DateCreate    string                  `json:"dateCreate"`
	Products      []services.OrderProduct `json:"products"`
}

// CreateOrder records the order against the remote system and the user's
// order history. Rejected orders answer 400; accepted ones 200 with status
// "loading".
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.ID == "" {
		return fail(c, fiber.StatusBadRequest, "order id is required")
	}

	status, err := h.orders.Create(c.Context(), userID, services.OrderPayload{
		ID:            req.ID,
		Status:        req.Status,
		City:          req.City,
		Delivery:      req.Delivery,
		Address:       req.Address,
		PaymentSelect: req.PaymentSelect,
		DateSend:      req.DateSend,
		DateCreate:    req.DateCreate,
		Products:      req.Products,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "not found")
		}
		return err
	}

	if status == orders.StatusRejected {
		return fail(c, fiber.StatusBadRequest, orders.StatusRejected)
	}
	return envelope(c, fiber.StatusOK, status, fiber.Map{"order_id": req.ID})
}
