package handlers

import (
	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AdminHandler exposes back-office operations: fulfilment, refunds and
// support replies.
type AdminHandler struct {
	orders  *services.OrderService
	support *services.SupportService
	log     zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(orders *services.OrderService, support *services.SupportService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{orders: orders, support: support, log: log}
}

// RegisterRoutes registers the admin routes behind requireAdmin.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, requireAdmin fiber.Handler) {
	adminRoutes := router.Group("/admin", requireAdmin)
	adminRoutes.Post("/orders/:id/ship", h.HandleShipOrder)
	adminRoutes.Post("/orders/:id/deliver", h.HandleDeliverOrder)
	adminRoutes.Post("/orders/:id/refund", h.HandleRefundOrder)
	adminRoutes.Post("/support/tickets/:id/messages", h.HandleReply)
}

// ShipRequest is the optional body of a ship call.
type ShipRequest struct {
	Carrier string `json:"carrier"`
}

// HandleShipOrder hands a paid order to the carrier.
func (h *AdminHandler) HandleShipOrder(c *fiber.Ctx) error {
	var req ShipRequest
	if len(c.Body()) > 0 {
		if err := bind(c, nil, &req); err != nil {
			return respondError(c, h.log, err)
		}
	}
	order, err := h.orders.ShipOrder(param(c, "id"), req.Carrier)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("order_id", order.ID).Str("tracking", order.Delivery.TrackingNumber).Msg("order shipped")
	return c.JSON(order)
}

// HandleDeliverOrder marks a shipped order delivered.
func (h *AdminHandler) HandleDeliverOrder(c *fiber.Ctx) error {
	order, err := h.orders.DeliverOrder(param(c, "id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(order)
}

// HandleRefundOrder refunds a paid order and returns its stock.
func (h *AdminHandler) HandleRefundOrder(c *fiber.Ctx) error {
	order, err := h.orders.RefundOrder(param(c, "id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("order_id", order.ID).Msg("order refunded")
	return c.JSON(order)
}

// HandleReply appends a support agent message to any ticket.
func (h *AdminHandler) HandleReply(c *fiber.Ctx) error {
	var req MessageRequest
	if err := bind(c, nil, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ticket, err := h.support.AddMessage(param(c, "id"), models.AgentSender(), req.Body)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}
