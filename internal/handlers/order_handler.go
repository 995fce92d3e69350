package handlers

import (
	"eshop/internal/middleware"
	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// OrderHandler handles the customer side of the order lifecycle.
type OrderHandler struct {
	orderService *services.OrderService
	log          zerolog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// RegisterRoutes registers the order routes. All of them go through requireAuth.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	orderRoutes := router.Group("/orders", requireAuth)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Get("/:id/invoice", h.HandleGetInvoice)
	orderRoutes.Post("/:id/validate", h.HandleValidateOrder)
	orderRoutes.Post("/:id/pay", h.HandlePayOrder)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
}

// HandleCreateOrder turns the cart into a new order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	order, err := h.orderService.CreateOrder(middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleListOrders lists the user's orders.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.orderService.ListOrders(middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(orders)
}

// HandleGetOrder returns one of the user's orders.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.orderService.GetOrder(middleware.UserID(c), param(c, "id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(order)
}

// HandleGetInvoice returns the invoice of a paid order.
func (h *OrderHandler) HandleGetInvoice(c *fiber.Ctx) error {
	invoice, err := h.orderService.GetInvoice(middleware.UserID(c), param(c, "id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"invoice": invoice,
		"total":   models.FormatCents(invoice.Total),
	})
}

// HandleValidateOrder confirms the order contents.
func (h *OrderHandler) HandleValidateOrder(c *fiber.Ctx) error {
	order, err := h.orderService.ValidateOrder(middleware.UserID(c), param(c, "id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(order)
}

// HandlePayOrder charges the card in the body and reserves stock.
func (h *OrderHandler) HandlePayOrder(c *fiber.Ctx) error {
	var card models.CardDetails
	if err := bind(c, nil, &card); err != nil {
		return respondError(c, h.log, err)
	}

	receipt, err := h.orderService.PayOrder(middleware.UserID(c), param(c, "id"), card)
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info().
		Str("order_id", receipt.Order.ID).
		Str("payment_id", receipt.Payment.ID).
		Msg("order paid")
	return c.JSON(receipt)
}

// HandleCancelOrder cancels the order if the cancellation policy allows it.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.orderService.CancelOrder(middleware.UserID(c), param(c, "id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(order)
}
