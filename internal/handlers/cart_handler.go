package handlers

import (
	"eshop/internal/middleware"
	"eshop/internal/models"
	"eshop/internal/services"
	"eshop/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// CartHandler serves the signed-in user's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
	log      zerolog.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, log zerolog.Logger) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validation.New(),
		log:      log,
	}
}

// RegisterRoutes registers the cart routes. All of them go through requireAuth.
func (h *CartHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	cartRoutes := router.Group("/cart", requireAuth)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
}

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// HandleGetCart returns the cart priced at current prices.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	return h.respondCart(c, fiber.StatusOK)
}

// HandleAddItem adds units of a product to the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if _, err := h.service.AddItem(middleware.UserID(c), req.ProductID, req.Quantity); err != nil {
		return respondError(c, h.log, err)
	}
	return h.respondCart(c, fiber.StatusCreated)
}

// HandleRemoveItem removes ?quantity= units, or the whole line without a quantity.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	qty := c.QueryInt("quantity", 0)
	if _, err := h.service.RemoveItem(middleware.UserID(c), param(c, "productId"), qty); err != nil {
		return respondError(c, h.log, err)
	}
	return h.respondCart(c, fiber.StatusOK)
}

func (h *CartHandler) respondCart(c *fiber.Ctx, status int) error {
	view, err := h.service.GetCart(middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"items":       view.Items,
		"item_count":  view.ItemCount,
		"total_cents": view.Total,
		"total":       models.FormatCents(view.Total),
	})
}
