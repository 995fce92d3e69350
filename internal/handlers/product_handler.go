package handlers

import (
	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ProductResponse is a product with its price rendered for display.
type ProductResponse struct {
	models.Product
	PriceDisplay string `json:"price"`
}

func newProductResponses(products []models.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = ProductResponse{Product: p, PriceDisplay: models.FormatCents(p.Price)}
	}
	return out
}

// ProductHandler serves the public catalog.
type ProductHandler struct {
	service *services.ProductService
	log     zerolog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/search", h.HandleSearchProducts)
	productRoutes.Get("/category/:category", h.HandleGetProductsByCategory)
	productRoutes.Get("/:id", h.HandleGetProductByID)
}

// HandleGetProducts lists the active catalog.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(newProductResponses(products))
}

// HandleSearchProducts matches ?q= against names and descriptions.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	products, err := h.service.SearchProducts(c.Query("q"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(newProductResponses(products))
}

// HandleGetProductsByCategory lists one category.
func (h *ProductHandler) HandleGetProductsByCategory(c *fiber.Ctx) error {
	products, err := h.service.ProductsByCategory(param(c, "category"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(newProductResponses(products))
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(param(c, "id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(ProductResponse{Product: *product, PriceDisplay: models.FormatCents(product.Price)})
}
