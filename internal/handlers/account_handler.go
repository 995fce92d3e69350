package handlers

import (
	"eshop/internal/middleware"
	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AccountHandler lets a signed-in user read and edit their account.
type AccountHandler struct {
	service *services.AccountService
	log     zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service *services.AccountService, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{service: service, log: log}
}

// RegisterRoutes registers the account routes. All of them go through requireAuth.
func (h *AccountHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	accountRoutes := router.Group("/account", requireAuth)
	accountRoutes.Get("/", h.HandleGetAccount)
	accountRoutes.Patch("/", h.HandleUpdateProfile)
	accountRoutes.Put("/email", h.HandleChangeEmail)
	accountRoutes.Put("/password", h.HandleChangePassword)
}

// HandleGetAccount returns the current user.
func (h *AccountHandler) HandleGetAccount(c *fiber.Ctx) error {
	user, err := h.service.GetProfile(middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(user)
}

// HandleUpdateProfile replaces names and address.
func (h *AccountHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var profile models.Profile
	if err := bind(c, nil, &profile); err != nil {
		return respondError(c, h.log, err)
	}
	user, err := h.service.UpdateProfile(middleware.UserID(c), profile)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(user)
}

// HandleChangeEmail moves the account to a new email address.
func (h *AccountHandler) HandleChangeEmail(c *fiber.Ctx) error {
	var change models.EmailChange
	if err := bind(c, nil, &change); err != nil {
		return respondError(c, h.log, err)
	}
	user, err := h.service.ChangeEmail(middleware.UserID(c), change)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(user)
}

// HandleChangePassword replaces the password.
func (h *AccountHandler) HandleChangePassword(c *fiber.Ctx) error {
	var change models.PasswordChange
	if err := bind(c, nil, &change); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.service.ChangePassword(middleware.UserID(c), change); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}
