package handlers

import (
	"eshop/internal/middleware"
	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// SupportHandler serves customer support tickets.
type SupportHandler struct {
	service *services.SupportService
	log     zerolog.Logger
}

// NewSupportHandler creates a new SupportHandler.
func NewSupportHandler(service *services.SupportService, log zerolog.Logger) *SupportHandler {
	return &SupportHandler{service: service, log: log}
}

// RegisterRoutes registers the ticket routes. All of them go through requireAuth.
func (h *SupportHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	ticketRoutes := router.Group("/support/tickets", requireAuth)
	ticketRoutes.Get("/", h.HandleListTickets)
	ticketRoutes.Post("/", h.HandleOpenTicket)
	ticketRoutes.Get("/:id", h.HandleGetTicket)
	ticketRoutes.Post("/:id/messages", h.HandleAddMessage)
	ticketRoutes.Post("/:id/close", h.HandleCloseTicket)
}

// OpenTicketRequest is the body of POST /support/tickets.
type OpenTicketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	OrderID string `json:"order_id"`
}

// MessageRequest is the body of a ticket reply.
type MessageRequest struct {
	Body string `json:"body"`
}

// HandleListTickets lists the user's tickets.
func (h *SupportHandler) HandleListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListTickets(middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(tickets)
}

// HandleOpenTicket opens a ticket with its first message.
func (h *SupportHandler) HandleOpenTicket(c *fiber.Ctx) error {
	var req OpenTicketRequest
	if err := bind(c, nil, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ticket, err := h.service.OpenTicket(middleware.UserID(c), req.Subject, req.Body, req.OrderID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// HandleGetTicket returns one ticket with its thread.
func (h *SupportHandler) HandleGetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(middleware.UserID(c), param(c, "id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(ticket)
}

// HandleAddMessage appends a customer message.
func (h *SupportHandler) HandleAddMessage(c *fiber.Ctx) error {
	var req MessageRequest
	if err := bind(c, nil, &req); err != nil {
		return respondError(c, h.log, err)
	}
	sender := models.CustomerSender(middleware.UserID(c))
	ticket, err := h.service.AddMessage(param(c, "id"), sender, req.Body)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// HandleCloseTicket closes the ticket.
func (h *SupportHandler) HandleCloseTicket(c *fiber.Ctx) error {
	ticket, err := h.service.CloseTicket(middleware.UserID(c), param(c, "id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(ticket)
}
