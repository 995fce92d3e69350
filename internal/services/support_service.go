package services

import (
	"fmt"
	"strings"
	"time"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/repositories"

	"github.com/google/uuid"
)

const (
	maxSubjectLength = 120
	maxMessageLength = 2000
)

// SupportService manages customer support tickets.
type SupportService struct {
	tickets repositories.TicketRepository
	orders  repositories.OrderRepository
	now     func() time.Time
}

// NewSupportService creates a new SupportService.
func NewSupportService(tickets repositories.TicketRepository, orders repositories.OrderRepository) *SupportService {
	return &SupportService{
		tickets: tickets,
		orders:  orders,
		now:     time.Now,
	}
}

// OpenTicket starts a thread owned by userID with a first message.
// orderID is optional but must name one of the user's orders.
func (s *SupportService) OpenTicket(userID, subject, body, orderID string) (*models.SupportTicket, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	orderID = strings.TrimSpace(orderID)

	fields := map[string]string{}
	if subject == "" {
		fields["subject"] = "is required"
	} else if len(subject) > maxSubjectLength {
		fields["subject"] = fmt.Sprintf("must be at most %d characters", maxSubjectLength)
	}
	if reason := checkMessageBody(body); reason != "" {
		fields["body"] = reason
	}
	if len(fields) > 0 {
		return nil, &apperrors.ValidationError{Message: "invalid ticket", Fields: fields}
	}
	if orderID != "" {
		order, err := s.orders.GetByID(orderID)
		if err != nil {
			return nil, err
		}
		if order.UserID != userID {
			return nil, apperrors.NotFound("order", orderID)
		}
	}

	now := s.now()
	ticket := &models.SupportTicket{
		ID:      uuid.New().String(),
		UserID:  userID,
		OrderID: orderID,
		Subject: subject,
		Messages: []models.TicketMessage{{
			ID:        uuid.New().String(),
			Sender:    models.CustomerSender(userID),
			Body:      body,
			CreatedAt: now,
		}},
		Status:    models.TicketOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tickets.Create(ticket); err != nil {
		return nil, fmt.Errorf("failed to open ticket: %w", err)
	}
	return ticket, nil
}

// AddMessage appends body to an open ticket. Customers may only write to
// their own tickets; agents may write to any.
func (s *SupportService) AddMessage(ticketID string, sender models.Sender, body string) (*models.SupportTicket, error) {
	body = strings.TrimSpace(body)
	if reason := checkMessageBody(body); reason != "" {
		return nil, apperrors.FieldError("body", reason)
	}
	return s.tickets.Update(ticketID, func(ticket *models.SupportTicket) error {
		if !sender.Agent && sender.UserID != ticket.UserID {
			return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrUnauthorized)
		}
		if ticket.Status == models.TicketClosed {
			return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrTicketClosed)
		}
		now := s.now()
		ticket.Messages = append(ticket.Messages, models.TicketMessage{
			ID:        uuid.New().String(),
			Sender:    sender,
			Body:      body,
			CreatedAt: now,
		})
		ticket.UpdatedAt = now
		return nil
	})
}

// CloseTicket closes a ticket of userID. Closing a closed ticket is a no-op.
func (s *SupportService) CloseTicket(userID, ticketID string) (*models.SupportTicket, error) {
	return s.tickets.Update(ticketID, func(ticket *models.SupportTicket) error {
		if ticket.UserID != userID {
			return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrUnauthorized)
		}
		if ticket.Status != models.TicketClosed {
			ticket.Status = models.TicketClosed
			ticket.UpdatedAt = s.now()
		}
		return nil
	})
}

// ListTickets returns the tickets opened by userID, oldest first.
func (s *SupportService) ListTickets(userID string) ([]models.SupportTicket, error) {
	return s.tickets.ListByUser(userID)
}

// GetTicket returns a ticket of userID.
func (s *SupportService) GetTicket(userID, ticketID string) (*models.SupportTicket, error) {
	ticket, err := s.tickets.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrUnauthorized)
	}
	return ticket, nil
}

func checkMessageBody(body string) string {
	switch {
	case body == "":
		return "is required"
	case len(body) > maxMessageLength:
		return fmt.Sprintf("must be at most %d characters", maxMessageLength)
	}
	return ""
}
