package repositories

import (
	"sort"
	"sync"
	"time"

	"eshop/internal/apperrors"
	"eshop/internal/models"

	"github.com/google/uuid"
)

// TicketRepository defines the interface for support ticket data access.
type TicketRepository interface {
	Create(ticket *models.SupportTicket) error
	GetByID(id string) (*models.SupportTicket, error)
	ListByUser(userID string) ([]models.SupportTicket, error)
	// Update applies fn to the stored ticket atomically; an error from fn discards the change.
	Update(id string, fn func(ticket *models.SupportTicket) error) (*models.SupportTicket, error)
}

// InMemoryTicketRepository is an in-memory implementation of TicketRepository.
type InMemoryTicketRepository struct {
	tickets map[string]models.SupportTicket
	mu      sync.RWMutex
}

// NewInMemoryTicketRepository creates a new instance of InMemoryTicketRepository.
func NewInMemoryTicketRepository() *InMemoryTicketRepository {
	return &InMemoryTicketRepository{
		tickets: make(map[string]models.SupportTicket),
	}
}

// Create adds a new ticket.
func (r *InMemoryTicketRepository) Create(ticket *models.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

// GetByID returns a ticket by its ID.
func (r *InMemoryTicketRepository) GetByID(id string) (*models.SupportTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.NotFound("ticket", id)
	}
	clone := ticket.Clone()
	return &clone, nil
}

// ListByUser returns the tickets opened by userID, oldest first.
func (r *InMemoryTicketRepository) ListByUser(userID string) ([]models.SupportTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.SupportTicket, 0)
	for _, t := range r.tickets {
		if t.UserID == userID {
			list = append(list, t.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// Update applies fn to a copy of the ticket and stores it when fn succeeds.
// The ticket stays under its stored ID whatever fn does to it.
func (r *InMemoryTicketRepository) Update(id string, fn func(ticket *models.SupportTicket) error) (*models.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.NotFound("ticket", id)
	}
	ticket := stored.Clone()
	if err := fn(&ticket); err != nil {
		return nil, err
	}
	ticket.ID = stored.ID
	r.tickets[stored.ID] = ticket.Clone()
	return &ticket, nil
}
