package repositories

import (
	"sync"

	"eshop/internal/apperrors"
	"eshop/internal/models"

	"github.com/google/uuid"
)

// PaymentRepository stores payment outcomes.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id string) (*models.Payment, error)
}

// InvoiceRepository stores issued invoices.
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(id string) (*models.Invoice, error)
}

// InMemoryPaymentRepository is an in-memory implementation of PaymentRepository.
type InMemoryPaymentRepository struct {
	payments map[string]models.Payment
	mu       sync.RWMutex
}

// NewInMemoryPaymentRepository creates a new instance of InMemoryPaymentRepository.
func NewInMemoryPaymentRepository() *InMemoryPaymentRepository {
	return &InMemoryPaymentRepository{payments: make(map[string]models.Payment)}
}

// Create adds a payment record.
func (r *InMemoryPaymentRepository) Create(payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	r.payments[payment.ID] = *payment
	return nil
}

// GetByID returns a payment by its ID.
func (r *InMemoryPaymentRepository) GetByID(id string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, apperrors.NotFound("payment", id)
	}
	return &p, nil
}

// InMemoryInvoiceRepository is an in-memory implementation of InvoiceRepository.
type InMemoryInvoiceRepository struct {
	invoices map[string]models.Invoice
	mu       sync.RWMutex
}

// NewInMemoryInvoiceRepository creates a new instance of InMemoryInvoiceRepository.
func NewInMemoryInvoiceRepository() *InMemoryInvoiceRepository {
	return &InMemoryInvoiceRepository{invoices: make(map[string]models.Invoice)}
}

// Create adds an invoice.
func (r *InMemoryInvoiceRepository) Create(invoice *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	stored := *invoice
	stored.Lines = append([]models.InvoiceLine(nil), invoice.Lines...)
	r.invoices[invoice.ID] = stored
	return nil
}

// GetByID returns an invoice by its ID.
func (r *InMemoryInvoiceRepository) GetByID(id string) (*models.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, apperrors.NotFound("invoice", id)
	}
	inv.Lines = append([]models.InvoiceLine(nil), inv.Lines...)
	return &inv, nil
}
