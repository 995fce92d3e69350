package services

import (
	"fmt"
	"time"

	"eshop/internal/models"
	"eshop/internal/repositories"
)

// BillingService records payments and issues invoices for paid orders.
type BillingService struct {
	payments repositories.PaymentRepository
	invoices repositories.InvoiceRepository
}

// NewBillingService creates a new BillingService.
func NewBillingService(payments repositories.PaymentRepository, invoices repositories.InvoiceRepository) *BillingService {
	return &BillingService{
		payments: payments,
		invoices: invoices,
	}
}

// RecordPayment stores the outcome of a charge, successful or not.
func (s *BillingService) RecordPayment(payment *models.Payment) error {
	if err := s.payments.Create(payment); err != nil {
		return fmt.Errorf("failed to record payment for order %s: %w", payment.OrderID, err)
	}
	return nil
}

// GetPayment returns a stored payment.
func (s *BillingService) GetPayment(id string) (*models.Payment, error) {
	return s.payments.GetByID(id)
}

// IssueInvoice bills every item of order at its snapshot price.
func (s *BillingService) IssueInvoice(order models.Order, at time.Time) (*models.Invoice, error) {
	invoice := &models.Invoice{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Lines:    make([]models.InvoiceLine, 0, len(order.Items)),
		IssuedAt: at,
	}
	for _, item := range order.Items {
		line := models.InvoiceLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.UnitPrice * int64(item.Quantity),
		}
		invoice.Lines = append(invoice.Lines, line)
		invoice.Total += line.LineTotal
	}
	if err := s.invoices.Create(invoice); err != nil {
		return nil, fmt.Errorf("failed to issue invoice for order %s: %w", order.ID, err)
	}
	return invoice, nil
}

// GetInvoice returns a stored invoice.
func (s *BillingService) GetInvoice(id string) (*models.Invoice, error) {
	return s.invoices.GetByID(id)
}
