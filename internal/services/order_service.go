package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/validation"
	"eshop/pkg/card"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultCarrier ships orders when no carrier is named.
const DefaultCarrier = "POSTE"

// EventPublisher delivers order lifecycle events. Delivery is best effort:
// a failed publish never undoes the state change that produced the event.
type EventPublisher interface {
	PublishOrderEvent(event models.OrderEvent) error
}

// OrderRepositories groups the stores the order workflow reads and writes.
type OrderRepositories struct {
	Orders   repositories.OrderRepository
	Products repositories.ProductRepository
	Carts    repositories.CartRepository
	Users    repositories.UserRepository
}

// PaymentReceipt is the result of a successful payment.
type PaymentReceipt struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment"`
	Invoice *models.Invoice `json:"invoice"`
}

// OrderService runs checkout and the order lifecycle. Every transition that
// moves stock happens under mu, so stock checks and reservations cannot interleave.
type OrderService struct {
	mu        sync.Mutex
	orderRepo repositories.OrderRepository
	products  repositories.ProductRepository
	carts     repositories.CartRepository
	users     repositories.UserRepository
	billing   *BillingService
	gateway   PaymentGateway
	publisher EventPublisher // may be nil
	policy    models.CancelPolicy
	validate  *validator.Validate
	now       func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(repos OrderRepositories, billing *BillingService, gateway PaymentGateway, publisher EventPublisher, policy models.CancelPolicy) *OrderService {
	return &OrderService{
		orderRepo: repos.Orders,
		products:  repos.Products,
		carts:     repos.Carts,
		users:     repos.Users,
		billing:   billing,
		gateway:   gateway,
		publisher: publisher,
		policy:    policy,
		validate:  validation.New(),
		now:       time.Now,
	}
}

// SetClock replaces the time source used for timestamps and card expiry.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateOrder turns the user's cart into a CREATED order. Prices are
// snapshotted; stock is checked but not reserved and the cart is kept.
func (s *OrderService) CreateOrder(userID string) (*models.Order, error) {
	cart, err := s.carts.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		product, err := s.availableProduct(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < line.Quantity {
			return nil, apperrors.InsufficientStock(product.ID, line.Quantity, product.Stock)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	now := s.now()
	order := &models.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     items,
		Status:    models.OrderStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.publish(models.OrderCreatedEvent, order)
	return order, nil
}

// GetOrder returns an order owned by userID. Orders of other users are reported as missing.
func (s *OrderService) GetOrder(userID, orderID string) (*models.Order, error) {
	return s.ownedOrder(userID, orderID)
}

// ListOrders returns the user's orders, oldest first.
func (s *OrderService) ListOrders(userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(userID)
}

// GetInvoice returns the invoice of a paid order.
func (s *OrderService) GetInvoice(userID, orderID string) (*models.Invoice, error) {
	order, err := s.ownedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.InvoiceID == "" {
		return nil, apperrors.NotFound("invoice for order", orderID)
	}
	return s.billing.GetInvoice(order.InvoiceID)
}

// ValidateOrder confirms a CREATED order.
func (s *OrderService) ValidateOrder(userID, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.ownedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(order, models.OrderStatusValidated); err != nil {
		return nil, err
	}
	order.Stamp(models.OrderStatusValidated, s.now())
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to validate order %s: %w", orderID, err)
	}
	return order, nil
}

// PayOrder charges the card for a CREATED or VALIDATED order. Stock for every
// line is reserved before the charge and released again if anything after the
// reservation fails, so the call either pays the order or changes nothing.
func (s *OrderService) PayOrder(userID, orderID string, details models.CardDetails) (*PaymentReceipt, error) {
	if err := s.checkCard(details); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.ownedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(order, models.OrderStatusPaid); err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(order.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order owner: %w", err)
	}
	for _, item := range order.Items {
		if _, err := s.availableProduct(item.ProductID); err != nil {
			return nil, err
		}
	}

	lines := order.StockLines()
	if err := s.products.ReserveStock(lines); err != nil {
		return nil, fmt.Errorf("failed to reserve stock for order %s: %w", orderID, err)
	}

	amount := order.Total()
	result, err := s.gateway.Charge(ChargeRequest{Card: details, Amount: amount, IdempotencyKey: order.ID})
	if err != nil {
		s.releaseQuietly(lines)
		return nil, fmt.Errorf("failed to charge card for order %s: %w", orderID, err)
	}

	now := s.now()
	payment := &models.Payment{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		UserID:      order.UserID,
		Amount:      amount,
		Provider:    s.gateway.Name(),
		ProviderRef: result.TransactionID,
		CardLast4:   details.Last4(),
		Succeeded:   result.Approved,
		CreatedAt:   now,
	}
	if !result.Approved {
		s.releaseQuietly(lines)
		if err := s.billing.RecordPayment(payment); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("order %s: %s: %w", orderID, result.FailureReason, apperrors.ErrPaymentDeclined)
	}

	rollback := func(cause error) error {
		s.releaseQuietly(lines)
		if err := s.gateway.Refund(result.TransactionID, amount); err != nil {
			return errors.Join(cause, fmt.Errorf("failed to refund transaction %s: %w", result.TransactionID, err))
		}
		return cause
	}
	if err := s.billing.RecordPayment(payment); err != nil {
		return nil, rollback(err)
	}

	paid := order.Clone()
	paid.PaymentID = payment.ID
	paid.Stamp(models.OrderStatusPaid, now)
	paid.Delivery = &models.Delivery{Address: owner.Address, Status: models.DeliveryPrepared}
	invoice, err := s.billing.IssueInvoice(paid, now)
	if err != nil {
		return nil, rollback(err)
	}
	paid.InvoiceID = invoice.ID
	if err := s.orderRepo.Update(&paid); err != nil {
		return nil, rollback(fmt.Errorf("failed to mark order %s paid: %w", orderID, err))
	}

	// The order is paid even if the cart cannot be emptied.
	_ = s.carts.Clear(paid.UserID)
	s.publish(models.OrderPaidEvent, &paid)

	return &PaymentReceipt{Order: &paid, Payment: payment, Invoice: invoice}, nil
}

// ShipOrder hands a PAID order to carrier and assigns a tracking number.
func (s *OrderService) ShipOrder(orderID, carrier string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(order, models.OrderStatusShipped); err != nil {
		return nil, err
	}
	if strings.TrimSpace(carrier) == "" {
		carrier = DefaultCarrier
	}
	if order.Delivery == nil {
		order.Delivery = &models.Delivery{}
		if owner, err := s.users.GetByID(order.UserID); err == nil {
			order.Delivery.Address = owner.Address
		}
	}
	order.Delivery.Carrier = carrier
	order.Delivery.TrackingNumber = newTrackingNumber()
	order.Delivery.Status = models.DeliveryInTransit
	order.Stamp(models.OrderStatusShipped, s.now())
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to ship order %s: %w", orderID, err)
	}
	s.publish(models.OrderShippedEvent, order)
	return order, nil
}

// DeliverOrder marks a SHIPPED order as delivered.
func (s *OrderService) DeliverOrder(orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(order, models.OrderStatusDelivered); err != nil {
		return nil, err
	}
	if order.Delivery != nil {
		order.Delivery.Status = models.DeliveryDelivered
	}
	order.Stamp(models.OrderStatusDelivered, s.now())
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to deliver order %s: %w", orderID, err)
	}
	s.publish(models.OrderDeliveredEvent, order)
	return order, nil
}

// CancelOrder cancels an order of userID if the cancel policy allows it at
// its current status. Paid orders are refunded and their stock restored.
func (s *OrderService) CancelOrder(userID, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.ownedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allows(order.Status) {
		return nil, fmt.Errorf("cannot cancel order %s in status %s: %w", orderID, order.Status, apperrors.ErrInvalidTransition)
	}
	if err := s.unwind(order, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	s.publish(models.OrderCancelledEvent, order)
	return order, nil
}

// RefundOrder refunds a PAID order that will not ship and restores its stock.
func (s *OrderService) RefundOrder(orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(order, models.OrderStatusRefunded); err != nil {
		return nil, err
	}
	if err := s.unwind(order, models.OrderStatusRefunded); err != nil {
		return nil, err
	}
	s.publish(models.OrderRefundedEvent, order)
	return order, nil
}

// unwind moves order to a terminal status, giving back the reserved stock
// and refunding the charge when the order holds any. The refund goes last:
// if it fails, the order and its stock are put back as they were. Callers
// hold mu.
func (s *OrderService) unwind(order *models.Order, status models.OrderStatus) error {
	heldStock := order.Status.HoldsStock()
	var payment *models.Payment
	if heldStock && order.PaymentID != "" {
		p, err := s.billing.GetPayment(order.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment of order %s: %w", order.ID, err)
		}
		payment = p
	}

	lines := order.StockLines()
	if heldStock {
		if err := s.products.ReleaseStock(lines); err != nil {
			return fmt.Errorf("failed to restore stock of order %s: %w", order.ID, err)
		}
	}
	previous := order.Clone()
	order.Stamp(status, s.now())
	if err := s.orderRepo.Update(order); err != nil {
		if heldStock {
			_ = s.products.ReserveStock(lines)
		}
		*order = previous
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	if payment == nil {
		return nil
	}

	if err := s.gateway.Refund(payment.ProviderRef, payment.Amount); err != nil {
		errs := []error{fmt.Errorf("failed to refund order %s: %w", order.ID, err)}
		restore := previous.Clone()
		if err := s.orderRepo.Update(&restore); err != nil {
			errs = append(errs, fmt.Errorf("failed to restore order %s: %w", order.ID, err))
		}
		if err := s.products.ReserveStock(lines); err != nil {
			errs = append(errs, fmt.Errorf("failed to take back stock of order %s: %w", order.ID, err))
		}
		*order = previous
		return errors.Join(errs...)
	}
	return nil
}

func (s *OrderService) checkCard(details models.CardDetails) error {
	if err := validation.Struct(s.validate, details); err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			return verr.WithKind(apperrors.ErrInvalidCard)
		}
		return err
	}
	if card.Expired(details.ExpMonth, details.ExpYear, s.now()) {
		return apperrors.FieldError("exp_year", "card has expired").WithKind(apperrors.ErrInvalidCard)
	}
	return nil
}

func (s *OrderService) ownedOrder(userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", orderID)
	}
	return order, nil
}

// availableProduct treats inactive products as missing.
func (s *OrderService) availableProduct(productID string) (*models.Product, error) {
	product, err := s.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, apperrors.NotFound("product", productID)
	}
	return product, nil
}

func (s *OrderService) releaseQuietly(lines []models.StockLine) {
	_ = s.products.ReleaseStock(lines)
}

func (s *OrderService) publish(t models.OrderEventType, order *models.Order) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.PublishOrderEvent(models.NewOrderEvent(t, *order))
}

func checkTransition(order *models.Order, next models.OrderStatus) error {
	if !order.Status.CanTransitionTo(next) {
		return fmt.Errorf("order %s cannot go from %s to %s: %w", order.ID, order.Status, next, apperrors.ErrInvalidTransition)
	}
	return nil
}

// newTrackingNumber returns "TRK-" followed by ten upper-case hex digits.
func newTrackingNumber() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TRK-" + strings.ToUpper(hex[:10])
}
