package services_test

import (
	"errors"
	"testing"
	"time"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishOrderEvent(event models.OrderEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockPaymentGateway is a mock implementation of services.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Name() string {
	return "mock"
}

func (m *MockPaymentGateway) Charge(req services.ChargeRequest) (services.ChargeResult, error) {
	args := m.Called(req)
	return args.Get(0).(services.ChargeResult), args.Error(1)
}

func (m *MockPaymentGateway) Refund(transactionID string, amount int64) error {
	args := m.Called(transactionID, amount)
	return args.Error(0)
}

var (
	fixedNow     = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)
	validCard    = models.CardDetails{Number: "4532015112830366", ExpMonth: 12, ExpYear: 2030, CVC: "123"}
	declinedCard = models.CardDetails{Number: "4000000000020000", ExpMonth: 12, ExpYear: 2030, CVC: "123"}
)

type orderFixture struct {
	service   *services.OrderService
	products  *repositories.InMemoryProductRepository
	carts     *repositories.InMemoryCartRepository
	orders    *repositories.InMemoryOrderRepository
	billing   *services.BillingService
	publisher *MockEventPublisher
	users     *repositories.InMemoryUserRepository
	gateway   services.PaymentGateway
	policy    models.CancelPolicy
}

func newOrderFixture(t *testing.T, cutoff models.OrderStatus, gateway services.PaymentGateway) *orderFixture {
	t.Helper()
	f := &orderFixture{
		products:  repositories.NewInMemoryProductRepository(),
		carts:     repositories.NewInMemoryCartRepository(),
		orders:    repositories.NewInMemoryOrderRepository(),
		publisher: new(MockEventPublisher),
	}
	users := repositories.NewInMemoryUserRepository()
	f.users = users
	for _, u := range []models.User{
		{ID: "u1", Email: "alice@shop.test", Address: "12 Rue des Fleurs"},
		{ID: "u2", Email: "bob@shop.test", Address: "3 Avenue Foch"},
	} {
		u := u
		require.NoError(t, users.Create(&u))
	}
	for _, p := range []models.Product{
		{ID: "P1", Name: "Basket Homme Noir", Category: models.CategoryHomme, Price: 8999, Stock: 5, Active: true},
		{ID: "P2", Name: "Basket Femme Rose", Category: models.CategoryFemme, Price: 8499, Stock: 1, Active: true},
	} {
		p := p
		require.NoError(t, f.products.Create(&p))
	}
	f.publisher.On("PublishOrderEvent", mock.Anything).Return(nil)

	policy, err := models.NewCancelPolicy(cutoff)
	require.NoError(t, err)
	if gateway == nil {
		gateway = services.NewSimulatedGateway()
	}
	f.gateway = gateway
	f.policy = policy
	f.billing = services.NewBillingService(repositories.NewInMemoryPaymentRepository(), repositories.NewInMemoryInvoiceRepository())
	f.rewire(f.orders, f.products)
	return f
}

// rewire rebuilds the service on top of the given order and product stores,
// keeping the fixture's data.
func (f *orderFixture) rewire(orders repositories.OrderRepository, products repositories.ProductRepository) {
	f.service = services.NewOrderService(services.OrderRepositories{
		Orders:   orders,
		Products: products,
		Carts:    f.carts,
		Users:    f.users,
	}, f.billing, f.gateway, f.publisher, f.policy)
	f.service.SetClock(func() time.Time { return fixedNow })
}

// brokenOrderStore fails Update for orders moving to failStatus.
type brokenOrderStore struct {
	*repositories.InMemoryOrderRepository
	failStatus models.OrderStatus
}

func (r *brokenOrderStore) Update(order *models.Order) error {
	if order.Status == r.failStatus {
		return errors.New("disk full")
	}
	return r.InMemoryOrderRepository.Update(order)
}

// brokenStockStore fails ReleaseStock.
type brokenStockStore struct {
	*repositories.InMemoryProductRepository
}

func (r *brokenStockStore) ReleaseStock([]models.StockLine) error {
	return errors.New("stock service unavailable")
}

func (f *orderFixture) fillCart(t *testing.T, userID string, lines ...models.CartLine) {
	t.Helper()
	_, err := f.carts.Update(userID, func(c *models.Cart) error {
		for _, l := range lines {
			c.Add(l.ProductID, l.Quantity)
		}
		return nil
	})
	require.NoError(t, err)
}

func (f *orderFixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.products.GetByID(productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *orderFixture) publishedTypes() []models.OrderEventType {
	var types []models.OrderEventType
	for _, call := range f.publisher.Calls {
		types = append(types, call.Arguments.Get(0).(models.OrderEvent).Type)
	}
	return types
}

func TestOrderService_PayThenCancelRestoresStock(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 3})

	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, order.Status)
	assert.Equal(t, 5, f.stock(t, "P1"), "checkout does not reserve stock")

	receipt, err := f.service.PayOrder("u1", order.ID, validCard)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, receipt.Order.Status)
	assert.Equal(t, 2, f.stock(t, "P1"))
	assert.Equal(t, int64(3*8999), receipt.Payment.Amount)
	assert.Equal(t, "0366", receipt.Payment.CardLast4)
	assert.Equal(t, int64(3*8999), receipt.Invoice.Total)
	require.NotNil(t, receipt.Order.PaidAt)
	assert.Equal(t, fixedNow, *receipt.Order.PaidAt)

	cart, err := f.carts.Get("u1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty(), "successful payment clears the cart")

	cancelled, err := f.service.CancelOrder("u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, f.stock(t, "P1"))

	assert.Equal(t, []models.OrderEventType{
		models.OrderCreatedEvent, models.OrderPaidEvent, models.OrderCancelledEvent,
	}, f.publishedTypes())
}

func TestOrderService_PayIsAllOrNothing(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 2}, models.CartLine{ProductID: "P2", Quantity: 1})

	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)

	// Someone else buys the last P2 between checkout and payment.
	require.NoError(t, f.products.ReserveStock([]models.StockLine{{ProductID: "P2", Quantity: 1}}))

	_, err = f.service.PayOrder("u1", order.ID, validCard)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
	assert.Equal(t, 5, f.stock(t, "P1"), "no line is decremented when one oversells")

	stored, err := f.service.GetOrder("u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, stored.Status)

	cart, err := f.carts.Get("u1")
	require.NoError(t, err)
	assert.False(t, cart.IsEmpty())
}

func TestOrderService_RepayingPaidOrderFails(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 1})

	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)
	_, err = f.service.PayOrder("u1", order.ID, validCard)
	require.NoError(t, err)

	_, err = f.service.PayOrder("u1", order.ID, validCard)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	assert.Equal(t, 4, f.stock(t, "P1"))
}

func TestOrderService_DeclinedPaymentReleasesStock(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 2})

	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)

	_, err = f.service.PayOrder("u1", order.ID, declinedCard)
	assert.True(t, errors.Is(err, apperrors.ErrPaymentDeclined))
	assert.Equal(t, 5, f.stock(t, "P1"))

	stored, err := f.service.GetOrder("u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, stored.Status)
	assert.Empty(t, stored.PaymentID)
}

func TestOrderService_InvalidCardHasNoSideEffects(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 1})

	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)

	cases := map[string]models.CardDetails{
		"luhn":    {Number: "4532015112830367", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
		"short":   {Number: "4242424", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
		"letters": {Number: "4532O15112830366", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
		"month":   {Number: "4532015112830366", ExpMonth: 13, ExpYear: 2030, CVC: "123"},
		"expired": {Number: "4532015112830366", ExpMonth: 9, ExpYear: 2026, CVC: "123"},
		"cvc":     {Number: "4532015112830366", ExpMonth: 12, ExpYear: 2030, CVC: "12"},
	}
	for name, details := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.PayOrder("u1", order.ID, details)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidCard))
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
	assert.Equal(t, 5, f.stock(t, "P1"))

	current := models.CardDetails{Number: "4532015112830366", ExpMonth: 10, ExpYear: 2026, CVC: "1234"}
	_, err = f.service.PayOrder("u1", order.ID, current)
	assert.NoError(t, err, "a card expiring this month is still valid")
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)

	_, err := f.service.CreateOrder("u1")
	assert.True(t, errors.Is(err, apperrors.ErrEmptyCart))

	f.fillCart(t, "u1", models.CartLine{ProductID: "P2", Quantity: 2})
	_, err = f.service.CreateOrder("u1")
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))

	f.fillCart(t, "u2", models.CartLine{ProductID: "P1", Quantity: 1})
	p1, err := f.products.GetByID("P1")
	require.NoError(t, err)
	p1.Active = false
	require.NoError(t, f.products.Update(p1))
	_, err = f.service.CreateOrder("u2")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	orders, err := f.service.ListOrders("u1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_OrdersAreScopedToOwner(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 1})

	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)

	_, err = f.service.GetOrder("u2", order.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = f.service.PayOrder("u2", order.ID, validCard)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = f.service.CancelOrder("u2", order.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, 5, f.stock(t, "P1"))
}

func TestOrderService_FullLifecycle(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 1})

	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)

	order, err = f.service.ValidateOrder("u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusValidated, order.Status)

	_, err = f.service.ValidateOrder("u1", order.ID)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	_, err = f.service.ShipOrder(order.ID, "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition), "unpaid orders cannot ship")

	receipt, err := f.service.PayOrder("u1", order.ID, validCard)
	require.NoError(t, err)
	require.NotNil(t, receipt.Order.Delivery)
	assert.Equal(t, models.DeliveryPrepared, receipt.Order.Delivery.Status)
	assert.Equal(t, "12 Rue des Fleurs", receipt.Order.Delivery.Address)

	invoice, err := f.service.GetInvoice("u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.Invoice.ID, invoice.ID)

	shipped, err := f.service.ShipOrder(order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, shipped.Status)
	assert.Equal(t, services.DefaultCarrier, shipped.Delivery.Carrier)
	assert.Regexp(t, `^TRK-[0-9A-F]{10}$`, shipped.Delivery.TrackingNumber)
	assert.Equal(t, models.DeliveryInTransit, shipped.Delivery.Status)

	_, err = f.service.CancelOrder("u1", order.ID)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition), "default cutoff stops cancellation once shipped")

	delivered, err := f.service.DeliverOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status)
	assert.Equal(t, models.DeliveryDelivered, delivered.Delivery.Status)
	assert.Equal(t, 4, f.stock(t, "P1"))

	_, err = f.service.CancelOrder("u1", order.ID)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	_, err = f.service.RefundOrder(order.ID)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	assert.Equal(t, 4, f.stock(t, "P1"))
}

func TestOrderService_CancelCutoff(t *testing.T) {
	t.Run("validated cutoff forbids cancelling paid orders", func(t *testing.T) {
		f := newOrderFixture(t, models.OrderStatusValidated, nil)
		f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 2})
		order, err := f.service.CreateOrder("u1")
		require.NoError(t, err)
		_, err = f.service.PayOrder("u1", order.ID, validCard)
		require.NoError(t, err)

		_, err = f.service.CancelOrder("u1", order.ID)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
		assert.Equal(t, 3, f.stock(t, "P1"))
	})

	t.Run("shipped cutoff allows cancelling shipped orders", func(t *testing.T) {
		f := newOrderFixture(t, models.OrderStatusShipped, nil)
		f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 2})
		order, err := f.service.CreateOrder("u1")
		require.NoError(t, err)
		_, err = f.service.PayOrder("u1", order.ID, validCard)
		require.NoError(t, err)
		_, err = f.service.ShipOrder(order.ID, "UPS")
		require.NoError(t, err)

		cancelled, err := f.service.CancelOrder("u1", order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
		assert.Equal(t, 5, f.stock(t, "P1"))
	})

	t.Run("unpaid orders never touch stock", func(t *testing.T) {
		f := newOrderFixture(t, models.OrderStatusValidated, nil)
		f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 2})
		order, err := f.service.CreateOrder("u1")
		require.NoError(t, err)

		_, err = f.service.CancelOrder("u1", order.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, f.stock(t, "P1"))

		_, err = f.service.CancelOrder("u1", order.ID)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	})
}

func TestOrderService_RefundUsesGateway(t *testing.T) {
	gateway := new(MockPaymentGateway)
	gateway.On("Charge", mock.AnythingOfType("services.ChargeRequest")).
		Return(services.ChargeResult{Approved: true, TransactionID: "tx-1"}, nil).Once()
	gateway.On("Refund", "tx-1", int64(2*8999)).Return(nil).Once()

	f := newOrderFixture(t, models.OrderStatusPaid, gateway)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 2})
	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)
	_, err = f.service.PayOrder("u1", order.ID, validCard)
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, "P1"))

	refunded, err := f.service.RefundOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, refunded.Status)
	assert.Equal(t, 5, f.stock(t, "P1"))
	gateway.AssertExpectations(t)
}

func TestOrderService_RefundFailureChangesNothing(t *testing.T) {
	gateway := new(MockPaymentGateway)
	gateway.On("Charge", mock.Anything).Return(services.ChargeResult{Approved: true, TransactionID: "tx-9"}, nil).Once()
	gateway.On("Refund", "tx-9", int64(8999)).Return(errors.New("provider unavailable")).Once()

	f := newOrderFixture(t, models.OrderStatusPaid, gateway)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 1})
	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)
	_, err = f.service.PayOrder("u1", order.ID, validCard)
	require.NoError(t, err)

	_, err = f.service.CancelOrder("u1", order.ID)
	assert.Error(t, err)
	assert.Equal(t, 4, f.stock(t, "P1"))

	stored, err := f.service.GetOrder("u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
}

func TestOrderService_CancelFailureKeepsTheCharge(t *testing.T) {
	cases := map[string]func(f *orderFixture){
		"stock release fails": func(f *orderFixture) {
			f.rewire(f.orders, &brokenStockStore{f.products})
		},
		"order update fails": func(f *orderFixture) {
			f.rewire(&brokenOrderStore{f.orders, models.OrderStatusCancelled}, f.products)
		},
	}
	for name, breakStore := range cases {
		t.Run(name, func(t *testing.T) {
			gateway := new(MockPaymentGateway)
			gateway.On("Charge", mock.Anything).Return(services.ChargeResult{Approved: true, TransactionID: "tx-4"}, nil).Once()

			f := newOrderFixture(t, models.OrderStatusPaid, gateway)
			f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 1})
			order, err := f.service.CreateOrder("u1")
			require.NoError(t, err)
			_, err = f.service.PayOrder("u1", order.ID, validCard)
			require.NoError(t, err)

			breakStore(f)
			_, err = f.service.CancelOrder("u1", order.ID)
			assert.Error(t, err)

			gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
			assert.Equal(t, 4, f.stock(t, "P1"))
			stored, err := f.orders.GetByID(order.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusPaid, stored.Status)
		})
	}
}

func TestOrderService_PayRollbackReportsRefundFailure(t *testing.T) {
	refundErr := errors.New("provider unavailable")
	gateway := new(MockPaymentGateway)
	gateway.On("Charge", mock.Anything).Return(services.ChargeResult{Approved: true, TransactionID: "tx-5"}, nil).Once()
	gateway.On("Refund", "tx-5", int64(8999)).Return(refundErr).Once()

	f := newOrderFixture(t, models.OrderStatusPaid, gateway)
	f.rewire(&brokenOrderStore{f.orders, models.OrderStatusPaid}, f.products)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 1})
	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)

	_, err = f.service.PayOrder("u1", order.ID, validCard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, refundErr))
	assert.Contains(t, err.Error(), "tx-5")
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, 5, f.stock(t, "P1"))
	stored, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, stored.Status)
	gateway.AssertExpectations(t)
}

func TestOrderService_ConcurrentPaymentsForLastUnit(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)
	f.fillCart(t, "u1", models.CartLine{ProductID: "P2", Quantity: 1})
	f.fillCart(t, "u2", models.CartLine{ProductID: "P2", Quantity: 1})

	first, err := f.service.CreateOrder("u1")
	require.NoError(t, err)
	second, err := f.service.CreateOrder("u2")
	require.NoError(t, err)

	results := make([]error, 2)
	var g errgroup.Group
	for i, o := range []*models.Order{first, second} {
		i, o := i, o
		g.Go(func() error {
			_, results[i] = f.service.PayOrder(o.UserID, o.ID, validCard)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.stock(t, "P2"))
}

func TestOrderService_PublishFailureDoesNotFailTransition(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid, nil)
	f.publisher.ExpectedCalls = nil
	f.publisher.On("PublishOrderEvent", mock.Anything).Return(errors.New("broker down"))
	f.fillCart(t, "u1", models.CartLine{ProductID: "P1", Quantity: 1})

	order, err := f.service.CreateOrder("u1")
	require.NoError(t, err)
	_, err = f.service.PayOrder("u1", order.ID, validCard)
	assert.NoError(t, err)
}
