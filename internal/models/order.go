package models

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusValidated OrderStatus = "VALIDATED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// orderTransitions lists, for every non-terminal status, the statuses it may move to.
// Cancellation out of PAID and SHIPPED is further restricted by CancelPolicy.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:   {OrderStatusValidated, OrderStatusPaid, OrderStatusCancelled},
	OrderStatusValidated: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
}

// ParseOrderStatus accepts a status name in any case.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case OrderStatusCreated, OrderStatusValidated, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// CanTransitionTo reports whether the transition table allows s -> next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// HoldsStock reports whether an order in status s has its stock reserved.
func (s OrderStatus) HoldsStock() bool {
	return s == OrderStatusPaid || s == OrderStatusShipped
}

// CancelPolicy decides how late in the lifecycle an order may still be cancelled.
// Cutoff is the last status from which cancel is accepted; CREATED and
// VALIDATED orders are always cancellable.
type CancelPolicy struct {
	Cutoff OrderStatus
}

// NewCancelPolicy validates the cutoff.
func NewCancelPolicy(cutoff OrderStatus) (CancelPolicy, error) {
	switch cutoff {
	case OrderStatusValidated, OrderStatusPaid, OrderStatusShipped:
		return CancelPolicy{Cutoff: cutoff}, nil
	}
	return CancelPolicy{}, fmt.Errorf("cancel cutoff must be VALIDATED, PAID or SHIPPED, got %q", cutoff)
}

// Allows reports whether an order in status s may be cancelled.
func (p CancelPolicy) Allows(s OrderStatus) bool {
	if !s.CanTransitionTo(OrderStatusCancelled) {
		return false
	}
	switch s {
	case OrderStatusCreated, OrderStatusValidated:
		return true
	case OrderStatusPaid:
		return p.Cutoff == OrderStatusPaid || p.Cutoff == OrderStatusShipped
	case OrderStatusShipped:
		return p.Cutoff == OrderStatusShipped
	}
	return false
}

// OrderItem represents a single item within an order.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price_cents"` // price at the time of order
}

// DeliveryStatus tracks a shipment.
type DeliveryStatus string

const (
	DeliveryPrepared  DeliveryStatus = "PREPARED"
	DeliveryInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
)

// Delivery is the shipment attached to an order once it ships.
type Delivery struct {
	Carrier        string         `json:"carrier"`
	TrackingNumber string         `json:"tracking_number"`
	Address        string         `json:"address"`
	Status         DeliveryStatus `json:"status"`
}

// Order represents a customer order.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Items       []OrderItem `json:"items"`
	Status      OrderStatus `json:"status"`
	PaymentID   string      `json:"payment_id,omitempty"`
	InvoiceID   string      `json:"invoice_id,omitempty"`
	Delivery    *Delivery   `json:"delivery,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ValidatedAt *time.Time  `json:"validated_at,omitempty"`
	PaidAt      *time.Time  `json:"paid_at,omitempty"`
	ShippedAt   *time.Time  `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
	RefundedAt  *time.Time  `json:"refunded_at,omitempty"`
}

// Total is the sum of the price snapshots.
func (o Order) Total() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

// StockLines returns the quantities held by the order, one line per item.
func (o Order) StockLines() []StockLine {
	lines := make([]StockLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = StockLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return lines
}

// Clone returns a deep copy so stored orders never alias caller memory.
func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderItem(nil), o.Items...)
	if o.Delivery != nil {
		d := *o.Delivery
		c.Delivery = &d
	}
	return c
}

// Stamp moves the order to status and records the transition time.
func (o *Order) Stamp(status OrderStatus, at time.Time) {
	o.Status = status
	o.UpdatedAt = at
	t := at
	switch status {
	case OrderStatusValidated:
		o.ValidatedAt = &t
	case OrderStatusPaid:
		o.PaidAt = &t
	case OrderStatusShipped:
		o.ShippedAt = &t
	case OrderStatusDelivered:
		o.DeliveredAt = &t
	case OrderStatusCancelled:
		o.CancelledAt = &t
	case OrderStatusRefunded:
		o.RefundedAt = &t
	}
}
