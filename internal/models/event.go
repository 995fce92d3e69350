package models

import "time"

// OrderEventType names an order lifecycle event; it doubles as the routing key.
type OrderEventType string

const (
	OrderCreatedEvent   OrderEventType = "order.created"
	OrderPaidEvent      OrderEventType = "order.paid"
	OrderShippedEvent   OrderEventType = "order.shipped"
	OrderDeliveredEvent OrderEventType = "order.delivered"
	OrderCancelledEvent OrderEventType = "order.cancelled"
	OrderRefundedEvent  OrderEventType = "order.refunded"
)

// OrderEvent is published after an order changes status.
type OrderEvent struct {
	Type       OrderEventType `json:"type"`
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id"`
	Status     OrderStatus    `json:"status"`
	Total      int64          `json:"total_cents"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewOrderEvent snapshots order into an event of type t.
func NewOrderEvent(t OrderEventType, order Order) OrderEvent {
	return OrderEvent{
		Type:       t,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Total:      order.Total(),
		OccurredAt: order.UpdatedAt,
	}
}
