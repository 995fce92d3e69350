package models

import "time"

// CardDetails is a card payment attempt. It is validated and then discarded.
type CardDetails struct {
	Number   string `json:"card_number" validate:"required,numeric,min=13,max=19,luhn"`
	ExpMonth int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear  int    `json:"exp_year" validate:"required,min=2000,max=9999"`
	CVC      string `json:"cvc" validate:"required,numeric,min=3,max=4"`
}

// Last4 returns the last four digits of the card number.
func (c CardDetails) Last4() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// Payment is the stored outcome of a charge.
type Payment struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	Amount      int64     `json:"amount_cents"`
	Provider    string    `json:"provider"`
	ProviderRef string    `json:"provider_ref,omitempty"`
	CardLast4   string    `json:"card_last4"`
	Succeeded   bool      `json:"succeeded"`
	CreatedAt   time.Time `json:"created_at"`
}

// InvoiceLine is one billed order item.
type InvoiceLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price_cents"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total_cents"`
}

// Invoice is issued once an order is paid.
type Invoice struct {
	ID       string        `json:"id"`
	OrderID  string        `json:"order_id"`
	UserID   string        `json:"user_id"`
	Lines    []InvoiceLine `json:"lines"`
	Total    int64         `json:"total_cents"`
	IssuedAt time.Time     `json:"issued_at"`
}
