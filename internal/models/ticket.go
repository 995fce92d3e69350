package models

import "time"

// TicketStatus is OPEN until the owner closes the ticket.
type TicketStatus string

const (
	TicketOpen   TicketStatus = "OPEN"
	TicketClosed TicketStatus = "CLOSED"
)

// Sender identifies who wrote a ticket message. Support agents have no user id.
type Sender struct {
	UserID string `json:"user_id,omitempty"`
	Agent  bool   `json:"agent"`
}

// CustomerSender returns the sender for a customer message.
func CustomerSender(userID string) Sender {
	return Sender{UserID: userID}
}

// AgentSender returns the sender for a support agent reply.
func AgentSender() Sender {
	return Sender{Agent: true}
}

// TicketMessage is one entry of a ticket thread.
type TicketMessage struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// SupportTicket is an append-only conversation between a customer and support.
type SupportTicket struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	OrderID   string          `json:"order_id,omitempty"`
	Subject   string          `json:"subject"`
	Messages  []TicketMessage `json:"messages"`
	Status    TicketStatus    `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Clone returns a deep copy of the ticket.
func (t SupportTicket) Clone() SupportTicket {
	c := t
	c.Messages = append([]TicketMessage(nil), t.Messages...)
	return c
}
