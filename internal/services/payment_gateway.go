package services

import (
	"strings"

	"eshop/internal/models"

	"github.com/google/uuid"
)

// ChargeRequest is a card charge sent to the payment provider.
type ChargeRequest struct {
	Card           models.CardDetails
	Amount         int64
	IdempotencyKey string
}

// ChargeResult is the provider's answer to a charge.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	FailureReason string
}

// PaymentGateway charges and refunds cards.
type PaymentGateway interface {
	Name() string
	Charge(req ChargeRequest) (ChargeResult, error)
	Refund(transactionID string, amount int64) error
}

// SimulatedGateway approves every card except those ending in 0000.
type SimulatedGateway struct{}

// NewSimulatedGateway creates a new SimulatedGateway.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

// Name identifies the provider on payment records.
func (g *SimulatedGateway) Name() string {
	return "CB"
}

// Charge approves the card unless its number ends in 0000.
func (g *SimulatedGateway) Charge(req ChargeRequest) (ChargeResult, error) {
	if strings.HasSuffix(req.Card.Number, "0000") {
		return ChargeResult{FailureReason: "CARD_DECLINED"}, nil
	}
	return ChargeResult{Approved: true, TransactionID: uuid.New().String()}, nil
}

// Refund always succeeds.
func (g *SimulatedGateway) Refund(transactionID string, amount int64) error {
	return nil
}
