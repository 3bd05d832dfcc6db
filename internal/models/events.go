package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NATS Event Types
const (
	EventPurchaseInitiated = "purchase.initiated"
	EventPurchaseConfirmed = "purchase.confirmed"
	EventPurchaseCancelled = "purchase.cancelled"
	EventPurchaseReturned  = "purchase.returned"
	EventHoldExpired       = "hold.expired"
)

// PurchaseInitiatedEvent is published after the gateway accepted a payment
type PurchaseInitiatedEvent struct {
	TicketID    int64           `json:"ticket_id"`
	PaymentID   string          `json:"payment_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	Timestamp   time.Time       `json:"timestamp"`
}

// PurchaseConfirmedEvent is published once a ticket reached SOLD
type PurchaseConfirmedEvent struct {
	TicketID      int64     `json:"ticket_id"`
	TransactionID int64     `json:"transaction_id"`
	PaymentID     string    `json:"payment_id"`
	Username      string    `json:"username"`
	Timestamp     time.Time `json:"timestamp"`
}

// PurchaseCancelledEvent is published after a local unbook plus gateway cancel
type PurchaseCancelledEvent struct {
	TicketID  int64     `json:"ticket_id"`
	PaymentID string    `json:"payment_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PurchaseReturnedEvent is published once a refund completed
type PurchaseReturnedEvent struct {
	TicketID      int64     `json:"ticket_id"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// HoldExpiredEvent is published by the sweeper when a stale hold is reclaimed
type HoldExpiredEvent struct {
	TicketID  int64      `json:"ticket_id"`
	PaymentID *string    `json:"payment_id"`
	State     string     `json:"state"`
	HeldUntil *time.Time `json:"held_until"`
	Timestamp time.Time  `json:"timestamp"`
}
