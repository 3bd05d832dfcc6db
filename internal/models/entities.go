package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketState is the explicit purchase lifecycle state stored on a ticket row.
// Hold expiry stays lazy: an expired HELD or AWAITING_CONFIRMATION ticket is
// reclaimable even though the row still carries the old state.
type TicketState string

const (
	StateAvailable            TicketState = "AVAILABLE"
	StateHeld                 TicketState = "HELD"
	StateAwaitingConfirmation TicketState = "AWAITING_CONFIRMATION"
	StateSold                 TicketState = "SOLD"
	StateCancelled            TicketState = "CANCELLED"
	StateReturned             TicketState = "RETURNED"
)

var ticketTransitions = map[TicketState][]TicketState{
	StateAvailable:            {StateHeld},
	StateHeld:                 {StateAwaitingConfirmation, StateCancelled, StateAvailable},
	StateAwaitingConfirmation: {StateSold, StateCancelled, StateAvailable},
	StateSold:                 {StateReturned},
	StateCancelled:            {StateHeld, StateAvailable},
	StateReturned:             {StateHeld, StateAvailable},
}

// CanTransition reports whether moving from s to next is a valid lifecycle step.
func (s TicketState) CanTransition(next TicketState) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Ticket represents a sellable ticket for an event session
type Ticket struct {
	ID               int64           `json:"id" db:"id"`
	EventSessionID   int64           `json:"event_session_id" db:"event_session_id"`
	SeatLabel        *string         `json:"seat_label" db:"seat_label"`
	Price            decimal.Decimal `json:"price" db:"price"`
	Currency         string          `json:"currency" db:"currency"`
	Sold             bool            `json:"sold" db:"sold"`
	State            TicketState     `json:"state" db:"state"`
	BookedUntil      *time.Time      `json:"booked_until" db:"booked_until"`
	PendingPaymentID *string         `json:"pending_payment_id" db:"pending_payment_id"`
	// FeePercent is joined from the session's event type, not stored on the row
	FeePercent decimal.Decimal `json:"fee_percent" db:"fee_percent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// TicketTransaction is a ledger record of a completed (or returned) sale
type TicketTransaction struct {
	ID              int64           `json:"id" db:"id"`
	TicketID        int64           `json:"ticket_id" db:"ticket_id"`
	ExternalID      string          `json:"external_id" db:"external_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	UnreturnableFee decimal.Decimal `json:"unreturnable_fee" db:"unreturnable_fee"`
	Currency        string          `json:"currency" db:"currency"`
	UserID          int64           `json:"user_id" db:"user_id"`
	IsReturned      bool            `json:"is_returned" db:"is_returned"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// User represents a user in the system
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	Surname      string    `json:"surname" db:"surname"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// PriceInfo is the derived price breakdown for one ticket. Never persisted and
// never cached: the fee percent can change between reads.
type PriceInfo struct {
	TicketPrice   decimal.Decimal `json:"ticket_price"`
	FeePercent    decimal.Decimal `json:"fee_percent"`
	BookingAmount decimal.Decimal `json:"booking_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
}
