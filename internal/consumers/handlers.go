package consumers

import (
	"encoding/json"
	"log/slog"

	"kassa/internal/models"

	"github.com/nats-io/stan.go"
)

// Handlers process purchase lifecycle events off NATS. They are side-channel
// consumers: notification, audit logging, nothing the purchase flow depends on.
type Handlers struct{}

func NewHandlers() *Handlers {
	return &Handlers{}
}

func (h *Handlers) HandlePurchaseInitiated(m *stan.Msg) {
	var event models.PurchaseInitiatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal purchase initiated event", "error", err)
		return
	}

	slog.Info("Purchase initiated",
		"ticket_id", event.TicketID,
		"payment_id", event.PaymentID,
		"total_amount", event.TotalAmount,
		"currency", event.Currency)

	m.Ack()
}

func (h *Handlers) HandlePurchaseConfirmed(m *stan.Msg) {
	var event models.PurchaseConfirmedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal purchase confirmed event", "error", err)
		return
	}

	// A natural place for receipts or confirmation emails later
	slog.Info("Purchase confirmed",
		"ticket_id", event.TicketID,
		"transaction_id", event.TransactionID,
		"username", event.Username)

	m.Ack()
}

func (h *Handlers) HandlePurchaseCancelled(m *stan.Msg) {
	var event models.PurchaseCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal purchase cancelled event", "error", err)
		return
	}

	slog.Info("Purchase cancelled",
		"ticket_id", event.TicketID,
		"payment_id", event.PaymentID)

	m.Ack()
}

func (h *Handlers) HandlePurchaseReturned(m *stan.Msg) {
	var event models.PurchaseReturnedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal purchase returned event", "error", err)
		return
	}

	slog.Info("Purchase returned",
		"ticket_id", event.TicketID,
		"transaction_id", event.TransactionID)

	m.Ack()
}

func (h *Handlers) HandleHoldExpired(m *stan.Msg) {
	var event models.HoldExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal hold expired event", "error", err)
		return
	}

	slog.Info("Hold expired",
		"ticket_id", event.TicketID,
		"state", event.State)

	m.Ack()
}
