package jobs

import (
	"context"
	"log/slog"
	"time"

	"kassa/internal/external"
	"kassa/internal/metrics"
	"kassa/internal/models"
)

const expiredHoldsBatchSize = 200

// TicketStore is the slice of the ticket store the sweeper needs
type TicketStore interface {
	GetExpiredHolds(ctx context.Context, limit int) ([]models.Ticket, error)
	ClearHold(ctx context.Context, id int64) error
}

// PaymentChecker queries and cancels gateway-side payment state
type PaymentChecker interface {
	CheckPayment(ctx context.Context, transactionID string) (*external.PaymentStatusResponse, error)
	CancelPayment(ctx context.Context, transactionID string) error
}

// EventPublisher publishes hold.expired events
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// HoldExpirationJob reclaims holds that lapsed without a terminal outcome.
// Expiry itself is lazy (the store's availability predicate ignores lapsed
// holds), so this job exists to reconcile gateway-side payment state and to
// keep the explicit lifecycle state clean.
type HoldExpirationJob struct {
	tickets  TicketStore
	gateway  PaymentChecker
	events   EventPublisher
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewHoldExpirationJob(tickets TicketStore, gateway PaymentChecker, events EventPublisher, interval time.Duration) *HoldExpirationJob {
	return &HoldExpirationJob{
		tickets:  tickets,
		gateway:  gateway,
		events:   events,
		interval: interval,
		done:     make(chan bool),
	}
}

// Start begins the background sweep loop
func (j *HoldExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting hold expiration job", "check_interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	// Run initial check immediately
	go j.sweepExpiredHolds(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweepExpiredHolds(ctx)
			case <-j.done:
				slog.Info("Hold expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *HoldExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *HoldExpirationJob) sweepExpiredHolds(ctx context.Context) {
	expired, err := j.tickets.GetExpiredHolds(ctx, expiredHoldsBatchSize)
	if err != nil {
		slog.Error("Failed to get expired holds", "error", err)
		return
	}

	if len(expired) == 0 {
		slog.Debug("No expired holds found")
		return
	}

	slog.Info("Found expired holds to reclaim", "count", len(expired))

	for _, ticket := range expired {
		if err := j.reclaimHold(ctx, &ticket); err != nil {
			slog.Error("Failed to reclaim expired hold",
				"error", err,
				"ticket_id", ticket.ID,
				"state", ticket.State,
				"booked_until", ticket.BookedUntil)
		}
	}
}

// reclaimHold resolves one lapsed hold. A payment left dangling at the
// gateway is cancelled there first, unless it already went through, in which
// case the hold stays for manual reconciliation.
func (j *HoldExpirationJob) reclaimHold(ctx context.Context, ticket *models.Ticket) error {
	if ticket.PendingPaymentID != nil {
		status, err := j.gateway.CheckPayment(ctx, *ticket.PendingPaymentID)
		if err != nil {
			slog.Error("Failed to check gateway payment state, leaving hold for next sweep",
				"error", err,
				"ticket_id", ticket.ID,
				"payment_id", *ticket.PendingPaymentID)
			return err
		}

		if status.Status == "CONFIRMED" {
			// Money was captured but the sale never finalized locally.
			// Freeing the seat now could double-sell it.
			slog.Warn("Expired hold has a confirmed gateway payment, manual reconciliation required",
				"ticket_id", ticket.ID,
				"payment_id", *ticket.PendingPaymentID)
			return nil
		}

		if err := j.gateway.CancelPayment(ctx, *ticket.PendingPaymentID); err != nil {
			slog.Error("Failed to cancel dangling gateway payment",
				"error", err,
				"ticket_id", ticket.ID,
				"payment_id", *ticket.PendingPaymentID)
			return err
		}
	}

	if err := j.tickets.ClearHold(ctx, ticket.ID); err != nil {
		return err
	}

	metrics.ExpiredHolds.Inc()
	slog.Info("Reclaimed expired hold",
		"ticket_id", ticket.ID,
		"state", ticket.State)

	if j.events != nil {
		event := models.HoldExpiredEvent{
			TicketID:  ticket.ID,
			PaymentID: ticket.PendingPaymentID,
			State:     string(ticket.State),
			HeldUntil: ticket.BookedUntil,
			Timestamp: time.Now(),
		}
		if err := j.events.Publish(models.EventHoldExpired, event); err != nil {
			slog.Error("Failed to publish hold expired event",
				"error", err,
				"ticket_id", ticket.ID,
				"event_type", models.EventHoldExpired)
			// Don't return error - the hold is already reclaimed
		}
	}

	return nil
}
