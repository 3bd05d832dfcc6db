package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kassa/internal/booking"
	"kassa/internal/config"
	apperrors "kassa/internal/errors"
	"kassa/internal/external"
	"kassa/internal/logger"
	"kassa/internal/metrics"
	"kassa/internal/models"
	"kassa/internal/pricing"
)

// TicketStore is the contract the purchase flow requires from ticket storage
type TicketStore interface {
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)
	Hold(ctx context.Context, id int64, until time.Time) error
	SetAwaitingPayment(ctx context.Context, id int64, paymentID string) error
	ClearHold(ctx context.Context, id int64) error
	FinalizeSale(ctx context.Context, txn *models.TicketTransaction) error
	ReleaseSale(ctx context.Context, id int64) error
}

// TransactionLedger records completed and returned transactions
type TransactionLedger interface {
	GetByID(ctx context.Context, id int64) (*models.TicketTransaction, error)
	MarkReturned(ctx context.Context, id int64) error
}

// UserStore resolves the purchasing user stamped on a ledger record
type UserStore interface {
	GetByUserName(ctx context.Context, username string) (*models.User, error)
}

// PaymentGateway is the external payment processor
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, req external.ProcessPaymentRequest) (*external.ProcessPaymentResponse, error)
	ConfirmPayment(ctx context.Context, transactionID, confirmationCode string) error
	CancelPayment(ctx context.Context, transactionID string) error
	ReturnPayment(ctx context.Context, transactionID string) error
}

// EventPublisher publishes lifecycle events. Publish failures are logged and
// never fail the operation.
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// IdempotencyKeys hands out per-attempt keys for gateway deduplication
type IdempotencyKeys interface {
	PurchaseKey(ctx context.Context, ticketID int64, ttl time.Duration) string
	Drop(ctx context.Context, ticketID int64)
}

// PurchaseService drives the ticket purchase lifecycle:
// AVAILABLE -> HELD -> AWAITING_CONFIRMATION -> SOLD, with off-ramps to
// CANCELLED and, after a sale, RETURNED. It is the sole writer of the sold
// flag; holds go through the booking engine and the store's atomic Hold.
type PurchaseService struct {
	tickets   TicketStore
	ledger    TransactionLedger
	users     UserStore
	gateway   PaymentGateway
	engine    *booking.Engine
	publisher EventPublisher
	idem      IdempotencyKeys
	policy    config.PurchaseConfig
}

func NewPurchaseService(
	tickets TicketStore,
	ledger TransactionLedger,
	users UserStore,
	gateway PaymentGateway,
	engine *booking.Engine,
	publisher EventPublisher,
	idem IdempotencyKeys,
	policy config.PurchaseConfig,
) *PurchaseService {
	return &PurchaseService{
		tickets:   tickets,
		ledger:    ledger,
		users:     users,
		gateway:   gateway,
		engine:    engine,
		publisher: publisher,
		idem:      idem,
		policy:    policy,
	}
}

// IsTicketAvailableForPurchase reports whether the ticket can be bought right
// now. A nil ticket is a programming error, not a user-facing condition.
func (s *PurchaseService) IsTicketAvailableForPurchase(ticket *models.Ticket) (bool, error) {
	if ticket == nil {
		return false, fmt.Errorf("availability check on nil ticket")
	}
	return !ticket.Sold && !s.engine.IsBooked(ticket), nil
}

// GetTicket loads a ticket or fails with ErrTicketNotFound
func (s *PurchaseService) GetTicket(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, apperrors.ErrTicketNotFound
	}
	return ticket, nil
}

// GetFullTicketPrice recomputes the price breakdown for a ticket. The fee
// percent is re-read from the store on every call.
func (s *PurchaseService) GetFullTicketPrice(ctx context.Context, ticketID int64) (*models.PriceInfo, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, apperrors.ErrTicketNotFound
	}

	info := pricing.Calculate(ticket)
	return &info, nil
}

// ProcessTicketBuying places a temporary hold on the ticket and initiates the
// payment. The ticket stays in AWAITING_CONFIRMATION until the caller
// confirms or cancels; an abandoned hold lapses on its own.
func (s *PurchaseService) ProcessTicketBuying(ctx context.Context, req *models.PurchaseRequest) (*models.PaymentConfirmation, error) {
	ticket, err := s.tickets.GetByID(ctx, req.TicketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, apperrors.ErrTicketNotFound
	}

	available, err := s.IsTicketAvailableForPurchase(ticket)
	if err != nil {
		return nil, err
	}
	if !available {
		metrics.PurchaseAttempts.WithLabelValues("unavailable").Inc()
		return nil, apperrors.ErrTicketUnavailable
	}

	// Place the hold in memory, then persist it atomically. The store's Hold
	// re-checks availability in the same statement, so of two concurrent
	// buyers exactly one gets the hold.
	s.engine.TemporaryBook(ticket)
	if err := s.tickets.Hold(ctx, ticket.ID, *ticket.BookedUntil); err != nil {
		if errors.Is(err, apperrors.ErrTicketUnavailable) {
			metrics.PurchaseAttempts.WithLabelValues("unavailable").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("failed to hold ticket %d: %w", ticket.ID, err)
	}

	price := pricing.Calculate(ticket)

	var idemKey string
	if s.idem != nil {
		idemKey = s.idem.PurchaseKey(ctx, ticket.ID, time.Until(*ticket.BookedUntil))
	}

	resp, err := s.gateway.ProcessPayment(ctx, external.ProcessPaymentRequest{
		CardID:          req.CardID,
		TotalAmount:     price.TotalAmount,
		Currency:        price.Currency,
		UnreturnableFee: price.BookingAmount,
		IdempotencyKey:  idemKey,
	})
	if err != nil {
		metrics.PurchaseAttempts.WithLabelValues("gateway_error").Inc()
		if s.policy.ReleaseHoldOnGatewayFailure {
			if uerr := s.tickets.ClearHold(ctx, ticket.ID); uerr != nil {
				logger.WithContext(ctx).Error("Failed to release hold after gateway failure",
					"error", uerr,
					"ticket_id", ticket.ID)
			}
		}
		return nil, fmt.Errorf("failed to process payment for ticket %d: %w", ticket.ID, err)
	}

	// The payment now exists at the gateway. Recording its id must not fail
	// the purchase: confirmation carries the id back from the caller.
	if err := s.tickets.SetAwaitingPayment(ctx, ticket.ID, resp.TransactionID); err != nil {
		logger.WithContext(ctx).Error("Failed to record pending payment on ticket",
			"error", err,
			"ticket_id", ticket.ID,
			"payment_id", resp.TransactionID)
	}

	metrics.PurchaseAttempts.WithLabelValues("held").Inc()
	s.publish(ctx, models.EventPurchaseInitiated, models.PurchaseInitiatedEvent{
		TicketID:    ticket.ID,
		PaymentID:   resp.TransactionID,
		TotalAmount: price.TotalAmount,
		Currency:    price.Currency,
		Timestamp:   time.Now(),
	})

	return &models.PaymentConfirmation{
		TicketID:         ticket.ID,
		TransactionID:    resp.TransactionID,
		ConfirmationCode: resp.ConfirmationCode,
		TotalAmount:      price.TotalAmount,
		BookingAmount:    price.BookingAmount,
		Currency:         price.Currency,
	}, nil
}

// ConfirmTicketPayment confirms the payment at the gateway and finalizes the
// sale. The gateway call comes first: if it fails nothing is mutated locally.
// The ticket update and the ledger insert commit in one store transaction.
func (s *PurchaseService) ConfirmTicketPayment(ctx context.Context, username string, conf *models.ConfirmPurchaseRequest) error {
	if err := s.gateway.ConfirmPayment(ctx, conf.TransactionID, conf.ConfirmationCode); err != nil {
		return fmt.Errorf("failed to confirm payment %s: %w", conf.TransactionID, err)
	}

	ticket, err := s.tickets.GetByID(ctx, conf.TicketID)
	if err != nil {
		return fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return apperrors.ErrTicketNotFound
	}

	// Re-read, not reused from the buying step: the fee percent may have
	// changed between booking and confirmation.
	price := pricing.Calculate(ticket)

	user, err := s.users.GetByUserName(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to get user %q: %w", username, err)
	}
	if user == nil {
		return apperrors.ErrUserNotFound
	}

	txn := &models.TicketTransaction{
		TicketID:        ticket.ID,
		ExternalID:      conf.TransactionID,
		Amount:          price.TotalAmount,
		UnreturnableFee: price.BookingAmount,
		Currency:        price.Currency,
		UserID:          user.UserID,
	}

	if err := s.tickets.FinalizeSale(ctx, txn); err != nil {
		return fmt.Errorf("failed to finalize sale of ticket %d: %w", ticket.ID, err)
	}

	if s.idem != nil {
		s.idem.Drop(ctx, ticket.ID)
	}

	metrics.PurchaseAttempts.WithLabelValues("confirmed").Inc()
	s.publish(ctx, models.EventPurchaseConfirmed, models.PurchaseConfirmedEvent{
		TicketID:      ticket.ID,
		TransactionID: txn.ID,
		PaymentID:     conf.TransactionID,
		Username:      username,
		Timestamp:     time.Now(),
	})

	return nil
}

// CancelTicketPayment releases the local hold and cancels the payment at the
// gateway. Both steps are attempted: a failed local unbook is logged and the
// gateway cancel still runs, a failed gateway cancel propagates after the
// local hold is already released.
func (s *PurchaseService) CancelTicketPayment(ctx context.Context, ticketID int64, transactionID string) error {
	if err := s.engine.UnbookByID(ctx, ticketID); err != nil {
		logger.WithContext(ctx).Error("Failed to unbook ticket during cancellation",
			"error", err,
			"ticket_id", ticketID)
	}

	if s.idem != nil {
		s.idem.Drop(ctx, ticketID)
	}

	if err := s.gateway.CancelPayment(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to cancel payment %s: %w", transactionID, err)
	}

	metrics.PurchaseAttempts.WithLabelValues("cancelled").Inc()
	s.publish(ctx, models.EventPurchaseCancelled, models.PurchaseCancelledEvent{
		TicketID:  ticketID,
		PaymentID: transactionID,
		Timestamp: time.Now(),
	})

	return nil
}

// ReturnMoneyForPurchase refunds a completed sale. The gateway refund runs
// before any local mutation; once the money left the gateway a missing ticket
// record is a data-integrity failure, not a plain not-found.
func (s *PurchaseService) ReturnMoneyForPurchase(ctx context.Context, transactionID int64) error {
	txn, err := s.ledger.GetByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return apperrors.ErrTransactionNotFound
	}
	if txn.IsReturned {
		return apperrors.ErrAlreadyReturned
	}

	if err := s.gateway.ReturnPayment(ctx, txn.ExternalID); err != nil {
		return fmt.Errorf("failed to return payment %s: %w", txn.ExternalID, err)
	}

	if err := s.ledger.MarkReturned(ctx, txn.ID); err != nil {
		return fmt.Errorf("money returned at gateway but ledger update failed for transaction %d: %w", txn.ID, err)
	}

	ticket, err := s.tickets.GetByID(ctx, txn.TicketID)
	if err != nil {
		return fmt.Errorf("failed to get ticket after return: %w", err)
	}
	if ticket == nil {
		return fmt.Errorf("%w: transaction %d, ticket %d",
			apperrors.ErrMoneyReturnedTicketMissing, txn.ID, txn.TicketID)
	}

	if err := s.tickets.ReleaseSale(ctx, ticket.ID); err != nil {
		return fmt.Errorf("failed to release sold ticket %d: %w", ticket.ID, err)
	}

	metrics.PurchaseAttempts.WithLabelValues("returned").Inc()
	s.publish(ctx, models.EventPurchaseReturned, models.PurchaseReturnedEvent{
		TicketID:      ticket.ID,
		TransactionID: txn.ID,
		Timestamp:     time.Now(),
	})

	return nil
}

func (s *PurchaseService) publish(ctx context.Context, subject string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}
