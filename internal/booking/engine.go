package booking

import (
	"context"
	"fmt"
	"time"

	apperrors "kassa/internal/errors"
	"kassa/internal/models"
)

// HoldDurationProvider resolves the temporary hold duration. Implementations
// must re-read the underlying setting on every call so it can change at
// runtime without a restart.
type HoldDurationProvider interface {
	HoldDuration() time.Duration
}

// TicketStore is the slice of the ticket store the engine needs for
// persistence-backed unbooking.
type TicketStore interface {
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)
	ClearHold(ctx context.Context, id int64) error
}

// Engine owns the temporal hold state on a ticket. It is the only component
// that writes BookedUntil. Persistence of in-memory mutations is the caller's
// responsibility.
type Engine struct {
	holds HoldDurationProvider
	store TicketStore
}

func NewEngine(holds HoldDurationProvider, store TicketStore) *Engine {
	return &Engine{
		holds: holds,
		store: store,
	}
}

// IsBooked reports whether the ticket carries an active hold. No side effects.
func (e *Engine) IsBooked(ticket *models.Ticket) bool {
	return ticket.BookedUntil != nil && ticket.BookedUntil.After(time.Now().UTC())
}

// TemporaryBook places a hold on the in-memory ticket until now plus the
// configured hold duration
func (e *Engine) TemporaryBook(ticket *models.Ticket) {
	until := time.Now().UTC().Add(e.holds.HoldDuration())
	ticket.BookedUntil = &until
	ticket.State = models.StateHeld
}

// Unbook clears the hold. Idempotent: unbooking an unheld ticket is a no-op.
func (e *Engine) Unbook(ticket *models.Ticket) {
	ticket.BookedUntil = nil
	if !ticket.Sold {
		ticket.State = models.StateAvailable
	}
}

// UnbookByID fetches the ticket and clears its hold in the store
func (e *Engine) UnbookByID(ctx context.Context, id int64) error {
	ticket, err := e.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get ticket %d: %w", id, err)
	}
	if ticket == nil {
		return apperrors.ErrTicketNotFound
	}

	if err := e.store.ClearHold(ctx, id); err != nil {
		return fmt.Errorf("failed to clear hold on ticket %d: %w", id, err)
	}
	return nil
}
