package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kassa/internal/database"
	apperrors "kassa/internal/errors"
	"kassa/internal/models"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `
	t.id, t.event_session_id, t.seat_label, t.price, t.currency, t.sold,
	t.state, t.booked_until, t.pending_payment_id, et.booking_fee_percent,
	t.created_at, t.updated_at`

func scanTicket(row interface{ Scan(...any) error }) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	err := row.Scan(
		&ticket.ID,
		&ticket.EventSessionID,
		&ticket.SeatLabel,
		&ticket.Price,
		&ticket.Currency,
		&ticket.Sold,
		&ticket.State,
		&ticket.BookedUntil,
		&ticket.PendingPaymentID,
		&ticket.FeePercent,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// GetByID returns the ticket with the booking fee percent of its event type
// joined in, or nil when no such ticket exists.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		JOIN event_sessions es ON es.id = t.event_session_id
		JOIN event_types et ON et.id = es.event_type_id
		WHERE t.id = $1`

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ticket, err
}

// Hold places a temporary hold atomically. The WHERE clause is the
// availability predicate, so two concurrent buyers cannot both succeed:
// whoever updates zero rows lost the race.
func (r *TicketRepository) Hold(ctx context.Context, id int64, until time.Time) error {
	query := `
		UPDATE tickets
		SET booked_until = $1, state = $2, updated_at = NOW()
		WHERE id = $3
		  AND sold = FALSE
		  AND (booked_until IS NULL OR booked_until <= NOW())`

	result, err := r.db.ExecContext(ctx, query, until, models.StateHeld, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrTicketUnavailable
	}
	return nil
}

// SetAwaitingPayment records the gateway transaction id on a held ticket
func (r *TicketRepository) SetAwaitingPayment(ctx context.Context, id int64, paymentID string) error {
	query := `
		UPDATE tickets
		SET state = $1, pending_payment_id = $2, updated_at = NOW()
		WHERE id = $3 AND sold = FALSE`

	_, err := r.db.ExecContext(ctx, query, models.StateAwaitingConfirmation, paymentID, id)
	return err
}

// ClearHold releases a hold. Idempotent: clearing an unheld ticket is a no-op.
// A sold ticket keeps its state, only the moot hold fields are cleared.
func (r *TicketRepository) ClearHold(ctx context.Context, id int64) error {
	query := `
		UPDATE tickets
		SET booked_until = NULL,
		    pending_payment_id = NULL,
		    state = CASE WHEN sold THEN state ELSE $1 END,
		    updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, models.StateAvailable, id)
	return err
}

// FinalizeSale marks the ticket sold and inserts the ledger record in one
// transaction. The sold = FALSE guard makes a second confirmation fail with
// ErrTicketAlreadySold instead of creating a second ledger row.
func (r *TicketRepository) FinalizeSale(ctx context.Context, txn *models.TicketTransaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sellQuery := `
		UPDATE tickets
		SET sold = TRUE, state = $1, booked_until = NULL,
		    pending_payment_id = NULL, updated_at = NOW()
		WHERE id = $2 AND sold = FALSE`

	result, err := tx.ExecContext(ctx, sellQuery, models.StateSold, txn.TicketID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrTicketAlreadySold
	}

	if err := insertTransactionTx(ctx, tx, txn); err != nil {
		return fmt.Errorf("failed to insert ticket transaction: %w", err)
	}

	return tx.Commit()
}

// ReleaseSale reverts a sold ticket back to available after a refund
func (r *TicketRepository) ReleaseSale(ctx context.Context, id int64) error {
	query := `
		UPDATE tickets
		SET sold = FALSE, state = $1, booked_until = NULL,
		    pending_payment_id = NULL, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, models.StateAvailable, id)
	return err
}

// GetExpiredHolds lists unsold tickets whose hold lapsed without a terminal
// outcome. Consumed by the reconciliation sweeper.
func (r *TicketRepository) GetExpiredHolds(ctx context.Context, limit int) ([]models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		JOIN event_sessions es ON es.id = t.event_session_id
		JOIN event_types et ON et.id = es.event_type_id
		WHERE t.sold = FALSE
		  AND t.booked_until IS NOT NULL
		  AND t.booked_until <= NOW()
		ORDER BY t.booked_until
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}

	return tickets, rows.Err()
}
