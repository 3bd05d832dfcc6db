package repository

import (
	"context"
	"database/sql"

	"kassa/internal/database"
	apperrors "kassa/internal/errors"
	"kassa/internal/models"
)

// TicketTransactionRepository is the transaction ledger: insert on a
// confirmed sale, flip is_returned exactly once on refund. It is the only
// writer of is_returned.
type TicketTransactionRepository struct {
	db *database.DB
}

func NewTicketTransactionRepository(db *database.DB) *TicketTransactionRepository {
	return &TicketTransactionRepository{db: db}
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertTransactionTx writes a ledger row inside the caller's transaction.
// Shared with TicketRepository.FinalizeSale so the ticket update and the
// ledger insert commit together.
func insertTransactionTx(ctx context.Context, q execQuerier, txn *models.TicketTransaction) error {
	query := `
		INSERT INTO ticket_transactions
			(ticket_id, external_id, amount, unreturnable_fee, currency, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return q.QueryRowContext(ctx, query,
		txn.TicketID,
		txn.ExternalID,
		txn.Amount,
		txn.UnreturnableFee,
		txn.Currency,
		txn.UserID,
	).Scan(&txn.ID, &txn.CreatedAt)
}

func (r *TicketTransactionRepository) Insert(ctx context.Context, txn *models.TicketTransaction) error {
	return insertTransactionTx(ctx, r.db, txn)
}

func (r *TicketTransactionRepository) GetByID(ctx context.Context, id int64) (*models.TicketTransaction, error) {
	txn := &models.TicketTransaction{}
	query := `
		SELECT id, ticket_id, external_id, amount, unreturnable_fee, currency,
		       user_id, is_returned, created_at
		FROM ticket_transactions
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&txn.ID,
		&txn.TicketID,
		&txn.ExternalID,
		&txn.Amount,
		&txn.UnreturnableFee,
		&txn.Currency,
		&txn.UserID,
		&txn.IsReturned,
		&txn.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return txn, err
}

// MarkReturned flips is_returned once. The guard in the WHERE clause keeps a
// concurrent double return from succeeding twice.
func (r *TicketTransactionRepository) MarkReturned(ctx context.Context, id int64) error {
	query := `
		UPDATE ticket_transactions
		SET is_returned = TRUE
		WHERE id = $1 AND is_returned = FALSE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrAlreadyReturned
	}
	return nil
}
