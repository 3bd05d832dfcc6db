package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createEventTypesTable,
		createEventSessionsTable,
		createTicketsTable,
		createTicketTransactionsTable,
		createTicketsHoldIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    username VARCHAR(100) UNIQUE NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    first_name VARCHAR(100) NOT NULL,
    surname VARCHAR(100) NOT NULL,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createEventTypesTable = `
CREATE TABLE IF NOT EXISTS event_types (
    id SERIAL PRIMARY KEY,
    name VARCHAR(100) UNIQUE NOT NULL,
    booking_fee_percent DECIMAL(5,2) NOT NULL DEFAULT 0
);`

const createEventSessionsTable = `
CREATE TABLE IF NOT EXISTS event_sessions (
    id SERIAL PRIMARY KEY,
    event_type_id INTEGER NOT NULL REFERENCES event_types(id),
    title VARCHAR(500) NOT NULL,
    starts_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id SERIAL PRIMARY KEY,
    event_session_id INTEGER NOT NULL REFERENCES event_sessions(id) ON DELETE CASCADE,
    seat_label VARCHAR(50),
    price DECIMAL(10,2) NOT NULL,
    currency CHAR(3) NOT NULL DEFAULT 'USD',
    sold BOOLEAN NOT NULL DEFAULT FALSE,
    state VARCHAR(24) NOT NULL DEFAULT 'AVAILABLE',
    booked_until TIMESTAMP,
    pending_payment_id VARCHAR(100),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (state IN ('AVAILABLE', 'HELD', 'AWAITING_CONFIRMATION', 'SOLD', 'CANCELLED', 'RETURNED'))
);`

const createTicketTransactionsTable = `
CREATE TABLE IF NOT EXISTS ticket_transactions (
    id SERIAL PRIMARY KEY,
    ticket_id INTEGER NOT NULL REFERENCES tickets(id),
    external_id VARCHAR(100) NOT NULL,
    amount DECIMAL(10,2) NOT NULL,
    unreturnable_fee DECIMAL(10,2) NOT NULL,
    currency CHAR(3) NOT NULL,
    user_id INTEGER NOT NULL REFERENCES users(user_id),
    is_returned BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createTicketsHoldIndex = `
CREATE INDEX IF NOT EXISTS idx_tickets_expired_holds
ON tickets (booked_until)
WHERE sold = FALSE AND booked_until IS NOT NULL;`
