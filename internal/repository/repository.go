package repository

import (
	"kassa/internal/database"
)

type Repositories struct {
	Tickets      *TicketRepository
	Transactions *TicketTransactionRepository
	Users        *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Tickets:      NewTicketRepository(db),
		Transactions: NewTicketTransactionRepository(db),
		Users:        NewUserRepository(db),
	}
}
