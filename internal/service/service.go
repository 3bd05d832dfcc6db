package service

import (
	"kassa/internal/booking"
	"kassa/internal/config"
	"kassa/internal/external"
	"kassa/internal/messaging"
	"kassa/internal/repository"
)

type Services struct {
	Purchases *PurchaseService
	Booking   *booking.Engine
}

func NewServices(
	repos *repository.Repositories,
	engine *booking.Engine,
	natsClient *messaging.NATSClient,
	paymentClient *external.PaymentClient,
	idem IdempotencyKeys,
	policy config.PurchaseConfig,
) *Services {
	// Without a NATS connection lifecycle events are skipped entirely,
	// a typed nil must not reach the publisher interface
	var publisher EventPublisher
	if natsClient != nil {
		publisher = natsClient
	}

	purchaseService := NewPurchaseService(
		repos.Tickets,
		repos.Transactions,
		repos.Users,
		paymentClient,
		engine,
		publisher,
		idem,
		policy,
	)

	return &Services{
		Purchases: purchaseService,
		Booking:   engine,
	}
}
