package consumers

import (
	"log/slog"

	"kassa/internal/messaging"
	"kassa/internal/models"
)

// ConsumerService subscribes the event handlers to their NATS subjects
type ConsumerService struct {
	nats     *messaging.NATSClient
	handlers *Handlers
}

func NewConsumerService(nats *messaging.NATSClient) *ConsumerService {
	return &ConsumerService{
		nats:     nats,
		handlers: NewHandlers(),
	}
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventPurchaseInitiated, "consumers", cs.handlers.HandlePurchaseInitiated); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventPurchaseConfirmed, "consumers", cs.handlers.HandlePurchaseConfirmed); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventPurchaseCancelled, "consumers", cs.handlers.HandlePurchaseCancelled); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventPurchaseReturned, "consumers", cs.handlers.HandlePurchaseReturned); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventHoldExpired, "consumers", cs.handlers.HandleHoldExpired); err != nil {
		return err
	}

	slog.Info("All consumers started")
	return nil
}
