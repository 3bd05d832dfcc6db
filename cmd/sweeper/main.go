package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kassa/internal/config"
	"kassa/internal/consumers"
	"kassa/internal/database"
	"kassa/internal/external"
	"kassa/internal/jobs"
	"kassa/internal/logger"
	"kassa/internal/messaging"
	"kassa/internal/repository"
)

func main() {
	log.Println("Starting sweeper service...")

	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Override NATS client ID for the sweeper
	cfg.NATS.ClientID = "kassa-sweeper"

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repos := repository.NewRepositories(db)
	paymentClient := external.NewPaymentClient(cfg.Payment)

	var events jobs.EventPublisher
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Printf("NATS unavailable, running without events: %v", err)
	} else {
		defer natsClient.Close()
		events = natsClient

		// Side-channel consumers for lifecycle events
		consumerService := consumers.NewConsumerService(natsClient)
		if err := consumerService.Start(); err != nil {
			log.Fatalf("Failed to start consumers: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := jobs.NewHoldExpirationJob(repos.Tickets, paymentClient, events, cfg.Purchase.SweepInterval)
	job.Start(ctx)

	log.Println("Sweeper service started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down sweeper service...")
	job.Stop()
	log.Println("Sweeper service stopped")
}
