package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// IdempotencyStore hands out one idempotency key per in-flight purchase
// attempt on a ticket, so a retried request reaches the gateway with the same
// key and can be deduplicated there. Keys expire with the hold lease.
//
// The store is best effort: if Redis is unreachable a fresh key is returned
// and the purchase proceeds without retry protection.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(cfg Config) (*IdempotencyStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	slog.Info("Connected to redis", "addr", cfg.Addr)
	return &IdempotencyStore{client: rdb}, nil
}

func purchaseKey(ticketID int64) string {
	return fmt.Sprintf("purchase:idem:%d", ticketID)
}

// PurchaseKey returns the idempotency key for the current purchase attempt on
// the ticket, creating one with the given TTL if none is active.
func (s *IdempotencyStore) PurchaseKey(ctx context.Context, ticketID int64, ttl time.Duration) string {
	key := purchaseKey(ticketID)
	fresh := uuid.New().String()

	ok, err := s.client.SetNX(ctx, key, fresh, ttl).Result()
	if err != nil {
		slog.Warn("Idempotency store unavailable, using fresh key",
			"ticket_id", ticketID, "error", err)
		return fresh
	}
	if ok {
		return fresh
	}

	existing, err := s.client.Get(ctx, key).Result()
	if err != nil || existing == "" {
		return fresh
	}
	return existing
}

// Drop removes the idempotency key once a purchase reached a terminal outcome
func (s *IdempotencyStore) Drop(ctx context.Context, ticketID int64) {
	if err := s.client.Del(ctx, purchaseKey(ticketID)).Err(); err != nil {
		slog.Warn("Failed to drop idempotency key", "ticket_id", ticketID, "error", err)
	}
}

func (s *IdempotencyStore) Close() error {
	return s.client.Close()
}
