package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/providers"
	redisclient "github.com/safemama-pikin/outreach/internal/infrastructure/clients/redis"
)

const reservationKeyPrefix = "outreach:volunteer-reservation:"

// RedisReservationStore implements the ReservationStore interface with Redis
// SET NX. The TTL guarantees a crashed worker cannot hold a volunteer
// forever.
type RedisReservationStore struct {
	client *redisclient.Client
}

// NewRedisReservationStore creates a new Redis-backed reservation store
func NewRedisReservationStore(client *redisclient.Client) providers.ReservationStore {
	return &RedisReservationStore{
		client: client,
	}
}

// Reserve attempts to take a short-lived exclusive hold on a volunteer.
// Returns false when another worker already holds the reservation.
func (s *RedisReservationStore) Reserve(ctx context.Context, volunteerID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Client().SetNX(ctx, reservationKeyPrefix+volunteerID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve volunteer %s: %w", volunteerID, err)
	}
	return ok, nil
}

// Release drops the reservation. Releasing a reservation that already
// expired is not an error.
func (s *RedisReservationStore) Release(ctx context.Context, volunteerID string) error {
	if err := s.client.Client().Del(ctx, reservationKeyPrefix+volunteerID).Err(); err != nil {
		return fmt.Errorf("failed to release volunteer %s: %w", volunteerID, err)
	}
	return nil
}
