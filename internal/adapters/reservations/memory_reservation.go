package reservations

import (
	"context"
	"sync"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/providers"
)

// InMemoryReservationStore implements the ReservationStore interface with a
// process-local map. Only safe for single-instance deployments and local
// development when Redis is unavailable.
type InMemoryReservationStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

// NewInMemoryReservationStore creates a new in-memory reservation store
func NewInMemoryReservationStore() providers.ReservationStore {
	return &InMemoryReservationStore{
		expires: make(map[string]time.Time),
	}
}

// Reserve attempts to take a short-lived exclusive hold on a volunteer.
func (s *InMemoryReservationStore) Reserve(ctx context.Context, volunteerID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if until, held := s.expires[volunteerID]; held && until.After(now) {
		return false, nil
	}
	s.expires[volunteerID] = now.Add(ttl)
	return true, nil
}

// Release drops the reservation
func (s *InMemoryReservationStore) Release(ctx context.Context, volunteerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expires, volunteerID)
	return nil
}
