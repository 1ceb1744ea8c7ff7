package providers

import (
	"context"
	"time"
)

// ReservationStore holds short-lived claims on volunteers so that two
// concurrent escalations cannot assign the same person. A reservation
// expires on its own if the holder crashes before confirming or releasing.
type ReservationStore interface {
	// Reserve attempts to claim the volunteer for ttl. Returns false when
	// someone else already holds the claim.
	Reserve(ctx context.Context, volunteerID string, ttl time.Duration) (bool, error)

	// Release drops the claim. Releasing an expired or absent claim is a
	// no-op.
	Release(ctx context.Context, volunteerID string) error
}
