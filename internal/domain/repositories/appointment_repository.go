package repositories

import (
	"context"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
)

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Status entities.AppointmentStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// AppointmentRepository defines the persistence contract for appointments.
// Every state change goes through ConditionalTransition so that concurrent
// workers serialize on the status column rather than an external lock.
type AppointmentRepository interface {
	// Create persists a new appointment. Returns a validation error for
	// invalid enum values and a conflict error for a duplicate phone.
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// GetByCallID retrieves the appointment whose last recorded call
	// identifier matches callID.
	GetByCallID(ctx context.Context, callID string) (*entities.Appointment, error)

	// GetDue returns appointments ready for outreach: pending or
	// rescheduled, due within the lead window, with attempts remaining,
	// and last called at least retryDelay ago (never-called rows always
	// qualify). Ordered earliest-due first, fewer prior attempts breaking
	// ties.
	GetDue(ctx context.Context, now time.Time, leadWindow, retryDelay time.Duration, maxAttempts, limit int) ([]*entities.Appointment, error)

	// GetExpiredLeases returns appointments stuck in calling whose lease
	// timestamp is older than cutoff.
	GetExpiredLeases(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Appointment, error)

	// GetStaleEscalations returns appointments in human_escalation whose
	// last escalation attempt is older than cutoff.
	GetStaleEscalations(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Appointment, error)

	// ConditionalTransition atomically moves the appointment from one of
	// the expected statuses to next, applying extra column updates in the
	// same write. Returns a conflict error when the current status does
	// not match, a not found error for an unknown id.
	ConditionalTransition(ctx context.Context, id string, expected []entities.AppointmentStatus, next entities.AppointmentStatus, updates map[string]interface{}) error

	// RecordCallAttempt increments the patient call counter and stamps the
	// call identifier and timestamp. An empty callID records a failed
	// dispatch attempt.
	RecordCallAttempt(ctx context.Context, id, callID string, at time.Time) error

	// RecordEscalationAttempt increments the escalation counter and stamps
	// the escalation timestamp.
	RecordEscalationAttempt(ctx context.Context, id string, at time.Time) error

	// List retrieves appointments for operator tooling
	List(ctx context.Context, filter AppointmentFilter) ([]*entities.Appointment, error)
}
