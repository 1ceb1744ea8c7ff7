package providers

import (
	"context"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
)

// NotificationChannel delivers an escalation notice to a volunteer through
// an external channel.
type NotificationChannel interface {
	Notify(ctx context.Context, volunteer *entities.Volunteer, appointment *entities.Appointment) error
}
