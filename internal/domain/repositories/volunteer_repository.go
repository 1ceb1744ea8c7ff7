package repositories

import (
	"context"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
)

// VolunteerRepository defines the persistence contract for the volunteer
// roster. The outreach core only reads it; registration is external.
type VolunteerRepository interface {
	// Create persists a new volunteer
	Create(ctx context.Context, volunteer *entities.Volunteer) error

	// GetByID retrieves a volunteer by ID
	GetByID(ctx context.Context, id string) (*entities.Volunteer, error)

	// FindEligible returns active volunteers with the given role who speak
	// the given language, least-recently-assigned first. Volunteers
	// holding an unresolved escalation are not candidates.
	FindEligible(ctx context.Context, role entities.VolunteerRole, language string) ([]*entities.Volunteer, error)

	// MarkAssigned stamps the volunteer's last assignment time, used for
	// load balancing across candidates.
	MarkAssigned(ctx context.Context, id string, at time.Time) error
}

// SettingRepository reads the key/value settings table.
type SettingRepository interface {
	GetAll(ctx context.Context) ([]*entities.Setting, error)
}
