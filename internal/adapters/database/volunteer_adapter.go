package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
	"github.com/safemama-pikin/outreach/internal/infrastructure/clients/postgres"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

const volunteersTable = "volunteers"

var volunteerColumns = []interface{}{
	"id", "name", "email", "credential", "phone", "role",
	"spoken_languages", "location", "active", "last_assigned_at",
	"created_at", "updated_at",
}

// VolunteerAdapter implements the VolunteerRepository interface
type VolunteerAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewVolunteerAdapter creates a new volunteer adapter
func NewVolunteerAdapter(client *postgres.Client) repositories.VolunteerRepository {
	return &VolunteerAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new volunteer. Spoken languages are stored as a
// comma-separated list.
func (a *VolunteerAdapter) Create(ctx context.Context, volunteer *entities.Volunteer) error {
	if !volunteer.Role.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid volunteer role %q", volunteer.Role))
	}

	record := goqu.Record{
		"id":               volunteer.ID,
		"name":             volunteer.Name,
		"email":            volunteer.Email,
		"credential":       volunteer.Credential,
		"phone":            volunteer.Phone,
		"role":             volunteer.Role,
		"spoken_languages": strings.Join(volunteer.SpokenLanguages, ","),
		"location":         volunteer.Location,
		"active":           volunteer.Active,
		"created_at":       volunteer.CreatedAt,
		"updated_at":       volunteer.UpdatedAt,
	}

	query, args, err := a.db.Insert(volunteersTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create volunteer", err)
	}

	return nil
}

// GetByID retrieves a volunteer by ID
func (a *VolunteerAdapter) GetByID(ctx context.Context, id string) (*entities.Volunteer, error) {
	query, args, err := a.db.Select(volunteerColumns...).
		From(volunteersTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	volunteer, err := scanVolunteer(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("volunteer with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get volunteer", err)
	}

	return volunteer, nil
}

// FindEligible returns active volunteers of the given role who speak the
// given language, least-recently-assigned first so assignments rotate
// through the pool. Volunteers already attached to an unresolved escalation
// are excluded, so one volunteer never carries two live cases.
func (a *VolunteerAdapter) FindEligible(ctx context.Context, role entities.VolunteerRole, language string) ([]*entities.Volunteer, error) {
	busy := a.db.Select("assigned_volunteer_id").
		From(appointmentsTable).
		Where(
			goqu.Ex{"status": entities.AppointmentStatusHumanEscalation},
			goqu.C("assigned_volunteer_id").IsNotNull(),
		)

	ds := a.db.Select(volunteerColumns...).
		From(volunteersTable).
		Where(
			goqu.Ex{"role": role, "active": true},
			goqu.C("spoken_languages").ILike("%"+language+"%"),
			goqu.C("id").NotIn(busy),
		).
		Order(goqu.I("last_assigned_at").Asc().NullsFirst())

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find eligible volunteers", err)
	}
	defer rows.Close()

	var volunteers []*entities.Volunteer
	for rows.Next() {
		volunteer, err := scanVolunteer(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan volunteer", err)
		}
		// ILIKE on the joined list can match a substring of another
		// language name, so re-check in memory.
		if !volunteer.Speaks(language) {
			continue
		}
		volunteers = append(volunteers, volunteer)
	}

	return volunteers, rows.Err()
}

// MarkAssigned stamps the volunteer's last assignment time
func (a *VolunteerAdapter) MarkAssigned(ctx context.Context, id string, at time.Time) error {
	query, args, err := a.db.Update(volunteersTable).
		Set(goqu.Record{
			"last_assigned_at": at,
			"updated_at":       time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to mark volunteer assigned", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("volunteer with id %s not found", id))
	}

	return nil
}

func scanVolunteer(row rowScanner) (*entities.Volunteer, error) {
	volunteer := &entities.Volunteer{}
	var spokenLanguages sql.NullString
	var lastAssignedAt sql.NullTime

	err := row.Scan(
		&volunteer.ID,
		&volunteer.Name,
		&volunteer.Email,
		&volunteer.Credential,
		&volunteer.Phone,
		&volunteer.Role,
		&spokenLanguages,
		&volunteer.Location,
		&volunteer.Active,
		&lastAssignedAt,
		&volunteer.CreatedAt,
		&volunteer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if spokenLanguages.Valid && spokenLanguages.String != "" {
		parts := strings.Split(spokenLanguages.String, ",")
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				volunteer.SpokenLanguages = append(volunteer.SpokenLanguages, trimmed)
			}
		}
	}
	if lastAssignedAt.Valid {
		volunteer.LastAssignedAt = &lastAssignedAt.Time
	}

	return volunteer, nil
}
