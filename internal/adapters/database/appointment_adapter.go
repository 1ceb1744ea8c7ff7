package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
	"github.com/safemama-pikin/outreach/internal/infrastructure/clients/postgres"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

const appointmentsTable = "master_appointments"

var appointmentColumns = []interface{}{
	"id", "patient_id", "patient_name", "patient_phone",
	"emergency_contact_phone", "preferred_language", "age",
	"blood_group", "genotype", "service_type", "location",
	"appointment_datetime", "status",
	"patient_call_attempts", "human_escalation_attempts",
	"last_call_id", "last_call_timestamp", "last_escalation_attempt_timestamp",
	"assigned_volunteer_id", "volunteer_name", "volunteer_phone",
	"volunteer_email", "volunteer_role",
	"handled_by_ai", "created_at", "updated_at",
}

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	if err := validateAppointment(appointment); err != nil {
		return err
	}

	record := goqu.Record{
		"id":                        appointment.ID,
		"patient_id":                appointment.PatientID,
		"patient_name":              appointment.PatientName,
		"patient_phone":             appointment.PatientPhone,
		"emergency_contact_phone":   appointment.EmergencyContactPhone,
		"preferred_language":        appointment.PreferredLanguage,
		"age":                       appointment.Age,
		"blood_group":               appointment.BloodGroup,
		"genotype":                  appointment.Genotype,
		"service_type":              appointment.ServiceType,
		"location":                  appointment.Location,
		"appointment_datetime":      appointment.AppointmentDatetime,
		"status":                    appointment.Status,
		"patient_call_attempts":     appointment.PatientCallAttempts,
		"human_escalation_attempts": appointment.HumanEscalationAttempts,
		"handled_by_ai":             appointment.HandledByAI,
		"created_at":                appointment.CreatedAt,
		"updated_at":                appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert(appointmentsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return apperrors.NewConflictError(
				fmt.Sprintf("appointment for phone %s already exists", appointment.PatientPhone))
		}
		return apperrors.NewInternalError("failed to create appointment", err)
	}

	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}

	return appointment, nil
}

// GetByCallID retrieves the appointment correlated with a telephony call
func (a *AppointmentAdapter) GetByCallID(ctx context.Context, callID string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(goqu.Ex{"last_call_id": callID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no appointment for call %s", callID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment by call id", err)
	}

	return appointment, nil
}

// GetDue returns appointments that should receive an outreach call now:
// actionable status, inside the lead window, attempts remaining, and no
// call placed within the last retryDelay. The delay gate keeps a short poll
// interval from burning every attempt back to back.
func (a *AppointmentAdapter) GetDue(ctx context.Context, now time.Time, leadWindow, retryDelay time.Duration, maxAttempts, limit int) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(
			goqu.C("status").In(
				entities.AppointmentStatusPending,
				entities.AppointmentStatusRescheduled,
			),
			goqu.C("appointment_datetime").Gt(now),
			goqu.C("appointment_datetime").Lte(now.Add(leadWindow)),
			goqu.C("patient_call_attempts").Lt(maxAttempts),
			goqu.Or(
				goqu.C("last_call_timestamp").IsNull(),
				goqu.C("last_call_timestamp").Lte(now.Add(-retryDelay)),
			),
		).
		Order(
			goqu.I("appointment_datetime").Asc(),
			goqu.I("patient_call_attempts").Asc(),
		)

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	return a.queryAppointments(ctx, ds, "failed to list due appointments")
}

// GetExpiredLeases returns appointments whose call lease has run out with no
// reported outcome.
func (a *AppointmentAdapter) GetExpiredLeases(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(
			goqu.Ex{"status": entities.AppointmentStatusCalling},
			goqu.C("last_call_timestamp").Lt(cutoff),
		).
		Order(goqu.I("last_call_timestamp").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	return a.queryAppointments(ctx, ds, "failed to list expired call leases")
}

// GetStaleEscalations returns escalated appointments where no volunteer has
// acted within the SLA window. Rows with no recorded attempt timestamp (the
// transition landed but the attempt stamp did not) are included, otherwise
// they would never be swept.
func (a *AppointmentAdapter) GetStaleEscalations(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From(appointmentsTable).
		Where(
			goqu.Ex{"status": entities.AppointmentStatusHumanEscalation},
			goqu.Or(
				goqu.C("last_escalation_attempt_timestamp").Lt(cutoff),
				goqu.C("last_escalation_attempt_timestamp").IsNull(),
			),
		).
		Order(goqu.I("last_escalation_attempt_timestamp").Asc().NullsFirst())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	return a.queryAppointments(ctx, ds, "failed to list stale escalations")
}

// ConditionalTransition performs an optimistic status transition. The WHERE
// clause carries the expected statuses, so two workers racing on the same
// appointment cannot both win: the loser's UPDATE matches zero rows.
func (a *AppointmentAdapter) ConditionalTransition(ctx context.Context, id string, expected []entities.AppointmentStatus, next entities.AppointmentStatus, updates map[string]interface{}) error {
	record := goqu.Record{
		"status":     next,
		"updated_at": time.Now(),
	}
	for col, val := range updates {
		record[col] = val
	}

	statuses := make([]interface{}, 0, len(expected))
	for _, s := range expected {
		statuses = append(statuses, s)
	}

	query, args, err := a.db.Update(appointmentsTable).
		Set(record).
		Where(
			goqu.Ex{"id": id},
			goqu.C("status").In(statuses...),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build transition query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to transition appointment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		// Distinguish a lost race from a missing row.
		if _, getErr := a.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return apperrors.NewConflictError(
			fmt.Sprintf("appointment %s is not in an expected status for transition to %s", id, next))
	}

	return nil
}

// RecordCallAttempt increments the patient call counter and stamps the call
// correlation fields. An empty callID clears last_call_id, which records a
// dispatch that never produced a provider call.
func (a *AppointmentAdapter) RecordCallAttempt(ctx context.Context, id, callID string, at time.Time) error {
	record := goqu.Record{
		"patient_call_attempts": goqu.L("patient_call_attempts + 1"),
		"last_call_timestamp":   at,
		"updated_at":            time.Now(),
	}
	if callID != "" {
		record["last_call_id"] = callID
	} else {
		record["last_call_id"] = nil
	}

	query, args, err := a.db.Update(appointmentsTable).
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build call attempt query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to record call attempt", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}

	return nil
}

// RecordEscalationAttempt increments the escalation counter and stamps the
// escalation timestamp.
func (a *AppointmentAdapter) RecordEscalationAttempt(ctx context.Context, id string, at time.Time) error {
	query, args, err := a.db.Update(appointmentsTable).
		Set(goqu.Record{
			"human_escalation_attempts":         goqu.L("human_escalation_attempts + 1"),
			"last_escalation_attempt_timestamp": at,
			"updated_at":                        time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build escalation attempt query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to record escalation attempt", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}

	return nil
}

// List retrieves appointments for operator tooling
func (a *AppointmentAdapter) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).From(appointmentsTable)

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	if filter.From != nil {
		ds = ds.Where(goqu.C("appointment_datetime").Gte(*filter.From))
	}

	if filter.To != nil {
		ds = ds.Where(goqu.C("appointment_datetime").Lte(*filter.To))
	}

	ds = ds.Order(goqu.I("appointment_datetime").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	return a.queryAppointments(ctx, ds, "failed to list appointments")
}

func (a *AppointmentAdapter) queryAppointments(ctx context.Context, ds *goqu.SelectDataset, errMsg string) ([]*entities.Appointment, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError(errMsg, err)
	}
	defer rows.Close()

	var appointments []*entities.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}

	return appointments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var (
		lastCallID          sql.NullString
		lastCallTS          sql.NullTime
		lastEscalationTS    sql.NullTime
		assignedVolunteerID sql.NullString
		volunteerName       sql.NullString
		volunteerPhone      sql.NullString
		volunteerEmail      sql.NullString
		volunteerRole       sql.NullString
	)

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.PatientName,
		&appointment.PatientPhone,
		&appointment.EmergencyContactPhone,
		&appointment.PreferredLanguage,
		&appointment.Age,
		&appointment.BloodGroup,
		&appointment.Genotype,
		&appointment.ServiceType,
		&appointment.Location,
		&appointment.AppointmentDatetime,
		&appointment.Status,
		&appointment.PatientCallAttempts,
		&appointment.HumanEscalationAttempts,
		&lastCallID,
		&lastCallTS,
		&lastEscalationTS,
		&assignedVolunteerID,
		&volunteerName,
		&volunteerPhone,
		&volunteerEmail,
		&volunteerRole,
		&appointment.HandledByAI,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastCallID.Valid {
		appointment.LastCallID = &lastCallID.String
	}
	if lastCallTS.Valid {
		appointment.LastCallTimestamp = &lastCallTS.Time
	}
	if lastEscalationTS.Valid {
		appointment.LastEscalationAttemptTimestamp = &lastEscalationTS.Time
	}
	if assignedVolunteerID.Valid {
		appointment.AssignedVolunteerID = &assignedVolunteerID.String
	}
	if volunteerName.Valid {
		appointment.VolunteerName = &volunteerName.String
	}
	if volunteerPhone.Valid {
		appointment.VolunteerPhone = &volunteerPhone.String
	}
	if volunteerEmail.Valid {
		appointment.VolunteerEmail = &volunteerEmail.String
	}
	if volunteerRole.Valid {
		role := entities.VolunteerRole(volunteerRole.String)
		appointment.VolunteerRole = &role
	}

	return appointment, nil
}

func validateAppointment(appointment *entities.Appointment) error {
	if !appointment.Status.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid status %q", appointment.Status))
	}
	if !appointment.BloodGroup.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid blood group %q", appointment.BloodGroup))
	}
	if !appointment.Genotype.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid genotype %q", appointment.Genotype))
	}
	if !appointment.ServiceType.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid service type %q", appointment.ServiceType))
	}
	return nil
}
