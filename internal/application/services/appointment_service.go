package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

// SupportedLanguages lists the languages the voice agent can hold a
// conversation in.
var SupportedLanguages = []string{"English", "Hausa", "Igbo", "Yoruba", "Pidgin"}

// AppointmentService handles operator-facing appointment management
type AppointmentService struct {
	repo repositories.AppointmentRepository
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(repo repositories.AppointmentRepository) *AppointmentService {
	return &AppointmentService{repo: repo}
}

// CreateAppointment validates and persists a new appointment. It enters the
// outreach pipeline as pending; the scheduler picks it up once it is inside
// the lead window.
func (s *AppointmentService) CreateAppointment(ctx context.Context, appointment *entities.Appointment) error {
	if err := s.validate(appointment); err != nil {
		return err
	}

	if appointment.ID == "" {
		appointment.ID = uuid.New().String()
	}
	appointment.Status = entities.AppointmentStatusPending
	appointment.PatientCallAttempts = 0
	appointment.HumanEscalationAttempts = 0
	appointment.HandledByAI = true
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	return s.repo.Create(ctx, appointment)
}

// GetAppointment retrieves an appointment by ID
func (s *AppointmentService) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAppointments lists appointments for operator tooling
func (s *AppointmentService) ListAppointments(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status filter")
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// RescheduleAppointment moves a non-terminal appointment to a new time. The
// call counter resets so the new datetime gets a full outreach round; the
// escalation counter survives because the patient history does not change.
func (s *AppointmentService) RescheduleAppointment(ctx context.Context, id string, newTime time.Time) (*entities.Appointment, error) {
	if newTime.Before(time.Now()) {
		return nil, apperrors.NewValidationError("appointment time must be in the future")
	}

	err := s.repo.ConditionalTransition(ctx, id,
		[]entities.AppointmentStatus{
			entities.AppointmentStatusPending,
			entities.AppointmentStatusRescheduled,
			entities.AppointmentStatusUnreachable,
			entities.AppointmentStatusCalling,
			entities.AppointmentStatusHumanEscalation,
		},
		entities.AppointmentStatusRescheduled,
		map[string]interface{}{
			"appointment_datetime":  newTime,
			"patient_call_attempts": 0,
		})
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return nil, apperrors.NewConflictError("appointment is in a terminal state")
		}
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *AppointmentService) validate(appointment *entities.Appointment) error {
	if strings.TrimSpace(appointment.PatientName) == "" {
		return apperrors.NewValidationError("patient name is required")
	}
	if strings.TrimSpace(appointment.PatientPhone) == "" {
		return apperrors.NewValidationError("patient phone is required")
	}
	if appointment.AppointmentDatetime.Before(time.Now()) {
		return apperrors.NewValidationError("appointment time must be in the future")
	}
	if appointment.Age <= 0 || appointment.Age > 120 {
		return apperrors.NewValidationError("age must be between 1 and 120")
	}
	if !appointment.BloodGroup.Valid() {
		return apperrors.NewValidationError("unknown blood group")
	}
	if !appointment.Genotype.Valid() {
		return apperrors.NewValidationError("unknown genotype")
	}
	if !appointment.ServiceType.Valid() {
		return apperrors.NewValidationError("unknown service type")
	}
	if !languageSupported(appointment.PreferredLanguage) {
		return apperrors.NewValidationError("unsupported preferred language")
	}
	return nil
}

func languageSupported(language string) bool {
	for _, l := range SupportedLanguages {
		if strings.EqualFold(l, strings.TrimSpace(language)) {
			return true
		}
	}
	return false
}
