package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/providers"
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
	"github.com/safemama-pikin/outreach/internal/infrastructure/observability"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

// EventChannel is the bus channel outreach events are published on.
const EventChannel = "outreach.events"

// EscalationService drives the volunteer escalation ladder. An appointment
// enters it once automated calls are exhausted and leaves it when a
// volunteer resolves the case or every tier has been tried.
type EscalationService struct {
	appointmentRepo       repositories.AppointmentRepository
	assignments           *AssignmentService
	notifier              providers.NotificationChannel
	eventBus              providers.EventBus
	clock                 providers.Clock
	metrics               *observability.Metrics
	maxPatientAttempts    int
	maxEscalationAttempts int
}

// NewEscalationService creates a new escalation service
func NewEscalationService(
	appointmentRepo repositories.AppointmentRepository,
	assignments *AssignmentService,
	notifier providers.NotificationChannel,
	eventBus providers.EventBus,
	clock providers.Clock,
	metrics *observability.Metrics,
	maxPatientAttempts int,
	maxEscalationAttempts int,
) *EscalationService {
	return &EscalationService{
		appointmentRepo:       appointmentRepo,
		assignments:           assignments,
		notifier:              notifier,
		eventBus:              eventBus,
		clock:                 clock,
		metrics:               metrics,
		maxPatientAttempts:    maxPatientAttempts,
		maxEscalationAttempts: maxEscalationAttempts,
	}
}

// Evaluate decides what happens to an unreachable appointment: requeue for
// another automated call round while attempts remain, otherwise hand it to
// a human volunteer.
func (s *EscalationService) Evaluate(ctx context.Context, appointment *entities.Appointment) error {
	if appointment.Status != entities.AppointmentStatusUnreachable {
		return nil
	}

	if appointment.PatientCallAttempts < s.maxPatientAttempts {
		err := s.appointmentRepo.ConditionalTransition(ctx, appointment.ID,
			[]entities.AppointmentStatus{entities.AppointmentStatusUnreachable},
			entities.AppointmentStatusPending, nil)
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			// Someone else already moved it on.
			return nil
		}
		return err
	}

	return s.escalate(ctx, appointment)
}

func (s *EscalationService) escalate(ctx context.Context, appointment *entities.Appointment) error {
	if appointment.HumanEscalationAttempts >= s.maxEscalationAttempts {
		return s.markExhausted(ctx, appointment.ID,
			[]entities.AppointmentStatus{entities.AppointmentStatusUnreachable, entities.AppointmentStatusHumanEscalation})
	}

	err := s.appointmentRepo.ConditionalTransition(ctx, appointment.ID,
		[]entities.AppointmentStatus{entities.AppointmentStatusUnreachable},
		entities.AppointmentStatusHumanEscalation, nil)
	if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	attempt := appointment.HumanEscalationAttempts + 1
	if err := s.appointmentRepo.RecordEscalationAttempt(ctx, appointment.ID, s.clock.Now()); err != nil {
		return err
	}

	s.publishEvent(ctx, entities.EventEscalationStarted, appointment.ID,
		entities.AppointmentStatusHumanEscalation,
		fmt.Sprintf("escalation round %d", attempt))

	return s.assign(ctx, appointment, attempt)
}

// assign picks and records a volunteer for the given escalation round. An
// empty pool leaves the appointment in human_escalation; the stale-escalation
// sweep will try again after the SLA.
func (s *EscalationService) assign(ctx context.Context, appointment *entities.Appointment, attempt int) error {
	role := entities.RoleForEscalationAttempt(attempt)
	s.metrics.RecordEscalation(ctx, string(role))

	reservation, err := s.assignments.Resolve(ctx, role, appointment)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeUnavailable) {
			log.Printf("No %s volunteer available for appointment %s: %v", role, appointment.ID, err)
			return nil
		}
		return err
	}

	volunteer := reservation.Volunteer
	snapshot := &entities.Appointment{}
	snapshot.SnapshotVolunteer(volunteer)

	err = s.appointmentRepo.ConditionalTransition(ctx, appointment.ID,
		[]entities.AppointmentStatus{entities.AppointmentStatusHumanEscalation},
		entities.AppointmentStatusHumanEscalation,
		map[string]interface{}{
			"assigned_volunteer_id": snapshot.AssignedVolunteerID,
			"volunteer_name":        snapshot.VolunteerName,
			"volunteer_phone":       snapshot.VolunteerPhone,
			"volunteer_email":       snapshot.VolunteerEmail,
			"volunteer_role":        snapshot.VolunteerRole,
		})
	if err != nil {
		if releaseErr := s.assignments.Release(ctx, reservation); releaseErr != nil {
			log.Printf("Failed to release reservation for volunteer %s: %v", volunteer.ID, releaseErr)
		}
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			// A volunteer action resolved the case while we were assigning.
			return nil
		}
		return err
	}

	if err := s.assignments.Confirm(ctx, reservation); err != nil {
		log.Printf("Failed to confirm assignment of volunteer %s: %v", volunteer.ID, err)
	}

	// Notification failure is not fatal: the assignment stands and shows
	// up in volunteer tooling either way.
	if err := s.notifier.Notify(ctx, volunteer, appointment); err != nil {
		log.Printf("Failed to notify volunteer %s for appointment %s: %v", volunteer.ID, appointment.ID, err)
	}

	s.publishEvent(ctx, entities.EventVolunteerAssigned, appointment.ID,
		entities.AppointmentStatusHumanEscalation,
		fmt.Sprintf("assigned %s volunteer %s", role, volunteer.ID))

	return nil
}

// RetryStale re-escalates appointments whose assigned volunteer has not
// acted within the SLA, moving them up a tier or marking them exhausted.
func (s *EscalationService) RetryStale(ctx context.Context, sla time.Duration, limit int) error {
	cutoff := s.clock.Now().Add(-sla)
	stale, err := s.appointmentRepo.GetStaleEscalations(ctx, cutoff, limit)
	if err != nil {
		return err
	}

	for _, appointment := range stale {
		if appointment.HumanEscalationAttempts >= s.maxEscalationAttempts {
			if err := s.markExhausted(ctx, appointment.ID,
				[]entities.AppointmentStatus{entities.AppointmentStatusHumanEscalation}); err != nil {
				log.Printf("Failed to exhaust escalation for appointment %s: %v", appointment.ID, err)
			}
			continue
		}

		attempt := appointment.HumanEscalationAttempts + 1
		if err := s.appointmentRepo.RecordEscalationAttempt(ctx, appointment.ID, s.clock.Now()); err != nil {
			log.Printf("Failed to record escalation attempt for appointment %s: %v", appointment.ID, err)
			continue
		}

		s.publishEvent(ctx, entities.EventEscalationStarted, appointment.ID,
			entities.AppointmentStatusHumanEscalation,
			fmt.Sprintf("escalation round %d after SLA expiry", attempt))

		if err := s.assign(ctx, appointment, attempt); err != nil {
			log.Printf("Failed to reassign appointment %s: %v", appointment.ID, err)
		}
	}

	return nil
}

// VolunteerAction records the result of a volunteer's follow-up: the
// patient confirmed, asked to reschedule, or was transferred to another
// facility.
func (s *EscalationService) VolunteerAction(ctx context.Context, appointmentID, action string) error {
	var next entities.AppointmentStatus
	switch action {
	case "confirm":
		next = entities.AppointmentStatusConfirmed
	case "reschedule":
		next = entities.AppointmentStatusRescheduled
	case "transfer":
		next = entities.AppointmentStatusTransferred
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown action %q", action))
	}

	err := s.appointmentRepo.ConditionalTransition(ctx, appointmentID,
		[]entities.AppointmentStatus{entities.AppointmentStatusHumanEscalation},
		next, nil)
	if err != nil {
		return err
	}

	s.publishEvent(ctx, entities.EventCallOutcome, appointmentID, next,
		fmt.Sprintf("volunteer action: %s", action))
	return nil
}

func (s *EscalationService) markExhausted(ctx context.Context, appointmentID string, expected []entities.AppointmentStatus) error {
	err := s.appointmentRepo.ConditionalTransition(ctx, appointmentID, expected,
		entities.AppointmentStatusFailedEscalation, nil)
	if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	s.metrics.RecordEscalationExhausted(ctx)
	s.publishEvent(ctx, entities.EventEscalationFailed, appointmentID,
		entities.AppointmentStatusFailedEscalation, "all escalation tiers exhausted")
	return nil
}

func (s *EscalationService) publishEvent(ctx context.Context, eventType entities.OutreachEventType, appointmentID string, status entities.AppointmentStatus, detail string) {
	if s.eventBus == nil {
		return
	}
	event := &entities.OutreachEvent{
		ID:            uuid.New().String(),
		Type:          eventType,
		AppointmentID: appointmentID,
		Status:        status,
		Detail:        detail,
		Timestamp:     s.clock.Now(),
	}
	if err := s.eventBus.Publish(ctx, EventChannel, event); err != nil {
		log.Printf("Failed to publish %s event for appointment %s: %v", eventType, appointmentID, err)
	}
}
