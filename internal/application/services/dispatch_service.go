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
	"github.com/safemama-pikin/outreach/pkg/retry"
)

// DispatchService places automated outreach calls and processes their
// asynchronous outcomes. Dispatching claims the appointment with a
// time-bounded lease (status calling + last_call_timestamp) so that only one
// worker calls any patient at a time.
type DispatchService struct {
	appointmentRepo repositories.AppointmentRepository
	telephony       providers.TelephonyProvider
	settings        providers.SettingsReader
	escalation      *EscalationService
	eventBus        providers.EventBus
	clock           providers.Clock
	metrics         *observability.Metrics
	retryConfig     retry.Config
	webhookBaseURL  string
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(
	appointmentRepo repositories.AppointmentRepository,
	telephony providers.TelephonyProvider,
	settings providers.SettingsReader,
	escalation *EscalationService,
	eventBus providers.EventBus,
	clock providers.Clock,
	metrics *observability.Metrics,
	webhookBaseURL string,
) *DispatchService {
	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = 3
	retryConfig.MaxTotalTimeout = 30 * time.Second

	return &DispatchService{
		appointmentRepo: appointmentRepo,
		telephony:       telephony,
		settings:        settings,
		escalation:      escalation,
		eventBus:        eventBus,
		clock:           clock,
		metrics:         metrics,
		retryConfig:     retryConfig,
		webhookBaseURL:  webhookBaseURL,
	}
}

// Dispatch claims the appointment and places one call. A lost claim race is
// not an error: another worker owns the appointment now.
func (s *DispatchService) Dispatch(ctx context.Context, appointment *entities.Appointment) error {
	now := s.clock.Now()

	err := s.appointmentRepo.ConditionalTransition(ctx, appointment.ID,
		[]entities.AppointmentStatus{entities.AppointmentStatusPending, entities.AppointmentStatusRescheduled},
		entities.AppointmentStatusCalling,
		map[string]interface{}{"last_call_timestamp": now})
	if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	callID, callErr := s.placeCall(ctx, appointment)
	if callErr != nil {
		s.metrics.RecordCallDispatched(ctx, false)
		return s.handleDispatchFailure(ctx, appointment, callErr)
	}

	if err := s.appointmentRepo.RecordCallAttempt(ctx, appointment.ID, callID, s.clock.Now()); err != nil {
		return err
	}

	s.metrics.RecordCallDispatched(ctx, true)
	s.publishEvent(ctx, entities.EventCallDispatched, appointment.ID,
		entities.AppointmentStatusCalling, fmt.Sprintf("call %s placed", callID))
	return nil
}

// placeCall asks the telephony provider for a call, retrying transient
// failures. Terminal failures stop the loop immediately.
func (s *DispatchService) placeCall(ctx context.Context, appointment *entities.Appointment) (string, error) {
	baseURL := s.webhookBaseURL
	if snapshot, err := s.settings.Snapshot(ctx); err == nil {
		baseURL = snapshot.Get(entities.SettingWebhookBaseURL, baseURL)
	}

	req := providers.CallRequest{
		Phone:             appointment.PatientPhone,
		AppointmentID:     appointment.ID,
		VoiceURL:          fmt.Sprintf("%s/api/voice/outbound?appointment_id=%s", baseURL, appointment.ID),
		StatusCallbackURL: fmt.Sprintf("%s/api/webhooks/telephony", baseURL),
	}

	var callID string
	var terminalErr error
	err := retry.Do(ctx, s.retryConfig, func() error {
		sid, callErr := s.telephony.InitiateCall(ctx, req)
		if callErr != nil {
			if apperrors.IsType(callErr, apperrors.ErrorTypeProviderTerminal) {
				// Returning nil stops the retry loop; the terminal
				// error is surfaced below.
				terminalErr = callErr
				return nil
			}
			return callErr
		}
		callID = sid
		return nil
	})
	if terminalErr != nil {
		return "", terminalErr
	}
	if err != nil {
		return "", err
	}
	return callID, nil
}

// handleDispatchFailure records the failed attempt and decides where the
// appointment goes. Terminal failures (bad number, rejected request) burn an
// attempt and run the escalation evaluation; transient failures return the
// appointment to its queue for the next cycle.
func (s *DispatchService) handleDispatchFailure(ctx context.Context, appointment *entities.Appointment, callErr error) error {
	log.Printf("Call dispatch failed for appointment %s: %v", appointment.ID, callErr)

	if apperrors.IsType(callErr, apperrors.ErrorTypeProviderTerminal) {
		if err := s.appointmentRepo.RecordCallAttempt(ctx, appointment.ID, "", s.clock.Now()); err != nil {
			return err
		}
		err := s.appointmentRepo.ConditionalTransition(ctx, appointment.ID,
			[]entities.AppointmentStatus{entities.AppointmentStatusCalling},
			entities.AppointmentStatusUnreachable, nil)
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return nil
		}
		if err != nil {
			return err
		}

		updated := *appointment
		updated.Status = entities.AppointmentStatusUnreachable
		updated.PatientCallAttempts++
		return s.escalation.Evaluate(ctx, &updated)
	}

	// Transient: release the lease without burning an attempt.
	err := s.appointmentRepo.ConditionalTransition(ctx, appointment.ID,
		[]entities.AppointmentStatus{entities.AppointmentStatusCalling},
		appointment.Status, nil)
	if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		return nil
	}
	return err
}

// HandleOutcome applies one asynchronous call outcome. It is idempotent:
// unknown call identifiers, already-terminal appointments, and replayed
// outcomes all land in a no-op.
func (s *DispatchService) HandleOutcome(ctx context.Context, callID string, outcome entities.CallOutcome) error {
	appointment, err := s.appointmentRepo.GetByCallID(ctx, callID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			log.Printf("Ignoring outcome %s for unknown call %s", outcome, callID)
			return nil
		}
		return err
	}

	if appointment.Status.Terminal() {
		return nil
	}

	s.metrics.RecordCallOutcome(ctx, string(outcome))

	next := outcome.StatusFor()
	expected := []entities.AppointmentStatus{
		entities.AppointmentStatusCalling,
		entities.AppointmentStatusPending,
	}
	if next != entities.AppointmentStatusUnreachable {
		// A late answer or reschedule still counts even if the lease
		// reaper already marked the appointment unreachable.
		expected = append(expected, entities.AppointmentStatusUnreachable)
	}

	err = s.appointmentRepo.ConditionalTransition(ctx, appointment.ID, expected, next, nil)
	if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		// Replayed or raced outcome; the first write won.
		return nil
	}
	if err != nil {
		return err
	}

	s.publishEvent(ctx, entities.EventCallOutcome, appointment.ID, next,
		fmt.Sprintf("call %s reported %s", callID, outcome))

	if next == entities.AppointmentStatusUnreachable {
		updated := *appointment
		updated.Status = entities.AppointmentStatusUnreachable
		return s.escalation.Evaluate(ctx, &updated)
	}

	return nil
}

func (s *DispatchService) publishEvent(ctx context.Context, eventType entities.OutreachEventType, appointmentID string, status entities.AppointmentStatus, detail string) {
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
