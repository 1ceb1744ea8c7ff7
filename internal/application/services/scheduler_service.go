package services

import (
	"context"
	"log"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/providers"
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
	"github.com/safemama-pikin/outreach/internal/infrastructure/observability"
	"github.com/safemama-pikin/outreach/pkg/config"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

// SchedulerService runs the periodic outreach cycle: requeue expired call
// leases, dispatch calls for due appointments, and re-escalate stale
// volunteer assignments.
type SchedulerService struct {
	appointmentRepo repositories.AppointmentRepository
	dispatch        *DispatchService
	escalation      *EscalationService
	clock           providers.Clock
	metrics         *observability.Metrics
	cfg             config.OutreachConfig
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(
	appointmentRepo repositories.AppointmentRepository,
	dispatch *DispatchService,
	escalation *EscalationService,
	clock providers.Clock,
	metrics *observability.Metrics,
	cfg config.OutreachConfig,
) *SchedulerService {
	return &SchedulerService{
		appointmentRepo: appointmentRepo,
		dispatch:        dispatch,
		escalation:      escalation,
		clock:           clock,
		metrics:         metrics,
		cfg:             cfg,
	}
}

// Run executes cycles at the configured interval until ctx is cancelled.
func (s *SchedulerService) Run(ctx context.Context) {
	log.Printf("Outreach scheduler started (interval %v, batch %d)", s.cfg.PollInterval, s.cfg.BatchSize)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.RunCycle(ctx); err != nil {
			log.Printf("Outreach cycle failed: %v", err)
		}

		select {
		case <-ctx.Done():
			log.Println("Outreach scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunCycle executes one pass of the outreach pipeline. Each stage is
// independent; a failure in one does not stop the others.
func (s *SchedulerService) RunCycle(ctx context.Context) error {
	var firstErr error

	if err := s.reapExpiredLeases(ctx); err != nil {
		log.Printf("Lease reaping failed: %v", err)
		firstErr = err
	}

	if err := s.dispatchDue(ctx); err != nil {
		log.Printf("Dispatching due appointments failed: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if err := s.escalation.RetryStale(ctx, s.cfg.EscalationSLA, s.cfg.BatchSize); err != nil {
		log.Printf("Stale escalation sweep failed: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// reapExpiredLeases requeues appointments stuck in calling past the lease.
// The attempt was already counted at dispatch, so requeueing does not
// double-charge the patient.
func (s *SchedulerService) reapExpiredLeases(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.cfg.CallLease)
	expired, err := s.appointmentRepo.GetExpiredLeases(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, appointment := range expired {
		err := s.appointmentRepo.ConditionalTransition(ctx, appointment.ID,
			[]entities.AppointmentStatus{entities.AppointmentStatusCalling},
			entities.AppointmentStatusUnreachable, nil)
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			// The outcome arrived between listing and requeueing.
			continue
		}
		if err != nil {
			log.Printf("Failed to requeue expired lease for appointment %s: %v", appointment.ID, err)
			continue
		}

		s.metrics.RecordLeaseReaped(ctx)

		updated := *appointment
		updated.Status = entities.AppointmentStatusUnreachable
		if err := s.escalation.Evaluate(ctx, &updated); err != nil {
			log.Printf("Failed to evaluate reaped appointment %s: %v", appointment.ID, err)
		}
	}

	return nil
}

// dispatchDue places calls for appointments inside the lead window.
func (s *SchedulerService) dispatchDue(ctx context.Context) error {
	due, err := s.appointmentRepo.GetDue(ctx, s.clock.Now(), s.cfg.LeadWindow, s.cfg.RetryDelay, s.cfg.MaxPatientAttempts, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, appointment := range due {
		if err := s.dispatch.Dispatch(ctx, appointment); err != nil {
			log.Printf("Failed to dispatch appointment %s: %v", appointment.ID, err)
		}
	}

	return nil
}
