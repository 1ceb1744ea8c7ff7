package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/safemama-pikin/outreach/internal/application/services"
	"github.com/safemama-pikin/outreach/internal/domain/entities"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

func newEscalationFixture(t *testing.T) (*services.EscalationService, *MockAppointmentRepository, *MockVolunteerRepository, *MockReservationStore, *MockNotificationChannel, *fakeClock) {
	t.Helper()

	repo := new(MockAppointmentRepository)
	volunteerRepo := new(MockVolunteerRepository)
	reservations := new(MockReservationStore)
	notifier := new(MockNotificationChannel)
	clock := &fakeClock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}

	assignments := services.NewAssignmentService(volunteerRepo, reservations, clock, 2*time.Minute)
	escalation := services.NewEscalationService(repo, assignments, notifier, nil, clock, nil, 3, 3)

	return escalation, repo, volunteerRepo, reservations, notifier, clock
}

func unreachableAppointment(callAttempts, escalationAttempts int) *entities.Appointment {
	return &entities.Appointment{
		ID:                      "appt-1",
		PatientName:             "Amina Bello",
		PreferredLanguage:       "Yoruba",
		Location:                "Ibadan",
		Status:                  entities.AppointmentStatusUnreachable,
		PatientCallAttempts:     callAttempts,
		HumanEscalationAttempts: escalationAttempts,
	}
}

func TestEscalationService_Evaluate(t *testing.T) {
	t.Run("requeues while call attempts remain", func(t *testing.T) {
		escalation, repo, _, _, _, _ := newEscalationFixture(t)

		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusUnreachable},
			entities.AppointmentStatusPending, mock.Anything).Return(nil)

		err := escalation.Evaluate(context.Background(), unreachableAppointment(1, 0))

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("second escalation round goes to the state tier", func(t *testing.T) {
		escalation, repo, volunteerRepo, reservations, notifier, _ := newEscalationFixture(t)

		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusUnreachable},
			entities.AppointmentStatusHumanEscalation, mock.Anything).Return(nil).Once()
		repo.On("RecordEscalationAttempt", mock.Anything, "appt-1", mock.Anything).Return(nil)

		volunteer := &entities.Volunteer{
			ID: "vol-state", Name: "Bola Ade", Phone: "+2348011111111",
			Role: entities.RoleState, SpokenLanguages: []string{"Yoruba"}, Active: true,
		}
		volunteerRepo.On("FindEligible", mock.Anything, entities.RoleState, "Yoruba").
			Return([]*entities.Volunteer{volunteer}, nil)
		reservations.On("Reserve", mock.Anything, "vol-state", mock.Anything).Return(true, nil)
		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusHumanEscalation},
			entities.AppointmentStatusHumanEscalation, mock.Anything).Return(nil).Once()
		volunteerRepo.On("MarkAssigned", mock.Anything, "vol-state", mock.Anything).Return(nil)
		reservations.On("Release", mock.Anything, "vol-state").Return(nil)
		notifier.On("Notify", mock.Anything, volunteer, mock.Anything).Return(nil)

		err := escalation.Evaluate(context.Background(), unreachableAppointment(3, 1))

		require.NoError(t, err)
		volunteerRepo.AssertExpectations(t)
	})

	t.Run("exhausted escalation rounds mark the appointment failed", func(t *testing.T) {
		escalation, repo, volunteerRepo, _, _, _ := newEscalationFixture(t)

		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusUnreachable, entities.AppointmentStatusHumanEscalation},
			entities.AppointmentStatusFailedEscalation, mock.Anything).Return(nil)

		err := escalation.Evaluate(context.Background(), unreachableAppointment(3, 3))

		require.NoError(t, err)
		repo.AssertExpectations(t)
		volunteerRepo.AssertNotCalled(t, "FindEligible", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty volunteer pool leaves the case in human escalation", func(t *testing.T) {
		escalation, repo, volunteerRepo, _, notifier, _ := newEscalationFixture(t)

		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusUnreachable},
			entities.AppointmentStatusHumanEscalation, mock.Anything).Return(nil)
		repo.On("RecordEscalationAttempt", mock.Anything, "appt-1", mock.Anything).Return(nil)
		volunteerRepo.On("FindEligible", mock.Anything, entities.RoleLocal, "Yoruba").
			Return([]*entities.Volunteer{}, nil)

		err := escalation.Evaluate(context.Background(), unreachableAppointment(3, 0))

		require.NoError(t, err)
		notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ignores appointments that are not unreachable", func(t *testing.T) {
		escalation, repo, _, _, _, _ := newEscalationFixture(t)

		appointment := unreachableAppointment(3, 0)
		appointment.Status = entities.AppointmentStatusConfirmed

		err := escalation.Evaluate(context.Background(), appointment)

		require.NoError(t, err)
		repo.AssertNotCalled(t, "ConditionalTransition",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestEscalationService_RetryStale(t *testing.T) {
	t.Run("re-escalates a stale assignment to the next tier", func(t *testing.T) {
		escalation, repo, volunteerRepo, reservations, notifier, clock := newEscalationFixture(t)

		stale := unreachableAppointment(3, 1)
		stale.Status = entities.AppointmentStatusHumanEscalation

		repo.On("GetStaleEscalations", mock.Anything, clock.now.Add(-30*time.Minute), 50).
			Return([]*entities.Appointment{stale}, nil)
		repo.On("RecordEscalationAttempt", mock.Anything, "appt-1", mock.Anything).Return(nil)

		volunteer := &entities.Volunteer{
			ID: "vol-state", Name: "Bola Ade", Phone: "+2348011111111",
			Role: entities.RoleState, SpokenLanguages: []string{"Yoruba"}, Active: true,
		}
		volunteerRepo.On("FindEligible", mock.Anything, entities.RoleState, "Yoruba").
			Return([]*entities.Volunteer{volunteer}, nil)
		reservations.On("Reserve", mock.Anything, "vol-state", mock.Anything).Return(true, nil)
		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusHumanEscalation},
			entities.AppointmentStatusHumanEscalation, mock.Anything).Return(nil)
		volunteerRepo.On("MarkAssigned", mock.Anything, "vol-state", mock.Anything).Return(nil)
		reservations.On("Release", mock.Anything, "vol-state").Return(nil)
		notifier.On("Notify", mock.Anything, volunteer, mock.Anything).Return(nil)

		err := escalation.RetryStale(context.Background(), 30*time.Minute, 50)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("exhausted stale escalation becomes failed_escalation", func(t *testing.T) {
		escalation, repo, _, _, _, clock := newEscalationFixture(t)

		stale := unreachableAppointment(3, 3)
		stale.Status = entities.AppointmentStatusHumanEscalation

		repo.On("GetStaleEscalations", mock.Anything, clock.now.Add(-30*time.Minute), 50).
			Return([]*entities.Appointment{stale}, nil)
		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusHumanEscalation},
			entities.AppointmentStatusFailedEscalation, mock.Anything).Return(nil)

		err := escalation.RetryStale(context.Background(), 30*time.Minute, 50)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestEscalationService_VolunteerAction(t *testing.T) {
	t.Run("confirm resolves the escalation", func(t *testing.T) {
		escalation, repo, _, _, _, _ := newEscalationFixture(t)

		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusHumanEscalation},
			entities.AppointmentStatusConfirmed, mock.Anything).Return(nil)

		err := escalation.VolunteerAction(context.Background(), "appt-1", "confirm")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("unknown action is a validation error", func(t *testing.T) {
		escalation, repo, _, _, _, _ := newEscalationFixture(t)

		err := escalation.VolunteerAction(context.Background(), "appt-1", "shout")

		require.Error(t, err)
		require.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		repo.AssertNotCalled(t, "ConditionalTransition",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("action outside human escalation surfaces the conflict", func(t *testing.T) {
		escalation, repo, _, _, _, _ := newEscalationFixture(t)

		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusHumanEscalation},
			entities.AppointmentStatusTransferred, mock.Anything).
			Return(apperrors.NewConflictError("not escalated"))

		err := escalation.VolunteerAction(context.Background(), "appt-1", "transfer")

		require.Error(t, err)
		require.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})
}
