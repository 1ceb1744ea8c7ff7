package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/safemama-pikin/outreach/internal/application/services"
	"github.com/safemama-pikin/outreach/internal/domain/entities"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

func newAssignmentFixture(t *testing.T) (*services.AssignmentService, *MockVolunteerRepository, *MockReservationStore, *fakeClock) {
	t.Helper()
	volunteerRepo := new(MockVolunteerRepository)
	reservations := new(MockReservationStore)
	clock := &fakeClock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	return services.NewAssignmentService(volunteerRepo, reservations, clock, 2*time.Minute), volunteerRepo, reservations, clock
}

func igboAppointment() *entities.Appointment {
	return &entities.Appointment{
		ID:                "appt-1",
		PreferredLanguage: "Igbo",
		Location:          "Enugu",
	}
}

func volunteerIn(id, location string) *entities.Volunteer {
	return &entities.Volunteer{
		ID:              id,
		Name:            "Volunteer " + id,
		Role:            entities.RoleLocal,
		SpokenLanguages: []string{"Igbo"},
		Location:        location,
		Active:          true,
	}
}

func TestAssignmentService_Resolve(t *testing.T) {
	t.Run("prefers a volunteer in the patient's location", func(t *testing.T) {
		assignments, volunteerRepo, reservations, _ := newAssignmentFixture(t)

		// Repository order is least-recently-assigned first; the Enugu
		// volunteer should still jump the queue.
		volunteerRepo.On("FindEligible", mock.Anything, entities.RoleLocal, "Igbo").
			Return([]*entities.Volunteer{
				volunteerIn("vol-lagos", "Lagos"),
				volunteerIn("vol-enugu", "Enugu"),
			}, nil)
		reservations.On("Reserve", mock.Anything, "vol-enugu", 2*time.Minute).Return(true, nil)

		reservation, err := assignments.Resolve(context.Background(), entities.RoleLocal, igboAppointment())

		require.NoError(t, err)
		assert.Equal(t, "vol-enugu", reservation.Volunteer.ID)
	})

	t.Run("skips reserved volunteers", func(t *testing.T) {
		assignments, volunteerRepo, reservations, _ := newAssignmentFixture(t)

		volunteerRepo.On("FindEligible", mock.Anything, entities.RoleLocal, "Igbo").
			Return([]*entities.Volunteer{
				volunteerIn("vol-1", "Enugu"),
				volunteerIn("vol-2", "Enugu"),
			}, nil)
		reservations.On("Reserve", mock.Anything, "vol-1", mock.Anything).Return(false, nil)
		reservations.On("Reserve", mock.Anything, "vol-2", mock.Anything).Return(true, nil)

		reservation, err := assignments.Resolve(context.Background(), entities.RoleLocal, igboAppointment())

		require.NoError(t, err)
		assert.Equal(t, "vol-2", reservation.Volunteer.ID)
	})

	t.Run("no speakers of the language is unavailable", func(t *testing.T) {
		assignments, volunteerRepo, _, _ := newAssignmentFixture(t)

		volunteerRepo.On("FindEligible", mock.Anything, entities.RoleLocal, "Igbo").
			Return([]*entities.Volunteer{}, nil)

		reservation, err := assignments.Resolve(context.Background(), entities.RoleLocal, igboAppointment())

		require.Error(t, err)
		assert.Nil(t, reservation)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
	})

	t.Run("every candidate reserved is unavailable", func(t *testing.T) {
		assignments, volunteerRepo, reservations, _ := newAssignmentFixture(t)

		volunteerRepo.On("FindEligible", mock.Anything, entities.RoleLocal, "Igbo").
			Return([]*entities.Volunteer{volunteerIn("vol-1", "Enugu")}, nil)
		reservations.On("Reserve", mock.Anything, "vol-1", mock.Anything).Return(false, nil)

		_, err := assignments.Resolve(context.Background(), entities.RoleLocal, igboAppointment())

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
	})
}

func TestAssignmentService_Confirm(t *testing.T) {
	assignments, volunteerRepo, reservations, clock := newAssignmentFixture(t)

	volunteer := volunteerIn("vol-1", "Enugu")
	volunteerRepo.On("MarkAssigned", mock.Anything, "vol-1", clock.now).Return(nil)
	reservations.On("Release", mock.Anything, "vol-1").Return(nil)

	err := assignments.Confirm(context.Background(), &services.Reservation{Volunteer: volunteer})

	require.NoError(t, err)
	volunteerRepo.AssertExpectations(t)
	reservations.AssertExpectations(t)
}

func TestRoleForEscalationLadder(t *testing.T) {
	assert.Equal(t, entities.RoleLocal, entities.RoleForEscalationAttempt(1))
	assert.Equal(t, entities.RoleState, entities.RoleForEscalationAttempt(2))
	assert.Equal(t, entities.RoleNational, entities.RoleForEscalationAttempt(3))
	assert.Equal(t, entities.RoleNational, entities.RoleForEscalationAttempt(7))
}
