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
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

func validAppointment() *entities.Appointment {
	return &entities.Appointment{
		PatientName:         "Maryam Ibrahim",
		PatientPhone:        "+2348051230001",
		PreferredLanguage:   "Hausa",
		Age:                 27,
		BloodGroup:          entities.BloodGroupOPositive,
		Genotype:            entities.GenotypeAA,
		ServiceType:         entities.ServiceTypeAntenatal,
		Location:            "Kano",
		AppointmentDatetime: time.Now().Add(48 * time.Hour),
	}
}

func TestAppointmentService_CreateAppointment(t *testing.T) {
	t.Run("assigns id and enters the pipeline as pending", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		svc := services.NewAppointmentService(repo)

		repo.On("Create", mock.Anything, mock.MatchedBy(func(a *entities.Appointment) bool {
			return a.ID != "" &&
				a.Status == entities.AppointmentStatusPending &&
				a.PatientCallAttempts == 0 &&
				a.HandledByAI
		})).Return(nil)

		appointment := validAppointment()
		err := svc.CreateAppointment(context.Background(), appointment)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("validation failures never reach the store", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*entities.Appointment)
		}{
			{"missing name", func(a *entities.Appointment) { a.PatientName = "" }},
			{"missing phone", func(a *entities.Appointment) { a.PatientPhone = "" }},
			{"past datetime", func(a *entities.Appointment) { a.AppointmentDatetime = time.Now().Add(-time.Hour) }},
			{"zero age", func(a *entities.Appointment) { a.Age = 0 }},
			{"bad blood group", func(a *entities.Appointment) { a.BloodGroup = "Z+" }},
			{"bad genotype", func(a *entities.Appointment) { a.Genotype = "XX" }},
			{"bad service type", func(a *entities.Appointment) { a.ServiceType = "surgery" }},
			{"unsupported language", func(a *entities.Appointment) { a.PreferredLanguage = "French" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := new(MockAppointmentRepository)
				svc := services.NewAppointmentService(repo)

				appointment := validAppointment()
				tt.mutate(appointment)

				err := svc.CreateAppointment(context.Background(), appointment)

				assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
				repo.AssertNotCalled(t, "Create")
			})
		}
	})
}

func TestAppointmentService_ListAppointments(t *testing.T) {
	t.Run("rejects an unknown status filter", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		svc := services.NewAppointmentService(repo)

		_, err := svc.ListAppointments(context.Background(), repositories.AppointmentFilter{Status: "limbo"})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("clamps the limit", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		svc := services.NewAppointmentService(repo)

		repo.On("List", mock.Anything, mock.MatchedBy(func(f repositories.AppointmentFilter) bool {
			return f.Limit == 50
		})).Return([]*entities.Appointment{}, nil)

		_, err := svc.ListAppointments(context.Background(), repositories.AppointmentFilter{Limit: 5000})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestAppointmentService_RescheduleAppointment(t *testing.T) {
	newTime := time.Now().Add(72 * time.Hour)

	t.Run("moves a non-terminal appointment and resets the call counter", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		svc := services.NewAppointmentService(repo)

		repo.On("ConditionalTransition", mock.Anything, "appt-1",
			mock.MatchedBy(func(expected []entities.AppointmentStatus) bool {
				for _, s := range expected {
					if s.Terminal() {
						return false
					}
				}
				return len(expected) == 5
			}),
			entities.AppointmentStatusRescheduled,
			mock.MatchedBy(func(updates map[string]interface{}) bool {
				return updates["patient_call_attempts"] == 0
			})).Return(nil)
		repo.On("GetByID", mock.Anything, "appt-1").Return(&entities.Appointment{
			ID:     "appt-1",
			Status: entities.AppointmentStatusRescheduled,
		}, nil)

		updated, err := svc.RescheduleAppointment(context.Background(), "appt-1", newTime)

		require.NoError(t, err)
		assert.Equal(t, entities.AppointmentStatusRescheduled, updated.Status)
		repo.AssertExpectations(t)
	})

	t.Run("terminal appointment reports conflict", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		svc := services.NewAppointmentService(repo)

		repo.On("ConditionalTransition", mock.Anything, "appt-done", mock.Anything,
			entities.AppointmentStatusRescheduled, mock.Anything).
			Return(apperrors.NewConflictError("appointment is not in an expected status"))

		_, err := svc.RescheduleAppointment(context.Background(), "appt-done", newTime)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})

	t.Run("rejects a past datetime", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		svc := services.NewAppointmentService(repo)

		_, err := svc.RescheduleAppointment(context.Background(), "appt-1", time.Now().Add(-time.Hour))

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		repo.AssertNotCalled(t, "ConditionalTransition")
	})
}
