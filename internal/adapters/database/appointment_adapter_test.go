package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/infrastructure/clients/postgres"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

func newMockAdapter(t *testing.T) (*AppointmentAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewAppointmentAdapter(postgres.NewClientWithDB(db)).(*AppointmentAdapter)
	return adapter, mock
}

func appointmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "patient_id", "patient_name", "patient_phone",
		"emergency_contact_phone", "preferred_language", "age",
		"blood_group", "genotype", "service_type", "location",
		"appointment_datetime", "status",
		"patient_call_attempts", "human_escalation_attempts",
		"last_call_id", "last_call_timestamp", "last_escalation_attempt_timestamp",
		"assigned_volunteer_id", "volunteer_name", "volunteer_phone",
		"volunteer_email", "volunteer_role",
		"handled_by_ai", "created_at", "updated_at",
	})
}

func addAppointmentRow(rows *sqlmock.Rows, id string, status entities.AppointmentStatus, attempts int) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, "patient-1", "Amina Bello", "+2348012345678",
		"+2348098765432", "Hausa", 28,
		"O+", "AA", "antenatal", "Kano",
		now.Add(6*time.Hour), string(status),
		attempts, 0,
		nil, nil, nil,
		nil, nil, nil,
		nil, nil,
		true, now, now,
	)
}

func TestAppointmentAdapter_ConditionalTransition(t *testing.T) {
	t.Run("succeeds when status matches", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)

		mock.ExpectExec(`UPDATE "master_appointments"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.ConditionalTransition(
			context.Background(), "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusPending},
			entities.AppointmentStatusCalling,
			map[string]interface{}{"last_call_timestamp": time.Now()},
		)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when another worker won the race", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)

		mock.ExpectExec(`UPDATE "master_appointments"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		// Row exists but in an unexpected status.
		mock.ExpectQuery(`SELECT .* FROM "master_appointments"`).
			WillReturnRows(addAppointmentRow(appointmentRows(), "appt-1", entities.AppointmentStatusCalling, 1))

		err := adapter.ConditionalTransition(
			context.Background(), "appt-1",
			[]entities.AppointmentStatus{entities.AppointmentStatusPending},
			entities.AppointmentStatusCalling, nil,
		)

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for a missing row", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)

		mock.ExpectExec(`UPDATE "master_appointments"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM "master_appointments"`).
			WillReturnRows(appointmentRows())

		err := adapter.ConditionalTransition(
			context.Background(), "missing",
			[]entities.AppointmentStatus{entities.AppointmentStatusPending},
			entities.AppointmentStatusCalling, nil,
		)

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAppointmentAdapter_GetByCallID(t *testing.T) {
	t.Run("returns the matching appointment", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)

		mock.ExpectQuery(`SELECT .* FROM "master_appointments" WHERE \("last_call_id"`).
			WithArgs("CA123").
			WillReturnRows(addAppointmentRow(appointmentRows(), "appt-1", entities.AppointmentStatusCalling, 1))

		appointment, err := adapter.GetByCallID(context.Background(), "CA123")

		require.NoError(t, err)
		assert.Equal(t, "appt-1", appointment.ID)
		assert.Equal(t, entities.AppointmentStatusCalling, appointment.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for an unknown call id", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)

		mock.ExpectQuery(`SELECT .* FROM "master_appointments"`).
			WithArgs("CA999").
			WillReturnRows(appointmentRows())

		appointment, err := adapter.GetByCallID(context.Background(), "CA999")

		require.Error(t, err)
		assert.Nil(t, appointment)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestAppointmentAdapter_GetDue(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	rows := appointmentRows()
	addAppointmentRow(rows, "appt-1", entities.AppointmentStatusPending, 0)
	addAppointmentRow(rows, "appt-2", entities.AppointmentStatusRescheduled, 2)

	// The query must gate on the last call timestamp so attempts are
	// spaced out, with never-called rows still qualifying.
	mock.ExpectQuery(`SELECT .* FROM "master_appointments" WHERE .*"last_call_timestamp" IS NULL.*"last_call_timestamp" <=`).
		WillReturnRows(rows)

	due, err := adapter.GetDue(context.Background(), time.Now(), 24*time.Hour, 15*time.Minute, 3, 50)

	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "appt-1", due[0].ID)
	assert.Equal(t, "appt-2", due[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentAdapter_GetStaleEscalations(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	rows := appointmentRows()
	addAppointmentRow(rows, "appt-1", entities.AppointmentStatusHumanEscalation, 3)

	// Rows with no recorded attempt timestamp are swept too instead of
	// sitting in human_escalation forever.
	mock.ExpectQuery(`SELECT .* FROM "master_appointments" WHERE .*"last_escalation_attempt_timestamp" <.*"last_escalation_attempt_timestamp" IS NULL`).
		WillReturnRows(rows)

	stale, err := adapter.GetStaleEscalations(context.Background(), time.Now().Add(-30*time.Minute), 50)

	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "appt-1", stale[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentAdapter_RecordCallAttempt(t *testing.T) {
	t.Run("stamps call id and increments the counter", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)

		mock.ExpectExec(`UPDATE "master_appointments" SET .*patient_call_attempts \+ 1`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.RecordCallAttempt(context.Background(), "appt-1", "CA123", time.Now())

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for a missing appointment", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)

		mock.ExpectExec(`UPDATE "master_appointments"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.RecordCallAttempt(context.Background(), "missing", "CA123", time.Now())

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestAppointmentAdapter_Create(t *testing.T) {
	t.Run("rejects invalid enum values before touching the database", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)

		appointment := &entities.Appointment{
			ID:          "appt-1",
			Status:      entities.AppointmentStatusPending,
			BloodGroup:  "Z+",
			Genotype:    entities.GenotypeAA,
			ServiceType: entities.ServiceTypeAntenatal,
		}

		err := adapter.Create(context.Background(), appointment)

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inserts a valid appointment", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)

		mock.ExpectExec(`INSERT INTO "master_appointments"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		appointment := &entities.Appointment{
			ID:                  "appt-1",
			PatientID:           "patient-1",
			PatientName:         "Amina Bello",
			PatientPhone:        "+2348012345678",
			PreferredLanguage:   "Hausa",
			Age:                 28,
			BloodGroup:          entities.BloodGroupOPositive,
			Genotype:            entities.GenotypeAA,
			ServiceType:         entities.ServiceTypeAntenatal,
			Location:            "Kano",
			AppointmentDatetime: time.Now().Add(6 * time.Hour),
			Status:              entities.AppointmentStatusPending,
			HandledByAI:         true,
			CreatedAt:           time.Now(),
			UpdatedAt:           time.Now(),
		}

		err := adapter.Create(context.Background(), appointment)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
