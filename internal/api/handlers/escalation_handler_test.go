package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/safemama-pikin/outreach/internal/api/handlers"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

type MockEscalationService struct {
	mock.Mock
}

func (m *MockEscalationService) VolunteerAction(ctx context.Context, appointmentID, action string) error {
	args := m.Called(ctx, appointmentID, action)
	return args.Error(0)
}

func TestEscalationHandler_ResolveEscalation(t *testing.T) {
	t.Run("volunteer confirms the appointment", func(t *testing.T) {
		mockService := new(MockEscalationService)
		handler := handlers.NewEscalationHandler(mockService)

		req := httptest.NewRequest("POST", "/api/appointments/appt-1/action", bytes.NewBufferString(`{"action":"confirm"}`))
		req.SetPathValue("id", "appt-1")
		w := httptest.NewRecorder()

		mockService.On("VolunteerAction", mock.Anything, "appt-1", "confirm").Return(nil)

		handler.ResolveEscalation(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects an unknown action", func(t *testing.T) {
		mockService := new(MockEscalationService)
		handler := handlers.NewEscalationHandler(mockService)

		req := httptest.NewRequest("POST", "/api/appointments/appt-1/action", bytes.NewBufferString(`{"action":"ignore"}`))
		req.SetPathValue("id", "appt-1")
		w := httptest.NewRecorder()

		mockService.On("VolunteerAction", mock.Anything, "appt-1", "ignore").
			Return(apperrors.NewValidationError("unknown volunteer action"))

		handler.ResolveEscalation(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("surfaces a lost status race as 409", func(t *testing.T) {
		mockService := new(MockEscalationService)
		handler := handlers.NewEscalationHandler(mockService)

		req := httptest.NewRequest("POST", "/api/appointments/appt-1/action", bytes.NewBufferString(`{"action":"transfer"}`))
		req.SetPathValue("id", "appt-1")
		w := httptest.NewRecorder()

		mockService.On("VolunteerAction", mock.Anything, "appt-1", "transfer").
			Return(apperrors.NewConflictError("appointment is no longer escalated"))

		handler.ResolveEscalation(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("requires an action", func(t *testing.T) {
		mockService := new(MockEscalationService)
		handler := handlers.NewEscalationHandler(mockService)

		req := httptest.NewRequest("POST", "/api/appointments/appt-1/action", bytes.NewBufferString(`{}`))
		req.SetPathValue("id", "appt-1")
		w := httptest.NewRecorder()

		handler.ResolveEscalation(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
