package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/providers"
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
)

// Mocks

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, appointment *entities.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) GetByCallID(ctx context.Context, callID string) (*entities.Appointment, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) GetDue(ctx context.Context, now time.Time, leadWindow, retryDelay time.Duration, maxAttempts, limit int) ([]*entities.Appointment, error) {
	args := m.Called(ctx, now, leadWindow, retryDelay, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) GetExpiredLeases(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Appointment, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) GetStaleEscalations(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Appointment, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ConditionalTransition(ctx context.Context, id string, expected []entities.AppointmentStatus, next entities.AppointmentStatus, updates map[string]interface{}) error {
	args := m.Called(ctx, id, expected, next, updates)
	return args.Error(0)
}

func (m *MockAppointmentRepository) RecordCallAttempt(ctx context.Context, id, callID string, at time.Time) error {
	args := m.Called(ctx, id, callID, at)
	return args.Error(0)
}

func (m *MockAppointmentRepository) RecordEscalationAttempt(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockAppointmentRepository) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Appointment), args.Error(1)
}

type MockVolunteerRepository struct {
	mock.Mock
}

func (m *MockVolunteerRepository) Create(ctx context.Context, volunteer *entities.Volunteer) error {
	args := m.Called(ctx, volunteer)
	return args.Error(0)
}

func (m *MockVolunteerRepository) GetByID(ctx context.Context, id string) (*entities.Volunteer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Volunteer), args.Error(1)
}

func (m *MockVolunteerRepository) FindEligible(ctx context.Context, role entities.VolunteerRole, language string) ([]*entities.Volunteer, error) {
	args := m.Called(ctx, role, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Volunteer), args.Error(1)
}

func (m *MockVolunteerRepository) MarkAssigned(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) GetAll(ctx context.Context) ([]*entities.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Setting), args.Error(1)
}

type MockTelephonyProvider struct {
	mock.Mock
}

func (m *MockTelephonyProvider) InitiateCall(ctx context.Context, req providers.CallRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockNotificationChannel struct {
	mock.Mock
}

func (m *MockNotificationChannel) Notify(ctx context.Context, volunteer *entities.Volunteer, appointment *entities.Appointment) error {
	args := m.Called(ctx, volunteer, appointment)
	return args.Error(0)
}

type MockReservationStore struct {
	mock.Mock
}

func (m *MockReservationStore) Reserve(ctx context.Context, volunteerID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, volunteerID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationStore) Release(ctx context.Context, volunteerID string) error {
	args := m.Called(ctx, volunteerID)
	return args.Error(0)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.OutreachEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.OutreachEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.OutreachEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockSettingsReader struct {
	mock.Mock
}

func (m *MockSettingsReader) Snapshot(ctx context.Context) (*entities.SettingsSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SettingsSnapshot), args.Error(1)
}

// fakeClock pins time so lease and SLA arithmetic is deterministic.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}
