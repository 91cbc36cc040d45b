package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/esc4n0rx/sara/internal/model"
)

// MockReminderStore mocks the ReminderStore interface
type MockReminderStore struct {
	mock.Mock
}

func (m *MockReminderStore) Create(ctx context.Context, reminder model.Reminder) (model.Reminder, error) {
	args := m.Called(ctx, reminder)
	return args.Get(0).(model.Reminder), args.Error(1)
}

func (m *MockReminderStore) GetByID(ctx context.Context, id uuid.UUID) (model.Reminder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Reminder), args.Error(1)
}

func (m *MockReminderStore) GetPending(ctx context.Context, asOf time.Time) ([]model.Reminder, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).([]model.Reminder), args.Error(1)
}

func (m *MockReminderStore) GetScheduled(ctx context.Context, from, to time.Time) ([]model.Reminder, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]model.Reminder), args.Error(1)
}

func (m *MockReminderStore) GetByUser(ctx context.Context, userID uuid.UUID, includeCompleted bool) ([]model.Reminder, error) {
	args := m.Called(ctx, userID, includeCompleted)
	return args.Get(0).([]model.Reminder), args.Error(1)
}

func (m *MockReminderStore) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReminderStore) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReminderStore) Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReminderStore) Statistics(ctx context.Context, userID uuid.UUID) (model.ReminderStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.ReminderStats), args.Error(1)
}

// MockUserStore mocks the UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByChatID(ctx context.Context, chatID int64) (model.User, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) Upsert(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) UpdateTimezone(ctx context.Context, chatID int64, timezone string) (bool, error) {
	args := m.Called(ctx, chatID, timezone)
	return args.Bool(0), args.Error(1)
}

// MockReminderScheduler mocks the ReminderScheduler interface
type MockReminderScheduler struct {
	mock.Mock
}

func (m *MockReminderScheduler) Schedule(reminder model.Reminder) {
	m.Called(reminder)
}

func (m *MockReminderScheduler) Cancel(correlationKey string) {
	m.Called(correlationKey)
}

func (m *MockReminderScheduler) IsArmed(correlationKey string) bool {
	args := m.Called(correlationKey)
	return args.Bool(0)
}

func (m *MockReminderScheduler) CountActive() int {
	args := m.Called()
	return args.Int(0)
}
