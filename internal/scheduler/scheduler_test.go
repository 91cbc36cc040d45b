package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/esc4n0rx/sara/internal/model"
	"github.com/esc4n0rx/sara/internal/testutil"
)

func makeReminder(chatID int64) model.Reminder {
	userID := uuid.New()
	return model.Reminder{
		ID:             uuid.New(),
		UserID:         userID,
		ChatID:         chatID,
		Description:    "pagar a conta de luz",
		DueAt:          time.Now().UTC().Add(time.Hour),
		Urgency:        model.UrgencyMedium,
		CorrelationKey: model.NewCorrelationKey(userID),
		ShortcutURL:    "shortcuts://run-shortcut?name=CriarLembrete",
	}
}

func TestScheduler_Schedule(t *testing.T) {
	store := &MockReminderStore{}
	sink := &MockDeliverySink{}
	s := New(store, sink, time.Minute, testutil.MakeNoopLogger())

	reminder := makeReminder(100)
	s.Schedule(reminder)

	assert.True(t, s.IsArmed(reminder.CorrelationKey))
	assert.Equal(t, 1, s.CountActive())

	// Rescheduling the same correlation key replaces the timer.
	s.Schedule(reminder)
	assert.Equal(t, 1, s.CountActive())
}

func TestScheduler_FireDeliversAndMarksDelivered(t *testing.T) {
	store := &MockReminderStore{}
	sink := &MockDeliverySink{}
	s := New(store, sink, 10*time.Millisecond, testutil.MakeNoopLogger())

	reminder := makeReminder(100)
	reminder.DueAt = time.Now().UTC().Add(-10 * time.Minute)

	sink.On("Deliver", mock.Anything, int64(100), reminder.Description, reminder.ShortcutURL).Return(nil)
	store.On("MarkDelivered", mock.Anything, reminder.ID).Return(true, nil)

	s.Schedule(reminder)

	assert.Eventually(t, func() bool {
		return !s.IsArmed(reminder.CorrelationKey) && s.CountActive() == 0
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return len(store.Calls) > 0
	}, time.Second, 5*time.Millisecond)

	sink.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestScheduler_FireDeliveryFailureLeavesUndelivered(t *testing.T) {
	store := &MockReminderStore{}
	sink := &MockDeliverySink{}
	s := New(store, sink, 10*time.Millisecond, testutil.MakeNoopLogger())

	reminder := makeReminder(200)
	reminder.DueAt = time.Now().UTC().Add(-time.Minute)

	sink.On("Deliver", mock.Anything, int64(200), reminder.Description, reminder.ShortcutURL).
		Return(errors.New("telegram unavailable"))

	s.Schedule(reminder)

	assert.Eventually(t, func() bool {
		return !s.IsArmed(reminder.CorrelationKey)
	}, time.Second, 5*time.Millisecond)

	// Give the fire goroutine time to finish before asserting.
	time.Sleep(50 * time.Millisecond)

	sink.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything)
}

func TestScheduler_Cancel(t *testing.T) {
	store := &MockReminderStore{}
	sink := &MockDeliverySink{}
	s := New(store, sink, time.Minute, testutil.MakeNoopLogger())

	reminder := makeReminder(300)
	s.Schedule(reminder)
	assert.True(t, s.IsArmed(reminder.CorrelationKey))

	s.Cancel(reminder.CorrelationKey)
	assert.False(t, s.IsArmed(reminder.CorrelationKey))
	assert.Equal(t, 0, s.CountActive())
}

func TestScheduler_CancelUnknownKeyIsNoop(t *testing.T) {
	store := &MockReminderStore{}
	sink := &MockDeliverySink{}
	s := New(store, sink, time.Minute, testutil.MakeNoopLogger())

	assert.NotPanics(t, func() {
		s.Cancel("reminder_never_armed")
	})
	assert.Equal(t, 0, s.CountActive())
}

func TestScheduler_FloorDelayAppliesToPastDue(t *testing.T) {
	store := &MockReminderStore{}
	sink := &MockDeliverySink{}
	s := New(store, sink, time.Minute, testutil.MakeNoopLogger())

	reminder := makeReminder(400)
	reminder.DueAt = time.Now().UTC().Add(-time.Hour)

	s.Schedule(reminder)

	// Past-due reminders still wait out the floor delay, so nothing
	// fires immediately.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, s.IsArmed(reminder.CorrelationKey))
	sink.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	s.Cancel(reminder.CorrelationKey)
}
