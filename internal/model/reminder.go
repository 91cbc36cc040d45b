package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReminderStore defines persistence operations for reminders.
type ReminderStore interface {
	Create(ctx context.Context, reminder Reminder) (Reminder, error)
	GetByID(ctx context.Context, id uuid.UUID) (Reminder, error)
	// GetPending returns reminders due at or before asOf that are neither
	// delivered nor completed, earliest due first.
	GetPending(ctx context.Context, asOf time.Time) ([]Reminder, error)
	// GetScheduled returns undelivered, uncompleted reminders with a due
	// instant inside (from, to].
	GetScheduled(ctx context.Context, from, to time.Time) ([]Reminder, error)
	GetByUser(ctx context.Context, userID uuid.UUID, includeCompleted bool) ([]Reminder, error)
	// MarkDelivered sets the delivered flag. It is idempotent and returns
	// false only when no reminder with the given id exists.
	MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error)
	// Delete removes a reminder only when ownerID matches its user.
	Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (bool, error)
	Statistics(ctx context.Context, userID uuid.UUID) (ReminderStats, error)
}

// Reminder represents a scheduled reminder. DueAt is always stored in UTC.
type Reminder struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ChatID         int64
	Description    string
	DueAt          time.Time
	Urgency        Urgency
	CorrelationKey string
	ShortcutURL    string
	Delivered      bool
	Completed      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Urgency classifies how pressing a reminder is.
type Urgency string

const (
	// UrgencyLow is a reminder the user can safely postpone.
	UrgencyLow Urgency = "low"
	// UrgencyMedium is the default urgency.
	UrgencyMedium Urgency = "medium"
	// UrgencyHigh is a reminder that must not be missed.
	UrgencyHigh Urgency = "high"
)

// CreateReminderParams contains parameters to create a reminder.
type CreateReminderParams struct {
	UserID      uuid.UUID
	Description string
	DueAt       time.Time
	Urgency     Urgency
	ShortcutURL string
}

// ReminderStats aggregates per-user reminder counts.
type ReminderStats struct {
	Total     int
	Completed int
	Pending   int
	Overdue   int
}

// NewCorrelationKey builds the key linking a persisted reminder to its
// in-memory timer. Unique for the lifetime of the store.
func NewCorrelationKey(userID uuid.UUID) string {
	return "reminder_" + uuid.NewString() + "_" + userID.String()
}
