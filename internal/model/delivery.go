package model

import "context"

// DeliverySink is the outbound notification channel. Deliver must be
// safe to invoke more than once for the same reminder: the scheduler
// fire and a sweeper catch-up may race, and at-least-once is the
// accepted contract.
type DeliverySink interface {
	Deliver(ctx context.Context, chatID int64, description, shortcutURL string) error
}

// ReminderScheduler holds the in-memory timers keyed by correlation key.
// The timer set is a cache of intent, always reconstructible from the
// reminder store.
type ReminderScheduler interface {
	Schedule(reminder Reminder)
	Cancel(correlationKey string)
	IsArmed(correlationKey string) bool
	CountActive() int
}
