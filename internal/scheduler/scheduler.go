// Package scheduler holds the transient timer set that fires reminder
// deliveries, plus the periodic sweeper reconciling it with the store.
// Timers are never persisted: the store is the source of truth and the
// timer set is reconstructed from it after every restart.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/esc4n0rx/sara/internal/logger"
	"github.com/esc4n0rx/sara/internal/model"
)

const deliverTimeout = 30 * time.Second

var _ model.ReminderScheduler = (*Scheduler)(nil)

// Scheduler keeps one single-shot timer per pending reminder, keyed by
// correlation key. Firing delivers the reminder and marks it delivered;
// delivery errors are logged and left for the sweeper to retry.
type Scheduler struct {
	store      model.ReminderStore
	sink       model.DeliverySink
	logger     *logger.Logger
	floorDelay time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer

	now func() time.Time
}

// New creates a Scheduler. floorDelay is the minimum delay before a
// timer fires; past-due reminders created moments ago still wait it out
// so the creating transaction is visible before delivery reads it back.
func New(store model.ReminderStore, sink model.DeliverySink, floorDelay time.Duration, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		sink:       sink,
		logger:     logger,
		floorDelay: floorDelay,
		timers:     make(map[string]*time.Timer),
		now:        time.Now,
	}
}

// Schedule arms a timer for the reminder. An existing timer under the
// same correlation key is replaced.
func (s *Scheduler) Schedule(reminder model.Reminder) {
	delay := reminder.DueAt.Sub(s.now())
	if delay < s.floorDelay {
		delay = s.floorDelay
	}

	key := reminder.CorrelationKey

	s.mu.Lock()
	if old, ok := s.timers[key]; ok {
		old.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.fire(reminder)
	})
	s.mu.Unlock()

	s.logger.Info("scheduler: reminder armed",
		"reminder_id", reminder.ID,
		"correlation_key", key,
		"due_at", reminder.DueAt.Format(time.RFC3339),
		"delay", delay.String())
}

// Cancel disarms the timer for the given correlation key. Cancelling a
// key that is not armed (already fired, or never armed after a restart)
// is a no-op.
func (s *Scheduler) Cancel(correlationKey string) {
	s.mu.Lock()
	timer, ok := s.timers[correlationKey]
	if ok {
		timer.Stop()
		delete(s.timers, correlationKey)
	}
	s.mu.Unlock()

	if ok {
		s.logger.Info("scheduler: reminder cancelled", "correlation_key", correlationKey)
	}
}

// IsArmed reports whether a live timer exists for the correlation key.
func (s *Scheduler) IsArmed(correlationKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[correlationKey]
	return ok
}

// CountActive returns the number of armed timers. Diagnostic only.
func (s *Scheduler) CountActive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) fire(reminder model.Reminder) {
	s.mu.Lock()
	delete(s.timers, reminder.CorrelationKey)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	if err := s.sink.Deliver(ctx, reminder.ChatID, reminder.Description, reminder.ShortcutURL); err != nil {
		// Leave delivered unset: the sweeper re-reads the store and
		// retries on its next tick.
		s.logger.Error("scheduler: delivery failed",
			"reminder_id", reminder.ID,
			"chat_id", reminder.ChatID,
			"error", err.Error())
		return
	}

	found, err := s.store.MarkDelivered(ctx, reminder.ID)
	if err != nil {
		s.logger.Error("scheduler: failed to mark reminder delivered",
			"reminder_id", reminder.ID,
			"error", err.Error())
		return
	}
	if !found {
		// Deleted while in flight; the composed message was already sent.
		s.logger.Warn("scheduler: delivered reminder no longer exists", "reminder_id", reminder.ID)
		return
	}

	s.logger.Info("scheduler: reminder delivered",
		"reminder_id", reminder.ID,
		"chat_id", reminder.ChatID)
}
