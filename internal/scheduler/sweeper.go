package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/esc4n0rx/sara/internal/logger"
	"github.com/esc4n0rx/sara/internal/model"
)

// Sweeper periodically reconciles the store with the in-memory timer
// set. Any reminder that is overdue, undelivered and has no armed timer
// lost its wake-up (most commonly to a process restart) and is
// delivered directly. This bounds the loss window to one sweep
// interval.
type Sweeper struct {
	store        model.ReminderStore
	scheduler    model.ReminderScheduler
	sink         model.DeliverySink
	logger       *logger.Logger
	interval     time.Duration
	initialDelay time.Duration
	rearmHorizon time.Duration

	now func() time.Time
}

// NewSweeper creates a Sweeper ticking every interval, with the first
// tick delayed by initialDelay so the boot-time rearm pass finishes
// first. rearmHorizon bounds how far ahead Rearm re-registers timers.
func NewSweeper(
	store model.ReminderStore,
	scheduler model.ReminderScheduler,
	sink model.DeliverySink,
	interval time.Duration,
	initialDelay time.Duration,
	rearmHorizon time.Duration,
	logger *logger.Logger,
) *Sweeper {
	return &Sweeper{
		store:        store,
		scheduler:    scheduler,
		sink:         sink,
		logger:       logger,
		interval:     interval,
		initialDelay: initialDelay,
		rearmHorizon: rearmHorizon,
		now:          time.Now,
	}
}

// Rearm re-registers a timer for every pending future reminder within
// the horizon. Run once at boot, before the periodic sweep starts, to
// restore low-latency delivery without waiting for the coarser
// tick-based catch-up.
func (s *Sweeper) Rearm(ctx context.Context) error {
	now := s.now()
	reminders, err := s.store.GetScheduled(ctx, now, now.Add(s.rearmHorizon))
	if err != nil {
		return fmt.Errorf("failed to load reminders for rearm: %w", err)
	}

	for _, reminder := range reminders {
		s.scheduler.Schedule(reminder)
	}

	s.logger.Info("sweeper: rearm pass complete", "rearmed", len(reminders))
	return nil
}

// Run blocks until ctx is cancelled, sweeping on a fixed interval.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper: started",
		"interval", s.interval.String(),
		"initial_delay", s.initialDelay.String())

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.initialDelay):
	}

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper: shutting down")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	pending, err := s.store.GetPending(ctx, s.now())
	if err != nil {
		s.logger.Error("sweeper: failed to query pending reminders", "error", err.Error())
		return
	}

	recovered := 0
	for _, reminder := range pending {
		if s.scheduler.IsArmed(reminder.CorrelationKey) {
			// A live timer will handle it.
			continue
		}

		if err := s.deliver(ctx, reminder); err != nil {
			s.logger.Error("sweeper: failed to deliver lost reminder",
				"reminder_id", reminder.ID,
				"error", err.Error())
			continue
		}
		recovered++
	}

	if recovered > 0 {
		s.logger.Info("sweeper: recovered lost reminders", "count", recovered)
	}
}

func (s *Sweeper) deliver(ctx context.Context, reminder model.Reminder) error {
	if err := s.sink.Deliver(ctx, reminder.ChatID, reminder.Description, reminder.ShortcutURL); err != nil {
		return fmt.Errorf("failed to deliver reminder: %w", err)
	}

	if _, err := s.store.MarkDelivered(ctx, reminder.ID); err != nil {
		return fmt.Errorf("failed to mark reminder delivered: %w", err)
	}

	return nil
}
