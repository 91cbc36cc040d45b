package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/esc4n0rx/sara/internal/logger"
	"github.com/esc4n0rx/sara/internal/model"
	"github.com/esc4n0rx/sara/internal/timeparse"
)

// CreationFailedMessage is shown to users when the creation path
// aborts; internal detail never reaches the chat.
const CreationFailedMessage = "❌ Não consegui criar seu lembrete. Tente novamente."

// Reminder implements the reminder flows exposed to the chat transport.
type Reminder struct {
	store        model.ReminderStore
	userStore    model.UserStore
	scheduler    model.ReminderScheduler
	resolver     *timeparse.Resolver
	logger       *logger.Logger
	shortcutName string
}

// NewReminder creates the reminder service.
func NewReminder(
	store model.ReminderStore,
	userStore model.UserStore,
	scheduler model.ReminderScheduler,
	resolver *timeparse.Resolver,
	shortcutName string,
	logger *logger.Logger,
) *Reminder {
	return &Reminder{
		store:        store,
		userStore:    userStore,
		scheduler:    scheduler,
		resolver:     resolver,
		logger:       logger,
		shortcutName: shortcutName,
	}
}

// CreateFlow resolves the due instant, persists the reminder and arms
// its timer. The returned string is the user-facing confirmation or
// failure message. A persistence failure aborts the flow; the timer is
// only armed after the write succeeded.
func (s *Reminder) CreateFlow(ctx context.Context, chatID int64, description, dateToken, timeToken string, urgency model.Urgency) (model.Reminder, string, error) {
	user, err := s.userStore.GetByChatID(ctx, chatID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Reminder{}, CreationFailedMessage, model.ErrUserNotFound
	}
	if err != nil {
		s.logger.Error("reminder service: failed to load user", "chat_id", chatID, "error", err.Error())
		return model.Reminder{}, CreationFailedMessage, fmt.Errorf("failed to get user by chat id: %w", err)
	}

	if urgency == "" {
		urgency = model.UrgencyMedium
	}

	dueAt := s.resolver.Resolve(dateToken, timeToken, user.Timezone)

	reminder := model.Reminder{
		ID:             uuid.New(),
		UserID:         user.ID,
		ChatID:         user.ChatID,
		Description:    description,
		DueAt:          dueAt,
		Urgency:        urgency,
		CorrelationKey: model.NewCorrelationKey(user.ID),
		ShortcutURL:    BuildShortcutURL(s.shortcutName, dateToken, timeToken, description, urgency),
	}

	saved, err := s.store.Create(ctx, reminder)
	if err != nil {
		s.logger.Error("reminder service: failed to persist reminder",
			"chat_id", chatID,
			"error", err.Error())
		return model.Reminder{}, CreationFailedMessage, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.scheduler.Schedule(saved)

	s.logger.Info("reminder service: reminder created",
		"reminder_id", saved.ID,
		"chat_id", chatID,
		"due_at", saved.DueAt.Format(time.RFC3339))

	return saved, s.confirmationMessage(saved, user.Timezone), nil
}

// List returns the user's pending reminders formatted for the chat.
func (s *Reminder) List(ctx context.Context, chatID int64) (string, error) {
	user, err := s.userStore.GetByChatID(ctx, chatID)
	if errors.Is(err, model.ErrNotFound) {
		return "", model.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user by chat id: %w", err)
	}

	reminders, err := s.store.GetByUser(ctx, user.ID, false)
	if err != nil {
		return "", fmt.Errorf("failed to get reminders by user: %w", err)
	}

	return FormatReminderList(reminders, user.Timezone), nil
}

// Statistics returns per-user reminder counts.
func (s *Reminder) Statistics(ctx context.Context, chatID int64) (model.ReminderStats, error) {
	user, err := s.userStore.GetByChatID(ctx, chatID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ReminderStats{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.ReminderStats{}, fmt.Errorf("failed to get user by chat id: %w", err)
	}

	stats, err := s.store.Statistics(ctx, user.ID)
	if err != nil {
		return model.ReminderStats{}, fmt.Errorf("failed to get reminder statistics: %w", err)
	}

	return stats, nil
}

// Complete marks a reminder done on explicit user action. Completion is
// independent of delivery.
func (s *Reminder) Complete(ctx context.Context, chatID int64, reminderID uuid.UUID) (bool, error) {
	user, err := s.userStore.GetByChatID(ctx, chatID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get user by chat id: %w", err)
	}

	reminder, err := s.store.GetByID(ctx, reminderID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get reminder by id: %w", err)
	}
	if reminder.UserID != user.ID {
		return false, nil
	}

	return s.store.MarkCompleted(ctx, reminderID)
}

// Delete removes a reminder and disarms its timer. Ownership is
// enforced by the store; a timer already gone (fired or never armed) is
// tolerated and the delete still succeeds.
func (s *Reminder) Delete(ctx context.Context, chatID int64, reminderID uuid.UUID) (bool, error) {
	user, err := s.userStore.GetByChatID(ctx, chatID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get user by chat id: %w", err)
	}

	reminder, err := s.store.GetByID(ctx, reminderID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get reminder by id: %w", err)
	}

	deleted, err := s.store.Delete(ctx, reminderID, user.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete reminder: %w", err)
	}
	if !deleted {
		return false, nil
	}

	s.scheduler.Cancel(reminder.CorrelationKey)

	s.logger.Info("reminder service: reminder deleted",
		"reminder_id", reminderID,
		"chat_id", chatID)

	return true, nil
}

func (s *Reminder) confirmationMessage(reminder model.Reminder, timezone string) string {
	return fmt.Sprintf("✅ Lembrete criado!\n\n📋 %s\n📅 %s\n%s Urgência: %s\n\n🔗 [Toque aqui para criar no iPhone](%s)",
		reminder.Description,
		formatLocal(reminder.DueAt, timezone),
		urgencyEmoji(reminder.Urgency),
		urgencyLabel(reminder.Urgency),
		reminder.ShortcutURL,
	)
}

// FormatReminderList renders reminders for display, with due instants
// converted to the user's timezone.
func FormatReminderList(reminders []model.Reminder, timezone string) string {
	if len(reminders) == 0 {
		return "📝 Você não tem lembretes pendentes."
	}

	entries := make([]string, 0, len(reminders))
	for _, reminder := range reminders {
		status := "⏰"
		if reminder.Completed {
			status = "✅"
		}

		entries = append(entries, fmt.Sprintf("%s %s %s\n   📋 %s",
			status,
			urgencyEmoji(reminder.Urgency),
			formatLocal(reminder.DueAt, timezone),
			reminder.Description,
		))
	}

	return "📝 *Seus lembretes:*\n\n" + strings.Join(entries, "\n\n")
}

// FormatStatistics renders the statistics summary for display.
func FormatStatistics(stats model.ReminderStats) string {
	return fmt.Sprintf("📊 *Seus lembretes:*\n\n📦 Total: %d\n✅ Concluídos: %d\n⏳ Pendentes: %d\n🔥 Atrasados: %d",
		stats.Total, stats.Completed, stats.Pending, stats.Overdue)
}

func formatLocal(instant time.Time, timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return instant.In(loc).Format("02/01/2006 às 15:04")
}

func urgencyEmoji(urgency model.Urgency) string {
	switch urgency {
	case model.UrgencyLow:
		return "🟢"
	case model.UrgencyHigh:
		return "🔴"
	default:
		return "🟡"
	}
}

func urgencyLabel(urgency model.Urgency) string {
	switch urgency {
	case model.UrgencyLow:
		return "baixa"
	case model.UrgencyHigh:
		return "alta"
	default:
		return "média"
	}
}
