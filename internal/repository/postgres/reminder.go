package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/esc4n0rx/sara/internal/model"
)

var _ model.ReminderStore = (*ReminderRepository)(nil)

type ReminderRepository struct {
	db *Connection
}

func NewReminderRepository(db *Connection) *ReminderRepository {
	return &ReminderRepository{
		db: db,
	}
}

// reminderColumns joins users so every returned reminder carries the
// owning chat id needed by the delivery sink.
const reminderColumns = `r.id, r.user_id, u.chat_id, r.description, r.due_at, r.urgency,
	r.correlation_key, r.shortcut_url, r.delivered, r.completed, r.created_at, r.updated_at`

func (r *ReminderRepository) Create(ctx context.Context, reminder model.Reminder) (model.Reminder, error) {
	query := `
		WITH ins AS (
			INSERT INTO reminders (id, user_id, description, due_at, urgency, correlation_key, shortcut_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, user_id, description, due_at, urgency, correlation_key, shortcut_url,
			          delivered, completed, created_at, updated_at
		)
		SELECT r.id, r.user_id, u.chat_id, r.description, r.due_at, r.urgency,
		       r.correlation_key, r.shortcut_url, r.delivered, r.completed, r.created_at, r.updated_at
		FROM ins r JOIN users u ON u.id = r.user_id`

	var saved model.Reminder
	err := r.db.QueryRow(ctx, query,
		reminder.ID, reminder.UserID, reminder.Description, reminder.DueAt.UTC(),
		string(reminder.Urgency), reminder.CorrelationKey, reminder.ShortcutURL,
	).Scan(
		&saved.ID, &saved.UserID, &saved.ChatID, &saved.Description, &saved.DueAt, &saved.Urgency,
		&saved.CorrelationKey, &saved.ShortcutURL, &saved.Delivered, &saved.Completed,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("failed to create reminder: %w", err)
	}

	return saved, nil
}

func (r *ReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Reminder, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders r JOIN users u ON u.id = r.user_id
		WHERE r.id = $1`

	var reminder model.Reminder
	err := r.db.QueryRow(ctx, query, id).Scan(
		&reminder.ID, &reminder.UserID, &reminder.ChatID, &reminder.Description,
		&reminder.DueAt, &reminder.Urgency, &reminder.CorrelationKey, &reminder.ShortcutURL,
		&reminder.Delivered, &reminder.Completed, &reminder.CreatedAt, &reminder.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reminder{}, model.ErrNotFound
		}
		return model.Reminder{}, fmt.Errorf("failed to get reminder by id: %w", err)
	}

	return reminder, nil
}

func (r *ReminderRepository) GetPending(ctx context.Context, asOf time.Time) ([]model.Reminder, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders r JOIN users u ON u.id = r.user_id
		WHERE r.delivered = FALSE AND r.completed = FALSE AND r.due_at <= $1
		ORDER BY r.due_at ASC, r.id ASC`

	rows, err := r.db.Query(ctx, query, asOf.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get pending reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (r *ReminderRepository) GetScheduled(ctx context.Context, from, to time.Time) ([]model.Reminder, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders r JOIN users u ON u.id = r.user_id
		WHERE r.delivered = FALSE AND r.completed = FALSE AND r.due_at > $1 AND r.due_at <= $2
		ORDER BY r.due_at ASC, r.id ASC`

	rows, err := r.db.Query(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (r *ReminderRepository) GetByUser(ctx context.Context, userID uuid.UUID, includeCompleted bool) ([]model.Reminder, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders r JOIN users u ON u.id = r.user_id
		WHERE r.user_id = $1 AND ($2 OR r.completed = FALSE)
		ORDER BY r.due_at ASC, r.id ASC`

	rows, err := r.db.Query(ctx, query, userID, includeCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminders by user: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// MarkDelivered is idempotent: the delivered flag is monotonic and
// repeating the call on an already delivered reminder is a no-op success.
func (r *ReminderRepository) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `UPDATE reminders SET delivered = TRUE, updated_at = NOW() WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder delivered: %w", err)
	}

	return cmd.RowsAffected() > 0, nil
}

func (r *ReminderRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `UPDATE reminders SET completed = TRUE, updated_at = NOW() WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder completed: %w", err)
	}

	return cmd.RowsAffected() > 0, nil
}

// Delete removes the reminder only when ownerID matches the owning user.
func (r *ReminderRepository) Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (bool, error) {
	const query = `DELETE FROM reminders WHERE id = $1 AND user_id = $2`

	cmd, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete reminder: %w", err)
	}

	return cmd.RowsAffected() > 0, nil
}

func (r *ReminderRepository) Statistics(ctx context.Context, userID uuid.UUID) (model.ReminderStats, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE completed),
		       COUNT(*) FILTER (WHERE NOT completed AND due_at > NOW()),
		       COUNT(*) FILTER (WHERE NOT completed AND due_at <= NOW())
		FROM reminders WHERE user_id = $1`

	var stats model.ReminderStats
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.Total, &stats.Completed, &stats.Pending, &stats.Overdue,
	)
	if err != nil {
		return model.ReminderStats{}, fmt.Errorf("failed to get reminder statistics: %w", err)
	}

	return stats, nil
}

func scanReminders(rows pgx.Rows) ([]model.Reminder, error) {
	var reminders []model.Reminder
	for rows.Next() {
		var reminder model.Reminder
		err := rows.Scan(
			&reminder.ID, &reminder.UserID, &reminder.ChatID, &reminder.Description,
			&reminder.DueAt, &reminder.Urgency, &reminder.CorrelationKey, &reminder.ShortcutURL,
			&reminder.Delivered, &reminder.Completed, &reminder.CreatedAt, &reminder.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reminders, nil
}
