package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/esc4n0rx/sara/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, chat_id, username, first_name, last_name, timezone, active, created_at, updated_at`

func (r *UserRepository) GetByChatID(ctx context.Context, chatID int64) (model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE chat_id = $1`

	err := r.db.QueryRow(ctx, query, chatID).Scan(
		&user.ID, &user.ChatID, &user.Username, &user.FirstName, &user.LastName,
		&user.Timezone, &user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by chat id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.ChatID, &user.Username, &user.FirstName, &user.LastName,
		&user.Timezone, &user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// Upsert creates the user on first interaction and refreshes the profile
// fields on every subsequent one. The preferred timezone is kept as-is on
// conflict; it only changes through UpdateTimezone.
func (r *UserRepository) Upsert(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, chat_id, username, first_name, last_name, timezone, active)
			  VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			  ON CONFLICT (chat_id) DO UPDATE
			  SET username = EXCLUDED.username,
			      first_name = EXCLUDED.first_name,
			      last_name = EXCLUDED.last_name,
			      active = TRUE,
			      updated_at = NOW()
			  RETURNING ` + userColumns

	var savedUser model.User
	err := r.db.QueryRow(ctx, query,
		user.ID, user.ChatID, user.Username, user.FirstName, user.LastName, user.Timezone,
	).Scan(
		&savedUser.ID, &savedUser.ChatID, &savedUser.Username, &savedUser.FirstName,
		&savedUser.LastName, &savedUser.Timezone, &savedUser.Active,
		&savedUser.CreatedAt, &savedUser.UpdatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to upsert user: %w", err)
	}

	return savedUser, nil
}

func (r *UserRepository) UpdateTimezone(ctx context.Context, chatID int64, timezone string) (bool, error) {
	const query = `UPDATE users SET timezone = $2, updated_at = NOW() WHERE chat_id = $1`

	cmd, err := r.db.Exec(ctx, query, chatID, timezone)
	if err != nil {
		return false, fmt.Errorf("failed to update user timezone: %w", err)
	}

	return cmd.RowsAffected() > 0, nil
}
