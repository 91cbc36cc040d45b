package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByChatID(ctx context.Context, chatID int64) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Upsert(ctx context.Context, user User) (User, error)
	UpdateTimezone(ctx context.Context, chatID int64, timezone string) (bool, error)
}

// User represents a bot user identified by a Telegram chat id.
// Timezone is used only for input interpretation and display, never
// for storage: due instants are always persisted in UTC.
type User struct {
	ID        uuid.UUID
	ChatID    int64
	Username  string
	FirstName string
	LastName  string
	Timezone  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
