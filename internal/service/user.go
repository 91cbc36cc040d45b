package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/esc4n0rx/sara/internal/logger"
	"github.com/esc4n0rx/sara/internal/model"
)

// User handles user registration and settings.
type User struct {
	store           model.UserStore
	defaultTimezone string
	logger          *logger.Logger
}

// NewUser creates the user service.
func NewUser(store model.UserStore, defaultTimezone string, logger *logger.Logger) *User {
	return &User{
		store:           store,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// GetOrCreate registers the chat on first contact and refreshes the
// profile fields on every later one. Safe to call on each incoming
// update.
func (s *User) GetOrCreate(ctx context.Context, chatID int64, username, firstName, lastName string) (model.User, error) {
	user, err := s.store.Upsert(ctx, model.User{
		ID:        uuid.New(),
		ChatID:    chatID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Timezone:  s.defaultTimezone,
		Active:    true,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("failed to upsert user: %w", err)
	}

	return user, nil
}

// UpdateTimezone changes the user's display timezone. The zone name
// must resolve against the tz database.
func (s *User) UpdateTimezone(ctx context.Context, chatID int64, timezone string) (bool, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return false, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	updated, err := s.store.UpdateTimezone(ctx, chatID, timezone)
	if err != nil {
		return false, fmt.Errorf("failed to update timezone: %w", err)
	}
	if updated {
		s.logger.Info("user service: timezone updated", "chat_id", chatID, "timezone", timezone)
	}

	return updated, nil
}
