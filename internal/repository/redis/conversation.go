// Package redis keeps the short per-chat conversation history handed to
// the interpreter as context. Entries are capped and expire; losing them
// degrades interpretation quality but never loses reminders.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/esc4n0rx/sara/internal/model"
)

var _ model.ConversationStore = (*ConversationRepository)(nil)

type ConversationRepository struct {
	rdb   *redis.Client
	limit int64
	ttl   time.Duration
}

// NewConversationRepository creates a history store keeping at most
// limit messages per chat, each key expiring after ttl of inactivity.
func NewConversationRepository(rdb *redis.Client, limit int, ttl time.Duration) *ConversationRepository {
	return &ConversationRepository{
		rdb:   rdb,
		limit: int64(limit),
		ttl:   ttl,
	}
}

func historyKey(chatID int64) string {
	return fmt.Sprintf("conversation:%d", chatID)
}

func (r *ConversationRepository) Append(ctx context.Context, chatID int64, message model.Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation message: %w", err)
	}

	key := historyKey(chatID)
	pipe := r.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, r.limit-1)
	pipe.Expire(ctx, key, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append conversation message: %w", err)
	}

	return nil
}

// History returns the stored messages oldest first.
func (r *ConversationRepository) History(ctx context.Context, chatID int64) ([]model.Message, error) {
	raw, err := r.rdb.LRange(ctx, historyKey(chatID), 0, r.limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation history: %w", err)
	}

	messages := make([]model.Message, 0, len(raw))
	// LPush stores newest first, reverse back to chronological order.
	for i := len(raw) - 1; i >= 0; i-- {
		var message model.Message
		if err := json.Unmarshal([]byte(raw[i]), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversation message: %w", err)
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func (r *ConversationRepository) Clear(ctx context.Context, chatID int64) error {
	if err := r.rdb.Del(ctx, historyKey(chatID)).Err(); err != nil {
		return fmt.Errorf("failed to clear conversation history: %w", err)
	}
	return nil
}
