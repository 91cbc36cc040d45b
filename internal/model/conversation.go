package model

import "context"

// ConversationStore keeps a short per-chat message history used as LLM
// context. Entries expire; this is a cache, not a source of truth.
type ConversationStore interface {
	Append(ctx context.Context, chatID int64, message Message) error
	History(ctx context.Context, chatID int64) ([]Message, error)
	Clear(ctx context.Context, chatID int64) error
}

// Message is a single conversation entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Voice   bool   `json:"voice,omitempty"`
}

// Roles for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
