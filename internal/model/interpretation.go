package model

import "context"

// Interpreter converts free text plus conversation history into a
// structured interpretation.
type Interpreter interface {
	Interpret(ctx context.Context, text string, history []Message) (Interpretation, error)
}

// Transcriber converts voice audio into text. An empty string without
// error means the audio could not be transcribed.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Interpretation is a tagged variant: exactly one of Reminder or
// Conversation is set. Callers must match on both arms.
type Interpretation struct {
	Reminder     *ReminderIntent
	Conversation *ConversationReply
}

// ReminderIntent carries the extracted fields of a reminder request.
// Tokens are loose user-language values resolved later by timeparse.
type ReminderIntent struct {
	Description string
	DateToken   string
	TimeToken   string
	Urgency     Urgency
}

// ConversationReply is the assistant's free-form answer for messages
// that are not reminder requests.
type ConversationReply struct {
	Response string
}
