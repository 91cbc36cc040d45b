// Package bot runs the Telegram long-polling loop and routes incoming
// messages to commands, voice transcription and the language model.
package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/esc4n0rx/sara/internal/delivery/telegram"
	"github.com/esc4n0rx/sara/internal/logger"
	"github.com/esc4n0rx/sara/internal/model"
	"github.com/esc4n0rx/sara/internal/service"
)

// Transport reads updates and downloads files from the chat platform.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Messenger sends outgoing chat messages.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
}

const (
	welcomeMessage = "👋 Olá! Eu sou a Sara, sua assistente de lembretes.\n\n" +
		"Me envie uma mensagem de texto ou de voz dizendo o que você quer lembrar e quando, " +
		"e eu cuido do resto.\n\n" +
		"Comandos:\n" +
		"/lembretes - lista seus lembretes pendentes\n" +
		"/status - resumo dos seus lembretes\n" +
		"/limpar - apaga o histórico da conversa\n" +
		"/ajuda - mostra esta mensagem"

	genericErrorMessage   = "😕 Algo deu errado por aqui. Tente novamente em instantes."
	voiceRetryMessage     = "🎤 Não consegui entender o áudio. Pode repetir ou mandar por texto?"
	unknownCommandMessage = "🤔 Não conheço esse comando. Use /ajuda para ver o que eu sei fazer."
	historyClearedMessage = "🧹 Histórico da conversa apagado."
)

const (
	pollRetryDelay        = 3 * time.Second
	voiceDownloadTimeout  = 60 * time.Second
	interpretationTimeout = 90 * time.Second
)

// Bot wires the transport to the reminder and conversation services.
type Bot struct {
	transport     Transport
	messenger     Messenger
	users         *service.User
	reminders     *service.Reminder
	conversations model.ConversationStore
	interpreter   model.Interpreter
	transcriber   model.Transcriber
	storage       model.Storage
	logger        *logger.Logger
	pollTimeout   time.Duration
}

// New creates the bot.
func New(
	transport Transport,
	messenger Messenger,
	users *service.User,
	reminders *service.Reminder,
	conversations model.ConversationStore,
	interpreter model.Interpreter,
	transcriber model.Transcriber,
	storage model.Storage,
	pollTimeout time.Duration,
	logger *logger.Logger,
) *Bot {
	return &Bot{
		transport:     transport,
		messenger:     messenger,
		users:         users,
		reminders:     reminders,
		conversations: conversations,
		interpreter:   interpreter,
		transcriber:   transcriber,
		storage:       storage,
		logger:        logger,
		pollTimeout:   pollTimeout,
	}
}

// Run polls for updates until ctx is canceled. Poll failures are logged
// and retried after a short delay so transient network errors do not
// stop the bot.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updates, err := b.transport.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.Error("bot: failed to poll updates", "error", err.Error())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.IncomingMessage) {
	chatID := msg.Chat.ID

	if _, err := b.users.GetOrCreate(ctx, chatID, msg.From.Username, msg.From.FirstName, msg.From.LastName); err != nil {
		b.logger.Error("bot: failed to register user", "chat_id", chatID, "error", err.Error())
		b.reply(ctx, chatID, genericErrorMessage)
		return
	}

	switch {
	case msg.Voice != nil:
		b.handleVoice(ctx, msg)
	case strings.HasPrefix(msg.Text, "/"):
		b.handleCommand(ctx, chatID, msg.Text)
	case strings.TrimSpace(msg.Text) != "":
		b.handleText(ctx, chatID, msg.Text, false)
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, text string) {
	command := strings.ToLower(strings.Fields(text)[0])
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	switch command {
	case "/start", "/ajuda", "/help":
		b.reply(ctx, chatID, welcomeMessage)

	case "/lembretes":
		list, err := b.reminders.List(ctx, chatID)
		if err != nil {
			b.logger.Error("bot: failed to list reminders", "chat_id", chatID, "error", err.Error())
			b.reply(ctx, chatID, genericErrorMessage)
			return
		}
		b.replyMarkdown(ctx, chatID, list)

	case "/status":
		stats, err := b.reminders.Statistics(ctx, chatID)
		if err != nil {
			b.logger.Error("bot: failed to get statistics", "chat_id", chatID, "error", err.Error())
			b.reply(ctx, chatID, genericErrorMessage)
			return
		}
		b.replyMarkdown(ctx, chatID, service.FormatStatistics(stats))

	case "/limpar":
		if err := b.conversations.Clear(ctx, chatID); err != nil {
			b.logger.Error("bot: failed to clear history", "chat_id", chatID, "error", err.Error())
			b.reply(ctx, chatID, genericErrorMessage)
			return
		}
		b.reply(ctx, chatID, historyClearedMessage)

	default:
		b.reply(ctx, chatID, unknownCommandMessage)
	}
}

func (b *Bot) handleText(ctx context.Context, chatID int64, text string, voice bool) {
	history, err := b.conversations.History(ctx, chatID)
	if err != nil {
		// History is a cache; interpretation still works without it.
		b.logger.Warn("bot: failed to load history", "chat_id", chatID, "error", err.Error())
		history = nil
	}

	interpretCtx, cancel := context.WithTimeout(ctx, interpretationTimeout)
	defer cancel()

	interpretation, err := b.interpreter.Interpret(interpretCtx, text, history)
	if err != nil {
		b.logger.Error("bot: interpretation failed", "chat_id", chatID, "error", err.Error())
		b.reply(ctx, chatID, genericErrorMessage)
		return
	}

	if err := b.conversations.Append(ctx, chatID, model.Message{Role: model.RoleUser, Content: text, Voice: voice}); err != nil {
		b.logger.Warn("bot: failed to append history", "chat_id", chatID, "error", err.Error())
	}

	var answer string
	switch {
	case interpretation.Reminder != nil:
		intent := interpretation.Reminder
		_, answer, err = b.reminders.CreateFlow(ctx, chatID, intent.Description, intent.DateToken, intent.TimeToken, intent.Urgency)
		if err != nil {
			b.logger.Error("bot: reminder creation failed", "chat_id", chatID, "error", err.Error())
		}
	case interpretation.Conversation != nil:
		answer = interpretation.Conversation.Response
	}

	if answer == "" {
		answer = genericErrorMessage
	}

	b.replyMarkdown(ctx, chatID, answer)

	if err := b.conversations.Append(ctx, chatID, model.Message{Role: model.RoleAssistant, Content: answer}); err != nil {
		b.logger.Warn("bot: failed to append history", "chat_id", chatID, "error", err.Error())
	}
}

func (b *Bot) handleVoice(ctx context.Context, msg *telegram.IncomingMessage) {
	chatID := msg.Chat.ID

	downloadCtx, cancel := context.WithTimeout(ctx, voiceDownloadTimeout)
	defer cancel()

	audio, err := b.transport.DownloadFile(downloadCtx, msg.Voice.FileID)
	if err != nil {
		b.logger.Error("bot: failed to download voice note", "chat_id", chatID, "error", err.Error())
		b.reply(ctx, chatID, genericErrorMessage)
		return
	}

	key := fmt.Sprintf("voice/%d/%d.oga", chatID, msg.MessageID)
	if err := b.storage.Upload(ctx, key, bytes.NewReader(audio)); err != nil {
		// Archival only. Transcription proceeds from the in-memory copy.
		b.logger.Warn("bot: failed to archive voice note", "chat_id", chatID, "key", key, "error", err.Error())
	}

	text, err := b.transcriber.Transcribe(ctx, key, audio)
	if err != nil {
		b.logger.Error("bot: transcription failed", "chat_id", chatID, "error", err.Error())
		b.reply(ctx, chatID, genericErrorMessage)
		return
	}
	if text == "" {
		b.reply(ctx, chatID, voiceRetryMessage)
		return
	}

	b.handleText(ctx, chatID, text, true)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.messenger.SendMessage(ctx, chatID, text, ""); err != nil {
		b.logger.Error("bot: failed to send message", "chat_id", chatID, "error", err.Error())
	}
}

func (b *Bot) replyMarkdown(ctx context.Context, chatID int64, text string) {
	if err := b.messenger.SendMessage(ctx, chatID, text, "Markdown"); err != nil {
		b.logger.Error("bot: failed to send message", "chat_id", chatID, "error", err.Error())
	}
}
