// Package telegram implements the delivery sink and bot transport over
// the Telegram Bot API with a plain HTTP client.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/esc4n0rx/sara/internal/model"
)

var _ model.DeliverySink = (*Sender)(nil)

// Sender sends reminder notifications via the Telegram Bot API. Sending
// the same reminder twice produces a duplicate message, which the
// at-least-once contract accepts.
type Sender struct {
	botToken string
	baseURL  string
	client   *http.Client
}

// NewSender creates a Sender for the given bot token. baseURL is the
// API root, normally https://api.telegram.org.
func NewSender(botToken, baseURL string) *Sender {
	return &Sender{
		botToken: botToken,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Deliver sends the reminder push message, appending the deep link into
// the mobile shortcut when present.
func (s *Sender) Deliver(ctx context.Context, chatID int64, description, shortcutURL string) error {
	text := fmt.Sprintf("⏰ *Lembrete!*\n\n📋 %s", description)
	if shortcutURL != "" {
		text += fmt.Sprintf("\n\n🔗 [Toque aqui para criar no iPhone](%s)", shortcutURL)
	}

	return s.SendMessage(ctx, chatID, text, "Markdown")
}

// SendMessage sends an arbitrary text message to a chat.
func (s *Sender) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	payload := sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("failed to parse telegram response: %w", err)
	}

	if !apiResp.OK {
		return fmt.Errorf("telegram API error: %s", apiResp.Description)
	}

	return nil
}
