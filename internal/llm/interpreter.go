// Package llm interprets free-form user messages into structured intents
// using the DeepSeek chat completions API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-deepseek/deepseek"
	"github.com/go-deepseek/deepseek/request"
	"github.com/go-deepseek/deepseek/response"

	"github.com/esc4n0rx/sara/internal/logger"
	"github.com/esc4n0rx/sara/internal/model"
)

const systemPrompt = `Você é Sara, uma assistente pessoal que ajuda o usuário a organizar lembretes.
Analise a mensagem do usuário e determine se é uma solicitação de lembrete.

Se FOR um lembrete, responda apenas com JSON:
{"is_reminder": true, "description": "...", "date": "YYYY-MM-DD ou 'hoje' ou 'amanhã'", "time": "HH:MM", "urgency": "baixa|média|alta"}

Se NÃO FOR um lembrete, responda apenas com JSON:
{"is_reminder": false, "response": "sua resposta natural em português"}`

// chatClient is the slice of the DeepSeek client the interpreter needs.
type chatClient interface {
	CallChatCompletionsChat(ctx context.Context, req *request.ChatCompletionsRequest) (*response.ChatCompletionsResponse, error)
}

var _ model.Interpreter = (*Interpreter)(nil)

// Interpreter extracts reminder intents from user messages.
type Interpreter struct {
	client      chatClient
	model       string
	maxTokens   int
	temperature float32
	logger      *logger.Logger
}

// NewInterpreter creates an Interpreter backed by the DeepSeek API.
func NewInterpreter(apiKey, chatModel string, maxTokens int, temperature float32, logger *logger.Logger) (*Interpreter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek api key is required")
	}

	client, err := deepseek.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create deepseek client: %w", err)
	}

	return &Interpreter{
		client:      client,
		model:       chatModel,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}, nil
}

// Interpret classifies text as a reminder request or plain conversation.
// The returned variant always has exactly one arm set; missing optional
// fields are defaulted rather than surfaced as errors.
func (i *Interpreter) Interpret(ctx context.Context, text string, history []model.Message) (model.Interpretation, error) {
	messages := make([]*request.Message, 0, len(history)+2)
	messages = append(messages, &request.Message{
		Role:    "system",
		Content: systemPrompt,
	})
	for _, m := range history {
		messages = append(messages, &request.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	messages = append(messages, &request.Message{
		Role:    "user",
		Content: text,
	})

	temp := i.temperature
	chatReq := &request.ChatCompletionsRequest{
		Model:       i.model,
		Messages:    messages,
		MaxTokens:   i.maxTokens,
		Temperature: &temp,
		Stream:      false,
	}

	resp, err := i.client.CallChatCompletionsChat(ctx, chatReq)
	if err != nil {
		return model.Interpretation{}, fmt.Errorf("failed to call deepseek: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Interpretation{}, fmt.Errorf("deepseek returned no choices")
	}

	content := resp.Choices[0].Message.Content
	interpretation := parseInterpretation(content)

	if interpretation.Reminder != nil {
		i.logger.Debug("llm: message interpreted as reminder",
			"description", interpretation.Reminder.Description,
			"date", interpretation.Reminder.DateToken,
			"time", interpretation.Reminder.TimeToken)
	}

	return interpretation, nil
}

type interpretationPayload struct {
	IsReminder  bool   `json:"is_reminder"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Urgency     string `json:"urgency"`
	Response    string `json:"response"`
}

// parseInterpretation decodes the model output defensively: malformed
// JSON or missing fields degrade to a conversational reply so the bot
// never fails on an unexpected completion.
func parseInterpretation(content string) model.Interpretation {
	payload := interpretationPayload{}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &payload); err != nil {
		return model.Interpretation{
			Conversation: &model.ConversationReply{Response: strings.TrimSpace(content)},
		}
	}

	if !payload.IsReminder {
		reply := strings.TrimSpace(payload.Response)
		if reply == "" {
			reply = strings.TrimSpace(content)
		}
		return model.Interpretation{
			Conversation: &model.ConversationReply{Response: reply},
		}
	}

	date := strings.TrimSpace(payload.Date)
	if date == "" {
		date = "hoje"
	}

	return model.Interpretation{
		Reminder: &model.ReminderIntent{
			Description: strings.TrimSpace(payload.Description),
			DateToken:   date,
			TimeToken:   strings.TrimSpace(payload.Time),
			Urgency:     normalizeUrgency(payload.Urgency),
		},
	}
}

func normalizeUrgency(raw string) model.Urgency {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "baixa", "low":
		return model.UrgencyLow
	case "alta", "high":
		return model.UrgencyHigh
	default:
		return model.UrgencyMedium
	}
}

// stripCodeFence removes a surrounding markdown fence the model
// sometimes wraps JSON in.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
