package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-deepseek/deepseek/request"
	"github.com/go-deepseek/deepseek/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esc4n0rx/sara/internal/model"
	"github.com/esc4n0rx/sara/internal/testutil"
)

type fakeChatClient struct {
	content string
	err     error
	gotReq  *request.ChatCompletionsRequest
}

func (f *fakeChatClient) CallChatCompletionsChat(ctx context.Context, req *request.ChatCompletionsRequest) (*response.ChatCompletionsResponse, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}

	raw := fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%s}}]}`, strconv.Quote(f.content))
	var resp response.ChatCompletionsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func newTestInterpreter(client chatClient) *Interpreter {
	return &Interpreter{
		client:      client,
		model:       "deepseek-chat",
		maxTokens:   512,
		temperature: 0.7,
		logger:      testutil.MakeNoopLogger(),
	}
}

func TestInterpreter_Interpret_Reminder(t *testing.T) {
	client := &fakeChatClient{
		content: `{"is_reminder": true, "description": "pagar a conta de luz", "date": "amanhã", "time": "09:00", "urgency": "alta"}`,
	}
	i := newTestInterpreter(client)

	got, err := i.Interpret(context.Background(), "me lembra de pagar a conta de luz amanhã às 9h", nil)

	require.NoError(t, err)
	require.NotNil(t, got.Reminder)
	assert.Nil(t, got.Conversation)
	assert.Equal(t, "pagar a conta de luz", got.Reminder.Description)
	assert.Equal(t, "amanhã", got.Reminder.DateToken)
	assert.Equal(t, "09:00", got.Reminder.TimeToken)
	assert.Equal(t, model.UrgencyHigh, got.Reminder.Urgency)
}

func TestInterpreter_Interpret_Conversation(t *testing.T) {
	client := &fakeChatClient{
		content: `{"is_reminder": false, "response": "Brasília é a capital do Brasil."}`,
	}
	i := newTestInterpreter(client)

	got, err := i.Interpret(context.Background(), "qual é a capital do Brasil?", nil)

	require.NoError(t, err)
	require.NotNil(t, got.Conversation)
	assert.Nil(t, got.Reminder)
	assert.Equal(t, "Brasília é a capital do Brasil.", got.Conversation.Response)
}

func TestInterpreter_Interpret_SendsHistory(t *testing.T) {
	client := &fakeChatClient{content: `{"is_reminder": false, "response": "ok"}`}
	i := newTestInterpreter(client)

	history := []model.Message{
		{Role: model.RoleUser, Content: "oi"},
		{Role: model.RoleAssistant, Content: "olá!"},
	}
	_, err := i.Interpret(context.Background(), "e aí", history)

	require.NoError(t, err)
	require.NotNil(t, client.gotReq)
	// system + 2 history + current message
	require.Len(t, client.gotReq.Messages, 4)
	assert.Equal(t, "system", client.gotReq.Messages[0].Role)
	assert.Equal(t, "oi", client.gotReq.Messages[1].Content)
	assert.Equal(t, "e aí", client.gotReq.Messages[3].Content)
}

func TestInterpreter_Interpret_APIError(t *testing.T) {
	client := &fakeChatClient{err: errors.New("rate limited")}
	i := newTestInterpreter(client)

	_, err := i.Interpret(context.Background(), "oi", nil)

	assert.Error(t, err)
}

func TestParseInterpretation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(*testing.T, model.Interpretation)
	}{
		{
			name:    "reminder with missing optional fields gets defaults",
			content: `{"is_reminder": true, "description": "reunião"}`,
			check: func(t *testing.T, got model.Interpretation) {
				require.NotNil(t, got.Reminder)
				assert.Equal(t, "hoje", got.Reminder.DateToken)
				assert.Equal(t, "", got.Reminder.TimeToken)
				assert.Equal(t, model.UrgencyMedium, got.Reminder.Urgency)
			},
		},
		{
			name:    "fenced json is unwrapped",
			content: "```json\n{\"is_reminder\": true, \"description\": \"reunião\", \"date\": \"hoje\", \"time\": \"14:00\", \"urgency\": \"média\"}\n```",
			check: func(t *testing.T, got model.Interpretation) {
				require.NotNil(t, got.Reminder)
				assert.Equal(t, "14:00", got.Reminder.TimeToken)
			},
		},
		{
			name:    "non-json content becomes a conversational reply",
			content: "Claro! Posso ajudar com isso.",
			check: func(t *testing.T, got model.Interpretation) {
				require.NotNil(t, got.Conversation)
				assert.Equal(t, "Claro! Posso ajudar com isso.", got.Conversation.Response)
			},
		},
		{
			name:    "not a reminder without response falls back to raw content",
			content: `{"is_reminder": false}`,
			check: func(t *testing.T, got model.Interpretation) {
				require.NotNil(t, got.Conversation)
				assert.NotEmpty(t, got.Conversation.Response)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, parseInterpretation(tt.content))
		})
	}
}

func TestNormalizeUrgency(t *testing.T) {
	assert.Equal(t, model.UrgencyLow, normalizeUrgency("baixa"))
	assert.Equal(t, model.UrgencyLow, normalizeUrgency("LOW"))
	assert.Equal(t, model.UrgencyMedium, normalizeUrgency("média"))
	assert.Equal(t, model.UrgencyMedium, normalizeUrgency(""))
	assert.Equal(t, model.UrgencyMedium, normalizeUrgency("urgente?"))
	assert.Equal(t, model.UrgencyHigh, normalizeUrgency("alta"))
	assert.Equal(t, model.UrgencyHigh, normalizeUrgency("high"))
}
