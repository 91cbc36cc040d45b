// Package transcribe converts voice-note audio into text through the
// Groq Whisper transcription endpoint.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/esc4n0rx/sara/internal/model"
)

var _ model.Transcriber = (*GroqTranscriber)(nil)

// GroqTranscriber calls the Groq audio transcription API.
type GroqTranscriber struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGroqTranscriber creates a transcriber using the given Whisper model.
func NewGroqTranscriber(apiKey, baseURL, whisperModel string) *GroqTranscriber {
	return &GroqTranscriber{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   whisperModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends the audio bytes and returns the transcribed text.
// An empty transcription is returned as ("", nil): the caller treats it
// as "ask the user to retry", not as a failure.
func (t *GroqTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio payload: %w", err)
	}
	if err := writer.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	endpoint := t.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call transcription API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API returned %s: %s", resp.Status, string(body))
	}

	var result transcriptionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}

	return strings.TrimSpace(result.Text), nil
}
