package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Update is a single long-polling update from the Bot API.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message"`
}

// IncomingMessage is a user message relevant to the bot: text, a voice
// note, or a command.
type IncomingMessage struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
	Voice     *Voice `json:"voice"`
}

// User is the Telegram account that sent a message.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// Voice is an attached voice note.
type Voice struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
}

type fileInfo struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
}

// Client reads updates and downloads files from the Telegram Bot API.
type Client struct {
	botToken string
	baseURL  string
	client   *http.Client
}

// NewClient creates a long-polling Bot API client. pollTimeout bounds
// how long getUpdates blocks server-side; the HTTP timeout is set above
// it so a quiet poll is not treated as an error.
func NewClient(botToken, baseURL string, pollTimeout time.Duration) *Client {
	return &Client{
		botToken: botToken,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: pollTimeout + 15*time.Second},
	}
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	params.Set("allowed_updates", `["message"]`)

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", c.baseURL, c.botToken, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build getUpdates request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll telegram updates: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read getUpdates response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse getUpdates response: %w", err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("telegram API error: %s", apiResp.Description)
	}

	var updates []Update
	if err := json.Unmarshal(apiResp.Result, &updates); err != nil {
		return nil, fmt.Errorf("failed to parse updates: %w", err)
	}

	return updates, nil
}

// DownloadFile fetches the raw bytes of a file by its file id.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", c.baseURL, c.botToken, url.QueryEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build getFile request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve telegram file: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read getFile response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse getFile response: %w", err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("telegram API error: %s", apiResp.Description)
	}

	var info fileInfo
	if err := json.Unmarshal(apiResp.Result, &info); err != nil {
		return nil, fmt.Errorf("failed to parse file info: %w", err)
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.botToken, info.FilePath)
	fileReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build file download request: %w", err)
	}

	fileResp, err := c.client.Do(fileReq)
	if err != nil {
		return nil, fmt.Errorf("failed to download telegram file: %w", err)
	}
	defer fileResp.Body.Close()

	if fileResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status downloading file: %s", fileResp.Status)
	}

	data, err := io.ReadAll(fileResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}

	return data, nil
}
