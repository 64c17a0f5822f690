package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsCourier/internal/ports"
)

// ErrClientRejected marks a 400/404 response from the Bot API: the request
// itself was refused (bad photo URL, oversized caption), not a transient
// failure. Callers retry exactly once as a plain text send.
var ErrClientRejected = ports.ErrRejected

const defaultAPIBase = "https://api.telegram.org"

// Channel sends messages to Telegram channels via the Bot API.
type Channel struct {
	apiBase  string
	botToken string
	client   *http.Client
}

var _ ports.ChannelPublisher = (*Channel)(nil)

// NewChannel registers the bot token. apiBase overrides the Bot API host in
// tests; pass "" for production.
func NewChannel(botToken, apiBase string) *Channel {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Channel{
		apiBase:  strings.TrimSuffix(apiBase, "/"),
		botToken: botToken,
		client:   &http.Client{Timeout: 20 * time.Second},
	}
}

type sendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// SendText posts an HTML-formatted message.
func (c *Channel) SendText(ctx context.Context, chatID, text string) (int64, error) {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
}

// SendPhoto posts a photo with an HTML caption.
func (c *Channel) SendPhoto(ctx context.Context, chatID, photoURL, caption string) (int64, error) {
	return c.call(ctx, "sendPhoto", map[string]any{
		"chat_id":    chatID,
		"photo":      photoURL,
		"caption":    caption,
		"parse_mode": "HTML",
	})
}

func (c *Channel) call(ctx context.Context, method string, payload map[string]any) (int64, error) {
	if c.botToken == "" {
		return 0, fmt.Errorf("telegram channel misconfigured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%s status %s: %w", method, resp.Status, ErrClientRejected)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s status %s: %s", method, resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return 0, fmt.Errorf("%s failed: %s", method, parsed.Description)
	}
	return parsed.Result.MessageID, nil
}
