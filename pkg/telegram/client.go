// Package telegram is the delivery side of the monitor: it pushes
// formatted reports to the configured chat and long-polls for incoming
// commands and button presses.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/satishjaiswal/hyperliquid-position/internal/obs"
)

const DefaultBaseURL = "https://api.telegram.org"

type Client struct {
	baseURL    string
	token      string
	chatID     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient builds a bot client. baseURL is overridable for tests; an
// empty string means the public Telegram API.
func NewClient(baseURL, token, chatID string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		chatID:  chatID,
		timeout: timeout,
		// Deadlines are set per call: long-polls outlive the regular
		// request timeout.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type Message struct {
	Text string `json:"text"`
	Chat Chat   `json:"chat"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	Message *Message `json:"message"`
}

// InlineKeyboard is an optional button grid attached to a message.
type InlineKeyboard struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) call(ctx context.Context, method string, payload interface{}, timeout time.Duration) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s payload", method)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "build %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "telegram %s", method)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", method)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("telegram %s: unexpected status %d", method, resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.Wrapf(err, "decode %s response", method)
	}
	if !envelope.OK {
		return nil, errors.Errorf("telegram %s: %s", method, envelope.Description)
	}
	return envelope.Result, nil
}

// SendMessage delivers Markdown-formatted text to the configured chat.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return c.SendMessageWithKeyboard(ctx, text, nil)
}

func (c *Client) SendMessageWithKeyboard(ctx context.Context, text string, keyboard *InlineKeyboard) error {
	payload := map[string]interface{}{
		"chat_id":    c.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}

	c.logger.WithField("chars", len(text)).Debug("Sending Telegram message")
	if _, err := c.call(ctx, "sendMessage", payload, c.timeout); err != nil {
		obs.DeliveryFailures.Inc()
		c.logger.WithError(err).Error("Failed to send Telegram message")
		return err
	}
	return nil
}

// GetUpdates long-polls for incoming updates. The offset must be the
// last seen update id plus one, which is what stops redelivery.
func (c *Client) GetUpdates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":  offset,
		"timeout": int(pollTimeout.Seconds()),
		"limit":   100,
	}

	result, err := c.call(ctx, "getUpdates", payload, pollTimeout+5*time.Second)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, errors.Wrap(err, "decode updates")
	}
	if len(updates) > 0 {
		c.logger.WithField("count", len(updates)).Debug("Received Telegram updates")
	}
	return updates, nil
}

// AnswerCallbackQuery clears the loading spinner on a pressed button.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	payload := map[string]interface{}{
		"callback_query_id": callbackID,
		"text":              text,
	}
	_, err := c.call(ctx, "answerCallbackQuery", payload, 10*time.Second)
	return err
}

// AuthorizedChat reports whether the chat id matches the configured
// delivery target.
func (c *Client) AuthorizedChat(chatID int64) bool {
	return fmt.Sprintf("%d", chatID) == c.chatID
}

// Ping verifies the bot token against the API.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "getMe", map[string]interface{}{}, 10*time.Second)
	return errors.Wrap(err, "telegram connectivity probe")
}
