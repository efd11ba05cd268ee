package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trainalert.app/config"
	"trainalert.app/errors"
)

// TelegramNotifier implements Notifier via the Telegram Bot API
type TelegramNotifier struct {
	apiBaseURL string
	botToken   string
	client     *http.Client
}

// NewTelegramNotifier creates a new Telegram Bot API notifier
func NewTelegramNotifier(config *config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		apiBaseURL: config.APIBaseURL,
		botToken:   config.BotToken,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers a text message to one chat. Delivery failures (user
// blocked the bot, chat gone) come back as notification errors for the
// caller to log; they are never fatal.
func (n *TelegramNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return errors.NewNotificationError("failed to encode message", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBaseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.NewNotificationError("failed to build sendMessage request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.NewNotificationError("failed to call Telegram API", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return errors.NewNotificationError("failed to decode Telegram response", err)
	}

	if !result.OK {
		return errors.NewNotificationError(
			fmt.Sprintf("Telegram rejected message for chat %d: %s", chatID, result.Description), nil)
	}

	return nil
}
