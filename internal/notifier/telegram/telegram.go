package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/signalpro/internal/alert"
)

const defaultBaseURL = "https://api.telegram.org"

// Telegram implements alert.Notifier for the Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Notify(ctx context.Context, a alert.Alert) error {
	return t.sendMessage(ctx, formatAlert(a))
}

func formatAlert(a alert.Alert) string {
	var sb strings.Builder

	emoji := "⚠️"
	switch strings.ToLower(a.Severity) {
	case "critical":
		emoji = "🚨"
	case "info":
		emoji = "ℹ️"
	}

	sb.WriteString(fmt.Sprintf("%s *%s* (%s)\n", emoji, a.Rule, a.Severity))
	sb.WriteString(a.Message)
	sb.WriteString("\n")
	if a.Metric != "" {
		sb.WriteString(fmt.Sprintf("📊 %s: %.2f\n", a.Metric, a.Value))
	}
	sb.WriteString(fmt.Sprintf("⏰ Time: %s", a.FiredAt.Format("2006-01-02 15:04:05")))

	return sb.String()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
