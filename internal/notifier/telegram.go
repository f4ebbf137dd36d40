package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ZoneBacktester/internal/logger"
)

const telegramAPIBase = "https://api.telegram.org"

// Notifier delivers run reports and failure alerts.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// TelegramNotifier talks to the Telegram Bot API. Notify retries failed
// sends MaxRetries times, sleeping Backoff, 2*Backoff, 4*Backoff... between
// attempts.
type TelegramNotifier struct {
	BotToken   string
	ChatID     string
	APIBase    string
	Client     *http.Client
	MaxRetries int
	Backoff    time.Duration
}

// NewTelegramNotifier builds a notifier that optionally routes through proxyURL.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken:   botToken,
		ChatID:     chatID,
		APIBase:    telegramAPIBase,
		Client:     newHTTPClient(proxyURL, 40*time.Second),
		MaxRetries: 3,
		Backoff:    time.Second,
	}
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// APIError is a non-OK answer from the Bot API.
type APIError struct {
	Method      string
	Status      int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.Status, e.Description)
}

// call POSTs params as JSON to the given Bot API method and decodes the
// "result" field of the reply into out (when out is non-nil).
func (t *TelegramNotifier) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("telegram %s: encode params: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram %s: read reply: %w", method, err)
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || resp.StatusCode != http.StatusOK || !envelope.OK {
		desc := envelope.Description
		if desc == "" {
			desc = string(bytes.TrimSpace(raw))
		}
		return &APIError{Method: method, Status: resp.StatusCode, Description: desc}
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

// Send makes a single sendMessage attempt with HTML parse mode.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  t.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}, nil)
}

// Notify sends text, retrying with exponential backoff.
func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	attempts := t.MaxRetries + 1
	delay := t.Backoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = t.Send(ctx, text); err == nil {
			return nil
		}
		if attempt >= attempts {
			return fmt.Errorf("telegram: gave up after %d attempts: %w", attempts, err)
		}
		logger.Warnf("telegram send attempt %d/%d failed: %v (next try in %s)", attempt, attempts, err, delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
