// Package notify sends chat messages to the household.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SamuelPereira26/Finhouse/internal/config"
)

// ErrNotConfigured is returned when no bot token is set.
var ErrNotConfigured = errors.New("telegram bot token not configured")

// Notifier delivers one text message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Send(context.Context, string) error { return nil }

// Button is one inline keyboard button.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// Keyboard is an inline keyboard, one slice per row.
type Keyboard struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

// Message is a sendMessage request.
type Message struct {
	ChatID      string    `json:"chat_id"`
	Text        string    `json:"text"`
	ParseMode   string    `json:"parse_mode,omitempty"`
	ReplyMarkup *Keyboard `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Telegram talks to the Bot API.
type Telegram struct {
	APIURL string
	Token  string
	ChatID string
	Client *http.Client
}

// NewTelegram builds a sender from config.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	return &Telegram{
		APIURL: strings.TrimRight(apiURL, "/"),
		Token:  cfg.BotToken,
		ChatID: cfg.ChatID,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

// New returns a Telegram sender when a token is configured and Nop otherwise.
func New(cfg config.TelegramConfig) Notifier {
	if cfg.BotToken == "" {
		return Nop{}
	}
	return NewTelegram(cfg)
}

// Send posts text to the default chat in Markdown.
func (t *Telegram) Send(ctx context.Context, text string) error {
	return t.SendMessage(ctx, Message{Text: text})
}

// SendMessage posts msg, filling in the default chat and parse mode.
func (t *Telegram) SendMessage(ctx context.Context, msg Message) error {
	if msg.ChatID == "" {
		msg.ChatID = t.ChatID
	}
	if msg.ParseMode == "" {
		msg.ParseMode = "Markdown"
	}
	return t.call(ctx, "sendMessage", msg)
}

// AnswerCallback acknowledges an inline keyboard press.
func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return t.call(ctx, "answerCallbackQuery", map[string]string{
		"callback_query_id": callbackID,
		"text":              text,
	})
}

// SetWebhook registers hookURL as the bot's update endpoint.
func (t *Telegram) SetWebhook(ctx context.Context, hookURL string) error {
	return t.call(ctx, "setWebhook", map[string]string{"url": hookURL})
}

func (t *Telegram) call(ctx context.Context, method string, payload any) error {
	if t.Token == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/bot%s/%s", t.APIURL, t.Token, method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		// The request URL carries the bot token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: HTTP %d", method, resp.StatusCode)
	}
	var out apiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !out.OK {
		return fmt.Errorf("%s: %s", method, out.Description)
	}
	return nil
}

// Recorder keeps every message in memory. It is used by tests and dry runs.
type Recorder struct {
	Messages []Message
}

func (r *Recorder) Send(_ context.Context, text string) error {
	r.Messages = append(r.Messages, Message{Text: text})
	return nil
}

func (r *Recorder) SendMessage(_ context.Context, msg Message) error {
	r.Messages = append(r.Messages, msg)
	return nil
}

func (r *Recorder) AnswerCallback(context.Context, string, string) error { return nil }

// Texts returns the text of every recorded message.
func (r *Recorder) Texts() []string {
	out := make([]string, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = m.Text
	}
	return out
}
