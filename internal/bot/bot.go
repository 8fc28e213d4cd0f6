// Package bot answers chat commands and inline-button callbacks with
// household summaries.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/SamuelPereira26/Finhouse/internal/analytics"
	"github.com/SamuelPereira26/Finhouse/internal/classify"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
	"github.com/SamuelPereira26/Finhouse/internal/notify"
)

// Callback data prefixes for suggestion buttons.
const (
	CreateRulePrefix     = "create_rule:"
	DismissPatternPrefix = "dismiss_pattern:"
)

// maxCallbackData is the Bot API limit on callback_data, in bytes.
const maxCallbackData = 64

// Context supplies the data behind each command.
type Context interface {
	Summary(ctx context.Context) (analytics.Summary, error)
	Comparison(ctx context.Context) (analytics.Comparison, error)
	Budget(ctx context.Context) ([]analytics.BudgetLine, error)
	Pending(ctx context.Context) (analytics.PendingCounts, error)
	Donations(ctx context.Context) (analytics.DonationStatus, error)
	CreateRule(ctx context.Context, pattern string) (model.Rule, error)
}

// Sender delivers replies. *notify.Telegram and *notify.Recorder implement it.
type Sender interface {
	SendMessage(ctx context.Context, msg notify.Message) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Chat identifies a conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int    `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// CallbackQuery is a press on an inline button.
type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	Message *Message `json:"message,omitempty"`
}

// Update is one webhook payload.
type Update struct {
	UpdateID      int            `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Handler routes updates to replies.
type Handler struct {
	sender Sender
	data   Context
	log    zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(sender Sender, data Context, log zerolog.Logger) *Handler {
	return &Handler{sender: sender, data: data, log: log}
}

// HandleUpdate answers one update. Updates with neither a message nor a
// callback are ignored.
func (h *Handler) HandleUpdate(ctx context.Context, u Update) error {
	switch {
	case u.CallbackQuery != nil:
		return h.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		return h.handleMessage(ctx, u.Message)
	}
	return nil
}

func (h *Handler) handleMessage(ctx context.Context, m *Message) error {
	chat := chatID(m)
	switch strings.TrimSpace(m.Text) {
	case "/start", "/menu":
		return h.send(ctx, MainMenu(chat))
	case "/resumen":
		return h.reply(ctx, chat, h.summaryText)
	}
	return h.send(ctx, text(chat, "Comando no reconocido. Usa /menu"))
}

func (h *Handler) handleCallback(ctx context.Context, q *CallbackQuery) error {
	if q.ID != "" {
		if err := h.sender.AnswerCallback(ctx, q.ID, ""); err != nil {
			h.log.Warn().Err(err).Str("callback_id", q.ID).Msg("answering callback failed")
		}
	}
	chat := chatID(q.Message)

	switch q.Data {
	case "resumen":
		return h.reply(ctx, chat, h.summaryText)
	case "comparativa":
		return h.reply(ctx, chat, h.comparisonText)
	case "presupuesto":
		return h.reply(ctx, chat, h.budgetText)
	case "pendientes":
		return h.reply(ctx, chat, h.pendingText)
	case "donaciones":
		return h.reply(ctx, chat, h.donationsText)
	case "menu":
		return h.send(ctx, MainMenu(chat))
	}

	if pattern, ok := strings.CutPrefix(q.Data, CreateRulePrefix); ok {
		pattern = strings.TrimSpace(pattern)
		if _, err := h.data.CreateRule(ctx, pattern); err != nil {
			return fmt.Errorf("creating rule for %q: %w", pattern, err)
		}
		return h.send(ctx, text(chat, fmt.Sprintf("Regla creada para patron: `%s`", pattern)))
	}
	if pattern, ok := strings.CutPrefix(q.Data, DismissPatternPrefix); ok {
		return h.send(ctx, text(chat, fmt.Sprintf("Sugerencia descartada: `%s`", strings.TrimSpace(pattern))))
	}
	return h.send(ctx, text(chat, "Accion no soportada."))
}

func (h *Handler) reply(ctx context.Context, chat string, render func(context.Context) (string, error)) error {
	body, err := render(ctx)
	if err != nil {
		return err
	}
	return h.send(ctx, text(chat, body))
}

func (h *Handler) send(ctx context.Context, msg notify.Message) error {
	if err := h.sender.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	return nil
}

func (h *Handler) summaryText(ctx context.Context) (string, error) {
	s, err := h.data.Summary(ctx)
	if err != nil {
		return "", fmt.Errorf("loading summary: %w", err)
	}
	return fmt.Sprintf("*Resumen %s*\nIngresos: %s\nGasto vida: %s\nAportaciones: %s\nDonaciones: %s\nDisponible: *%s*",
		s.Month, eur(s.Income), eur(s.LifeExpense), eur(s.Contributions), eur(s.Donations), eur(s.Available)), nil
}

func (h *Handler) comparisonText(ctx context.Context) (string, error) {
	c, err := h.data.Comparison(ctx)
	if err != nil {
		return "", fmt.Errorf("loading comparison: %w", err)
	}
	return fmt.Sprintf("*Comparativa*\n%s -> %s\nDelta: %s", c.Previous.Month, c.Current.Month, eur(c.Delta)), nil
}

func (h *Handler) budgetText(ctx context.Context) (string, error) {
	lines, err := h.data.Budget(ctx)
	if err != nil {
		return "", fmt.Errorf("loading budgets: %w", err)
	}
	if len(lines) == 0 {
		return "*Presupuesto*\nSin datos para este mes.", nil
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("%s: %s / %s", l.Macro, eur(l.Spent), eur(l.Budget))
	}
	return "*Presupuesto*\n" + strings.Join(out, "\n"), nil
}

func (h *Handler) pendingText(ctx context.Context) (string, error) {
	p, err := h.data.Pending(ctx)
	if err != nil {
		return "", fmt.Errorf("loading pending counts: %w", err)
	}
	return fmt.Sprintf("*Pendientes*\nTotal: %d\nNEEDS_REVIEW: %d\nSUGERIDO: %d", p.Total, p.NeedsReview, p.Suggested), nil
}

func (h *Handler) donationsText(ctx context.Context) (string, error) {
	d, err := h.data.Donations(ctx)
	if err != nil {
		return "", fmt.Errorf("loading donations: %w", err)
	}
	return fmt.Sprintf("*Donaciones %s*\nActual: %s\nObjetivo: %s", d.Month, eur(d.Amount), eur(d.Target)), nil
}

// MainMenu is the inline menu sent for /start and /menu.
func MainMenu(chat string) notify.Message {
	msg := text(chat, "*Menu FINHOUSE*\nSelecciona una opcion:")
	msg.ReplyMarkup = &notify.Keyboard{InlineKeyboard: [][]notify.Button{
		{{Text: "Resumen", CallbackData: "resumen"}},
		{{Text: "Comparativa", CallbackData: "comparativa"}},
		{{Text: "Presupuesto", CallbackData: "presupuesto"}},
		{{Text: "Pendientes", CallbackData: "pendientes"}},
		{{Text: "Donaciones", CallbackData: "donaciones"}},
	}}
	return msg
}

// SuggestionKeyboard offers a create and a dismiss button per suggested
// pattern. Patterns too long for callback data get no buttons.
func SuggestionKeyboard(suggestions []classify.PatternSuggestion) *notify.Keyboard {
	kb := &notify.Keyboard{InlineKeyboard: [][]notify.Button{}}
	for _, s := range suggestions {
		if len(DismissPatternPrefix+s.Pattern) > maxCallbackData {
			continue
		}
		kb.InlineKeyboard = append(kb.InlineKeyboard, []notify.Button{
			{Text: "Crear regla: " + s.Pattern, CallbackData: CreateRulePrefix + s.Pattern},
			{Text: "Descartar", CallbackData: DismissPatternPrefix + s.Pattern},
		})
	}
	return kb
}

func text(chat, body string) notify.Message {
	return notify.Message{ChatID: chat, Text: body, ParseMode: "Markdown"}
}

// chatID returns the chat of m, or "" for the configured default chat.
func chatID(m *Message) string {
	if m == nil || m.Chat.ID == 0 {
		return ""
	}
	return strconv.FormatInt(m.Chat.ID, 10)
}

func eur(amount float64) string {
	return normalize.FormatAmount(amount, "EUR")
}
