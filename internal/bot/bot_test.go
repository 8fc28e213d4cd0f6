package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelPereira26/Finhouse/internal/analytics"
	"github.com/SamuelPereira26/Finhouse/internal/classify"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/notify"
)

type fakeContext struct {
	budget   []analytics.BudgetLine
	patterns []string
	err      error
}

func (f *fakeContext) Summary(context.Context) (analytics.Summary, error) {
	return analytics.Summary{Month: "2026-02", Income: 2500, LifeExpense: 800, Contributions: 300, Donations: 250, Available: 1150}, f.err
}

func (f *fakeContext) Comparison(context.Context) (analytics.Comparison, error) {
	return analytics.Comparison{
		Current:  analytics.Summary{Month: "2026-02"},
		Previous: analytics.Summary{Month: "2026-01"},
		Delta:    -120.5,
	}, f.err
}

func (f *fakeContext) Budget(context.Context) ([]analytics.BudgetLine, error) { return f.budget, f.err }

func (f *fakeContext) Pending(context.Context) (analytics.PendingCounts, error) {
	return analytics.PendingCounts{Total: 5, NeedsReview: 3, Suggested: 2}, f.err
}

func (f *fakeContext) Donations(context.Context) (analytics.DonationStatus, error) {
	return analytics.DonationStatus{Month: "2026-02", Amount: 250, Target: 300}, f.err
}

func (f *fakeContext) CreateRule(_ context.Context, pattern string) (model.Rule, error) {
	f.patterns = append(f.patterns, pattern)
	return model.Rule{ID: "rule_1"}, f.err
}

func handle(t *testing.T, data *fakeContext, u Update) *notify.Recorder {
	t.Helper()
	rec := &notify.Recorder{}
	require.NoError(t, NewHandler(rec, data, zerolog.Nop()).HandleUpdate(context.Background(), u))
	return rec
}

func message(text string) Update {
	return Update{Message: &Message{Chat: Chat{ID: 42}, Text: text}}
}

func callback(data string) Update {
	return Update{CallbackQuery: &CallbackQuery{ID: "cb1", Data: data, Message: &Message{Chat: Chat{ID: 42}}}}
}

func TestMessages(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"/start", "*Menu FINHOUSE*\nSelecciona una opcion:"},
		{"/menu", "*Menu FINHOUSE*\nSelecciona una opcion:"},
		{" /resumen ", "*Resumen 2026-02*\nIngresos: 2.500,00 €\nGasto vida: 800,00 €\nAportaciones: 300,00 €\nDonaciones: 250,00 €\nDisponible: *1.150,00 €*"},
		{"hola", "Comando no reconocido. Usa /menu"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			rec := handle(t, &fakeContext{}, message(tt.text))
			require.Len(t, rec.Messages, 1)
			assert.Equal(t, tt.want, rec.Messages[0].Text)
			assert.Equal(t, "42", rec.Messages[0].ChatID)
		})
	}
}

func TestMainMenuButtons(t *testing.T) {
	msg := MainMenu("")
	require.NotNil(t, msg.ReplyMarkup)
	var data []string
	for _, row := range msg.ReplyMarkup.InlineKeyboard {
		for _, b := range row {
			data = append(data, b.CallbackData)
		}
	}
	assert.Equal(t, []string{"resumen", "comparativa", "presupuesto", "pendientes", "donaciones"}, data)
}

func TestCallbacks(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{"comparativa", "*Comparativa*\n2026-01 -> 2026-02\nDelta: -120,50 €"},
		{"presupuesto", "*Presupuesto*\nSin datos para este mes."},
		{"pendientes", "*Pendientes*\nTotal: 5\nNEEDS_REVIEW: 3\nSUGERIDO: 2"},
		{"donaciones", "*Donaciones 2026-02*\nActual: 250,00 €\nObjetivo: 300,00 €"},
		{"menu", "*Menu FINHOUSE*\nSelecciona una opcion:"},
		{"dismiss_pattern:CAFE BAR", "Sugerencia descartada: `CAFE BAR`"},
		{"borrar_todo", "Accion no soportada."},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			rec := handle(t, &fakeContext{}, callback(tt.data))
			require.Len(t, rec.Messages, 1)
			assert.Equal(t, tt.want, rec.Messages[0].Text)
		})
	}
}

func TestBudgetLines(t *testing.T) {
	data := &fakeContext{budget: []analytics.BudgetLine{
		{Macro: "Supermercado", Spent: 420, Budget: 500},
		{Macro: "Ocio", Spent: 90.5, Budget: 100},
	}}
	rec := handle(t, data, callback("presupuesto"))
	require.Len(t, rec.Messages, 1)
	assert.Equal(t, "*Presupuesto*\nSupermercado: 420,00 € / 500,00 €\nOcio: 90,50 € / 100,00 €", rec.Messages[0].Text)
}

func TestCreateRuleCallback(t *testing.T) {
	data := &fakeContext{}
	rec := handle(t, data, callback("create_rule: CAFE BAR "))
	assert.Equal(t, []string{"CAFE BAR"}, data.patterns)
	require.Len(t, rec.Messages, 1)
	assert.Equal(t, "Regla creada para patron: `CAFE BAR`", rec.Messages[0].Text)
}

func TestContextErrorIsReturned(t *testing.T) {
	rec := &notify.Recorder{}
	h := NewHandler(rec, &fakeContext{err: errors.New("db down")}, zerolog.Nop())
	err := h.HandleUpdate(context.Background(), callback("resumen"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, rec.Messages)
}

func TestEmptyUpdate(t *testing.T) {
	rec := handle(t, &fakeContext{}, Update{UpdateID: 7})
	assert.Empty(t, rec.Messages)
}

func TestSuggestionKeyboard(t *testing.T) {
	long := "ESTE PATRON ES DEMASIADO LARGO PARA CABER EN LOS DATOS DEL BOTON"
	kb := SuggestionKeyboard([]classify.PatternSuggestion{
		{Pattern: "CAFE BAR", Count: 4},
		{Pattern: long, Count: 3},
	})
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "create_rule:CAFE BAR", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "dismiss_pattern:CAFE BAR", kb.InlineKeyboard[0][1].CallbackData)
}
