package classify

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelPereira26/Finhouse/internal/model"
)

func expense(counterparty string, amount float64) model.MasterRow {
	return model.MasterRow{Source: model.SourceBBVA, Type: model.TypeExpense, Counterparty: counterparty, Amount: amount}
}

func TestDetectRepeatPatterns(t *testing.T) {
	rows := []model.MasterRow{
		expense("PANADERIA PEPE", -2),
		expense("Panadería Pepe", -3),
		expense("PANADERIA PEPE", -4),
		expense("BAR MANOLO", -10),
		expense("BAR MANOLO", -10),
		expense("BAR MANOLO", -10),
		expense("BAR MANOLO", -10),
		expense("CINE", -8),
		expense("CINE", -8),
		{Type: model.TypeIncome, Counterparty: "CINE", Amount: 8},
	}

	got := DetectRepeatPatterns(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "BAR MANOLO", got[0].Pattern)
	assert.Equal(t, 4, got[0].Count)
	assert.InDelta(t, 10.0, got[0].AvgAmount, 1e-9)
	assert.Equal(t, "PANADERIA PEPE", got[1].Pattern)
	assert.InDelta(t, 3.0, got[1].AvgAmount, 1e-9)
	assert.Equal(t, model.SourceBBVA, got[1].Source)
}

func TestDetectRepeatPatterns_TruncatesAndCaps(t *testing.T) {
	var rows []model.MasterRow
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("SHOP %02d %s", i, strings.Repeat("X", 50))
		for j := 0; j < 3; j++ {
			rows = append(rows, expense(name, -1))
		}
	}
	got := DetectRepeatPatterns(rows)
	require.Len(t, got, 10)
	assert.Len(t, got[0].Pattern, 40)
}

func TestDetectRepeatPatterns_FallsBackToDescription(t *testing.T) {
	row := model.MasterRow{Type: model.TypeExpense, Description: "gym", Amount: -30}
	got := DetectRepeatPatterns([]model.MasterRow{row, row, row})
	require.Len(t, got, 1)
	assert.Equal(t, "GYM", got[0].Pattern)
}

func TestFormatSuggestions(t *testing.T) {
	msg := FormatSuggestions([]PatternSuggestion{{Pattern: "BAR MANOLO", Count: 4, AvgAmount: 10}})
	assert.Equal(t, "Sugerencias de reglas detectadas:\nPatron: BAR MANOLO | repeticiones: 4 | media: 10.00 EUR", msg)
}

func TestNewRuleFromPattern(t *testing.T) {
	r := NewRuleFromPattern("BAR MANOLO", nil, "Ocio", "Restaurantes", nil)
	assert.True(t, strings.HasPrefix(r.ID, "rule_"))
	assert.Equal(t, 100, r.Priority)
	assert.True(t, r.Active)
	assert.Equal(t, model.MatchIncludes, r.MatchType)
	assert.Equal(t, model.TypeExpense, *r.AssignType)
	assert.InDelta(t, 0.9, r.ConfidenceDefault, 1e-9)
	assert.NoError(t, ValidateRule(r))

	income := model.TypeIncome
	r = NewRuleFromPattern("WALLAPOP", ptr("REVOLUT"), "Ingresos", "Venta", &income)
	assert.Equal(t, model.TypeIncome, *r.AssignType)
	assert.Equal(t, "REVOLUT", *r.Source)
}

func TestValidateRule(t *testing.T) {
	bad := []model.Rule{
		{MatchType: "FUZZY"},
		{ConfidenceDefault: 1.5},
		{AssignType: ptr(model.TransactionType("GIFT"))},
		{AmountMin: ptr(10.0), AmountMax: ptr(5.0)},
	}
	for _, r := range bad {
		assert.Error(t, ValidateRule(r))
	}
	assert.NoError(t, ValidateRule(model.Rule{MatchType: model.MatchRegex, ConfidenceDefault: 0.5}))
}
