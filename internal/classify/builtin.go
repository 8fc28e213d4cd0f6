package classify

import (
	"strings"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
	"github.com/SamuelPereira26/Finhouse/internal/taxonomy"
)

// fixedDayTolerance is how far from the expected day a charge may land.
const fixedDayTolerance = 5

// FixedRule is a subscription charged on a known day of the month.
type FixedRule struct {
	ID         string
	Keyword    string
	DayOfMonth int
	Macro      string
	Subcat     string
	Confidence float64
}

// DefaultFixedRules returns the household's known subscriptions.
func DefaultFixedRules() []FixedRule {
	return []FixedRule{
		{ID: "spotify", Keyword: "SPOTIFY", DayOfMonth: 1, Macro: taxonomy.Subscriptions, Subcat: "Spotify", Confidence: 0.98},
		{ID: "chatgpt", Keyword: "CHATGPT", DayOfMonth: 1, Macro: taxonomy.Subscriptions, Subcat: "ChatGPT", Confidence: 0.98},
		{ID: "basicfit", Keyword: "BASIC-FIT", DayOfMonth: 1, Macro: taxonomy.Health, Subcat: "Gimnasio", Confidence: 0.95},
	}
}

// MatchFixed checks the fixed subscription table.
func (c *Classifier) MatchFixed(row model.ParsedRow) (model.Classification, bool) {
	text := normalize.CleanText(row.Description)
	day := normalize.DayOfMonth(row.Date)

	for _, r := range c.fixed {
		if !strings.Contains(text, normalize.CleanText(r.Keyword)) {
			continue
		}
		if abs(day-r.DayOfMonth) > fixedDayTolerance {
			continue
		}
		return c.build(row, patch{
			typ:        model.TypeExpense,
			macro:      model.Str(r.Macro),
			subcat:     model.Str(r.Subcat),
			ruleID:     model.Str(r.ID),
			confidence: r.Confidence,
		}), true
	}
	return model.Classification{}, false
}

// keywordRule is one step of the built-in heuristics. When subcats is set
// the subcat is the one named after the keyword that matched.
type keywordRule struct {
	keywords   []string
	typ        model.TransactionType
	macro      string
	subcat     string
	subcats    map[string]string
	confidence float64
}

var commonRules = []keywordRule{
	{keywords: []string{"NOMINA", "PAYROLL", "SALARIO"}, typ: model.TypeIncome, macro: taxonomy.Income, subcat: "Nomina", confidence: 0.95},
	{
		keywords: []string{"MERCADONA", "LIDL", "CARREFOUR", "ALDI"}, typ: model.TypeExpense, macro: taxonomy.Groceries, subcat: "Mercadona",
		subcats:    map[string]string{"MERCADONA": "Mercadona", "LIDL": "Lidl", "CARREFOUR": "Carrefour", "ALDI": "Aldi"},
		confidence: 0.90,
	},
	{keywords: []string{"REPSOL", "CEPSA", "SHELL"}, typ: model.TypeExpense, macro: taxonomy.Transport, subcat: "Gasolina", confidence: 0.90},
	{keywords: []string{"FARMACIA", "PHARMACY"}, typ: model.TypeExpense, macro: taxonomy.Health, subcat: "Farmacia", confidence: 0.90},
	{keywords: []string{"SPOTIFY", "NETFLIX"}, typ: model.TypeExpense, macro: taxonomy.Subscriptions, subcat: "Otros servicios", confidence: 0.85},
	{keywords: []string{"DONACION", "IGLESIA"}, typ: model.TypeExpense, macro: taxonomy.Donations, subcat: "Iglesia", confidence: 0.90},
}

// MatchCommon runs the built-in keyword heuristics in order.
func (c *Classifier) MatchCommon(row model.ParsedRow) (model.Classification, bool) {
	text := normalize.CleanText(row.Description)
	for _, r := range c.common {
		for _, kw := range r.keywords {
			if !strings.Contains(text, kw) {
				continue
			}
			subcat := r.subcat
			if s, ok := r.subcats[kw]; ok {
				subcat = s
			}
			return c.build(row, patch{
				typ:        r.typ,
				macro:      model.Str(r.macro),
				subcat:     model.Str(subcat),
				confidence: r.confidence,
			}), true
		}
	}
	return model.Classification{}, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
