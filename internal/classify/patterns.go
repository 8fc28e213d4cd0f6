package classify

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SamuelPereira26/Finhouse/internal/id"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// Repeat-pattern limits.
const (
	patternLength   = 40
	minPatternCount = 3
	maxSuggestions  = 10
)

// PatternSuggestion is a recurring expense that could become a rule.
type PatternSuggestion struct {
	Pattern   string       `json:"pattern"`
	Count     int          `json:"count"`
	AvgAmount float64      `json:"avg_amount"`
	Source    model.Source `json:"source"`
}

// DetectRepeatPatterns finds expense counterparties seen at least three
// times, most frequent first, capped at ten.
func DetectRepeatPatterns(rows []model.MasterRow) []PatternSuggestion {
	type tally struct {
		count  int
		total  decimal.Decimal
		source model.Source
	}
	counts := make(map[string]*tally)
	var order []string

	for _, tx := range rows {
		if tx.Type != model.TypeExpense {
			continue
		}
		text := tx.Counterparty
		if text == "" {
			text = tx.Description
		}
		pattern := normalize.Truncate(normalize.CleanText(text), patternLength)
		if pattern == "" {
			continue
		}
		t, ok := counts[pattern]
		if !ok {
			t = &tally{source: tx.Source}
			counts[pattern] = t
			order = append(order, pattern)
		}
		t.count++
		t.total = t.total.Add(decimal.NewFromFloat(math.Abs(tx.Amount)))
	}

	var out []PatternSuggestion
	for _, p := range order {
		t := counts[p]
		if t.count < minPatternCount {
			continue
		}
		out = append(out, PatternSuggestion{
			Pattern:   p,
			Count:     t.count,
			AvgAmount: t.total.Div(decimal.NewFromInt(int64(t.count))).InexactFloat64(),
			Source:    t.source,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// FormatSuggestions renders suggestions as a notification message.
func FormatSuggestions(suggestions []PatternSuggestion) string {
	lines := make([]string, len(suggestions))
	for i, s := range suggestions {
		lines[i] = fmt.Sprintf("Patron: %s | repeticiones: %d | media: %s EUR",
			s.Pattern, s.Count, decimal.NewFromFloat(s.AvgAmount).StringFixed(2))
	}
	return "Sugerencias de reglas detectadas:\n" + strings.Join(lines, "\n")
}

// Defaults for rules created from a suggested pattern.
const (
	PatternRulePriority   = 100
	PatternRuleConfidence = 0.9
)

// NewRuleFromPattern builds an active INCLUDES rule for pattern. The type
// defaults to EXPENSE.
func NewRuleFromPattern(pattern string, source *string, macro, subcat string, typ *model.TransactionType) model.Rule {
	assign := model.TypeExpense
	if typ != nil {
		assign = *typ
	}
	return model.Rule{
		ID:                id.NewRuleID(),
		Priority:          PatternRulePriority,
		Active:            true,
		Source:            source,
		MatchText:         model.Str(pattern),
		MatchType:         model.MatchIncludes,
		AssignType:        &assign,
		AssignMacro:       model.Str(macro),
		AssignSubcat:      model.Str(subcat),
		ConfidenceDefault: PatternRuleConfidence,
	}
}

// ValidateRule checks a user-supplied rule.
func ValidateRule(rule model.Rule) error {
	switch rule.MatchType {
	case "", model.MatchIncludes, model.MatchExact, model.MatchRegex:
	default:
		return fmt.Errorf("unknown match type %q", rule.MatchType)
	}
	if rule.ConfidenceDefault < 0 || rule.ConfidenceDefault > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %v", rule.ConfidenceDefault)
	}
	if rule.AssignType != nil && !rule.AssignType.Valid() {
		return fmt.Errorf("unknown transaction type %q", *rule.AssignType)
	}
	if rule.AmountMin != nil && rule.AmountMax != nil && *rule.AmountMin > *rule.AmountMax {
		return fmt.Errorf("amount_min %v is greater than amount_max %v", *rule.AmountMin, *rule.AmountMax)
	}
	return nil
}
