// Package classify assigns type, category and confidence to parsed rows.
//
// Evaluation order, first match wins: categories the source already set,
// fixed subscription rules, user rules by ascending priority, built-in
// keyword heuristics, and finally a low-confidence fallback bucket.
package classify

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/SamuelPereira26/Finhouse/internal/config"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
	"github.com/SamuelPereira26/Finhouse/internal/taxonomy"
)

// FallbackConfidence is assigned when nothing matched.
const FallbackConfidence = 0.2

// Classifier applies the rule chain with fixed thresholds.
type Classifier struct {
	thresholds config.ThresholdsConfig
	fixed      []FixedRule
	common     []keywordRule
}

// New creates a Classifier with the built-in fixed and keyword rules.
func New(thresholds config.ThresholdsConfig) *Classifier {
	return &Classifier{
		thresholds: thresholds,
		fixed:      DefaultFixedRules(),
		common:     commonRules,
	}
}

// StatusFromConfidence maps confidence to a review status. Lower bounds are
// inclusive.
func (c *Classifier) StatusFromConfidence(confidence float64) model.ReviewStatus {
	switch {
	case confidence >= c.thresholds.AutoOK:
		return model.StatusAutoOK
	case confidence >= c.thresholds.Suggested:
		return model.StatusSuggested
	}
	return model.StatusNeedsReview
}

// Classify runs the rule chain over row.
func (c *Classifier) Classify(row model.ParsedRow, rules []model.Rule) model.Classification {
	if row.Macro != nil || row.Subcat != nil {
		status := model.StatusUserConfirmed
		return c.build(row, patch{confidence: 1, status: &status})
	}

	if res, ok := c.MatchFixed(row); ok {
		return res
	}

	for _, rule := range ActiveRules(rules) {
		if !MatchRule(rule, row) {
			continue
		}
		p := patch{
			macro:               rule.AssignMacro,
			subcat:              rule.AssignSubcat,
			incomeFixedOrVar:    rule.AssignIncomeFixedOrVariable,
			incomeDetail:        rule.AssignIncomeDetail,
			reimbursementTarget: rule.AssignReimbursementTargetMacro,
			ruleID:              model.Str(rule.ID),
			confidence:          rule.ConfidenceDefault,
		}
		if rule.AssignType != nil {
			p.typ = *rule.AssignType
		}
		return c.build(row, p)
	}

	if res, ok := c.MatchCommon(row); ok {
		return res
	}

	macro, subcat := taxonomy.Other, taxonomy.Uncategorized
	if row.Type == model.TypeIncome {
		macro, subcat = taxonomy.Income, taxonomy.OtherIncome
	}
	return c.build(row, patch{
		typ:        row.Type,
		macro:      model.Str(macro),
		subcat:     model.Str(subcat),
		confidence: FallbackConfidence,
	})
}

// patch holds the fields a matching step assigns. Nil fields fall back to
// the row's own values.
type patch struct {
	typ                 model.TransactionType
	macro               *string
	subcat              *string
	incomeFixedOrVar    *string
	incomeDetail        *string
	reimbursementTarget *string
	ruleID              *string
	confidence          float64
	status              *model.ReviewStatus
}

func (c *Classifier) build(row model.ParsedRow, p patch) model.Classification {
	res := model.Classification{
		Type:                     row.Type,
		Macro:                    firstNonNil(p.macro, row.Macro),
		Subcat:                   firstNonNil(p.subcat, row.Subcat),
		ReimbursementTargetMacro: firstNonNil(p.reimbursementTarget, row.ReimbursementTargetMacro),
		IncomeFixedOrVariable:    p.incomeFixedOrVar,
		IncomeDetail:             p.incomeDetail,
		RuleID:                   p.ruleID,
		Confidence:               p.confidence,
	}
	if p.typ != "" {
		res.Type = p.typ
	}
	if p.status != nil {
		res.ReviewStatus = *p.status
	} else {
		res.ReviewStatus = c.StatusFromConfidence(p.confidence)
	}
	return res
}

func firstNonNil(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}

// ActiveRules returns the active rules ordered by ascending priority. Ties
// keep their input order.
func ActiveRules(rules []model.Rule) []model.Rule {
	var active []model.Rule
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority < active[j].Priority
	})
	return active
}

// MatchRule reports whether every constraint of rule holds for row.
func MatchRule(rule model.Rule, row model.ParsedRow) bool {
	if rule.Source != nil && *rule.Source != "" && *rule.Source != string(row.Source) {
		return false
	}

	abs := math.Abs(row.Amount)
	if rule.AmountMin != nil && abs < *rule.AmountMin {
		return false
	}
	if rule.AmountMax != nil && abs > *rule.AmountMax {
		return false
	}

	if rule.SenderContains != nil && *rule.SenderContains != "" {
		sender := normalize.CleanText(row.Counterparty)
		if !strings.Contains(sender, normalize.CleanText(*rule.SenderContains)) {
			return false
		}
	}

	if rule.MatchText == nil || *rule.MatchText == "" {
		return true
	}

	text := normalize.CleanText(row.Description)
	ruleText := normalize.CleanText(*rule.MatchText)

	switch model.MatchType(normalize.CleanText(string(rule.MatchType))) {
	case model.MatchExact:
		return text == ruleText
	case model.MatchRegex:
		re, err := regexp.Compile("(?i)" + *rule.MatchText)
		if err != nil {
			return false
		}
		return re.MatchString(row.Description)
	default:
		return strings.Contains(text, ruleText)
	}
}
