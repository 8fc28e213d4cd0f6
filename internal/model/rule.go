package model

// MatchType selects how a rule's text is compared to a description.
type MatchType string

const (
	MatchIncludes MatchType = "INCLUDES"
	MatchExact    MatchType = "EXACT"
	MatchRegex    MatchType = "REGEX"
)

// Rule is a user-defined classification rule.
type Rule struct {
	ID       string  `json:"id"`
	Priority int     `json:"priority"` // lower runs first
	Active   bool    `json:"active"`
	Source   *string `json:"source"`

	MatchText      *string   `json:"match_text"`
	MatchType      MatchType `json:"match_type"`
	SenderContains *string   `json:"sender_contains"`
	AmountMin      *float64  `json:"amount_min"` // compared against |amount|
	AmountMax      *float64  `json:"amount_max"`

	AssignType                     *TransactionType `json:"assign_type"`
	AssignMacro                    *string          `json:"assign_macro"`
	AssignSubcat                   *string          `json:"assign_subcat"`
	AssignIncomeFixedOrVariable    *string          `json:"assign_income_fixed_or_variable"`
	AssignIncomeDetail             *string          `json:"assign_income_detail"`
	AssignReimbursementTargetMacro *string          `json:"assign_reimbursement_target_macro"`

	ConfidenceDefault float64 `json:"confidence_default"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}
