package model

import "strings"

// TransactionType is the economic kind of a transaction.
type TransactionType string

const (
	TypeIncome        TransactionType = "INCOME"
	TypeExpense       TransactionType = "EXPENSE"
	TypeReimbursement TransactionType = "REIMBURSEMENT"
	TypeTransfer      TransactionType = "TRANSFER"
)

// Valid reports whether t is one of the four transaction kinds.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeReimbursement, TypeTransfer:
		return true
	}
	return false
}

// ReviewStatus is the classification workflow state of a transaction.
type ReviewStatus string

const (
	StatusAutoOK        ReviewStatus = "AUTO_OK"
	StatusSuggested     ReviewStatus = "SUGERIDO"
	StatusNeedsReview   ReviewStatus = "NEEDS_REVIEW"
	StatusUserConfirmed ReviewStatus = "USER_CONFIRMED"
)

// Valid reports whether s is one of the four review states.
func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusAutoOK, StatusSuggested, StatusNeedsReview, StatusUserConfirmed:
		return true
	}
	return false
}

// Pending reports whether a transaction in this state still awaits the user.
func (s ReviewStatus) Pending() bool {
	return s == StatusNeedsReview || s == StatusSuggested
}

// Tags attached by the transfer detector.
const (
	TagInternalTransfer = "INTERNAL_TRANSFER"
	TagCheckSaldo       = "CHECK_SALDO"
)

// Source identifies the origin format of a row.
type Source string

const (
	SourceBBVA    Source = "BBVA"
	SourceRevolut Source = "REVOLUT"
	SourceCash    Source = "CASH"
)

// Format is the container format of an imported file.
type Format string

const (
	FormatXLSX Format = "XLSX"
	FormatCSV  Format = "CSV"
	FormatJSON Format = "JSON"
)

// PaymentMethod is how money moved.
type PaymentMethod string

const (
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
	MethodCash     PaymentMethod = "CASH"
	MethodBizum    PaymentMethod = "BIZUM"
)

// SourceInfo is the result of detecting which format produced a file.
type SourceInfo struct {
	Source    Source `json:"source"`
	AccountID string `json:"account_id"`
	Format    Format `json:"format"`
	FileName  string `json:"file_name"`
}

// ParsedRow is a normalized row before classification.
type ParsedRow struct {
	Source        Source          `json:"source"`
	SourceRowID   string          `json:"source_row_id"`
	AccountID     string          `json:"account_id"`
	Date          string          `json:"date"` // YYYY-MM-DD
	Amount        float64         `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description_raw"`
	Counterparty  string          `json:"counterparty"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Type          TransactionType `json:"type"`

	// Set only when the source itself dictates the category.
	Macro                    *string `json:"macro,omitempty"`
	Subcat                   *string `json:"subcat,omitempty"`
	Note                     *string `json:"user_note,omitempty"`
	ReimbursementTargetMacro *string `json:"reimbursement_target_macro,omitempty"`
}

// MasterRow is the persisted canonical transaction.
type MasterRow struct {
	TxID          string          `json:"tx_id"`
	ImportBatchID string          `json:"import_batch_id"`
	Source        Source          `json:"source"`
	SourceRowID   string          `json:"source_row_id"`
	AccountID     string          `json:"account_id"`
	Date          string          `json:"date"`
	Month         string          `json:"month"`
	Amount        float64         `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description_raw"`
	Counterparty  string          `json:"counterparty"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Type          TransactionType `json:"type"`

	Macro                    *string `json:"macro"`
	Subcat                   *string `json:"subcat"`
	ReimbursementTargetMacro *string `json:"reimbursement_target_macro"`
	IncomeFixedOrVariable    *string `json:"income_fixed_or_variable"`
	IncomeDetail             *string `json:"income_detail"`
	RuleID                   *string `json:"rule_id"`
	Note                     *string `json:"user_note"`

	ReviewStatus       ReviewStatus `json:"review_status"`
	Confidence         float64      `json:"confidence"`
	IsInternalTransfer bool         `json:"is_internal_transfer"`
	Tags               []string     `json:"tags"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// HasTag reports whether the row carries tag.
func (r MasterRow) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag adds tag if not already present.
func (r *MasterRow) AddTag(tag string) {
	if !r.HasTag(tag) {
		r.Tags = append(r.Tags, tag)
	}
}

// TagString joins tags for comparison and CSV output.
func (r MasterRow) TagString() string {
	return strings.Join(r.Tags, ";")
}

// Clone returns a deep copy so the transfer detector can diff snapshots.
func (r MasterRow) Clone() MasterRow {
	c := r
	c.Tags = append([]string{}, r.Tags...)
	return c
}

// Classification is the closed result of classifying one row.
type Classification struct {
	Type                     TransactionType `json:"type"`
	Macro                    *string         `json:"macro"`
	Subcat                   *string         `json:"subcat"`
	ReimbursementTargetMacro *string         `json:"reimbursement_target_macro"`
	IncomeFixedOrVariable    *string         `json:"income_fixed_or_variable"`
	IncomeDetail             *string         `json:"income_detail"`
	RuleID                   *string         `json:"rule_id"`
	Confidence               float64         `json:"confidence"`
	ReviewStatus             ReviewStatus    `json:"review_status"`
}

// Str returns a pointer to s, or nil when s is empty.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
