// Package store defines the persistence contract of the import pipeline.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/SamuelPereira26/Finhouse/internal/model"
)

// ErrNotFound is returned when an update targets a missing record.
var ErrNotFound = errors.New("not found")

const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// Store is every persistence operation the pipeline, the chat bot and the
// HTTP adapter use. Implementations must make InsertTransactions
// at-most-once per tx_id.
type Store interface {
	CreateImportBatch(ctx context.Context, batch model.ImportBatch) error
	UpdateImportBatch(ctx context.Context, id string, patch model.BatchPatch) error
	GetImportBatch(ctx context.Context, id string) (model.ImportBatch, error)
	ListImportBatches(ctx context.Context, limit int) ([]model.ImportBatch, error)
	// EnsureImportBatch creates batch unless a batch with its id exists.
	EnsureImportBatch(ctx context.Context, batch model.ImportBatch) error
	IncrementImportedRows(ctx context.Context, id string, delta int) error

	InsertStagingRows(ctx context.Context, rows []model.StagingRow) error

	ExistingTxIDs(ctx context.Context) (map[string]bool, error)
	// InsertTransactions stores rows whose tx_id is new and returns how many
	// were written.
	InsertTransactions(ctx context.Context, rows []model.MasterRow) (int, error)
	UpdateTransactions(ctx context.Context, rows []model.MasterRow) error
	GetTransaction(ctx context.Context, txID string) (model.MasterRow, error)
	TransactionsByBatch(ctx context.Context, batchID string) ([]model.MasterRow, error)
	UpdateTransaction(ctx context.Context, txID string, patch TransactionPatch) (model.MasterRow, error)
	PendingTransactions(ctx context.Context) ([]model.MasterRow, error)
	QueryTransactions(ctx context.Context, filter TransactionFilter) (Page, error)

	ListRules(ctx context.Context) ([]model.Rule, error)
	UpsertRule(ctx context.Context, rule model.Rule) error

	InsertHealthRows(ctx context.Context, rows []model.HealthRow) error
	RecentHealth(ctx context.Context, limit int) ([]model.HealthRow, error)

	IsFileProcessed(ctx context.Context, fileID string) (bool, error)
	MarkFileProcessed(ctx context.Context, fileID string) error

	Budgets(ctx context.Context, month string) ([]model.Budget, error)
	UpsertBudget(ctx context.Context, budget model.Budget) error
}

// TransactionFilter narrows QueryTransactions. Empty fields match anything.
type TransactionFilter struct {
	Month            string
	Type             model.TransactionType
	Macro            string
	Status           model.ReviewStatus
	IncludeTransfers bool
	Page             int
	Limit            int
}

// WithDefaults fills in page 1 and limit 50 when unset.
func (f TransactionFilter) WithDefaults() TransactionFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	return f
}

// Offset is the number of rows skipped before the current page.
func (f TransactionFilter) Offset() int {
	f = f.WithDefaults()
	return (f.Page - 1) * f.Limit
}

// Matches reports whether row passes every set field of f.
func (f TransactionFilter) Matches(row model.MasterRow) bool {
	if f.Month != "" && row.Month != f.Month {
		return false
	}
	if f.Type != "" && row.Type != f.Type {
		return false
	}
	if f.Macro != "" && model.Deref(row.Macro) != f.Macro {
		return false
	}
	if f.Status != "" && row.ReviewStatus != f.Status {
		return false
	}
	if !f.IncludeTransfers && row.Type == model.TypeTransfer {
		return false
	}
	return true
}

// Page is one page of query results plus the unpaginated total.
type Page struct {
	Rows  []model.MasterRow `json:"rows"`
	Total int               `json:"total"`
}

// Paginate filters rows, orders them newest first and cuts the requested page.
func Paginate(rows []model.MasterRow, f TransactionFilter) Page {
	f = f.WithDefaults()
	var matched []model.MasterRow
	for _, r := range rows {
		if f.Matches(r) {
			matched = append(matched, r)
		}
	}
	SortByDateDesc(matched)

	page := Page{Total: len(matched), Rows: []model.MasterRow{}}
	start := f.Offset()
	if start >= len(matched) {
		return page
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page.Rows = matched[start:end]
	return page
}

// SortByDateDesc orders rows newest first, keeping insertion order for ties.
func SortByDateDesc(rows []model.MasterRow) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
}

// TransactionPatch holds the fields a confirmation or edit may change. A nil
// field is left alone; a pointer to "" clears a nullable field.
type TransactionPatch struct {
	Type                     *model.TransactionType `json:"type,omitempty"`
	Macro                    *string                `json:"macro,omitempty"`
	Subcat                   *string                `json:"subcat,omitempty"`
	Note                     *string                `json:"user_note,omitempty"`
	ReimbursementTargetMacro *string                `json:"reimbursement_target_macro,omitempty"`
	IncomeFixedOrVariable    *string                `json:"income_fixed_or_variable,omitempty"`
	IncomeDetail             *string                `json:"income_detail,omitempty"`
	ReviewStatus             *model.ReviewStatus    `json:"review_status,omitempty"`
	UpdatedAt                string                 `json:"-"`
}

// Apply writes the set fields of p onto row.
func (p TransactionPatch) Apply(row *model.MasterRow) {
	if p.Type != nil {
		row.Type = *p.Type
	}
	setNullable(&row.Macro, p.Macro)
	setNullable(&row.Subcat, p.Subcat)
	setNullable(&row.Note, p.Note)
	setNullable(&row.ReimbursementTargetMacro, p.ReimbursementTargetMacro)
	setNullable(&row.IncomeFixedOrVariable, p.IncomeFixedOrVariable)
	setNullable(&row.IncomeDetail, p.IncomeDetail)
	if p.ReviewStatus != nil {
		row.ReviewStatus = *p.ReviewStatus
	}
	if p.UpdatedAt != "" {
		row.UpdatedAt = p.UpdatedAt
	}
}

func setNullable(dst **string, v *string) {
	if v != nil {
		*dst = model.Str(*v)
	}
}

// ApplyBatchPatch writes the set fields of p onto batch.
func ApplyBatchPatch(batch *model.ImportBatch, p model.BatchPatch) {
	if p.Source != nil {
		batch.Source = *p.Source
	}
	if p.Status != nil {
		batch.Status = *p.Status
	}
	if p.RowsStaged != nil {
		batch.RowsStaged = *p.RowsStaged
	}
	if p.RowsImported != nil {
		batch.RowsImported = *p.RowsImported
	}
	if p.FinishedAt != nil {
		batch.FinishedAt = p.FinishedAt
	}
	if p.Notes != nil {
		batch.Notes = p.Notes
	}
}
