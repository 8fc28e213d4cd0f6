package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/SamuelPereira26/Finhouse/internal/classify"
	"github.com/SamuelPereira26/Finhouse/internal/id"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
	"github.com/SamuelPereira26/Finhouse/internal/store"
	"github.com/SamuelPereira26/Finhouse/internal/taxonomy"
)

// Pending returns every transaction still waiting for review.
func (s *Service) Pending(ctx context.Context) ([]model.MasterRow, error) {
	rows, err := s.store.PendingTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading pending transactions: %w", err)
	}
	if rows == nil {
		rows = []model.MasterRow{}
	}
	return rows, nil
}

// Transactions returns one page of transactions matching f.
func (s *Service) Transactions(ctx context.Context, f store.TransactionFilter) (store.Page, error) {
	if f.Month != "" {
		if _, err := normalize.ParseMonth(f.Month); err != nil {
			return store.Page{}, invalid("month", "must be YYYY-MM, got %q", f.Month)
		}
	}
	if f.Type != "" && !f.Type.Valid() {
		return store.Page{}, invalid("type", "unknown transaction type %q", f.Type)
	}
	if f.Status != "" && !f.Status.Valid() {
		return store.Page{}, invalid("status", "unknown review status %q", f.Status)
	}
	page, err := s.store.QueryTransactions(ctx, f.WithDefaults())
	if err != nil {
		return store.Page{}, fmt.Errorf("querying transactions: %w", err)
	}
	return page, nil
}

// Rules returns every stored rule.
func (s *Service) Rules(ctx context.Context) ([]model.Rule, error) {
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	if rules == nil {
		rules = []model.Rule{}
	}
	return rules, nil
}

// SaveRule validates rule, fills in its id, match type, priority and
// timestamps, and upserts it.
func (s *Service) SaveRule(ctx context.Context, rule model.Rule) (model.Rule, error) {
	if err := classify.ValidateRule(rule); err != nil {
		return model.Rule{}, invalid("rule", "%v", err)
	}
	if m := model.Deref(rule.AssignMacro); m != "" && !s.taxonomy.Exists(m) {
		return model.Rule{}, invalid("assign_macro", "unknown category %q", m)
	}

	now := s.timestamp()
	if rule.ID == "" {
		rule.ID = id.NewRuleID()
	}
	if rule.MatchType == "" {
		rule.MatchType = model.MatchIncludes
	}
	if rule.Priority == 0 {
		rule.Priority = classify.PatternRulePriority
	}
	if rule.CreatedAt == "" {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	if err := s.store.UpsertRule(ctx, rule); err != nil {
		return model.Rule{}, fmt.Errorf("saving rule %s: %w", rule.ID, err)
	}
	s.log.Info().Str("rule_id", rule.ID).Int("priority", rule.Priority).Msg("rule saved")
	return rule, nil
}

// CreateRuleFromPattern turns a suggested pattern into an active rule. An
// empty macro files matches under the uncategorized bucket.
func (s *Service) CreateRuleFromPattern(ctx context.Context, pattern string, source *string, macro, subcat string, typ *model.TransactionType) (model.Rule, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return model.Rule{}, invalid("pattern", "is required")
	}
	if macro == "" {
		macro, subcat = taxonomy.Other, taxonomy.Uncategorized
	}
	return s.SaveRule(ctx, classify.NewRuleFromPattern(pattern, source, macro, subcat, typ))
}

// Budgets returns the budgets of month, the current month when empty.
func (s *Service) Budgets(ctx context.Context, month string) ([]model.Budget, error) {
	month, err := s.month(month)
	if err != nil {
		return nil, err
	}
	budgets, err := s.store.Budgets(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("loading budgets for %s: %w", month, err)
	}
	if budgets == nil {
		budgets = []model.Budget{}
	}
	return budgets, nil
}

// SaveBudget validates and upserts one monthly budget. The macro is stored
// under its canonical taxonomy name.
func (s *Service) SaveBudget(ctx context.Context, b model.Budget) (model.Budget, error) {
	if _, err := normalize.ParseMonth(b.Month); err != nil {
		return model.Budget{}, invalid("month", "must be YYYY-MM, got %q", b.Month)
	}
	cat, ok := s.taxonomy.Get(b.Macro)
	if !ok {
		return model.Budget{}, invalid("macro", "unknown category %q", b.Macro)
	}
	if b.Amount < 0 || math.IsNaN(b.Amount) || math.IsInf(b.Amount, 0) {
		return model.Budget{}, invalid("budget_amount", "must be a non-negative number")
	}
	b.Macro = cat.Name
	if err := s.store.UpsertBudget(ctx, b); err != nil {
		return model.Budget{}, fmt.Errorf("saving budget %s/%s: %w", b.Month, b.Macro, err)
	}
	return b, nil
}

// Health returns the newest health findings.
func (s *Service) Health(ctx context.Context, limit int) ([]model.HealthRow, error) {
	rows, err := s.store.RecentHealth(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading health checks: %w", err)
	}
	if rows == nil {
		rows = []model.HealthRow{}
	}
	return rows, nil
}

// Imports returns the newest import batches.
func (s *Service) Imports(ctx context.Context, limit int) ([]model.ImportBatch, error) {
	batches, err := s.store.ListImportBatches(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading import batches: %w", err)
	}
	if batches == nil {
		batches = []model.ImportBatch{}
	}
	return batches, nil
}

// Accounts returns the household accounts.
func (s *Service) Accounts() []model.Account { return s.accounts.All() }

// Categories returns the taxonomy in display order.
func (s *Service) Categories() []taxonomy.Category { return s.taxonomy.Categories() }
