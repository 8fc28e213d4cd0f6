package ingest

import (
	"context"
	"fmt"

	"github.com/SamuelPereira26/Finhouse/internal/analytics"
	"github.com/SamuelPereira26/Finhouse/internal/bot"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

// MonthRows returns every non-transfer transaction of month.
func (s *Service) MonthRows(ctx context.Context, month string) ([]model.MasterRow, error) {
	page, err := s.store.QueryTransactions(ctx, store.TransactionFilter{
		Month: month,
		Page:  1,
		Limit: sweepLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("loading month %s: %w", month, err)
	}
	return page.Rows, nil
}

// Analytics summarizes month, the current month when empty. offset is the
// opening balance of the trend line.
func (s *Service) Analytics(ctx context.Context, month string, offset float64) (analytics.Summary, error) {
	month, err := s.month(month)
	if err != nil {
		return analytics.Summary{}, err
	}
	rows, err := s.MonthRows(ctx, month)
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(month, rows, s.taxonomy, offset), nil
}

// Comparison compares month with the month before it.
func (s *Service) Comparison(ctx context.Context, month string) (analytics.Comparison, error) {
	current, err := s.Analytics(ctx, month, 0)
	if err != nil {
		return analytics.Comparison{}, err
	}
	prev, err := normalize.PreviousMonth(current.Month)
	if err != nil {
		return analytics.Comparison{}, fmt.Errorf("computing previous month: %w", err)
	}
	previous, err := s.Analytics(ctx, prev, 0)
	if err != nil {
		return analytics.Comparison{}, err
	}
	return analytics.Compare(current, previous), nil
}

// BudgetStatus compares the budgets of month with its spend.
func (s *Service) BudgetStatus(ctx context.Context, month string) ([]analytics.BudgetLine, error) {
	summary, err := s.Analytics(ctx, month, 0)
	if err != nil {
		return nil, err
	}
	budgets, err := s.Budgets(ctx, summary.Month)
	if err != nil {
		return nil, err
	}
	return analytics.BudgetProgress(budgets, summary), nil
}

// Donations reports month's donations against the donations budget.
func (s *Service) Donations(ctx context.Context, month string) (analytics.DonationStatus, error) {
	summary, err := s.Analytics(ctx, month, 0)
	if err != nil {
		return analytics.DonationStatus{}, err
	}
	budgets, err := s.Budgets(ctx, summary.Month)
	if err != nil {
		return analytics.DonationStatus{}, err
	}
	return analytics.Donations(summary, budgets), nil
}

// PendingCounts counts the transactions awaiting review.
func (s *Service) PendingCounts(ctx context.Context) (analytics.PendingCounts, error) {
	rows, err := s.Pending(ctx)
	if err != nil {
		return analytics.PendingCounts{}, err
	}
	return analytics.CountPending(rows), nil
}

// BotContext adapts the service to the chat bot. An empty month follows the
// clock, so a long-running server always reports the current month.
func (s *Service) BotContext(month string) bot.Context {
	return &botContext{svc: s, month: month}
}

type botContext struct {
	svc   *Service
	month string
}

func (b *botContext) Summary(ctx context.Context) (analytics.Summary, error) {
	return b.svc.Analytics(ctx, b.month, 0)
}

func (b *botContext) Comparison(ctx context.Context) (analytics.Comparison, error) {
	return b.svc.Comparison(ctx, b.month)
}

func (b *botContext) Budget(ctx context.Context) ([]analytics.BudgetLine, error) {
	return b.svc.BudgetStatus(ctx, b.month)
}

func (b *botContext) Pending(ctx context.Context) (analytics.PendingCounts, error) {
	return b.svc.PendingCounts(ctx)
}

func (b *botContext) Donations(ctx context.Context) (analytics.DonationStatus, error) {
	return b.svc.Donations(ctx, b.month)
}

func (b *botContext) CreateRule(ctx context.Context, pattern string) (model.Rule, error) {
	return b.svc.CreateRuleFromPattern(ctx, pattern, nil, "", "", nil)
}
