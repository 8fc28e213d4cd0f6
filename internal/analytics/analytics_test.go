package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/taxonomy"
)

func tx(date string, typ model.TransactionType, macro string, amount float64) model.MasterRow {
	return model.MasterRow{Date: date, Type: typ, Macro: model.Str(macro), Amount: amount, Tags: []string{}}
}

func sample() []model.MasterRow {
	return []model.MasterRow{
		tx("2026-02-20", model.TypeIncome, taxonomy.Income, 2000),
		tx("2026-02-02", model.TypeExpense, taxonomy.Groceries, -150.10),
		tx("2026-02-05", model.TypeExpense, taxonomy.Leisure, -40),
		tx("2026-02-10", model.TypeExpense, taxonomy.Contributions, -300),
		tx("2026-02-11", model.TypeExpense, taxonomy.Donations, -200),
		tx("2026-02-12", model.TypeExpense, "", -5),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize("2026-02", sample(), taxonomy.Default(), 100)

	assert.Equal(t, "2026-02", s.Month)
	assert.InDelta(t, 2000, s.Income, 1e-9)
	// Groceries, contributions and donations are life expenses; leisure and
	// uncategorized rows are not.
	assert.InDelta(t, 650.10, s.LifeExpense, 1e-9)
	assert.InDelta(t, 300, s.Contributions, 1e-9)
	assert.InDelta(t, 200, s.Donations, 1e-9)
	assert.InDelta(t, 2000-650.10-300-200, s.Available, 1e-9)

	require.Len(t, s.ByMacro, len(taxonomy.Default().Order()))
	assert.Equal(t, taxonomy.Default().Order()[0], s.ByMacro[0].Macro)
	assert.InDelta(t, -150.10, s.MacroAmount(taxonomy.Groceries), 1e-9)
	assert.InDelta(t, 0, s.MacroAmount(taxonomy.Utilities), 1e-9)

	require.Len(t, s.Trend, 6)
	assert.Equal(t, "2026-02-02", s.Trend[0].Date)
	assert.InDelta(t, 100-150.10, s.Trend[0].Balance, 1e-9)
	assert.Equal(t, "2026-02-20", s.Trend[5].Date)
	assert.InDelta(t, 100+2000-150.10-40-300-200-5, s.Trend[5].Balance, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("2026-03", nil, taxonomy.Default(), 0)
	assert.Zero(t, s.Income)
	assert.Empty(t, s.Trend)
	for _, m := range s.ByMacro {
		assert.Zero(t, m.Amount)
	}
}

func TestTrend_StableForSameDate(t *testing.T) {
	rows := []model.MasterRow{
		tx("2026-02-01", model.TypeExpense, taxonomy.Groceries, -1),
		tx("2026-02-01", model.TypeExpense, taxonomy.Groceries, -2),
	}
	got := Trend(rows, 0)
	assert.InDelta(t, -1, got[0].Balance, 1e-9)
	assert.InDelta(t, -3, got[1].Balance, 1e-9)
}

func TestCompare(t *testing.T) {
	c := Compare(Summary{Month: "2026-02", Available: 500}, Summary{Month: "2026-01", Available: 650.5})
	assert.InDelta(t, -150.5, c.Delta, 1e-9)
	assert.Equal(t, "2026-01", c.Previous.Month)
}

func TestBudgetProgress(t *testing.T) {
	s := Summarize("2026-02", sample(), taxonomy.Default(), 0)
	lines := BudgetProgress([]model.Budget{
		{Month: "2026-02", Macro: taxonomy.Groceries, Amount: 200, Alert75: true, Alert100: true},
		{Month: "2026-02", Macro: taxonomy.Leisure, Amount: 30, Alert75: false, Alert100: true},
		{Month: "2026-02", Macro: taxonomy.Home, Amount: 0},
	}, s)
	require.Len(t, lines, 3)

	assert.InDelta(t, 150.10, lines[0].Spent, 1e-9)
	assert.InDelta(t, 0.7505, lines[0].Ratio, 1e-9)
	assert.True(t, lines[0].Alert75)
	assert.False(t, lines[0].Alert100)

	assert.False(t, lines[1].Alert75)
	assert.True(t, lines[1].Alert100)

	assert.Zero(t, lines[2].Ratio)
}

func TestCountPending(t *testing.T) {
	rows := []model.MasterRow{
		{ReviewStatus: model.StatusNeedsReview},
		{ReviewStatus: model.StatusSuggested},
		{ReviewStatus: model.StatusNeedsReview},
		{ReviewStatus: model.StatusAutoOK},
		{ReviewStatus: model.StatusUserConfirmed},
	}
	assert.Equal(t, PendingCounts{Total: 3, NeedsReview: 2, Suggested: 1}, CountPending(rows))
}

func TestDonations(t *testing.T) {
	s := Summarize("2026-02", sample(), taxonomy.Default(), 0)
	d := Donations(s, []model.Budget{{Month: "2026-02", Macro: taxonomy.Donations, Amount: 250}})
	assert.Equal(t, DonationStatus{Month: "2026-02", Amount: 200, Target: 250}, d)
	assert.Zero(t, Donations(s, nil).Target)
}
