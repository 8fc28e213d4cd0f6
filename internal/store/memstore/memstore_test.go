package memstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

func tx(id, date string, status model.ReviewStatus) model.MasterRow {
	return model.MasterRow{
		TxID:          id,
		ImportBatchID: "B1",
		Date:          date,
		Month:         date[:7],
		Amount:        -10,
		Type:          model.TypeExpense,
		ReviewStatus:  status,
		Tags:          []string{},
	}
}

func TestInsertTransactions_AtMostOnce(t *testing.T) {
	ctx := context.Background()
	s := New()

	n, err := s.InsertTransactions(ctx, []model.MasterRow{tx("a", "2026-02-01", model.StatusAutoOK), tx("b", "2026-02-02", model.StatusAutoOK)})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.InsertTransactions(ctx, []model.MasterRow{tx("a", "2026-02-01", model.StatusNeedsReview)})
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.GetTransaction(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAutoOK, got.ReviewStatus)

	ids, err := s.ExistingTxIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, ids)
}

func TestRowsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := tx("a", "2026-02-01", model.StatusAutoOK)
	_, err := s.InsertTransactions(ctx, []model.MasterRow{r})
	require.NoError(t, err)

	got, err := s.GetTransaction(ctx, "a")
	require.NoError(t, err)
	got.AddTag(model.TagCheckSaldo)

	again, err := s.GetTransaction(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, again.Tags)
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.InsertTransactions(ctx, []model.MasterRow{tx("a", "2026-02-01", model.StatusNeedsReview)})
	require.NoError(t, err)

	status := model.StatusUserConfirmed
	got, err := s.UpdateTransaction(ctx, "a", store.TransactionPatch{Macro: model.Str("Casa"), ReviewStatus: &status})
	require.NoError(t, err)
	assert.Equal(t, "Casa", model.Deref(got.Macro))

	_, err = s.UpdateTransaction(ctx, "missing", store.TransactionPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.UpdateTransactions(ctx, []model.MasterRow{tx("missing", "2026-02-01", model.StatusAutoOK)})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPendingAndQuery(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.InsertTransactions(ctx, []model.MasterRow{
		tx("a", "2026-02-01", model.StatusNeedsReview),
		tx("b", "2026-02-05", model.StatusSuggested),
		tx("c", "2026-02-03", model.StatusAutoOK),
	})
	require.NoError(t, err)

	pending, err := s.PendingTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].TxID)

	page, err := s.QueryTransactions(ctx, store.TransactionFilter{Month: "2026-02", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "b", page.Rows[0].TxID)
	assert.Equal(t, "c", page.Rows[1].TxID)

	byBatch, err := s.TransactionsByBatch(ctx, "B1")
	require.NoError(t, err)
	assert.Len(t, byBatch, 3)
}

func TestBatches(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateImportBatch(ctx, model.ImportBatch{ID: "B1", StartedAt: "2026-02-01T00:00:00Z", Status: model.BatchPending}))
	assert.Error(t, s.CreateImportBatch(ctx, model.ImportBatch{ID: "B1"}))

	require.NoError(t, s.EnsureImportBatch(ctx, model.ImportBatch{ID: "CASH_INPUT", StartedAt: "2026-02-02T00:00:00Z", Status: model.BatchDone}))
	require.NoError(t, s.EnsureImportBatch(ctx, model.ImportBatch{ID: "CASH_INPUT", Status: model.BatchPending}))
	require.NoError(t, s.IncrementImportedRows(ctx, "CASH_INPUT", 2))

	cash, err := s.GetImportBatch(ctx, "CASH_INPUT")
	require.NoError(t, err)
	assert.Equal(t, model.BatchDone, cash.Status)
	assert.Equal(t, 2, cash.RowsImported)

	status := model.BatchProcessing
	require.NoError(t, s.UpdateImportBatch(ctx, "B1", model.BatchPatch{Status: &status}))
	assert.ErrorIs(t, s.UpdateImportBatch(ctx, "nope", model.BatchPatch{}), store.ErrNotFound)

	list, err := s.ListImportBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CASH_INPUT", list[0].ID)
	assert.Equal(t, model.BatchProcessing, list[1].Status)
}

func TestRulesBudgetsHealthFiles(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.UpsertRule(ctx, model.Rule{ID: "r1", Priority: 10}))
	require.NoError(t, s.UpsertRule(ctx, model.Rule{ID: "r2", Priority: 5}))
	require.NoError(t, s.UpsertRule(ctx, model.Rule{ID: "r1", Priority: 1}))
	rules, err := s.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 1, rules[0].Priority)

	require.NoError(t, s.UpsertBudget(ctx, model.Budget{Month: "2026-02", Macro: "Ocio", Amount: 100}))
	require.NoError(t, s.UpsertBudget(ctx, model.Budget{Month: "2026-02", Macro: "Ocio", Amount: 150}))
	require.NoError(t, s.UpsertBudget(ctx, model.Budget{Month: "2026-03", Macro: "Ocio", Amount: 90}))
	budgets, err := s.Budgets(ctx, "2026-02")
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.InDelta(t, 150, budgets[0].Amount, 1e-9)

	require.NoError(t, s.InsertHealthRows(ctx, []model.HealthRow{{CheckID: "h1"}, {CheckID: "h2"}, {CheckID: "h3"}}))
	recent, err := s.RecentHealth(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "h3", recent[0].CheckID)
	assert.Equal(t, "h2", recent[1].CheckID)

	done, err := s.IsFileProcessed(ctx, "f1")
	require.NoError(t, err)
	assert.False(t, done)
	require.NoError(t, s.MarkFileProcessed(ctx, "f1"))
	done, err = s.IsFileProcessed(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "finhouse.json")

	s := New()
	require.NoError(t, s.CreateImportBatch(ctx, model.ImportBatch{ID: "B1"}))
	_, err := s.InsertTransactions(ctx, []model.MasterRow{tx("a", "2026-02-01", model.StatusAutoOK), tx("b", "2026-02-02", model.StatusAutoOK)})
	require.NoError(t, err)
	require.NoError(t, s.UpsertRule(ctx, model.Rule{ID: "r1"}))
	require.NoError(t, s.MarkFileProcessed(ctx, "f1"))
	require.NoError(t, s.UpsertBudget(ctx, model.Budget{Month: "2026-02", Macro: "Ocio", Amount: 1}))
	require.NoError(t, s.InsertStagingRows(ctx, []model.StagingRow{{BatchID: "B1"}}))
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	page, err := loaded.QueryTransactions(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	_, err = loaded.GetImportBatch(ctx, "B1")
	require.NoError(t, err)
	done, err := loaded.IsFileProcessed(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Len(t, loaded.StagingRows(), 1)
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	ids, err := s.ExistingTxIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
