package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelPereira26/Finhouse/internal/accounts"
	"github.com/SamuelPereira26/Finhouse/internal/config"
	"github.com/SamuelPereira26/Finhouse/internal/id"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/notify"
	"github.com/SamuelPereira26/Finhouse/internal/store"
	"github.com/SamuelPereira26/Finhouse/internal/store/memstore"
	"github.com/SamuelPereira26/Finhouse/internal/taxonomy"
)

var testNow = time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memstore.Store, *notify.Recorder) {
	t.Helper()
	st := memstore.New()
	rec := &notify.Recorder{}
	svc := New(st, config.Default("test"), rec, zerolog.Nop(), WithClock(func() time.Time { return testNow }))
	return svc, st, rec
}

func fixture(t *testing.T, name string) FileInput {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return FileInput{FileName: name, Content: content}
}

func TestProcessFileImportsAndDeduplicates(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.ProcessFile(ctx, fixture(t, "revolut_samuel.csv"))
	require.NoError(t, err)
	assert.Regexp(t, `^BATCH_`, first.BatchID)
	assert.Equal(t, model.SourceRevolut, first.SourceInfo.Source)
	assert.Equal(t, accounts.RevolutSamuel, first.SourceInfo.AccountID)
	assert.Equal(t, 4, first.Inserted)
	assert.Equal(t, 0, first.Skipped)
	assert.Empty(t, first.Errors)

	batch, err := st.GetImportBatch(ctx, first.BatchID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchDone, batch.Status)
	assert.Equal(t, model.SourceRevolut, batch.Source)
	assert.Equal(t, 4, batch.RowsStaged)
	assert.Equal(t, 4, batch.RowsImported)
	assert.Equal(t, "Skipped: 0", model.Deref(batch.Notes))
	assert.NotNil(t, batch.FinishedAt)
	assert.Len(t, st.StagingRows(), 4)

	second, err := svc.ProcessFile(ctx, fixture(t, "revolut_samuel.csv"))
	require.NoError(t, err)
	assert.NotEqual(t, first.BatchID, second.BatchID)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 4, second.Skipped)

	var dupWarning bool
	for _, w := range second.Warnings {
		if strings.HasPrefix(w.Details, "Posibles duplicados detectados: 4") {
			dupWarning = true
		}
	}
	assert.True(t, dupWarning, "expected a duplicate warning, got %+v", second.Warnings)

	ids, err := st.ExistingTxIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 4)
}

func TestProcessFilePairsTransfersAcrossBatches(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ProcessFile(ctx, fixture(t, "revolut_samuel.csv"))
	require.NoError(t, err)
	andrea, err := svc.ProcessFile(ctx, fixture(t, "revolut_andrea.csv"))
	require.NoError(t, err)
	assert.Equal(t, accounts.RevolutAndrea, andrea.SourceInfo.AccountID)
	assert.Equal(t, 2, andrea.Inserted)

	page, err := st.QueryTransactions(ctx, store.TransactionFilter{Month: "2026-02", IncludeTransfers: true, Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 6, page.Total)

	var internal []model.MasterRow
	for _, r := range page.Rows {
		if r.HasTag(model.TagInternalTransfer) {
			internal = append(internal, r)
		}
	}
	require.Len(t, internal, 2)
	for _, r := range internal {
		assert.True(t, r.IsInternalTransfer)
		assert.Equal(t, model.TypeTransfer, r.Type)
		assert.Equal(t, model.StatusAutoOK, r.ReviewStatus)
		assert.Nil(t, r.Macro)
	}
	assert.NotEqual(t, internal[0].AccountID, internal[1].AccountID)

	// A third import finds nothing new and leaves the pair alone.
	again, err := svc.ProcessFile(ctx, fixture(t, "revolut_samuel.csv"))
	require.NoError(t, err)
	assert.Positive(t, again.Skipped)
}

func TestProcessFileClassifies(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ProcessFile(ctx, fixture(t, "revolut_samuel.csv"))
	require.NoError(t, err)

	spotify, err := st.GetTransaction(ctx, id.TxID("REVOLUT", "2026-02-01", -12.99, "Spotify AB", "2222"))
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Subscriptions, model.Deref(spotify.Macro))
	assert.Equal(t, model.StatusAutoOK, spotify.ReviewStatus)
	assert.Equal(t, "2026-02", spotify.Month)
	assert.NotNil(t, spotify.Tags)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "To Andrea", pending[0].Description)
	assert.Equal(t, model.StatusNeedsReview, pending[0].ReviewStatus)
}

func TestProcessFileRejectsUnknownFile(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.ProcessFile(ctx, FileInput{FileName: "notes.csv", Content: []byte("foo,bar\n1,2\n")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.NotEmpty(t, res.BatchID)

	batch, err := st.GetImportBatch(ctx, res.BatchID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchPending, batch.Status)

	_, err = svc.ProcessFile(ctx, FileInput{})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestProcessFileMarksUploadedFile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := fixture(t, "revolut_andrea.csv")
	in.UploadedFileID = model.Str("upload-1")
	_, err := svc.ProcessFile(ctx, in)
	require.NoError(t, err)

	done, err := svc.IsFileProcessed(ctx, "upload-1")
	require.NoError(t, err)
	assert.True(t, done)
	done, err = svc.IsFileProcessed(ctx, "upload-2")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestProcessFileSuggestsRepeatedExpenses(t *testing.T) {
	svc, _, rec := newTestService(t)
	csv := "Type,Completed Date,Description,Amount,Currency,State\n" +
		"CARD_PAYMENT,2026-02-03,Cafe Bar Sol,-3.20,EUR,COMPLETED\n" +
		"CARD_PAYMENT,2026-02-05,Cafe Bar Sol,-3.20,EUR,COMPLETED\n" +
		"CARD_PAYMENT,2026-02-07,Cafe Bar Sol,-3.40,EUR,COMPLETED\n"

	_, err := svc.ProcessFile(context.Background(), FileInput{FileName: "revolut_joint.csv", Content: []byte(csv)})
	require.NoError(t, err)

	require.Len(t, rec.Messages, 1)
	msg := rec.Messages[0]
	assert.True(t, strings.HasPrefix(msg.Text, "Sugerencias de reglas detectadas:"))
	assert.Contains(t, msg.Text, "repeticiones: 3")
	require.NotNil(t, msg.ReplyMarkup)
	require.Len(t, msg.ReplyMarkup.InlineKeyboard, 1)
	assert.True(t, strings.HasPrefix(msg.ReplyMarkup.InlineKeyboard[0][0].CallbackData, "create_rule:"))
}

func TestAddCash(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddCash(ctx, CashInput{Date: "2026-02-10", Amount: -20, Description: "Regalo", Macro: model.Str(taxonomy.Other)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "requiere nota")

	_, err = svc.AddCash(ctx, CashInput{Date: "2026-02-10", Amount: -20, Description: "Regalo", Macro: model.Str(taxonomy.Other), Note: model.Str("   ")})
	require.Error(t, err, "a blank note does not satisfy the note rule")
	assert.Contains(t, err.Error(), "requiere nota")

	row, err := svc.AddCash(ctx, CashInput{
		Date:        "2026-02-10",
		Amount:      -20,
		Description: "Regalo",
		Macro:       model.Str(taxonomy.Other),
		Subcat:      model.Str(taxonomy.Uncategorized),
		Note:        model.Str("cumple"),
	})
	require.NoError(t, err)
	assert.Equal(t, id.TxID("CASH", "2026-02-10", -20, "Regalo", "CASH"), row.TxID)
	assert.Equal(t, id.CashBatchID, row.ImportBatchID)
	assert.Equal(t, model.StatusUserConfirmed, row.ReviewStatus)
	assert.Equal(t, 1.0, row.Confidence)
	assert.Equal(t, accounts.Cash, row.AccountID)
	assert.Equal(t, taxonomy.Other, model.Deref(row.Macro))
	assert.Empty(t, row.Tags)

	batch, err := st.GetImportBatch(ctx, id.CashBatchID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchDone, batch.Status)
	assert.Equal(t, 1, batch.RowsImported)

	_, err = svc.AddCash(ctx, CashInput{Date: "2026-02-11", Amount: -5, Description: "Mercadona"})
	require.NoError(t, err)
	batch, err = st.GetImportBatch(ctx, id.CashBatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.RowsImported)
}

func TestAddCashValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	bad := model.TransactionType("GIFT")
	tests := []struct {
		name string
		in   CashInput
	}{
		{"no description", CashInput{Amount: -1}},
		{"zero amount", CashInput{Description: "x"}},
		{"bad type", CashInput{Description: "x", Amount: -1, Type: &bad}},
		{"bad macro", CashInput{Description: "x", Amount: -1, Macro: model.Str("Viajes")}},
		{"bad date", CashInput{Description: "x", Amount: -1, Date: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddCash(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestConfirm(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ProcessFile(ctx, fixture(t, "revolut_samuel.csv"))
	require.NoError(t, err)
	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	txID := pending[0].TxID

	_, err = svc.Confirm(ctx, txID, store.TransactionPatch{Macro: model.Str(taxonomy.Other)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "requiere nota obligatoria")

	_, err = svc.Confirm(ctx, txID, store.TransactionPatch{Macro: model.Str(taxonomy.Other), Note: model.Str(" \t ")})
	require.Error(t, err, "a blank note does not satisfy the note rule")
	assert.Contains(t, err.Error(), "requiere nota obligatoria")

	row, err := svc.Confirm(ctx, txID, store.TransactionPatch{
		Macro:  model.Str(taxonomy.Home),
		Subcat: model.Str("Alquiler"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusUserConfirmed, row.ReviewStatus)
	assert.Equal(t, taxonomy.Home, model.Deref(row.Macro))
	assert.Equal(t, testNow.Format(time.RFC3339Nano), row.UpdatedAt)

	counts, err := svc.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Total)

	_, err = svc.Confirm(ctx, "missing", store.TransactionPatch{})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestRules(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rule, err := svc.CreateRuleFromPattern(ctx, " CAFE BAR ", nil, "", "", nil)
	require.NoError(t, err)
	assert.Regexp(t, `^rule_`, rule.ID)
	assert.Equal(t, "CAFE BAR", model.Deref(rule.MatchText))
	assert.Equal(t, taxonomy.Other, model.Deref(rule.AssignMacro))
	assert.Equal(t, taxonomy.Uncategorized, model.Deref(rule.AssignSubcat))
	assert.NotEmpty(t, rule.CreatedAt)

	_, err = svc.SaveRule(ctx, model.Rule{MatchType: "FUZZY"})
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = svc.SaveRule(ctx, model.Rule{AssignMacro: model.Str("Viajes")})
	assert.True(t, errors.Is(err, ErrValidation))

	rules, err := svc.Rules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	// The rule now drives classification of a matching import.
	csv := "Type,Completed Date,Description,Amount,Currency,State\n" +
		"CARD_PAYMENT,2026-02-03,Cafe Bar Sol,-3.20,EUR,COMPLETED\n"
	_, err = svc.ProcessFile(ctx, FileInput{FileName: "revolut_joint.csv", Content: []byte(csv)})
	require.NoError(t, err)
	page, err := svc.Transactions(ctx, store.TransactionFilter{Month: "2026-02"})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, rule.ID, model.Deref(page.Rows[0].RuleID))
}

func TestBudgetsAndReports(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ProcessFile(ctx, fixture(t, "revolut_samuel.csv"))
	require.NoError(t, err)
	_, err = svc.ProcessFile(ctx, fixture(t, "revolut_andrea.csv"))
	require.NoError(t, err)

	_, err = svc.SaveBudget(ctx, model.Budget{Month: "2026-13", Macro: taxonomy.Groceries, Amount: 100})
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = svc.SaveBudget(ctx, model.Budget{Month: "2026-02", Macro: "Viajes", Amount: 100})
	assert.True(t, errors.Is(err, ErrValidation))

	b, err := svc.SaveBudget(ctx, model.Budget{Month: "2026-02", Macro: "supermercado", Amount: 50, Alert75: true})
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Groceries, b.Macro)
	_, err = svc.SaveBudget(ctx, model.Budget{Month: "2026-02", Macro: taxonomy.Donations, Amount: 300})
	require.NoError(t, err)

	summary, err := svc.Analytics(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-02", summary.Month)
	assert.InDelta(t, 1500, summary.Income, 0.001)
	assert.InDelta(t, 12.99+45.30+8.50, summary.LifeExpense, 0.001)

	lines, err := svc.BudgetStatus(ctx, "2026-02")
	require.NoError(t, err)
	var groceries bool
	for _, l := range lines {
		if l.Macro == taxonomy.Groceries {
			groceries = true
			assert.InDelta(t, 45.30, l.Spent, 0.001)
			assert.True(t, l.Alert75)
		}
	}
	assert.True(t, groceries)

	donations, err := svc.Donations(ctx, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, 300.0, donations.Target)

	cmp, err := svc.Comparison(ctx, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-01", cmp.Previous.Month)
	assert.InDelta(t, summary.Available, cmp.Delta, 0.001)

	_, err = svc.Analytics(ctx, "febrero", 0)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestBotContext(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.ProcessFile(ctx, fixture(t, "revolut_samuel.csv"))
	require.NoError(t, err)

	bc := svc.BotContext("")
	s, err := bc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-02", s.Month)

	p, err := bc.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Total)
	assert.Equal(t, 1, p.NeedsReview)

	rule, err := bc.CreateRule(ctx, "TO ANDREA")
	require.NoError(t, err)
	assert.Equal(t, "TO ANDREA", model.Deref(rule.MatchText))
}

func TestRecentHealthAndImports(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.ProcessFile(ctx, fixture(t, "revolut_andrea.csv"))
	require.NoError(t, err)

	rows, err := svc.Health(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	batches, err := svc.Imports(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, batches, 1)

	assert.NotEmpty(t, svc.Accounts())
	assert.Equal(t, svc.Taxonomy().Order()[0], svc.Categories()[0].Name)
}
