package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/SamuelPereira26/Finhouse/internal/bot"
	"github.com/SamuelPereira26/Finhouse/internal/classify"
	"github.com/SamuelPereira26/Finhouse/internal/health"
	"github.com/SamuelPereira26/Finhouse/internal/id"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
	"github.com/SamuelPereira26/Finhouse/internal/notify"
	"github.com/SamuelPereira26/Finhouse/internal/store"
	"github.com/SamuelPereira26/Finhouse/internal/transfer"
)

// FileInput is one uploaded statement.
type FileInput struct {
	UploadedFileID *string
	FileName       string
	Content        []byte
}

// Result summarizes one processed file.
type Result struct {
	BatchID    string            `json:"import_batch_id"`
	SourceInfo model.SourceInfo  `json:"sourceInfo"`
	Inserted   int               `json:"inserted"`
	Skipped    int               `json:"skipped"`
	Warnings   []model.HealthRow `json:"warnings"`
	Errors     []string          `json:"errors"`
}

// ProcessFile runs the full pipeline for one file: create the batch, detect
// and parse, audit, stage, merge new rows, re-run transfer detection over
// every touched month, suggest rules for repeated expenses and finalize the
// batch. A storage failure aborts the remaining steps and leaves the batch at
// the status it last reached.
func (s *Service) ProcessFile(ctx context.Context, in FileInput) (Result, error) {
	if strings.TrimSpace(in.FileName) == "" {
		return Result{}, invalid("file_name", "is required")
	}

	batch := model.ImportBatch{
		ID:             id.NewBatchID(),
		UploadedFileID: in.UploadedFileID,
		FileName:       in.FileName,
		Status:         model.BatchPending,
		StartedAt:      s.timestamp(),
	}
	if err := s.store.CreateImportBatch(ctx, batch); err != nil {
		return Result{}, fmt.Errorf("creating batch: %w", err)
	}
	log := s.log.With().Str("batch_id", batch.ID).Str("file", in.FileName).Logger()
	res := Result{BatchID: batch.ID, Warnings: []model.HealthRow{}, Errors: []string{}}

	info, err := s.registry.Detect(in.FileName, in.Content)
	if err != nil {
		return res, wrapValidation(fmt.Errorf("detecting source: %w", err))
	}
	res.SourceInfo = info
	processing := model.BatchProcessing
	if err := s.store.UpdateImportBatch(ctx, batch.ID, model.BatchPatch{Source: &info.Source, Status: &processing}); err != nil {
		return res, fmt.Errorf("updating batch: %w", err)
	}
	log.Info().Str("source", string(info.Source)).Str("account", info.AccountID).Msg("source detected")

	parsed, err := s.registry.Parse(in.Content, info)
	if err != nil {
		return res, wrapValidation(fmt.Errorf("parsing %s: %w", in.FileName, err))
	}
	log.Info().Int("rows", len(parsed)).Msg("file parsed")

	existing, err := s.store.ExistingTxIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("loading existing ids: %w", err)
	}
	checks := s.checker.Run(batch.ID, parsed, info, existing)
	if err := s.store.InsertHealthRows(ctx, checks); err != nil {
		return res, fmt.Errorf("saving health checks: %w", err)
	}

	if err := s.store.InsertStagingRows(ctx, s.stagingRows(batch.ID, info.Source, parsed)); err != nil {
		return res, fmt.Errorf("staging rows: %w", err)
	}

	inserted, skipped, err := s.merge(ctx, batch.ID, parsed)
	if err != nil {
		return res, err
	}
	res.Inserted, res.Skipped = inserted, skipped
	log.Info().Int("inserted", inserted).Int("skipped", skipped).Msg("rows merged")

	for _, month := range distinctMonths(parsed) {
		rows, err := s.sweepMonth(ctx, month)
		if err != nil {
			return res, err
		}
		s.suggestPatterns(ctx, rows)
	}

	done := model.BatchDone
	staged := len(parsed)
	finished := s.timestamp()
	notes := fmt.Sprintf("Skipped: %d", skipped)
	err = s.store.UpdateImportBatch(ctx, batch.ID, model.BatchPatch{
		Status:       &done,
		RowsStaged:   &staged,
		RowsImported: &inserted,
		FinishedAt:   &finished,
		Notes:        &notes,
	})
	if err != nil {
		return res, fmt.Errorf("finalizing batch: %w", err)
	}

	if in.UploadedFileID != nil && *in.UploadedFileID != "" {
		if err := s.store.MarkFileProcessed(ctx, *in.UploadedFileID); err != nil {
			return res, fmt.Errorf("marking file processed: %w", err)
		}
	}

	for _, c := range checks {
		switch c.Level {
		case model.LevelWarning:
			res.Warnings = append(res.Warnings, c)
		case model.LevelError:
			res.Errors = append(res.Errors, c.Details)
		}
	}
	log.Info().Interface("health", health.Summarize(checks)).Msg("import finished")
	return res, nil
}

// IsFileProcessed reports whether an uploaded file id already went through
// ProcessFile. Callers use it to refuse re-uploads.
func (s *Service) IsFileProcessed(ctx context.Context, fileID string) (bool, error) {
	if fileID == "" {
		return false, nil
	}
	return s.store.IsFileProcessed(ctx, fileID)
}

func (s *Service) stagingRows(batchID string, source model.Source, rows []model.ParsedRow) []model.StagingRow {
	now := s.timestamp()
	out := make([]model.StagingRow, len(rows))
	for i, r := range rows {
		out[i] = model.StagingRow{
			BatchID:         batchID,
			Source:          source,
			SourceRowID:     r.SourceRowID,
			RawDate:         r.Date,
			RawDescription:  r.Description,
			RawAmount:       r.Amount,
			RawCurrency:     r.Currency,
			NormDate:        r.Date,
			NormAmount:      r.Amount,
			NormAccountID:   r.AccountID,
			NormDescription: normalize.CleanText(r.Description),
			CreatedAt:       now,
		}
	}
	return out
}

// TxIDFor computes the deduplication key of a parsed row.
func (s *Service) TxIDFor(row model.ParsedRow) string {
	return id.TxID(string(row.Source), row.Date, row.Amount, row.Description, s.accounts.Last4(row.AccountID))
}

func (s *Service) buildMaster(row model.ParsedRow, batchID string, c model.Classification) model.MasterRow {
	now := s.timestamp()
	return model.MasterRow{
		TxID:                     s.TxIDFor(row),
		ImportBatchID:            batchID,
		Source:                   row.Source,
		SourceRowID:              row.SourceRowID,
		AccountID:                row.AccountID,
		Date:                     row.Date,
		Month:                    normalize.Month(row.Date),
		Amount:                   row.Amount,
		Currency:                 row.Currency,
		Description:              row.Description,
		Counterparty:             row.Counterparty,
		PaymentMethod:            row.PaymentMethod,
		Type:                     c.Type,
		Macro:                    c.Macro,
		Subcat:                   c.Subcat,
		ReimbursementTargetMacro: c.ReimbursementTargetMacro,
		IncomeFixedOrVariable:    c.IncomeFixedOrVariable,
		IncomeDetail:             c.IncomeDetail,
		RuleID:                   c.RuleID,
		Note:                     row.Note,
		ReviewStatus:             c.ReviewStatus,
		Confidence:               c.Confidence,
		Tags:                     []string{},
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// merge classifies rows, drops ids already stored or repeated in the file,
// runs transfer detection over the new rows and inserts them.
func (s *Service) merge(ctx context.Context, batchID string, parsed []model.ParsedRow) (inserted, skipped int, err error) {
	existing, err := s.store.ExistingTxIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading existing ids: %w", err)
	}
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading rules: %w", err)
	}

	var fresh []model.MasterRow
	for _, row := range parsed {
		m := s.buildMaster(row, batchID, s.classifier.Classify(row, rules))
		if existing[m.TxID] {
			skipped++
			continue
		}
		existing[m.TxID] = true
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return 0, skipped, nil
	}

	tagged := s.detector.Run(fresh)
	n, err := s.store.InsertTransactions(ctx, tagged)
	if err != nil {
		return 0, skipped, fmt.Errorf("inserting transactions: %w", err)
	}
	// Rows rejected by the store were inserted concurrently by another import.
	return n, skipped + len(tagged) - n, nil
}

// sweepMonth re-runs transfer detection over a whole stored month so a leg
// imported earlier can pair with one imported now. It returns the month's
// rows as they were before the sweep.
func (s *Service) sweepMonth(ctx context.Context, month string) ([]model.MasterRow, error) {
	page, err := s.store.QueryTransactions(ctx, store.TransactionFilter{
		Month:            month,
		IncludeTransfers: true,
		Page:             1,
		Limit:            sweepLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("loading month %s: %w", month, err)
	}

	after := s.detector.Run(page.Rows)
	changed := transfer.ChangedRows(page.Rows, after)
	now := s.timestamp()
	for i := range changed {
		changed[i].UpdatedAt = now
	}
	if len(changed) > 0 {
		if err := s.store.UpdateTransactions(ctx, changed); err != nil {
			return nil, fmt.Errorf("updating transfers for %s: %w", month, err)
		}
	}
	s.log.Info().Str("month", month).Int("rows", len(page.Rows)).Int("changed", len(changed)).Msg("transfer sweep")
	return page.Rows, nil
}

// keyboardSender is implemented by notifiers that support inline buttons.
type keyboardSender interface {
	SendMessage(ctx context.Context, msg notify.Message) error
}

func (s *Service) suggestPatterns(ctx context.Context, rows []model.MasterRow) {
	suggestions := classify.DetectRepeatPatterns(rows)
	if len(suggestions) == 0 {
		return
	}
	text := classify.FormatSuggestions(suggestions)
	if ks, ok := s.notifier.(keyboardSender); ok {
		msg := notify.Message{Text: text, ReplyMarkup: bot.SuggestionKeyboard(suggestions)}
		if err := ks.SendMessage(ctx, msg); err != nil {
			s.log.Warn().Err(err).Msg("pattern notification failed")
		}
		return
	}
	s.notify(ctx, text)
}

func distinctMonths(rows []model.ParsedRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		m := normalize.Month(r.Date)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
