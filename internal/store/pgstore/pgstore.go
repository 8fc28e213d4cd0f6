// Package pgstore implements store.Store on PostgreSQL through pgx.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

//go:embed schema.sql
var schema string

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Connect opens a pool and verifies the connection.
func Connect(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return fmt.Errorf("loading %s %s: %w", kind, id, err)
}

const batchColumns = `import_batch_id, uploaded_file_id, file_name, source_detected, status,
	rows_staged, rows_imported, started_at, finished_at, notes`

func scanBatch(row pgx.Row) (model.ImportBatch, error) {
	var (
		b              model.ImportBatch
		source, status string
	)
	err := row.Scan(&b.ID, &b.UploadedFileID, &b.FileName, &source, &status,
		&b.RowsStaged, &b.RowsImported, &b.StartedAt, &b.FinishedAt, &b.Notes)
	b.Source = model.Source(source)
	b.Status = model.BatchStatus(status)
	return b, err
}

func (s *Store) CreateImportBatch(ctx context.Context, b model.ImportBatch) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO imports (`+batchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.UploadedFileID, b.FileName, string(b.Source), string(b.Status),
		b.RowsStaged, b.RowsImported, b.StartedAt, b.FinishedAt, b.Notes)
	if err != nil {
		return fmt.Errorf("creating import batch: %w", err)
	}
	return nil
}

func (s *Store) EnsureImportBatch(ctx context.Context, b model.ImportBatch) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO imports (`+batchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (import_batch_id) DO NOTHING`,
		b.ID, b.UploadedFileID, b.FileName, string(b.Source), string(b.Status),
		b.RowsStaged, b.RowsImported, b.StartedAt, b.FinishedAt, b.Notes)
	if err != nil {
		return fmt.Errorf("ensuring import batch: %w", err)
	}
	return nil
}

func (s *Store) GetImportBatch(ctx context.Context, id string) (model.ImportBatch, error) {
	b, err := scanBatch(s.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM imports WHERE import_batch_id = $1`, id))
	if err != nil {
		return model.ImportBatch{}, notFound("import batch", id, err)
	}
	return b, nil
}

func (s *Store) UpdateImportBatch(ctx context.Context, id string, patch model.BatchPatch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b, err := scanBatch(tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM imports WHERE import_batch_id = $1 FOR UPDATE`, id))
	if err != nil {
		return notFound("import batch", id, err)
	}
	store.ApplyBatchPatch(&b, patch)

	_, err = tx.Exec(ctx, `UPDATE imports
		SET source_detected = $2, status = $3, rows_staged = $4, rows_imported = $5,
		    finished_at = $6, notes = $7
		WHERE import_batch_id = $1`,
		id, string(b.Source), string(b.Status), b.RowsStaged, b.RowsImported, b.FinishedAt, b.Notes)
	if err != nil {
		return fmt.Errorf("updating import batch: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) ListImportBatches(ctx context.Context, limit int) ([]model.ImportBatch, error) {
	if limit <= 0 {
		limit = store.DefaultLimit
	}
	rows, err := s.pool.Query(ctx, `SELECT `+batchColumns+` FROM imports ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing import batches: %w", err)
	}
	defer rows.Close()

	var out []model.ImportBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning import batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) IncrementImportedRows(ctx context.Context, id string, delta int) error {
	cmd, err := s.pool.Exec(ctx, `UPDATE imports SET rows_imported = rows_imported + $2 WHERE import_batch_id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("incrementing imported rows: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("import batch %s: %w", id, store.ErrNotFound)
	}
	return nil
}

var stagingColumns = []string{
	"import_batch_id", "source", "source_row_id", "raw_date", "raw_description",
	"raw_amount", "raw_currency", "norm_date", "norm_amount", "norm_account_id",
	"norm_description_clean", "created_at",
}

func (s *Store) InsertStagingRows(ctx context.Context, rows []model.StagingRow) error {
	if len(rows) == 0 {
		return nil
	}
	copyRows := make([][]any, len(rows))
	for i, r := range rows {
		copyRows[i] = []any{
			r.BatchID, string(r.Source), r.SourceRowID, r.RawDate, r.RawDescription,
			r.RawAmount, r.RawCurrency, r.NormDate, r.NormAmount, r.NormAccountID,
			r.NormDescription, r.CreatedAt,
		}
	}
	if _, err := s.pool.CopyFrom(ctx, pgx.Identifier{"staging_rows"}, stagingColumns, pgx.CopyFromRows(copyRows)); err != nil {
		return fmt.Errorf("staging rows: %w", err)
	}
	return nil
}

const ruleColumns = `rule_id, priority, active, source, match_text, match_type, match_sender,
	match_amount_min, match_amount_max, assign_type, assign_macro, assign_subcat,
	assign_income_fixed_or_variable, assign_income_detail, assign_reimbursement_target_macro,
	confidence_default, created_at, updated_at`

func (s *Store) ListRules(ctx context.Context) ([]model.Rule, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+ruleColumns+` FROM rules ORDER BY priority, rule_id`)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		var (
			r          model.Rule
			matchType  string
			assignType *string
		)
		err := rows.Scan(&r.ID, &r.Priority, &r.Active, &r.Source, &r.MatchText, &matchType, &r.SenderContains,
			&r.AmountMin, &r.AmountMax, &assignType, &r.AssignMacro, &r.AssignSubcat,
			&r.AssignIncomeFixedOrVariable, &r.AssignIncomeDetail, &r.AssignReimbursementTargetMacro,
			&r.ConfidenceDefault, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		r.MatchType = model.MatchType(matchType)
		if assignType != nil {
			t := model.TransactionType(*assignType)
			r.AssignType = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertRule(ctx context.Context, r model.Rule) error {
	var assignType *string
	if r.AssignType != nil {
		v := string(*r.AssignType)
		assignType = &v
	}
	matchType := string(r.MatchType)
	if matchType == "" {
		matchType = string(model.MatchIncludes)
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (rule_id) DO UPDATE SET
			priority = EXCLUDED.priority,
			active = EXCLUDED.active,
			source = EXCLUDED.source,
			match_text = EXCLUDED.match_text,
			match_type = EXCLUDED.match_type,
			match_sender = EXCLUDED.match_sender,
			match_amount_min = EXCLUDED.match_amount_min,
			match_amount_max = EXCLUDED.match_amount_max,
			assign_type = EXCLUDED.assign_type,
			assign_macro = EXCLUDED.assign_macro,
			assign_subcat = EXCLUDED.assign_subcat,
			assign_income_fixed_or_variable = EXCLUDED.assign_income_fixed_or_variable,
			assign_income_detail = EXCLUDED.assign_income_detail,
			assign_reimbursement_target_macro = EXCLUDED.assign_reimbursement_target_macro,
			confidence_default = EXCLUDED.confidence_default,
			updated_at = EXCLUDED.updated_at`,
		r.ID, r.Priority, r.Active, r.Source, r.MatchText, matchType, r.SenderContains,
		r.AmountMin, r.AmountMax, assignType, r.AssignMacro, r.AssignSubcat,
		r.AssignIncomeFixedOrVariable, r.AssignIncomeDetail, r.AssignReimbursementTargetMacro,
		r.ConfidenceDefault, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting rule %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) InsertHealthRows(ctx context.Context, rows []model.HealthRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`INSERT INTO health (check_id, import_batch_id, level, check_name, details, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.CheckID, r.BatchID, string(r.Level), r.Check, r.Details, r.CreatedAt)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting health rows: %w", err)
	}
	return nil
}

func (s *Store) RecentHealth(ctx context.Context, limit int) ([]model.HealthRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `SELECT check_id, import_batch_id, level, check_name, details, created_at
		FROM health ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing health rows: %w", err)
	}
	defer rows.Close()

	var out []model.HealthRow
	for rows.Next() {
		var (
			r     model.HealthRow
			level string
		)
		if err := rows.Scan(&r.CheckID, &r.BatchID, &level, &r.Check, &r.Details, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning health row: %w", err)
		}
		r.Level = model.HealthLevel(level)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) IsFileProcessed(ctx context.Context, fileID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM processed_files WHERE uploaded_file_id = $1)`, fileID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking processed file: %w", err)
	}
	return exists, nil
}

func (s *Store) MarkFileProcessed(ctx context.Context, fileID string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO processed_files (uploaded_file_id) VALUES ($1) ON CONFLICT DO NOTHING`, fileID)
	if err != nil {
		return fmt.Errorf("marking file processed: %w", err)
	}
	return nil
}

func (s *Store) Budgets(ctx context.Context, month string) ([]model.Budget, error) {
	rows, err := s.pool.Query(ctx, `SELECT month, macro, budget_amount, alert_75, alert_100
		FROM budgets WHERE month = $1 ORDER BY macro`, month)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()

	var out []model.Budget
	for rows.Next() {
		var b model.Budget
		if err := rows.Scan(&b.Month, &b.Macro, &b.Amount, &b.Alert75, &b.Alert100); err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpsertBudget(ctx context.Context, b model.Budget) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO budgets (month, macro, budget_amount, alert_75, alert_100)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (month, macro) DO UPDATE SET
			budget_amount = EXCLUDED.budget_amount,
			alert_75 = EXCLUDED.alert_75,
			alert_100 = EXCLUDED.alert_100`,
		b.Month, b.Macro, b.Amount, b.Alert75, b.Alert100)
	if err != nil {
		return fmt.Errorf("upserting budget: %w", err)
	}
	return nil
}
