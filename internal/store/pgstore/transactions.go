package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

const masterColumns = `tx_id, import_batch_id, source, source_row_id, account_id,
	to_char(date, 'YYYY-MM-DD'), month, amount, currency, description_raw,
	merchant_or_counterparty, payment_method, type, macro, subcat,
	reimbursement_target_macro, income_fixed_or_variable, income_detail, rule_id, user_note,
	review_status, confidence, is_internal_transfer, tags, created_at, updated_at`

const masterInsertColumns = `tx_id, import_batch_id, source, source_row_id, account_id,
	date, month, amount, currency, description_raw,
	merchant_or_counterparty, payment_method, type, macro, subcat,
	reimbursement_target_macro, income_fixed_or_variable, income_detail, rule_id, user_note,
	review_status, confidence, is_internal_transfer, tags, created_at, updated_at`

func scanMaster(row pgx.Row) (model.MasterRow, error) {
	var (
		r                               model.MasterRow
		source, method, typ, reviewStat string
	)
	err := row.Scan(&r.TxID, &r.ImportBatchID, &source, &r.SourceRowID, &r.AccountID,
		&r.Date, &r.Month, &r.Amount, &r.Currency, &r.Description,
		&r.Counterparty, &method, &typ, &r.Macro, &r.Subcat,
		&r.ReimbursementTargetMacro, &r.IncomeFixedOrVariable, &r.IncomeDetail, &r.RuleID, &r.Note,
		&reviewStat, &r.Confidence, &r.IsInternalTransfer, &r.Tags, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return model.MasterRow{}, err
	}
	r.Source = model.Source(source)
	r.PaymentMethod = model.PaymentMethod(method)
	r.Type = model.TransactionType(typ)
	r.ReviewStatus = model.ReviewStatus(reviewStat)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

func masterArgs(r model.MasterRow) []any {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		r.TxID, r.ImportBatchID, string(r.Source), r.SourceRowID, r.AccountID,
		r.Date, r.Month, r.Amount, r.Currency, r.Description,
		r.Counterparty, string(r.PaymentMethod), string(r.Type), r.Macro, r.Subcat,
		r.ReimbursementTargetMacro, r.IncomeFixedOrVariable, r.IncomeDetail, r.RuleID, r.Note,
		string(r.ReviewStatus), r.Confidence, r.IsInternalTransfer, tags, r.CreatedAt, r.UpdatedAt,
	}
}

func collectMaster(rows pgx.Rows) ([]model.MasterRow, error) {
	defer rows.Close()
	var out []model.MasterRow
	for rows.Next() {
		r, err := scanMaster(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ExistingTxIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT tx_id FROM master`)
	if err != nil {
		return nil, fmt.Errorf("listing tx ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning tx id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// InsertTransactions relies on the tx_id primary key so concurrent imports
// of the same rows insert each row once.
func (s *Store) InsertTransactions(ctx context.Context, rows []model.MasterRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, r := range rows {
		cmd, err := tx.Exec(ctx, `INSERT INTO master (`+masterInsertColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			        $19, $20, $21, $22, $23, $24, $25, $26)
			ON CONFLICT (tx_id) DO NOTHING`, masterArgs(r)...)
		if err != nil {
			return 0, fmt.Errorf("inserting transaction %s: %w", r.TxID, err)
		}
		inserted += int(cmd.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing transactions: %w", err)
	}
	return inserted, nil
}

const masterUpdate = `UPDATE master SET
	import_batch_id = $2, source = $3, source_row_id = $4, account_id = $5,
	date = $6, month = $7, amount = $8, currency = $9, description_raw = $10,
	merchant_or_counterparty = $11, payment_method = $12, type = $13, macro = $14, subcat = $15,
	reimbursement_target_macro = $16, income_fixed_or_variable = $17, income_detail = $18,
	rule_id = $19, user_note = $20, review_status = $21, confidence = $22,
	is_internal_transfer = $23, tags = $24, created_at = $25, updated_at = $26
	WHERE tx_id = $1`

func (s *Store) UpdateTransactions(ctx context.Context, rows []model.MasterRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		cmd, err := tx.Exec(ctx, masterUpdate, masterArgs(r)...)
		if err != nil {
			return fmt.Errorf("updating transaction %s: %w", r.TxID, err)
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("transaction %s: %w", r.TxID, store.ErrNotFound)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetTransaction(ctx context.Context, txID string) (model.MasterRow, error) {
	r, err := scanMaster(s.pool.QueryRow(ctx, `SELECT `+masterColumns+` FROM master WHERE tx_id = $1`, txID))
	if err != nil {
		return model.MasterRow{}, notFound("transaction", txID, err)
	}
	return r, nil
}

func (s *Store) TransactionsByBatch(ctx context.Context, batchID string) ([]model.MasterRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+masterColumns+` FROM master WHERE import_batch_id = $1 ORDER BY date, tx_id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("listing batch transactions: %w", err)
	}
	return collectMaster(rows)
}

func (s *Store) UpdateTransaction(ctx context.Context, txID string, patch store.TransactionPatch) (model.MasterRow, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.MasterRow{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	r, err := scanMaster(tx.QueryRow(ctx, `SELECT `+masterColumns+` FROM master WHERE tx_id = $1 FOR UPDATE`, txID))
	if err != nil {
		return model.MasterRow{}, notFound("transaction", txID, err)
	}
	patch.Apply(&r)
	if _, err := tx.Exec(ctx, masterUpdate, masterArgs(r)...); err != nil {
		return model.MasterRow{}, fmt.Errorf("updating transaction %s: %w", txID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.MasterRow{}, fmt.Errorf("committing transaction %s: %w", txID, err)
	}
	return r, nil
}

func (s *Store) PendingTransactions(ctx context.Context) ([]model.MasterRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+masterColumns+` FROM master
		WHERE review_status IN ($1, $2) ORDER BY date DESC, tx_id`,
		string(model.StatusNeedsReview), string(model.StatusSuggested))
	if err != nil {
		return nil, fmt.Errorf("listing pending transactions: %w", err)
	}
	return collectMaster(rows)
}

// filterClause renders the WHERE clause and arguments for f.
func filterClause(f store.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Month != "" {
		add("month = $%d", f.Month)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.Macro != "" {
		add("macro = $%d", f.Macro)
	}
	if f.Status != "" {
		add("review_status = $%d", string(f.Status))
	}
	if !f.IncludeTransfers {
		add("type <> $%d", string(model.TypeTransfer))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) QueryTransactions(ctx context.Context, filter store.TransactionFilter) (store.Page, error) {
	filter = filter.WithDefaults()
	where, args := filterClause(filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM master`+where, args...).Scan(&total); err != nil {
		return store.Page{}, fmt.Errorf("counting transactions: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM master%s ORDER BY date DESC, tx_id LIMIT $%d OFFSET $%d`,
		masterColumns, where, n+1, n+2)
	rows, err := s.pool.Query(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return store.Page{}, fmt.Errorf("querying transactions: %w", err)
	}
	list, err := collectMaster(rows)
	if err != nil {
		return store.Page{}, err
	}
	if list == nil {
		list = []model.MasterRow{}
	}
	return store.Page{Rows: list, Total: total}, nil
}
