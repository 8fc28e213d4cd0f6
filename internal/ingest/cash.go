package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/SamuelPereira26/Finhouse/internal/id"
	"github.com/SamuelPereira26/Finhouse/internal/importer"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

// CashInput is one manual cash movement.
type CashInput = importer.CashEntry

// AddCash records a user-entered cash movement. The user's own type and
// category win over the classifier, so the row is stored USER_CONFIRMED.
func (s *Service) AddCash(ctx context.Context, in CashInput) (model.MasterRow, error) {
	if strings.TrimSpace(in.Description) == "" {
		return model.MasterRow{}, invalid("description", "is required")
	}
	if in.Amount == 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return model.MasterRow{}, invalid("amount", "must be a non-zero number")
	}
	if in.Type != nil && !in.Type.Valid() {
		return model.MasterRow{}, invalid("type", "unknown transaction type %q", *in.Type)
	}
	if m := model.Deref(in.Macro); m != "" && !s.taxonomy.Exists(m) {
		return model.MasterRow{}, invalid("macro", "unknown category %q", m)
	}

	row, err := importer.ParseCash(in, s.now())
	if err != nil {
		return model.MasterRow{}, wrapValidation(err)
	}
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return model.MasterRow{}, fmt.Errorf("loading rules: %w", err)
	}
	c := s.classifier.Classify(row, rules)
	if in.Type != nil {
		c.Type = *in.Type
	}
	if row.Macro != nil {
		c.Macro = row.Macro
	}
	if row.Subcat != nil {
		c.Subcat = row.Subcat
	}
	c.ReviewStatus = model.StatusUserConfirmed
	c.Confidence = 1

	tx := s.buildMaster(row, id.CashBatchID, c)
	if macro := model.Deref(tx.Macro); s.taxonomy.RequiresNote(macro) && strings.TrimSpace(model.Deref(tx.Note)) == "" {
		return model.MasterRow{}, invalid("note", "la macro '%s' requiere nota", macro)
	}

	err = s.store.EnsureImportBatch(ctx, model.ImportBatch{
		ID:        id.CashBatchID,
		FileName:  id.CashBatchID,
		Source:    model.SourceCash,
		Status:    model.BatchDone,
		StartedAt: s.timestamp(),
	})
	if err != nil {
		return model.MasterRow{}, fmt.Errorf("ensuring cash batch: %w", err)
	}
	n, err := s.store.InsertTransactions(ctx, []model.MasterRow{tx})
	if err != nil {
		return model.MasterRow{}, fmt.Errorf("inserting cash row: %w", err)
	}
	if n == 0 {
		return model.MasterRow{}, invalid("tx_id", "duplicate cash movement %s", tx.TxID)
	}
	if err := s.store.IncrementImportedRows(ctx, id.CashBatchID, n); err != nil {
		return model.MasterRow{}, fmt.Errorf("updating cash batch: %w", err)
	}
	s.log.Info().Str("tx_id", tx.TxID).Str("month", tx.Month).Msg("cash movement added")
	return tx, nil
}

// Confirm applies the user's corrections to a transaction and marks it
// USER_CONFIRMED.
func (s *Service) Confirm(ctx context.Context, txID string, patch store.TransactionPatch) (model.MasterRow, error) {
	if strings.TrimSpace(txID) == "" {
		return model.MasterRow{}, invalid("tx_id", "is required")
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return model.MasterRow{}, invalid("type", "unknown transaction type %q", *patch.Type)
	}

	current, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return model.MasterRow{}, fmt.Errorf("loading %s: %w", txID, err)
	}
	preview := current.Clone()
	patch.Apply(&preview)
	macro := model.Deref(preview.Macro)
	if patch.Macro != nil && macro != "" && !s.taxonomy.Exists(macro) {
		return model.MasterRow{}, invalid("macro", "unknown category %q", macro)
	}
	if s.taxonomy.RequiresNote(macro) && strings.TrimSpace(model.Deref(preview.Note)) == "" {
		return model.MasterRow{}, invalid("note", "la macro '%s' requiere nota obligatoria", macro)
	}

	confirmed := model.StatusUserConfirmed
	patch.ReviewStatus = &confirmed
	patch.UpdatedAt = s.timestamp()
	row, err := s.store.UpdateTransaction(ctx, txID, patch)
	if err != nil {
		return model.MasterRow{}, fmt.Errorf("confirming %s: %w", txID, err)
	}
	s.log.Info().Str("tx_id", txID).Str("macro", macro).Msg("transaction confirmed")
	return row, nil
}

// month returns month or the current month when empty, validating the format.
func (s *Service) month(month string) (string, error) {
	if month == "" {
		return normalize.Month(normalize.FormatDate(s.now())), nil
	}
	if _, err := normalize.ParseMonth(month); err != nil {
		return "", invalid("month", "must be YYYY-MM, got %q", month)
	}
	return month, nil
}
