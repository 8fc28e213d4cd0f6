// Package memstore is an in-process Store that can persist itself as a JSON
// snapshot between CLI invocations.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

// Store keeps every table in memory. The zero value is not usable; call New.
type Store struct {
	mu sync.RWMutex

	batches    map[string]model.ImportBatch
	batchOrder []string
	staging    []model.StagingRow
	txs        map[string]model.MasterRow
	txOrder    []string
	rules      map[string]model.Rule
	ruleOrder  []string
	health     []model.HealthRow
	processed  map[string]bool
	budgets    map[string]model.Budget
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		batches:   make(map[string]model.ImportBatch),
		txs:       make(map[string]model.MasterRow),
		rules:     make(map[string]model.Rule),
		processed: make(map[string]bool),
		budgets:   make(map[string]model.Budget),
	}
}

func budgetKey(month, macro string) string {
	return month + "|" + macro
}

func (s *Store) CreateImportBatch(_ context.Context, batch model.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.ID]; ok {
		return fmt.Errorf("import batch %s already exists", batch.ID)
	}
	s.batches[batch.ID] = batch
	s.batchOrder = append(s.batchOrder, batch.ID)
	return nil
}

func (s *Store) UpdateImportBatch(_ context.Context, id string, patch model.BatchPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return fmt.Errorf("import batch %s: %w", id, store.ErrNotFound)
	}
	store.ApplyBatchPatch(&b, patch)
	s.batches[id] = b
	return nil
}

func (s *Store) GetImportBatch(_ context.Context, id string) (model.ImportBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return model.ImportBatch{}, fmt.Errorf("import batch %s: %w", id, store.ErrNotFound)
	}
	return b, nil
}

// ListImportBatches returns up to limit batches, most recently started first.
func (s *Store) ListImportBatches(_ context.Context, limit int) ([]model.ImportBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ImportBatch, 0, len(s.batchOrder))
	for i := len(s.batchOrder) - 1; i >= 0; i-- {
		out = append(out, s.batches[s.batchOrder[i]])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) EnsureImportBatch(_ context.Context, batch model.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.ID]; ok {
		return nil
	}
	s.batches[batch.ID] = batch
	s.batchOrder = append(s.batchOrder, batch.ID)
	return nil
}

func (s *Store) IncrementImportedRows(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return fmt.Errorf("import batch %s: %w", id, store.ErrNotFound)
	}
	b.RowsImported += delta
	s.batches[id] = b
	return nil
}

func (s *Store) InsertStagingRows(_ context.Context, rows []model.StagingRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging = append(s.staging, rows...)
	return nil
}

// StagingRows returns a copy of every staged row.
func (s *Store) StagingRows() []model.StagingRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.StagingRow(nil), s.staging...)
}

func (s *Store) ExistingTxIDs(_ context.Context) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.txs))
	for id := range s.txs {
		out[id] = true
	}
	return out, nil
}

func (s *Store) InsertTransactions(_ context.Context, rows []model.MasterRow) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range rows {
		if _, ok := s.txs[r.TxID]; ok {
			continue
		}
		s.txs[r.TxID] = r.Clone()
		s.txOrder = append(s.txOrder, r.TxID)
		n++
	}
	return n, nil
}

func (s *Store) UpdateTransactions(_ context.Context, rows []model.MasterRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		if _, ok := s.txs[r.TxID]; !ok {
			return fmt.Errorf("transaction %s: %w", r.TxID, store.ErrNotFound)
		}
		s.txs[r.TxID] = r.Clone()
	}
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txID string) (model.MasterRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.txs[txID]
	if !ok {
		return model.MasterRow{}, fmt.Errorf("transaction %s: %w", txID, store.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *Store) TransactionsByBatch(_ context.Context, batchID string) ([]model.MasterRow, error) {
	return s.collect(func(r model.MasterRow) bool { return r.ImportBatchID == batchID }), nil
}

func (s *Store) UpdateTransaction(_ context.Context, txID string, patch store.TransactionPatch) (model.MasterRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.txs[txID]
	if !ok {
		return model.MasterRow{}, fmt.Errorf("transaction %s: %w", txID, store.ErrNotFound)
	}
	patch.Apply(&r)
	s.txs[txID] = r
	return r.Clone(), nil
}

func (s *Store) PendingTransactions(_ context.Context) ([]model.MasterRow, error) {
	rows := s.collect(func(r model.MasterRow) bool { return r.ReviewStatus.Pending() })
	store.SortByDateDesc(rows)
	return rows, nil
}

func (s *Store) QueryTransactions(_ context.Context, filter store.TransactionFilter) (store.Page, error) {
	return store.Paginate(s.collect(nil), filter), nil
}

// collect returns clones of the rows accepted by keep, in insertion order.
func (s *Store) collect(keep func(model.MasterRow) bool) []model.MasterRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MasterRow, 0, len(s.txOrder))
	for _, id := range s.txOrder {
		r := s.txs[id]
		if keep == nil || keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *Store) ListRules(_ context.Context) ([]model.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Rule, 0, len(s.ruleOrder))
	for _, id := range s.ruleOrder {
		out = append(out, s.rules[id])
	}
	return out, nil
}

func (s *Store) UpsertRule(_ context.Context, rule model.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.ID]; !ok {
		s.ruleOrder = append(s.ruleOrder, rule.ID)
	}
	s.rules[rule.ID] = rule
	return nil
}

func (s *Store) InsertHealthRows(_ context.Context, rows []model.HealthRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = append(s.health, rows...)
	return nil
}

// RecentHealth returns the last limit findings, newest first.
func (s *Store) RecentHealth(_ context.Context, limit int) ([]model.HealthRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.health) > limit {
		start = len(s.health) - limit
	}
	out := make([]model.HealthRow, 0, len(s.health)-start)
	for i := len(s.health) - 1; i >= start; i-- {
		out = append(out, s.health[i])
	}
	return out, nil
}

func (s *Store) IsFileProcessed(_ context.Context, fileID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processed[fileID], nil
}

func (s *Store) MarkFileProcessed(_ context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[fileID] = true
	return nil
}

func (s *Store) Budgets(_ context.Context, month string) ([]model.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Budget
	for _, b := range s.budgets {
		if b.Month == month {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Macro < out[j].Macro })
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, budget model.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[budgetKey(budget.Month, budget.Macro)] = budget
	return nil
}

// snapshot is the on-disk JSON layout.
type snapshot struct {
	Batches      []model.ImportBatch `json:"imports"`
	Staging      []model.StagingRow  `json:"staging_rows"`
	Transactions []model.MasterRow   `json:"master"`
	Rules        []model.Rule        `json:"rules"`
	Health       []model.HealthRow   `json:"health"`
	Processed    []string            `json:"processed_files"`
	Budgets      []model.Budget      `json:"budgets"`
}

// Load reads a snapshot written by Save. A missing file yields an empty Store.
func Load(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	for _, b := range snap.Batches {
		s.batches[b.ID] = b
		s.batchOrder = append(s.batchOrder, b.ID)
	}
	s.staging = snap.Staging
	for _, r := range snap.Transactions {
		if r.Tags == nil {
			r.Tags = []string{}
		}
		s.txs[r.TxID] = r
		s.txOrder = append(s.txOrder, r.TxID)
	}
	for _, r := range snap.Rules {
		s.rules[r.ID] = r
		s.ruleOrder = append(s.ruleOrder, r.ID)
	}
	s.health = snap.Health
	for _, id := range snap.Processed {
		s.processed[id] = true
	}
	for _, b := range snap.Budgets {
		s.budgets[budgetKey(b.Month, b.Macro)] = b
	}
	return s, nil
}

// Save writes the Store to path atomically, creating parent directories.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	snap := snapshot{
		Staging: s.staging,
		Health:  s.health,
	}
	for _, id := range s.batchOrder {
		snap.Batches = append(snap.Batches, s.batches[id])
	}
	for _, id := range s.txOrder {
		snap.Transactions = append(snap.Transactions, s.txs[id])
	}
	for _, id := range s.ruleOrder {
		snap.Rules = append(snap.Rules, s.rules[id])
	}
	for id := range s.processed {
		snap.Processed = append(snap.Processed, id)
	}
	for _, b := range s.budgets {
		snap.Budgets = append(snap.Budgets, b)
	}
	s.mu.RUnlock()

	sort.Strings(snap.Processed)
	sort.Slice(snap.Budgets, func(i, j int) bool {
		return budgetKey(snap.Budgets[i].Month, snap.Budgets[i].Macro) < budgetKey(snap.Budgets[j].Month, snap.Budgets[j].Macro)
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
