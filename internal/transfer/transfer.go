// Package transfer finds the two legs of money moved between the
// household's own accounts and flags bank balance-check entries.
package transfer

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// DefaultWindowDays is the matching window when none is configured.
const DefaultWindowDays = 3

// Reason explains why the heuristic pass paired two rows.
type Reason string

const (
	ReasonText      Reason = "text_transfer"
	ReasonBizum     Reason = "text_bizum"
	ReasonAmountDay Reason = "amount_and_window"
)

var (
	transferNoise = regexp.MustCompile(`\b(SEPA|TRF|TRANSFER|TRANSFERENCIA|BIZUM|INSTANT)\b`)
	tolerance     = decimal.RequireFromString("0.01")

	blacklist = []string{"NOMINA", "SALARIO", "AMAZON", "BIZUM RECIBIDO"}
)

const saldoKeyword = "SALDO"

// Pair holds the indices of two matched rows.
type Pair struct {
	A, B int
}

// Detector runs the three transfer passes with one matching window.
type Detector struct {
	WindowDays int
}

// NewDetector returns a Detector; a negative window falls back to the default.
func NewDetector(windowDays int) *Detector {
	if windowDays < 0 {
		windowDays = DefaultWindowDays
	}
	return &Detector{WindowDays: windowDays}
}

// NormalizeText cleans s and drops payment-rail tokens.
func NormalizeText(s string) string {
	t := transferNoise.ReplaceAllString(normalize.CleanText(s), "")
	return strings.Join(strings.Fields(t), " ")
}

// IsBlacklisted reports rows that must never pair: payroll, known merchants
// and received instant payments. The check runs on normalized text.
func IsBlacklisted(tx model.MasterRow) bool {
	text := NormalizeText(tx.Description)
	for _, kw := range blacklist {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// IsSaldo reports bank balance-check entries.
func IsSaldo(tx model.MasterRow) bool {
	return strings.Contains(NormalizeText(tx.Description), saldoKeyword)
}

func amountsMatch(a, b model.MasterRow) bool {
	diff := decimal.NewFromFloat(math.Abs(a.Amount)).Sub(decimal.NewFromFloat(math.Abs(b.Amount))).Abs()
	return diff.LessThanOrEqual(tolerance)
}

func sameAccount(a, b model.MasterRow) bool {
	return a.AccountID != "" && b.AccountID != "" && a.AccountID == b.AccountID
}

func currency(tx model.MasterRow) string {
	if tx.Currency == "" {
		return "EUR"
	}
	return tx.Currency
}

func oppositeSign(a, b model.MasterRow) bool {
	return (a.Amount > 0 && b.Amount < 0) || (a.Amount < 0 && b.Amount > 0)
}

// FindHardPairs greedily pairs rows in input order: each unmatched anchor
// takes the first later row on another account, in the same currency, with
// opposite sign, matching amount and inside the window. Rows already flagged
// as internal are ignored.
func (d *Detector) FindHardPairs(txs []model.MasterRow) []Pair {
	var pairs []Pair
	used := make(map[int]bool)

	for i := range txs {
		a := txs[i]
		if used[i] || a.IsInternalTransfer {
			continue
		}
		for j := i + 1; j < len(txs); j++ {
			b := txs[j]
			if used[j] || b.IsInternalTransfer {
				continue
			}
			if sameAccount(a, b) || currency(a) != currency(b) || !oppositeSign(a, b) {
				continue
			}
			if !amountsMatch(a, b) || normalize.DaysDifference(a.Date, b.Date) > d.WindowDays {
				continue
			}
			used[i], used[j] = true, true
			pairs = append(pairs, Pair{A: i, B: j})
			break
		}
	}
	return pairs
}

// MarkPair flags a and b as the two legs of one internal transfer.
func MarkPair(a, b *model.MasterRow) {
	markInternal(a)
	markInternal(b)
}

func markInternal(tx *model.MasterRow) {
	tx.Type = model.TypeTransfer
	tx.Macro = nil
	tx.Subcat = nil
	tx.IsInternalTransfer = true
	tx.ReviewStatus = model.StatusAutoOK
	tx.AddTag(model.TagInternalTransfer)
}

// HeuristicReason returns why a and b look like the legs of one transfer.
// Unlike the exact pass it does not look at sign or currency.
func (d *Detector) HeuristicReason(a, b model.MasterRow) (Reason, bool) {
	if IsBlacklisted(a) || IsBlacklisted(b) {
		return "", false
	}
	if sameAccount(a, b) || !amountsMatch(a, b) {
		return "", false
	}

	aText, bText := NormalizeText(a.Description), NormalizeText(b.Description)
	switch {
	case strings.Contains(aText, "TRANSFER") || strings.Contains(bText, "TRANSFER"):
		return ReasonText, true
	case strings.Contains(aText, "BIZUM") || strings.Contains(bText, "BIZUM"):
		return ReasonBizum, true
	case normalize.DaysDifference(a.Date, b.Date) <= d.WindowDays:
		return ReasonAmountDay, true
	}
	return "", false
}

// MarkInternalHeuristic scans every pair of not-yet-internal rows once and
// marks the first qualifying partner of each row. txs is modified in place.
func (d *Detector) MarkInternalHeuristic(txs []model.MasterRow) {
	for i := range txs {
		for j := i + 1; j < len(txs); j++ {
			if txs[i].IsInternalTransfer || txs[j].IsInternalTransfer {
				continue
			}
			if _, ok := d.HeuristicReason(txs[i], txs[j]); !ok {
				continue
			}
			MarkPair(&txs[i], &txs[j])
		}
	}
}

// MarkSaldo tags balance-check rows. txs is modified in place.
func MarkSaldo(txs []model.MasterRow) {
	for i := range txs {
		if IsSaldo(txs[i]) {
			txs[i].AddTag(model.TagCheckSaldo)
		}
	}
}

// Run applies the exact, heuristic and balance-check passes to a copy of txs
// and returns it. The input is left untouched so callers can diff.
func (d *Detector) Run(txs []model.MasterRow) []model.MasterRow {
	out := make([]model.MasterRow, len(txs))
	for i, tx := range txs {
		out[i] = tx.Clone()
		if out[i].Tags == nil {
			out[i].Tags = []string{}
		}
	}

	for _, p := range d.FindHardPairs(out) {
		MarkPair(&out[p.A], &out[p.B])
	}
	d.MarkInternalHeuristic(out)
	MarkSaldo(out)
	return out
}

// Summary counts the tags produced by a run.
type Summary struct {
	Total    int `json:"total"`
	Internal int `json:"internal"`
	Saldo    int `json:"saldo"`
}

// Summarize counts internal-transfer and balance-check rows.
func Summarize(txs []model.MasterRow) Summary {
	s := Summary{Total: len(txs)}
	for _, tx := range txs {
		if tx.HasTag(model.TagInternalTransfer) {
			s.Internal++
		}
		if tx.HasTag(model.TagCheckSaldo) {
			s.Saldo++
		}
	}
	return s
}

// GroupBySource groups internal-transfer rows by their source.
func GroupBySource(txs []model.MasterRow) map[model.Source][]model.MasterRow {
	out := make(map[model.Source][]model.MasterRow)
	for _, tx := range txs {
		if tx.HasTag(model.TagInternalTransfer) {
			out[tx.Source] = append(out[tx.Source], tx)
		}
	}
	return out
}

// Changed reports whether a run altered any field the detector may touch.
func Changed(before, after model.MasterRow) bool {
	return before.Type != after.Type ||
		before.IsInternalTransfer != after.IsInternalTransfer ||
		before.ReviewStatus != after.ReviewStatus ||
		model.Deref(before.Macro) != model.Deref(after.Macro) ||
		(before.Macro == nil) != (after.Macro == nil) ||
		model.Deref(before.Subcat) != model.Deref(after.Subcat) ||
		(before.Subcat == nil) != (after.Subcat == nil) ||
		before.TagString() != after.TagString()
}

// ChangedRows returns the rows of after that differ from the row at the same
// position in before.
func ChangedRows(before, after []model.MasterRow) []model.MasterRow {
	var out []model.MasterRow
	for i := range after {
		if i >= len(before) || Changed(before[i], after[i]) {
			out = append(out, after[i])
		}
	}
	return out
}
