// Package health audits a parsed batch and produces findings that are
// persisted alongside it.
package health

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/SamuelPereira26/Finhouse/internal/accounts"
	"github.com/SamuelPereira26/Finhouse/internal/config"
	"github.com/SamuelPereira26/Finhouse/internal/id"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// Check names as stored in HealthRow.Check.
const (
	CheckRowCount          = "checkRowCount"
	CheckColumnRecognition = "checkColumnRecognition"
	CheckDateRange         = "checkDateRange"
	CheckDuplicates        = "checkDuplicates"
	CheckAmounts           = "checkAmounts"
)

const (
	minRows          = 5
	maxDuplicateIDs  = 5
	defaultRecentCap = 20
)

// Checker runs the batch audits.
type Checker struct {
	cfg      config.HealthConfig
	accounts *accounts.Service
	Now      func() time.Time
}

// NewChecker returns a Checker using the wall clock.
func NewChecker(cfg config.HealthConfig, accts *accounts.Service) *Checker {
	return &Checker{cfg: cfg, accounts: accts, Now: time.Now}
}

// NewFinding builds one HealthRow with a fresh check id.
func NewFinding(batchID string, level model.HealthLevel, check, details string, now time.Time) model.HealthRow {
	return model.HealthRow{
		CheckID:   id.NewCheckID(),
		BatchID:   model.Str(batchID),
		Level:     level,
		Check:     check,
		Details:   details,
		CreatedAt: now.UTC().Format(time.RFC3339Nano),
	}
}

func (c *Checker) finding(batchID string, level model.HealthLevel, check, details string) model.HealthRow {
	return NewFinding(batchID, level, check, details, c.Now())
}

// RowCount reports empty and suspiciously small batches.
func (c *Checker) RowCount(batchID string, rows []model.ParsedRow) []model.HealthRow {
	switch n := len(rows); {
	case n == 0:
		return []model.HealthRow{c.finding(batchID, model.LevelError, CheckRowCount, "El archivo no contiene filas parseables")}
	case n < minRows:
		return []model.HealthRow{c.finding(batchID, model.LevelWarning, CheckRowCount, fmt.Sprintf("Importacion con pocas filas (%d)", n))}
	default:
		return []model.HealthRow{c.finding(batchID, model.LevelInfo, CheckRowCount, fmt.Sprintf("%d filas detectadas", n))}
	}
}

// ColumnRecognition records which source layout was recognized.
func (c *Checker) ColumnRecognition(batchID string, info model.SourceInfo) []model.HealthRow {
	return []model.HealthRow{c.finding(batchID, model.LevelInfo, CheckColumnRecognition, fmt.Sprintf("Columnas reconocidas para %s", info.Source))}
}

// DateRange warns about rows dated too far in the future or the past.
func (c *Checker) DateRange(batchID string, rows []model.ParsedRow) []model.HealthRow {
	now := c.Now()
	today := normalize.FormatDate(now)
	pastLimit := normalize.FormatDate(now.AddDate(0, -c.cfg.MaxPastMonths, 0))

	var out []model.HealthRow
	for _, row := range rows {
		if row.Date > today && normalize.DaysDifference(row.Date, today) > c.cfg.MaxFutureDays {
			out = append(out, c.finding(batchID, model.LevelWarning, CheckDateRange,
				fmt.Sprintf("Fecha futura sospechosa en %s: %s", row.SourceRowID, row.Date)))
		}
		if row.Date < pastLimit {
			out = append(out, c.finding(batchID, model.LevelWarning, CheckDateRange,
				fmt.Sprintf("Fecha demasiado antigua en %s: %s", row.SourceRowID, row.Date)))
		}
	}
	if len(out) == 0 {
		out = append(out, c.finding(batchID, model.LevelInfo, CheckDateRange, "Rango de fechas correcto"))
	}
	return out
}

// Duplicates recomputes each row's transaction id and counts ids seen earlier
// in the batch or already stored.
func (c *Checker) Duplicates(batchID string, rows []model.ParsedRow, existing map[string]bool) []model.HealthRow {
	seen := make(map[string]bool, len(rows))
	var dupIDs []string
	dupSet := make(map[string]bool)
	count := 0

	for _, row := range rows {
		txID := id.TxID(string(row.Source), row.Date, row.Amount, row.Description, c.last4(row.AccountID))
		if seen[txID] || existing[txID] {
			count++
			if !dupSet[txID] {
				dupSet[txID] = true
				dupIDs = append(dupIDs, txID)
			}
		}
		seen[txID] = true
	}

	if count > 0 {
		if len(dupIDs) > maxDuplicateIDs {
			dupIDs = dupIDs[:maxDuplicateIDs]
		}
		return []model.HealthRow{c.finding(batchID, model.LevelWarning, CheckDuplicates,
			fmt.Sprintf("Posibles duplicados detectados: %d (%s)", count, strings.Join(dupIDs, ", ")))}
	}
	return []model.HealthRow{c.finding(batchID, model.LevelInfo, CheckDuplicates, "No se detectaron duplicados")}
}

func (c *Checker) last4(accountID string) string {
	if c.accounts == nil {
		return accounts.UnknownLast4
	}
	return c.accounts.Last4(accountID)
}

// Amounts reports non-finite and zero amounts.
func (c *Checker) Amounts(batchID string, rows []model.ParsedRow) []model.HealthRow {
	invalid, zeros := 0, 0
	for _, row := range rows {
		if math.IsNaN(row.Amount) || math.IsInf(row.Amount, 0) {
			invalid++
		}
		if row.Amount == 0 {
			zeros++
		}
	}

	var out []model.HealthRow
	if invalid > 0 {
		out = append(out, c.finding(batchID, model.LevelError, CheckAmounts, fmt.Sprintf("%d filas con importe invalido", invalid)))
	}
	if zeros > 0 {
		out = append(out, c.finding(batchID, model.LevelWarning, CheckAmounts, fmt.Sprintf("%d filas con importe cero", zeros)))
	}
	if len(out) == 0 {
		out = append(out, c.finding(batchID, model.LevelInfo, CheckAmounts, "Importes validos"))
	}
	return out
}

// Run executes every audit in order.
func (c *Checker) Run(batchID string, rows []model.ParsedRow, info model.SourceInfo, existing map[string]bool) []model.HealthRow {
	var out []model.HealthRow
	out = append(out, c.RowCount(batchID, rows)...)
	out = append(out, c.ColumnRecognition(batchID, info)...)
	out = append(out, c.DateRange(batchID, rows)...)
	out = append(out, c.Duplicates(batchID, rows, existing)...)
	out = append(out, c.Amounts(batchID, rows)...)
	return out
}

// Summary counts findings per level.
type Summary struct {
	Total    int `json:"total"`
	Info     int `json:"info"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// Summarize counts findings per level; unknown levels count as info.
func Summarize(rows []model.HealthRow) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		switch r.Level {
		case model.LevelError:
			s.Errors++
		case model.LevelWarning:
			s.Warnings++
		default:
			s.Info++
		}
	}
	return s
}

// Warnings returns the findings at WARNING or ERROR level.
func Warnings(rows []model.HealthRow) []model.HealthRow {
	var out []model.HealthRow
	for _, r := range rows {
		if r.Level == model.LevelWarning || r.Level == model.LevelError {
			out = append(out, r)
		}
	}
	return out
}

// Recent returns up to limit findings, newest first. A limit of zero or less
// uses the default of 20.
func Recent(rows []model.HealthRow, limit int) []model.HealthRow {
	if limit <= 0 {
		limit = defaultRecentCap
	}
	out := append([]model.HealthRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
