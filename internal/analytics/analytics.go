// Package analytics aggregates a month of transactions into the figures
// shown on the dashboard and in chat summaries.
package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/taxonomy"
)

// MacroTotal is the signed sum of one macro.
type MacroTotal struct {
	Macro  string  `json:"macro"`
	Amount float64 `json:"amount"`
}

// TrendPoint is the running balance after one transaction.
type TrendPoint struct {
	Date    string  `json:"date"`
	Balance float64 `json:"balance"`
}

// Summary is the month-level breakdown.
type Summary struct {
	Month         string       `json:"month"`
	Income        float64      `json:"income"`
	LifeExpense   float64      `json:"lifeExpense"`
	Available     float64      `json:"available"`
	Contributions float64      `json:"contributions"`
	Donations     float64      `json:"donations"`
	ByMacro       []MacroTotal `json:"byMacro"`
	Trend         []TrendPoint `json:"trend"`
}

// Summarize aggregates rows for month. Rows are expected to exclude internal
// transfers. offset seeds the running balance of the trend.
func Summarize(month string, rows []model.MasterRow, tax *taxonomy.Taxonomy, offset float64) Summary {
	var income, life, contributions, donations decimal.Decimal
	byMacro := make(map[string]decimal.Decimal)

	for _, tx := range rows {
		amount := decimal.NewFromFloat(tx.Amount)
		abs := amount.Abs()
		macro := model.Deref(tx.Macro)

		if tx.Type == model.TypeIncome {
			income = income.Add(amount)
		}
		if tx.Type == model.TypeExpense && macro != "" && macro != taxonomy.Leisure {
			life = life.Add(abs)
		}
		switch macro {
		case taxonomy.Contributions:
			contributions = contributions.Add(abs)
		case taxonomy.Donations:
			donations = donations.Add(abs)
		}
		if macro != "" {
			byMacro[macro] = byMacro[macro].Add(amount)
		}
	}

	var order []string
	if tax != nil {
		order = tax.Order()
	}
	totals := make([]MacroTotal, 0, len(order))
	for _, macro := range order {
		totals = append(totals, MacroTotal{Macro: macro, Amount: byMacro[macro].InexactFloat64()})
	}

	return Summary{
		Month:         month,
		Income:        income.InexactFloat64(),
		LifeExpense:   life.InexactFloat64(),
		Available:     income.Sub(life).Sub(contributions).Sub(donations).InexactFloat64(),
		Contributions: contributions.InexactFloat64(),
		Donations:     donations.InexactFloat64(),
		ByMacro:       totals,
		Trend:         Trend(rows, offset),
	}
}

// Trend sorts rows by date and accumulates a running balance from offset.
func Trend(rows []model.MasterRow, offset float64) []TrendPoint {
	sorted := append([]model.MasterRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	running := decimal.NewFromFloat(offset)
	out := make([]TrendPoint, 0, len(sorted))
	for _, tx := range sorted {
		running = running.Add(decimal.NewFromFloat(tx.Amount))
		out = append(out, TrendPoint{Date: tx.Date, Balance: running.InexactFloat64()})
	}
	return out
}

// MacroAmount returns the by-macro total for macro, or 0.
func (s Summary) MacroAmount(macro string) float64 {
	for _, m := range s.ByMacro {
		if m.Macro == macro {
			return m.Amount
		}
	}
	return 0
}

// Comparison holds two consecutive months.
type Comparison struct {
	Current  Summary `json:"current"`
	Previous Summary `json:"previous"`
	Delta    float64 `json:"delta"` // change in available
}

// Compare builds a month-over-month comparison.
func Compare(current, previous Summary) Comparison {
	delta := decimal.NewFromFloat(current.Available).Sub(decimal.NewFromFloat(previous.Available))
	return Comparison{Current: current, Previous: previous, Delta: delta.InexactFloat64()}
}

// BudgetLine is budget versus spend for one macro.
type BudgetLine struct {
	Macro    string  `json:"macro"`
	Spent    float64 `json:"spent"`
	Budget   float64 `json:"budget"`
	Ratio    float64 `json:"ratio"`
	Alert75  bool    `json:"alert75"`
	Alert100 bool    `json:"alert100"`
}

// BudgetProgress compares each budget with the month's spend on its macro.
// Alerts fire only when the budget row enables them.
func BudgetProgress(budgets []model.Budget, s Summary) []BudgetLine {
	out := make([]BudgetLine, 0, len(budgets))
	for _, b := range budgets {
		spent := math.Abs(s.MacroAmount(b.Macro))
		ratio := 0.0
		if b.Amount > 0 {
			ratio = decimal.NewFromFloat(spent).Div(decimal.NewFromFloat(b.Amount)).InexactFloat64()
		}
		out = append(out, BudgetLine{
			Macro:    b.Macro,
			Spent:    spent,
			Budget:   b.Amount,
			Ratio:    ratio,
			Alert75:  b.Alert75 && ratio >= 0.75,
			Alert100: b.Alert100 && ratio >= 1,
		})
	}
	return out
}

// PendingCounts counts rows still waiting for the user.
type PendingCounts struct {
	Total       int `json:"total"`
	NeedsReview int `json:"needs_review"`
	Suggested   int `json:"sugerido"`
}

// CountPending tallies NEEDS_REVIEW and SUGERIDO rows; other statuses are
// ignored.
func CountPending(rows []model.MasterRow) PendingCounts {
	var c PendingCounts
	for _, r := range rows {
		switch r.ReviewStatus {
		case model.StatusNeedsReview:
			c.NeedsReview++
		case model.StatusSuggested:
			c.Suggested++
		default:
			continue
		}
		c.Total++
	}
	return c
}

// DonationStatus is the month's donations against the donations budget.
type DonationStatus struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
	Target float64 `json:"target"`
}

// Donations reads the donation total from s and the target from the
// donations budget, if one exists.
func Donations(s Summary, budgets []model.Budget) DonationStatus {
	out := DonationStatus{Month: s.Month, Amount: s.Donations}
	for _, b := range budgets {
		if b.Macro == taxonomy.Donations {
			out.Target = b.Amount
		}
	}
	return out
}
