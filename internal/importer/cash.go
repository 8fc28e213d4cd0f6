package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/SamuelPereira26/Finhouse/internal/accounts"
	"github.com/SamuelPereira26/Finhouse/internal/id"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// CashEntry is one manual cash movement typed in by the user.
type CashEntry struct {
	Date                string                 `json:"date"`
	Amount              float64                `json:"amount"`
	Description         string                 `json:"description"`
	Type                *model.TransactionType `json:"type,omitempty"`
	Macro               *string                `json:"macro,omitempty"`
	Subcat              *string                `json:"subcat,omitempty"`
	Note                *string                `json:"note,omitempty"`
	Counterparty        *string                `json:"counterparty,omitempty"`
	ReimbursementTarget *string                `json:"reimbursement_target,omitempty"`
}

// ParseCash wraps a cash entry into a ParsedRow. Type, macro and subcat may
// be given by the caller; otherwise they are left for the classifier.
func ParseCash(entry CashEntry, now time.Time) (model.ParsedRow, error) {
	date := normalize.FormatDate(now)
	if strings.TrimSpace(entry.Date) != "" {
		parsed, err := normalize.ParseDate(entry.Date)
		if err != nil {
			return model.ParsedRow{}, fmt.Errorf("parsing cash date: %w", err)
		}
		date = parsed
	}

	desc := strings.TrimSpace(entry.Description)
	counterparty := ExtractCounterparty(desc)
	if entry.Counterparty != nil && strings.TrimSpace(*entry.Counterparty) != "" {
		counterparty = strings.TrimSpace(*entry.Counterparty)
	}

	txType := TypeBySign(entry.Amount)
	if entry.Type != nil {
		txType = *entry.Type
	}

	return model.ParsedRow{
		Source:                   model.SourceCash,
		SourceRowID:              id.CashRowID(now),
		AccountID:                accounts.Cash,
		Date:                     date,
		Amount:                   entry.Amount,
		Currency:                 "EUR",
		Description:              desc,
		Counterparty:             counterparty,
		PaymentMethod:            model.MethodCash,
		Type:                     txType,
		Macro:                    nonEmpty(entry.Macro),
		Subcat:                   nonEmpty(entry.Subcat),
		Note:                     nonEmpty(entry.Note),
		ReimbursementTargetMacro: nonEmpty(entry.ReimbursementTarget),
	}, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	return model.Str(strings.TrimSpace(*s))
}
