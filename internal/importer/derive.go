package importer

import (
	"regexp"
	"strings"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

var (
	noiseTokens = regexp.MustCompile(`\b(POS|TPV|CARD|TARJETA|TRF|TRANSFER|BIZUM)\b`)
	digitRuns   = regexp.MustCompile(`\b\d{2,}\b`)
)

// counterpartyFallbackLen caps the fallback counterparty.
const counterpartyFallbackLen = 80

// ExtractCounterparty strips payment noise and long digit runs from a
// description, falling back to the cleaned description when nothing is left.
func ExtractCounterparty(description string) string {
	clean := normalize.CleanText(description)
	stripped := noiseTokens.ReplaceAllString(clean, "")
	stripped = digitRuns.ReplaceAllString(stripped, "")
	stripped = strings.Join(strings.Fields(stripped), " ")
	if stripped != "" {
		return stripped
	}
	return normalize.Truncate(clean, counterpartyFallbackLen)
}

// DetectPaymentMethod infers how money moved from keywords in a description.
func DetectPaymentMethod(description string) model.PaymentMethod {
	s := normalize.CleanText(description)
	switch {
	case strings.Contains(s, "BIZUM"):
		return model.MethodBizum
	case strings.Contains(s, "TRANSFER"), strings.Contains(s, "TRF"):
		return model.MethodTransfer
	case strings.Contains(s, "CASH"), strings.Contains(s, "EFECTIVO"):
		return model.MethodCash
	}
	return model.MethodCard
}

// MapRevolutType maps Revolut's Type column, falling back to the amount sign.
func MapRevolutType(revolutType string, amount float64) model.TransactionType {
	s := normalize.CleanText(revolutType)
	switch {
	case strings.Contains(s, "TRANSFER"):
		return model.TypeTransfer
	case strings.Contains(s, "CARD_PAYMENT"):
		return model.TypeExpense
	}
	return TypeBySign(amount)
}

// TypeBySign treats non-negative amounts as income.
func TypeBySign(amount float64) model.TransactionType {
	if amount >= 0 {
		return model.TypeIncome
	}
	return model.TypeExpense
}

func trimCell(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}
