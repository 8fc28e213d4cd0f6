package ledger

import (
	"fmt"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// ValidationError describes one bad row in a month export.
type ValidationError struct {
	TxID        string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s]: %s", e.TxID, e.Description)
}

// ValidateRows checks that rows form a consistent export of month: unique
// ids, dates inside the month, and known type and review status.
func ValidateRows(rows []model.MasterRow, month string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.TxID == "" {
			errs = append(errs, ValidationError{Description: "missing tx_id"})
			continue
		}
		if seen[r.TxID] {
			errs = append(errs, ValidationError{TxID: r.TxID, Description: "duplicate tx_id"})
		}
		seen[r.TxID] = true

		if got := normalize.Month(r.Date); got != month || r.Month != month {
			errs = append(errs, ValidationError{TxID: r.TxID, Description: fmt.Sprintf("date %s outside month %s", r.Date, month)})
		}
		if !r.Type.Valid() {
			errs = append(errs, ValidationError{TxID: r.TxID, Description: fmt.Sprintf("unknown type %q", r.Type)})
		}
		if !r.ReviewStatus.Valid() {
			errs = append(errs, ValidationError{TxID: r.TxID, Description: fmt.Sprintf("unknown review status %q", r.ReviewStatus)})
		}
	}
	return errs
}
