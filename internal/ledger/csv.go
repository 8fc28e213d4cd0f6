// Package ledger reads and writes transactions.csv, the plain-text monthly
// export of stored transactions.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SamuelPereira26/Finhouse/internal/model"
)

// Header is the CSV header for transactions.csv.
const Header = "tx_id,import_batch_id,source,source_row_id,account_id,date,month,amount,currency,description_raw,counterparty,payment_method,type,macro,subcat,reimbursement_target_macro,income_fixed_or_variable,income_detail,rule_id,user_note,review_status,confidence,is_internal_transfer,tags,created_at,updated_at"

const (
	numFields      = 26
	colTxID        = 0
	colBatch       = 1
	colSource      = 2
	colSourceRow   = 3
	colAccount     = 4
	colDate        = 5
	colMonth       = 6
	colAmount      = 7
	colCurrency    = 8
	colDesc        = 9
	colCparty      = 10
	colMethod      = 11
	colType        = 12
	colMacro       = 13
	colSubcat      = 14
	colReimb       = 15
	colIncomeFixed = 16
	colIncomeDet   = 17
	colRule        = 18
	colNote        = 19
	colStatus      = 20
	colConf        = 21
	colInternal    = 22
	colTags        = 23
	colCreated     = 24
	colUpdated     = 25

	tagSeparator = ";"
)

// ReadRows reads all rows from a transactions.csv reader.
func ReadRows(r io.Reader) ([]model.MasterRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var rows []model.MasterRow
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows to w, header first.
func WriteRows(w io.Writer, rows []model.MasterRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a MasterRow to a CSV record. Amounts are written with
// two decimals; nullable fields become empty cells.
func MarshalRow(row model.MasterRow) []string {
	rec := make([]string, numFields)
	rec[colTxID] = row.TxID
	rec[colBatch] = row.ImportBatchID
	rec[colSource] = string(row.Source)
	rec[colSourceRow] = row.SourceRowID
	rec[colAccount] = row.AccountID
	rec[colDate] = row.Date
	rec[colMonth] = row.Month
	rec[colAmount] = decimal.NewFromFloat(row.Amount).StringFixed(2)
	rec[colCurrency] = row.Currency
	rec[colDesc] = row.Description
	rec[colCparty] = row.Counterparty
	rec[colMethod] = string(row.PaymentMethod)
	rec[colType] = string(row.Type)
	rec[colMacro] = model.Deref(row.Macro)
	rec[colSubcat] = model.Deref(row.Subcat)
	rec[colReimb] = model.Deref(row.ReimbursementTargetMacro)
	rec[colIncomeFixed] = model.Deref(row.IncomeFixedOrVariable)
	rec[colIncomeDet] = model.Deref(row.IncomeDetail)
	rec[colRule] = model.Deref(row.RuleID)
	rec[colNote] = model.Deref(row.Note)
	rec[colStatus] = string(row.ReviewStatus)
	rec[colConf] = decimal.NewFromFloat(row.Confidence).String()
	rec[colInternal] = strconv.FormatBool(row.IsInternalTransfer)
	rec[colTags] = strings.Join(row.Tags, tagSeparator)
	rec[colCreated] = row.CreatedAt
	rec[colUpdated] = row.UpdatedAt
	return rec
}

// UnmarshalRow converts a CSV record to a MasterRow.
func UnmarshalRow(rec []string) (model.MasterRow, error) {
	if len(rec) != numFields {
		return model.MasterRow{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}

	amount, err := decimal.NewFromString(rec[colAmount])
	if err != nil {
		return model.MasterRow{}, fmt.Errorf("parsing amount %q: %w", rec[colAmount], err)
	}
	var confidence decimal.Decimal
	if rec[colConf] != "" {
		confidence, err = decimal.NewFromString(rec[colConf])
		if err != nil {
			return model.MasterRow{}, fmt.Errorf("parsing confidence %q: %w", rec[colConf], err)
		}
	}
	internal := false
	if rec[colInternal] != "" {
		internal, err = strconv.ParseBool(rec[colInternal])
		if err != nil {
			return model.MasterRow{}, fmt.Errorf("parsing is_internal_transfer %q: %w", rec[colInternal], err)
		}
	}
	tags := []string{}
	if rec[colTags] != "" {
		tags = strings.Split(rec[colTags], tagSeparator)
	}

	return model.MasterRow{
		TxID:                     rec[colTxID],
		ImportBatchID:            rec[colBatch],
		Source:                   model.Source(rec[colSource]),
		SourceRowID:              rec[colSourceRow],
		AccountID:                rec[colAccount],
		Date:                     rec[colDate],
		Month:                    rec[colMonth],
		Amount:                   amount.InexactFloat64(),
		Currency:                 rec[colCurrency],
		Description:              rec[colDesc],
		Counterparty:             rec[colCparty],
		PaymentMethod:            model.PaymentMethod(rec[colMethod]),
		Type:                     model.TransactionType(rec[colType]),
		Macro:                    model.Str(rec[colMacro]),
		Subcat:                   model.Str(rec[colSubcat]),
		ReimbursementTargetMacro: model.Str(rec[colReimb]),
		IncomeFixedOrVariable:    model.Str(rec[colIncomeFixed]),
		IncomeDetail:             model.Str(rec[colIncomeDet]),
		RuleID:                   model.Str(rec[colRule]),
		Note:                     model.Str(rec[colNote]),
		ReviewStatus:             model.ReviewStatus(rec[colStatus]),
		Confidence:               confidence.InexactFloat64(),
		IsInternalTransfer:       internal,
		Tags:                     tags,
		CreatedAt:                rec[colCreated],
		UpdatedAt:                rec[colUpdated],
	}, nil
}
