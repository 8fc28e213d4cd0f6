package importer

import (
	"fmt"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// headerSearchRows bounds how far below the bank's banner the header may sit.
const headerSearchRows = 20

// Column aliases seen across BBVA export versions.
var (
	bbvaDateCols     = []string{"Fecha", "DATE", "Date", "Fecha operación"}
	bbvaDescCols     = []string{"Concepto", "DESCRIPTION", "Description", "Detalle"}
	bbvaAmountCols   = []string{"Importe", "Amount"}
	bbvaCurrencyCols = []string{"Divisa", "Currency"}
)

// BBVAParser parses BBVA spreadsheet exports.
type BBVAParser struct {
	AccountID string
}

// Source returns model.SourceBBVA.
func (p *BBVAParser) Source() model.Source { return model.SourceBBVA }

// Detect checks that the workbook carries BBVA's required columns.
func (p *BBVAParser) Detect(fileName string, content []byte) (model.SourceInfo, error) {
	rows, err := readSheet(fileName, content)
	if err != nil {
		return model.SourceInfo{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if _, err := findHeader(model.SourceBBVA, rows, bbvaRequired); err != nil {
		return model.SourceInfo{}, err
	}
	return model.SourceInfo{
		Source:    model.SourceBBVA,
		AccountID: p.AccountID,
		Format:    model.FormatXLSX,
		FileName:  fileName,
	}, nil
}

// Parse reads every movement row. Rows without a date or description are
// blank trailers and are skipped.
func (p *BBVAParser) Parse(content []byte, info model.SourceInfo) ([]model.ParsedRow, error) {
	sheet, err := readSheet(info.FileName, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	headerAt, err := findHeader(model.SourceBBVA, sheet, bbvaRequired)
	if err != nil {
		return nil, err
	}
	index := headerIndex(sheet[headerAt])

	var rows []model.ParsedRow
	for i, values := range sheet[headerAt+1:] {
		rec := record{index: index, values: values}
		rawDate := rec.first(bbvaDateCols...)
		desc := rec.first(bbvaDescCols...)
		if rawDate == "" || desc == "" {
			continue
		}

		// 1-based sheet row of this record.
		rowNum := headerAt + i + 2
		date, err := spreadsheetDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		amount := normalize.ParseAmount(rec.first(bbvaAmountCols...))
		currency := rec.first(bbvaCurrencyCols...)
		if currency == "" {
			currency = "EUR"
		}

		rows = append(rows, model.ParsedRow{
			Source:        model.SourceBBVA,
			SourceRowID:   fmt.Sprintf("BBVA-%d", rowNum),
			AccountID:     info.AccountID,
			Date:          date,
			Amount:        amount,
			Currency:      currency,
			Description:   desc,
			Counterparty:  ExtractCounterparty(desc),
			PaymentMethod: DetectPaymentMethod(desc),
			Type:          TypeBySign(amount),
		})
	}
	return rows, nil
}

// findHeader returns the index of the first row carrying every required
// column. When none does, the error names the columns missing from the
// first non-empty row.
func findHeader(source model.Source, rows [][]string, required []string) (int, error) {
	firstNonEmpty := -1
	for i := 0; i < len(rows) && i < headerSearchRows; i++ {
		if isBlankRow(rows[i]) {
			continue
		}
		if firstNonEmpty < 0 {
			firstNonEmpty = i
		}
		if validateColumns(source, rows[i], required) == nil {
			return i, nil
		}
	}
	var header []string
	if firstNonEmpty >= 0 {
		header = rows[firstNonEmpty]
	}
	return 0, validateColumns(source, header, required)
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if trimCell(c) != "" {
			return false
		}
	}
	return true
}
