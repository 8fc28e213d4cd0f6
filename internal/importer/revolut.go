package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/SamuelPereira26/Finhouse/internal/accounts"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// Revolut states whose rows never moved money.
var revolutVoidStates = map[string]bool{
	"DECLINED": true,
	"REVERTED": true,
	"FAILED":   true,
}

// RevolutParser parses Revolut CSV statements. The owning account is taken
// from owner hints in the file name.
type RevolutParser struct {
	Accounts *accounts.Service
}

// Source returns model.SourceRevolut.
func (p *RevolutParser) Source() model.Source { return model.SourceRevolut }

// Detect validates the header row and resolves the account.
func (p *RevolutParser) Detect(fileName string, content []byte) (model.SourceInfo, error) {
	header, err := readCSVHeader(content)
	if err != nil {
		return model.SourceInfo{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if err := validateColumns(model.SourceRevolut, header, revolutRequired); err != nil {
		return model.SourceInfo{}, err
	}
	return model.SourceInfo{
		Source:    model.SourceRevolut,
		AccountID: p.accountFor(fileName),
		Format:    model.FormatCSV,
		FileName:  fileName,
	}, nil
}

func (p *RevolutParser) accountFor(fileName string) string {
	if p.Accounts != nil {
		if a, ok := p.Accounts.ForFileName(accounts.RevolutPrefix, fileName); ok {
			return a.ID
		}
	}
	return accounts.RevolutJoint
}

// Parse reads every movement row. Rows without a description, or whose
// state says the payment never happened, are skipped.
func (p *RevolutParser) Parse(content []byte, info model.SourceInfo) ([]model.ParsedRow, error) {
	cr := newCSVReader(content)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading revolut CSV header: %w", err)
	}
	index := headerIndex(header)

	var rows []model.ParsedRow
	for i := 0; ; i++ {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum := i + 2
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		rec := record{index: index, values: values}

		desc := rec.column("Description", "Reference")
		if desc == "" {
			continue
		}
		if revolutVoidStates[normalize.CleanText(rec.get("State"))] {
			continue
		}

		rawDate := rec.first("Completed Date", "Date", "Started Date")
		if rawDate == "" {
			continue
		}
		date, err := normalize.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		amount := normalize.ParseAmount(rec.get("Amount"))
		currency := rec.get("Currency")
		if currency == "" {
			currency = "EUR"
		}

		rows = append(rows, model.ParsedRow{
			Source:        model.SourceRevolut,
			SourceRowID:   fmt.Sprintf("REV-%d", rowNum),
			AccountID:     info.AccountID,
			Date:          date,
			Amount:        amount,
			Currency:      currency,
			Description:   desc,
			Counterparty:  ExtractCounterparty(desc),
			PaymentMethod: DetectPaymentMethod(desc),
			Type:          MapRevolutType(rec.get("Type"), amount),
		})
	}
	return rows, nil
}

func newCSVReader(content []byte) *csv.Reader {
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func readCSVHeader(content []byte) ([]string, error) {
	header, err := newCSVReader(content).Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	return header, nil
}
