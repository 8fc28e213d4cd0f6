package importer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// readSheet returns the cells of the first sheet of an OOXML or legacy BIFF
// workbook. Legacy .xls files are tried with the BIFF reader first.
func readSheet(fileName string, content []byte) ([][]string, error) {
	if strings.HasSuffix(strings.ToLower(fileName), ".xls") {
		if rows, err := readXLS(content); err == nil {
			return rows, nil
		}
		return readXLSX(content)
	}
	rows, err := readXLSX(content)
	if err == nil {
		return rows, nil
	}
	if legacy, xlsErr := readXLS(content); xlsErr == nil {
		return legacy, nil
	}
	return nil, err
}

func readXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	// Raw values keep date serials and amounts free of display formatting.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func readXLS(content []byte) (rows [][]string, err error) {
	// The BIFF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading xls workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening xls workbook: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("xls workbook has no sheets")
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// Excel serial dates for 1954..2119; anything outside is treated as text.
const (
	minDateSerial = 20000
	maxDateSerial = 80000
)

// spreadsheetDate turns an Excel date serial into ISO form and passes every
// other value through for ParseDate.
func spreadsheetDate(raw string) (string, error) {
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= minDateSerial && serial <= maxDateSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return "", fmt.Errorf("converting date serial %q: %w", raw, err)
		}
		return normalize.FormatDate(t), nil
	}
	return normalize.ParseDate(raw)
}
