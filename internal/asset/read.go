package asset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadFile reads a spreadsheet into a Table. XLSX workbooks use the named
// sheet, or the first sheet when sheet is empty; .csv files are read as
// comma separated text. Any failure is an *IngestError.
func ReadFile(path, sheet string) (Table, error) {
	var (
		t   Table
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		t, err = readXLSX(path, sheet)
	case ".csv":
		t, err = readCSVFile(path)
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return Table{}, &IngestError{Source: path, Err: err}
	}
	return t, nil
}

// LoadFile reads and cleans a spreadsheet in one step.
func LoadFile(path, sheet string) ([]Record, *LoadReport, error) {
	t, err := ReadFile(path, sheet)
	if err != nil {
		return nil, nil, err
	}
	records, report, err := Load(t)
	if err != nil {
		var ie *IngestError
		if errors.As(err, &ie) && ie.Source == "" {
			ie.Source = path
		}
		return nil, nil, err
	}
	return records, report, nil
}

func readXLSX(path, sheet string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	// Raw values keep percentages and currency as plain numbers.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return tableFromRows(rows), nil
}

func readCSVFile(path string) (Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer fh.Close()
	return ReadCSV(fh)
}

// ReadCSV reads comma separated text with a header row.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return tableFromRows(rows), nil
}

// tableFromRows splits off the header and skips fully blank rows, which
// spreadsheet exports commonly leave behind.
func tableFromRows(rows [][]string) Table {
	if len(rows) == 0 {
		return Table{}
	}
	t := Table{Header: rows[0]}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
