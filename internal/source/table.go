// Package source reads and normalizes the two tabular inputs: the
// positions table and the department budgets table.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a raw tabular input before normalization. Headers keep their
// original text; matching against the column contract is exact.
type Table struct {
	Name    string // file label used in error messages
	Headers []string
	Rows    [][]string
}

// ReadTableFile reads a tabular file, dispatching on extension.
// .csv is read as CSV; .xlsx as the first sheet of a workbook.
func ReadTableFile(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSVTable(f, filepath.Base(path))
	case ".xlsx":
		return readXLSXFile(path)
	default:
		return nil, fmt.Errorf("%s: unsupported format (want .csv or .xlsx)", path)
	}
}

// ReadCSVTable reads CSV content into a Table. The first row is the
// header; short rows are padded so every row has a cell per column.
func ReadCSVTable(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: parsing csv: %w", name, err)
	}
	if len(records) == 0 {
		return &Table{Name: name}, nil
	}

	t := &Table{Name: name, Headers: records[0]}
	for _, rec := range records[1:] {
		t.Rows = append(t.Rows, padRow(rec, len(t.Headers)))
	}
	return t, nil
}

// ReadXLSXTable reads the first sheet of a workbook stream into a Table.
func ReadXLSXTable(r io.Reader, name string) (*Table, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: opening workbook: %w", name, err)
	}
	defer wb.Close()
	return sheetTable(wb, name)
}

func readXLSXFile(path string) (*Table, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer wb.Close()
	return sheetTable(wb, filepath.Base(path))
}

func sheetTable(wb *excelize.File, name string) (*Table, error) {
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return &Table{Name: name}, nil
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%s: reading sheet %q: %w", name, sheets[0], err)
	}
	if len(rows) == 0 {
		return &Table{Name: name}, nil
	}

	t := &Table{Name: name, Headers: rows[0]}
	for _, row := range rows[1:] {
		t.Rows = append(t.Rows, padRow(row, len(t.Headers)))
	}
	return t, nil
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// columnIndex returns the index of an exact header match, or -1.
// Column names are contract surface; no fuzzy matching.
func (t *Table) columnIndex(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// cell returns the trimmed cell at (row, col), or "" when col is -1.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// isBlankRow reports whether every cell in the row is empty after trimming.
func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
